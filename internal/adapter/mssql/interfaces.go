// Package mssql — хранилище счётчиков распределённого rate limiting в Microsoft SQL Server.
//
// Счётчик — строка таблицы (counter_key, counter_value, expires_at). Увеличение
// выполняется одним MERGE WITH (HOLDLOCK), поэтому параллельные экземпляры
// alertgate видят линейную последовательность значений. Время истечения
// считается по часам сервера (SYSUTCDATETIME), а не экземпляров.
package mssql

import "context"

// Коды ошибок MSSQL-операций.
const (
	ErrMSSQLConnect = "MSSQL.CONNECT_FAILED"
	ErrMSSQLQuery   = "MSSQL.QUERY_FAILED"
	ErrMSSQLConfig  = "MSSQL.INVALID_CONFIG"
)

// DatabaseConnector — управление соединением.
type DatabaseConnector interface {
	Connect(ctx context.Context) error
	Close() error
	Ping(ctx context.Context) error
}
