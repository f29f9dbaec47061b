package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	// драйвер sqlserver
	_ "github.com/denisenkom/go-mssqldb"

	"github.com/Kargones/alertgate/internal/pkg/ratelimit"
)

// DefaultTable — таблица счётчиков по умолчанию.
const DefaultTable = "alertgate_counters"

// tableNamePattern ограничивает имя таблицы: оно подставляется в текст запроса.
var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,127}$`)

var (
	_ ratelimit.CounterStore   = (*Store)(nil)
	_ ratelimit.ExpiredDeleter = (*Store)(nil)
	_ DatabaseConnector        = (*Store)(nil)
)

// ClientOptions — параметры подключения.
type ClientOptions struct {
	Server   string
	Port     int
	User     string
	Password string
	Database string
	// Table — имя таблицы счётчиков в схеме dbo.
	Table   string
	Timeout time.Duration
	// Encrypt включает TLS. Если не задан явно через NewStoreWithEncrypt, считается true.
	Encrypt    bool
	encryptSet bool
}

// Store реализует ratelimit.CounterStore поверх таблицы MSSQL.
// Соединение открывается в Connect.
type Store struct {
	db   *sql.DB
	opts ClientOptions

	incrQuery          string
	deletePrefixQuery  string
	deleteExpiredQuery string
	ensureSchemaQuery  string
}

// NewStore проверяет параметры и подставляет значения по умолчанию:
// порт 1433, база master, таблица DefaultTable, таймаут 30s, TLS включён.
func NewStore(opts ClientOptions) (*Store, error) {
	if opts.Server == "" {
		return nil, fmt.Errorf("%s: server is required", ErrMSSQLConfig)
	}
	if opts.Port == 0 {
		opts.Port = 1433
	}
	if opts.Port < 1 || opts.Port > 65535 {
		return nil, fmt.Errorf("%s: invalid port %d, must be between 1 and 65535", ErrMSSQLConfig, opts.Port)
	}
	if opts.Database == "" {
		opts.Database = "master"
	}
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if !opts.encryptSet {
		opts.Encrypt = true
	}
	return newStore(nil, opts)
}

// NewStoreWithEncrypt создаёт Store с явно заданным режимом TLS.
func NewStoreWithEncrypt(opts ClientOptions, encrypt bool) (*Store, error) {
	opts.Encrypt = encrypt
	opts.encryptSet = true
	return NewStore(opts)
}

// NewStoreWithDB оборачивает уже открытое соединение. Используется в тестах
// и когда *sql.DB разделяется с другим кодом.
func NewStoreWithDB(db *sql.DB, table string) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("%s: db is nil", ErrMSSQLConfig)
	}
	return newStore(db, ClientOptions{Table: table})
}

func newStore(db *sql.DB, opts ClientOptions) (*Store, error) {
	if opts.Table == "" {
		opts.Table = DefaultTable
	}
	if !tableNamePattern.MatchString(opts.Table) {
		return nil, fmt.Errorf("%s: invalid table name %q", ErrMSSQLConfig, opts.Table)
	}
	table := "[dbo].[" + opts.Table + "]"
	return &Store{
		db:                 db,
		opts:               opts,
		incrQuery:          fmt.Sprintf(incrQueryTemplate, table),
		deletePrefixQuery:  fmt.Sprintf(deletePrefixQueryTemplate, table),
		deleteExpiredQuery: fmt.Sprintf(deleteExpiredQueryTemplate, table),
		ensureSchemaQuery:  fmt.Sprintf(ensureSchemaQueryTemplate, "dbo."+opts.Table, table, opts.Table),
	}, nil
}

// Запросы. %s — имя таблицы, прошедшее tableNamePattern.
const (
	// Истёкший счётчик начинается заново с 1 и новым сроком, как INCR+PEXPIRE в Redis.
	incrQueryTemplate = `
MERGE %s WITH (HOLDLOCK) AS t
USING (SELECT @p1 AS counter_key) AS s
	ON t.counter_key = s.counter_key
WHEN MATCHED THEN
	UPDATE SET
		counter_value = CASE WHEN t.expires_at <= SYSUTCDATETIME() THEN 1 ELSE t.counter_value + 1 END,
		expires_at = CASE WHEN t.expires_at <= SYSUTCDATETIME()
			THEN DATEADD(MILLISECOND, @p2, SYSUTCDATETIME()) ELSE t.expires_at END
WHEN NOT MATCHED THEN
	INSERT (counter_key, counter_value, expires_at)
	VALUES (@p1, 1, DATEADD(MILLISECOND, @p2, SYSUTCDATETIME()))
OUTPUT inserted.counter_value;`

	deletePrefixQueryTemplate = `DELETE FROM %s WHERE counter_key LIKE @p1 ESCAPE '\';`

	deleteExpiredQueryTemplate = `DELETE FROM %s WHERE expires_at <= SYSUTCDATETIME();`

	ensureSchemaQueryTemplate = `
IF OBJECT_ID(N'%s', N'U') IS NULL
CREATE TABLE %s (
	counter_key   NVARCHAR(450) NOT NULL CONSTRAINT PK_%s PRIMARY KEY,
	counter_value BIGINT        NOT NULL,
	expires_at    DATETIME2(3)  NOT NULL
);`
)

// Connect открывает соединение и проверяет его ping-ом.
func (s *Store) Connect(ctx context.Context) error {
	encryptMode := "true"
	if !s.opts.Encrypt {
		encryptMode = "disable"
	}
	connString := fmt.Sprintf(
		"server=%s;user id=%s;password=%s;port=%d;database=%s;encrypt=%s;connection timeout=%d",
		escapeConnStringParam(s.opts.Server),
		escapeConnStringParam(s.opts.User),
		escapeConnStringParam(s.opts.Password),
		s.opts.Port,
		escapeConnStringParam(s.opts.Database),
		encryptMode,
		int(s.opts.Timeout.Seconds()),
	)

	db, err := sql.Open("sqlserver", connString)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMSSQLConnect, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close() //nolint:errcheck // ошибка ping важнее
		if ctx.Err() != nil {
			return fmt.Errorf("%s: context cancelled during ping: %w", ErrMSSQLConnect, ctx.Err())
		}
		return fmt.Errorf("%s: ping failed: %w", ErrMSSQLConnect, err)
	}
	s.db = db
	return nil
}

// escapeConnStringParam экранирует ; и = в значениях connection string.
func escapeConnStringParam(v string) string {
	return url.QueryEscape(v)
}

// Close закрывает соединение.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Ping проверяет доступность сервера.
func (s *Store) Ping(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("%s: connection not established", ErrMSSQLConnect)
	}
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%s: %w", ErrMSSQLConnect, err)
	}
	return nil
}

// EnsureSchema создаёт таблицу счётчиков, если её нет.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("%s: connection not established", ErrMSSQLQuery)
	}
	if _, err := s.db.ExecContext(ctx, s.ensureSchemaQuery); err != nil {
		return fmt.Errorf("%s: create table: %w", ErrMSSQLQuery, err)
	}
	return nil
}

// Incr атомарно увеличивает счётчик key. Новый или истёкший счётчик получает
// значение 1 и срок жизни ttl.
func (s *Store) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	if s.db == nil {
		return 0, fmt.Errorf("%s: connection not established", ErrMSSQLQuery)
	}
	var value sql.NullInt64
	err := s.db.QueryRowContext(ctx, s.incrQuery, key, ttl.Milliseconds()).Scan(&value)
	if err != nil {
		// драйвер при отмене возвращает собственную ошибку, причину берём из ctx
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, fmt.Errorf("%s: incr: %w", ErrMSSQLQuery, ctxErr)
		}
		return 0, fmt.Errorf("%s: incr: %w", ErrMSSQLQuery, err)
	}
	if !value.Valid {
		return 0, fmt.Errorf("%w: NULL counter_value", ratelimit.ErrUnexpectedReply)
	}
	return value.Int64, nil
}

// DeleteByPrefix удаляет счётчики с ключом, начинающимся с prefix.
func (s *Store) DeleteByPrefix(ctx context.Context, prefix string) error {
	if s.db == nil {
		return fmt.Errorf("%s: connection not established", ErrMSSQLQuery)
	}
	if _, err := s.db.ExecContext(ctx, s.deletePrefixQuery, escapeLike(prefix)+"%"); err != nil {
		return fmt.Errorf("%s: delete by prefix: %w", ErrMSSQLQuery, err)
	}
	return nil
}

// DeleteExpired удаляет истёкшие счётчики и возвращает их количество.
// MSSQL не удаляет строки по TTL сам, поэтому Store регистрируется в Sweeper.
func (s *Store) DeleteExpired(ctx context.Context) (int64, error) {
	if s.db == nil {
		return 0, fmt.Errorf("%s: connection not established", ErrMSSQLQuery)
	}
	res, err := s.db.ExecContext(ctx, s.deleteExpiredQuery)
	if err != nil {
		return 0, fmt.Errorf("%s: delete expired: %w", ErrMSSQLQuery, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: rows affected: %w", ErrMSSQLQuery, err)
	}
	return n, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`, `[`, `\[`)

// escapeLike экранирует спецсимволы LIKE под ESCAPE '\'.
func escapeLike(v string) string {
	return likeEscaper.Replace(v)
}
