// Package constants содержит константы уровня приложения alertgate.
package constants

// Version — версия сборки, задаётся при сборке:
//
//	go build -ldflags "-X github.com/Kargones/alertgate/internal/constants.Version=1.4.0" ./cmd/alertgate
var Version = "dev"

// AppName — имя приложения в логах, метриках и service.name трейсов.
const AppName = "alertgate"

// Коды завершения процесса.
const (
	// ExitOK — штатное завершение.
	ExitOK = 0
	// ExitConfigError — ошибка загрузки или проверки конфигурации.
	ExitConfigError = 2
	// ExitInitError — ошибка инициализации зависимостей.
	ExitInitError = 3
	// ExitRuntimeError — ошибка чтения входа или записи результата.
	ExitRuntimeError = 4
)

// MaxInputLineSize — максимальная длина строки алерта на stdin в байтах.
const MaxInputLineSize = 64 * 1024
