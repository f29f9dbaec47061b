// Package main — точка входа alertgate.
//
// alertgate читает алерты со stdin (по одному в строке: JSON или
// "CODE SEVERITY [message]"), пропускает их через rate limiter и пишет
// разрешённые алерты JSON-строками в stdout. Логи пишутся в stderr или файл.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/Kargones/alertgate/internal/config"
	"github.com/Kargones/alertgate/internal/constants"
	"github.com/Kargones/alertgate/internal/di"
	"github.com/Kargones/alertgate/internal/pkg/alerting"
	"github.com/Kargones/alertgate/internal/pkg/apperrors"
	"github.com/Kargones/alertgate/internal/pkg/logging"
	"github.com/Kargones/alertgate/internal/pkg/tracing"
)

// shutdownTimeout ограничивает push метрик и выгрузку трейсов при завершении.
const shutdownTimeout = 5 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run содержит основную логику и возвращает exit code; os.Exit вызывается
// после отработки всех defer (выгрузка трейсов, push метрик).
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet(constants.AppName, flag.ContinueOnError)
	flags.SetOutput(stderr)
	configPath := flags.String("config", os.Getenv("AG_CONFIG"), "путь к YAML-файлу конфигурации")
	showVersion := flags.Bool("version", false, "вывести версию и выйти")
	if err := flags.Parse(args); err != nil {
		return constants.ExitConfigError
	}
	if *showVersion {
		_, _ = fmt.Fprintln(stdout, constants.AppName, constants.Version)
		return constants.ExitOK
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Не удалось загрузить конфигурацию: %v\n", err)
		return constants.ExitConfigError
	}

	app, cleanup, err := di.InitializeApp(ctx, cfg)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Ошибка инициализации (%s): %v\n", apperrors.CodeOf(err), err)
		return constants.ExitInitError
	}
	defer cleanup()
	l := app.Logger
	l.Debug("Информация о сборке", "version", constants.Version)

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := app.MetricsCollector.Push(shutdownCtx); err != nil {
			l.Warn("ошибка отправки метрик", "error", err.Error())
		}
		if err := app.TracerShutdown(shutdownCtx); err != nil {
			l.Error("ошибка завершения tracing", "error", err.Error())
		}
	}()

	writer, err := alerting.NewWriterAlerter(stdout)
	if err != nil {
		l.Error("ошибка создания вывода", "error", err.Error())
		return constants.ExitInitError
	}
	out := &countingAlerter{next: writer}
	throttled, err := alerting.NewThrottledAlerter(app.Gate, out, l)
	if err != nil {
		l.Error("ошибка создания ThrottledAlerter", "error", err.Error())
		return constants.ExitInitError
	}

	runCtx, stopSweeper := context.WithCancel(ctx)
	defer stopSweeper()
	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		return app.Sweeper.Run(gctx)
	})

	var stats inputStats
	g.Go(func() error {
		defer stopSweeper()
		return processInput(gctx, stdin, throttled, l, &stats)
	})

	err = g.Wait()
	l.Info("обработка входа завершена",
		"strategy", app.Strategy.Name(),
		"received", stats.received.Load(),
		"invalid", stats.invalid.Load(),
		"forwarded", out.sent.Load(),
	)
	if err != nil {
		l.Error("обработка входа прервана", "code", apperrors.CodeOf(err), "error", err.Error())
		return constants.ExitRuntimeError
	}
	return constants.ExitOK
}

type inputStats struct {
	received atomic.Int64
	invalid  atomic.Int64
}

// processInput читает строки до EOF или отмены ctx. Чтение идёт в отдельной
// горутине: блокирующий Read не должен задерживать завершение по сигналу.
func processInput(ctx context.Context, r io.Reader, alerter alerting.Alerter, l logging.Logger, stats *inputStats) error {
	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 4096), constants.MaxInputLineSize)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			readErr <- apperrors.NewAppError(apperrors.ErrInputRead, "ошибка чтения входа", err)
		}
	}()

	tracer := otel.Tracer(constants.AppName)
	lineNo := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-readErr:
					return err
				default:
					return nil
				}
			}
			lineNo++
			alert, err := parseLine(line, time.Now())
			if errors.Is(err, errEmptyLine) {
				continue
			}
			if err != nil {
				stats.invalid.Add(1)
				l.Warn("строка пропущена", "line", lineNo, "error", err.Error())
				continue
			}
			stats.received.Add(1)
			dispatch(ctx, tracer, alerter, alert)
		}
	}
}

// dispatch передаёт алерт в alerter внутри span-а с trace ID алерта.
func dispatch(ctx context.Context, tracer trace.Tracer, alerter alerting.Alerter, alert alerting.Alert) {
	if alert.TraceID == "" {
		alert.TraceID = tracing.GenerateTraceID()
	}
	ctx = tracing.WithTraceID(ctx, alert.TraceID)
	ctx = tracing.ContextWithOTelTraceID(ctx, alert.TraceID)
	ctx, span := tracer.Start(ctx, "alertgate.alert", trace.WithAttributes(
		attribute.String("alert.error_code", alert.ErrorCode),
		attribute.String("alert.severity", alert.Severity.String()),
	))
	defer span.End()

	_ = alerter.Send(ctx, alert) // ThrottledAlerter не возвращает ошибок
}

// countingAlerter считает успешно записанные алерты.
type countingAlerter struct {
	next alerting.Alerter
	sent atomic.Int64
}

func (c *countingAlerter) Send(ctx context.Context, alert alerting.Alert) error {
	if err := c.next.Send(ctx, alert); err != nil {
		return err
	}
	c.sent.Add(1)
	return nil
}
