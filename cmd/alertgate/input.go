package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Kargones/alertgate/internal/pkg/alerting"
	"github.com/Kargones/alertgate/internal/pkg/apperrors"
	"github.com/Kargones/alertgate/internal/pkg/ratelimit"
)

// errEmptyLine — строка без алерта (пустая или комментарий), пропускается молча.
var errEmptyLine = errors.New("empty line")

// parseLine разбирает строку входа: JSON-объект алерта или "CODE SEVERITY [message]".
// Незаданный Timestamp заменяется на now. Ошибки разбора имеют код INPUT.PARSE_FAILED.
func parseLine(line string, now time.Time) (alerting.Alert, error) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return alerting.Alert{}, errEmptyLine
	}
	alert, err := parseAlert(line)
	if err != nil {
		return alerting.Alert{}, apperrors.NewAppError(apperrors.ErrInputParse, "некорректная строка алерта", err)
	}
	if alert.Timestamp.IsZero() {
		alert.Timestamp = now
	}
	return alert, nil
}

func parseAlert(line string) (alerting.Alert, error) {
	var alert alerting.Alert
	if strings.HasPrefix(line, "{") {
		if err := json.Unmarshal([]byte(line), &alert); err != nil {
			return alerting.Alert{}, fmt.Errorf("json: %w", err)
		}
	} else {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return alerting.Alert{}, fmt.Errorf("ожидается CODE SEVERITY [message], получено %d полей", len(fields))
		}
		sev, err := ratelimit.ParseSeverity(fields[1])
		if err != nil {
			return alerting.Alert{}, err
		}
		alert.ErrorCode = fields[0]
		alert.Severity = sev
		if len(fields) > 2 {
			// сообщение берём из исходной строки, чтобы сохранить пробелы
			rest := strings.TrimSpace(line[len(fields[0]):])
			alert.Message = strings.TrimSpace(rest[len(fields[1]):])
		}
	}

	if !alert.Severity.Valid() {
		return alerting.Alert{}, fmt.Errorf("%w: severity не задан", ratelimit.ErrInvalidSeverity)
	}
	return alert, nil
}
