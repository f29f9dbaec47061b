package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"

	"github.com/Kargones/alertgate/internal/pkg/apperrors"
)

//go:embed schema/config.schema.json
var schemaSource []byte

const schemaLocation = "config.schema.json"

// compiledSchema компилирует встроенную схему один раз на процесс.
var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaSource))
	if err != nil {
		return nil, err
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaLocation, doc); err != nil {
		return nil, err
	}
	return c.Compile(schemaLocation)
})

// Load загружает конфигурацию. При пустом path используются только переменные
// окружения и значения по умолчанию. Переменные AG_* имеют приоритет над файлом.
func Load(path string) (*Config, error) {
	var cfg Config
	if path == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, apperrors.NewAppError(apperrors.ErrConfigLoad,
				"ошибка чтения переменных окружения", err)
		}
	} else {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, apperrors.NewAppError(apperrors.ErrConfigLoad,
				fmt.Sprintf("не удалось прочитать файл %s", path), err)
		}
		if err := ValidateDocument(data); err != nil {
			return nil, apperrors.NewAppError(apperrors.ErrConfigValidate,
				fmt.Sprintf("файл %s не соответствует схеме", path), err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, apperrors.NewAppError(apperrors.ErrConfigParse,
				fmt.Sprintf("ошибка разбора файла %s", path), err)
		}
		// env перекрывает файл, env-default заполняет незаданные поля
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, apperrors.NewAppError(apperrors.ErrConfigLoad,
				"ошибка чтения переменных окружения", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ValidateDocument проверяет YAML-документ конфигурации по встроенной JSON Schema.
// Пустой документ валиден.
func ValidateDocument(data []byte) error {
	schema, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("yaml: %w", err)
	}
	if doc == nil {
		doc = map[string]any{}
	}
	// схема проверяет JSON-значения: приводим YAML к ним через кодирование
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("yaml to json: %w", err)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("yaml to json: %w", err)
	}
	return schema.Validate(inst)
}
