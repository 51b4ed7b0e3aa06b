// Пакет config — загрузка и валидация конфигурации Structure Service
// из переменных окружения.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// DefaultMaxFileSize — потолок размера файла: 50 MiB.
// Проверяется до декодирования, чтобы не тратить работу впустую.
const DefaultMaxFileSize = 50 << 20

// Config содержит все параметры конфигурации Structure Service.
type Config struct {
	// Порт HTTP-сервера (диапазон 8020-8029)
	Port int
	// Уникальный идентификатор экземпляра (например, "sv-main-01")
	ServiceID string
	// Максимальный размер загружаемого файла в байтах
	MaxFileSize int64
	// Базовый URL внешней базы структур (fetch по 4-символьному ID)
	FetchBaseURL string
	// Таймаут HTTP-запросов remote fetch
	FetchTimeout time.Duration
	// Размер LRU-кэша загруженных структур (записей)
	FetchCacheSize int
	// TTL записей кэша загруженных структур
	FetchCacheTTL time.Duration
	// URL JWKS endpoint для JWT-аутентификации (опционально,
	// пустая строка — запуск без аутентификации)
	JWKSUrl string
	// Путь к CA-сертификату для проверки TLS JWKS endpoint (опционально)
	JWKSCACert string
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string
	// Таймаут graceful shutdown HTTP-сервера
	ShutdownTimeout time.Duration
	// Интервал проверки зависимостей topologymetrics
	DephealthCheckInterval time.Duration
	// Имя группы в метриках topologymetrics (SV_DEPHEALTH_GROUP)
	DephealthGroup string
	// Имя зависимости (внешней базы структур) в метриках topologymetrics
	DephealthDepName string
	// Имя владельца пода для метки name в topologymetrics (DEPHEALTH_NAME)
	DephealthName string
}

// Load загружает конфигурацию из переменных окружения, валидирует
// обязательные поля и возвращает Config или ошибку.
func Load() (*Config, error) {
	cfg := &Config{}

	// SV_PORT — порт HTTP-сервера (по умолчанию 8020)
	port, err := getEnvInt("SV_PORT", 8020)
	if err != nil {
		return nil, fmt.Errorf("SV_PORT: %w", err)
	}
	if port < 8020 || port > 8029 {
		return nil, fmt.Errorf("SV_PORT: значение %d вне допустимого диапазона 8020-8029", port)
	}
	cfg.Port = port

	// SV_SERVICE_ID — обязательный
	cfg.ServiceID, err = getEnvRequired("SV_SERVICE_ID")
	if err != nil {
		return nil, err
	}

	// SV_MAX_FILE_SIZE — максимальный размер файла (по умолчанию 50 MiB)
	maxFileSize, err := getEnvInt64("SV_MAX_FILE_SIZE", DefaultMaxFileSize)
	if err != nil {
		return nil, fmt.Errorf("SV_MAX_FILE_SIZE: %w", err)
	}
	if maxFileSize <= 0 {
		return nil, fmt.Errorf("SV_MAX_FILE_SIZE: значение должно быть положительным")
	}
	cfg.MaxFileSize = maxFileSize

	// SV_FETCH_BASE_URL — базовый URL внешней базы структур
	cfg.FetchBaseURL = getEnvDefault("SV_FETCH_BASE_URL", "https://files.rcsb.org/download")

	// SV_FETCH_TIMEOUT — таймаут remote fetch (по умолчанию 30s)
	cfg.FetchTimeout, err = getEnvDuration("SV_FETCH_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("SV_FETCH_TIMEOUT: %w", err)
	}

	// SV_FETCH_CACHE_SIZE — размер LRU-кэша (по умолчанию 64 записи)
	cfg.FetchCacheSize, err = getEnvInt("SV_FETCH_CACHE_SIZE", 64)
	if err != nil {
		return nil, fmt.Errorf("SV_FETCH_CACHE_SIZE: %w", err)
	}
	if cfg.FetchCacheSize <= 0 {
		return nil, fmt.Errorf("SV_FETCH_CACHE_SIZE: значение должно быть положительным")
	}

	// SV_FETCH_CACHE_TTL — TTL кэша (по умолчанию 15m)
	cfg.FetchCacheTTL, err = getEnvDuration("SV_FETCH_CACHE_TTL", 15*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("SV_FETCH_CACHE_TTL: %w", err)
	}

	// SV_JWKS_URL — опциональный (пустая строка — без аутентификации)
	cfg.JWKSUrl = getEnvDefault("SV_JWKS_URL", "")

	// SV_JWKS_CA_CERT — путь к CA-сертификату для JWKS endpoint (опционально)
	cfg.JWKSCACert = getEnvDefault("SV_JWKS_CA_CERT", "")

	// SV_LOG_LEVEL — уровень логирования (по умолчанию info)
	cfg.LogLevel, err = parseLogLevel(getEnvDefault("SV_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("SV_LOG_LEVEL: %w", err)
	}

	// SV_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("SV_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("SV_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	// SV_SHUTDOWN_TIMEOUT — таймаут graceful shutdown (по умолчанию 5s)
	cfg.ShutdownTimeout, err = getEnvDuration("SV_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("SV_SHUTDOWN_TIMEOUT: %w", err)
	}

	// SV_DEPHEALTH_CHECK_INTERVAL — интервал проверки зависимостей (по умолчанию 15s)
	cfg.DephealthCheckInterval, err = getEnvDuration("SV_DEPHEALTH_CHECK_INTERVAL", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("SV_DEPHEALTH_CHECK_INTERVAL: %w", err)
	}

	// SV_DEPHEALTH_GROUP — имя группы в метриках topologymetrics
	cfg.DephealthGroup = getEnvDefault("SV_DEPHEALTH_GROUP", "structure-service")

	// SV_DEPHEALTH_DEP_NAME — имя зависимости в метриках topologymetrics
	cfg.DephealthDepName = getEnvDefault("SV_DEPHEALTH_DEP_NAME", "structure-db")

	// DEPHEALTH_NAME — имя владельца пода для метки name в topologymetrics
	cfg.DephealthName = getEnvDefault("DEPHEALTH_NAME", "")

	return cfg, nil
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvRequired возвращает значение переменной окружения или ошибку, если она не задана.
func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvInt64 возвращает int64 значение переменной окружения или значение по умолчанию.
func getEnvInt64(key string, defaultVal int64) (int64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 15m, 1h)", val)
	}
	return d, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}
