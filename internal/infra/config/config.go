// Пакет config отвечает за сбор и предоставление конфигурации процессов
// (агент-пересыльщик и генератор сессий). Он:
//  1. читает переменные окружения из .env (через godotenv), если файл есть;
//  2. нормализует и валидирует входные значения, подставляя дефолты;
//  3. копит предупреждения о подставленных значениях (Warnings);
//  4. отдаёт неизменяемый снимок через Env().
//
// Хостинг-платформы обычно пробрасывают переменные напрямую, поэтому
// отсутствие .env не считается ошибкой.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/joho/godotenv"
)

// EnvConfig описывает параметры агента, приходящие из окружения.
type EnvConfig struct {
	APIID         int
	APIHash       string
	SessionString string
	TestDC        bool
	ThrottleRPS   int
	// Команды
	DefaultDestination string
	LogChat            string
	LoggingEnabled     bool
	ReactionEmoji      string
	// Хранилище пиров и состояния апдейтов
	PeersCacheFile string
	// Логирование
	LogLevel          string
	LogFile           string
	LogFileLevel      string
	LogFileMaxSize    int
	LogFileMaxBackups int
	LogFileMaxAge     int
	LogFileCompress   bool
	// Liveness-сервер
	WebServerEnable bool
	Port            int
}

// Credentials — минимальный набор для интерактивного логина (sessiongen).
type Credentials struct {
	APIID       int
	APIHash     string
	PhoneNumber string
	TestDC      bool
}

// Config хранит конфигурацию среды и предупреждения, накопленные при чтении.
type Config struct {
	Env      EnvConfig
	warnings []string
	mu       sync.RWMutex
}

// ErrMissingCredentials — не заданы API_ID/API_HASH.
var ErrMissingCredentials = errors.New("API_ID or API_HASH missing in environment")

// Значения по умолчанию для параметров окружения.
const (
	defaultThrottleRPS        = 10
	defaultDestination        = "UsBabyUs"
	defaultLogChat            = "me"
	defaultLoggingEnabled     = true
	defaultReactionEmoji      = "⚡"
	defaultPeersCacheFile     = "data/peers.bbolt"
	defaultLogLevel           = "info"
	defaultLogFileLevel       = "debug"
	defaultLogFileMaxSize     = 50
	defaultLogFileMaxBackups  = 3
	defaultLogFileMaxAge      = 7
	defaultLogFileCompress    = true
	defaultWebServerEnable    = true
	defaultPort               = 8080
	maxPort                   = 65535
	telethonSessionVersionTag = "1"
)

var (
	cfgMu       sync.Mutex
	cfgInstance *Config
)

// Load читает .env и окружение агента и фиксирует результат в singleton.
// Повторный вызов запрещен, чтобы избежать гонок конфигурации на старте.
func Load(envPath string) error {
	cfgMu.Lock()
	defer cfgMu.Unlock()
	if cfgInstance != nil {
		return errors.New("config already loaded")
	}
	if err := loadDotEnv(envPath); err != nil {
		return err
	}
	newCfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfgInstance = newCfg
	return nil
}

// LoadCredentials читает только то, что нужно генератору сессий.
// Не трогает singleton: генератор живёт отдельным процессом.
func LoadCredentials(envPath string) (Credentials, error) {
	if err := loadDotEnv(envPath); err != nil {
		return Credentials{}, err
	}
	rawID := strings.TrimSpace(os.Getenv("API_ID"))
	apiHash := strings.TrimSpace(os.Getenv("API_HASH"))
	if rawID == "" || apiHash == "" {
		return Credentials{}, ErrMissingCredentials
	}
	apiID, err := strconv.Atoi(rawID)
	if err != nil {
		return Credentials{}, fmt.Errorf("env API_ID must be a valid integer: %w", err)
	}
	return Credentials{
		APIID:       apiID,
		APIHash:     apiHash,
		PhoneNumber: strings.TrimSpace(os.Getenv("PHONE_NUMBER")),
		TestDC:      strings.EqualFold(strings.TrimSpace(os.Getenv("TEST_DC")), "true"),
	}, nil
}

// loadDotEnv подгружает .env, не перетирая уже выставленные переменные.
// Отсутствующий файл — не ошибка.
func loadDotEnv(envPath string) error {
	if strings.TrimSpace(envPath) == "" {
		return nil
	}
	if err := godotenv.Load(envPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}

// loadConfig выполняет фактическую загрузку/валидацию без установки глобального
// состояния. Удобно для тестов: окружение задаётся через t.Setenv.
func loadConfig() (*Config, error) {
	apiID, err := parseRequiredInt("API_ID")
	if err != nil {
		return nil, err
	}

	apiHash := strings.TrimSpace(os.Getenv("API_HASH"))
	if apiHash == "" {
		return nil, errors.New("env API_HASH must be set")
	}

	sessionString := strings.TrimSpace(os.Getenv("SESSION_STRING"))
	if sessionString == "" {
		return nil, errors.New("env SESSION_STRING must be set (generate it with sessiongen)")
	}

	var warnings []string

	env := EnvConfig{
		APIID:              apiID,
		APIHash:            apiHash,
		SessionString:      sessionString,
		TestDC:             strings.EqualFold(strings.TrimSpace(os.Getenv("TEST_DC")), "true"),
		ThrottleRPS:        parseIntDefault("THROTTLE_RPS", defaultThrottleRPS, greaterThanZero, &warnings),
		DefaultDestination: sanitizeString("DEFAULT_DESTINATION", defaultDestination, &warnings),
		LogChat:            sanitizeString("LOG_CHAT", defaultLogChat, &warnings),
		LoggingEnabled:     parseBoolDefault("LOGGING_ENABLED", defaultLoggingEnabled, &warnings),
		ReactionEmoji:      sanitizeString("REACTION_EMOJI", defaultReactionEmoji, &warnings),
		PeersCacheFile:     sanitizeString("PEERS_CACHE_FILE", defaultPeersCacheFile, &warnings),
		LogLevel:           sanitizeLogLevel("LOG_LEVEL", defaultLogLevel, &warnings),
		LogFile:            strings.TrimSpace(os.Getenv("LOG_FILE")),
		LogFileLevel:       sanitizeLogLevel("LOG_FILE_LEVEL", defaultLogFileLevel, &warnings),
		LogFileMaxSize:     parseIntDefault("LOG_FILE_MAX_SIZE_MB", defaultLogFileMaxSize, greaterThanZero, &warnings),
		LogFileMaxBackups:  parseIntDefault("LOG_FILE_MAX_BACKUPS", defaultLogFileMaxBackups, nonNegative, &warnings),
		LogFileMaxAge:      parseIntDefault("LOG_FILE_MAX_AGE_DAYS", defaultLogFileMaxAge, nonNegative, &warnings),
		LogFileCompress:    parseBoolDefault("LOG_FILE_COMPRESS", defaultLogFileCompress, &warnings),
		WebServerEnable:    parseBoolDefault("WEB_SERVER_ENABLE", defaultWebServerEnable, &warnings),
		Port:               parseIntDefault("PORT", defaultPort, validPort, &warnings),
	}

	if strings.HasPrefix(sessionString, telethonSessionVersionTag) {
		appendWarningf(&warnings, "env SESSION_STRING looks like a Telethon session; it will be converted")
	}

	return &Config{Env: env, warnings: warnings}, nil
}

// Warnings возвращает копию накопленных предупреждений.
func Warnings() []string {
	c := instance()
	c.mu.RLock()
	defer c.mu.RUnlock()
	result := make([]string, len(c.warnings))
	copy(result, c.warnings)
	return result
}

// Env возвращает снимок EnvConfig. До Load возвращает нулевое значение.
func Env() EnvConfig {
	c := instance()
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Env
}

func instance() *Config {
	cfgMu.Lock()
	defer cfgMu.Unlock()
	if cfgInstance == nil {
		return &Config{}
	}
	return cfgInstance
}

// parseRequiredInt читает обязательную целочисленную переменную окружения name.
func parseRequiredInt(name string) (int, error) {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return 0, fmt.Errorf("env %s must be set", name)
	}
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("env %s must be a valid integer: %w", name, err)
	}
	return v, nil
}

// parseIntDefault читает name как int. Если пусто/некорректно/не проходит
// validator — возвращает defaultVal и пишет предупреждение.
func parseIntDefault(name string, defaultVal int, validator func(int) bool, warnings *[]string) int {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		appendWarningf(warnings, "env %s is not set; using default %d", name, defaultVal)
		return defaultVal
	}
	v, err := strconv.Atoi(value)
	if err != nil {
		appendWarningf(warnings, "env %s value %q is not a valid integer; using default %d", name, value, defaultVal)
		return defaultVal
	}
	if validator != nil && !validator(v) {
		appendWarningf(warnings, "env %s value %d does not satisfy constraints; using default %d", name, v, defaultVal)
		return defaultVal
	}
	return v
}

// parseBoolDefault читает name как bool. Если пусто/некорректно — возвращает defaultVal и пишет предупреждение.
func parseBoolDefault(name string, defaultVal bool, warnings *[]string) bool {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		appendWarningf(warnings, "env %s is not set; using default %v", name, defaultVal)
		return defaultVal
	}
	v, err := strconv.ParseBool(value)
	if err != nil {
		appendWarningf(warnings, "env %s value %q is not a valid boolean; using default %v", name, value, defaultVal)
		return defaultVal
	}
	return v
}

// sanitizeLogLevel ограничивает значения набором {debug, info, warn, error}.
func sanitizeLogLevel(name, defaultVal string, warnings *[]string) string {
	raw := os.Getenv(name)
	lvl := strings.ToLower(strings.TrimSpace(raw))
	if lvl == "" {
		appendWarningf(warnings, "env %s is not set; using default %q", name, defaultVal)
		return defaultVal
	}
	switch lvl {
	case "debug", "info", "warn", "error":
		return lvl
	default:
		appendWarningf(warnings, "env %s value %q is invalid; using default %q", name, raw, defaultVal)
		return defaultVal
	}
}

// sanitizeString возвращает обрезанное значение или fallback с предупреждением.
func sanitizeString(name, fallback string, warnings *[]string) string {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		appendWarningf(warnings, "env %s is not set; using default %q", name, fallback)
		return fallback
	}
	return v
}

func appendWarningf(warnings *[]string, format string, args ...any) {
	if warnings == nil {
		return
	}
	*warnings = append(*warnings, fmt.Sprintf(format, args...))
}

func greaterThanZero(v int) bool { return v > 0 }
func nonNegative(v int) bool     { return v >= 0 }
func validPort(v int) bool       { return v > 0 && v <= maxPort }
