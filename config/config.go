package config

import (
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type Config struct {
	// Server settings
	ServerPort   string        `json:"server_port"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	IdleTimeout  time.Duration `json:"idle_timeout"`
	Debug        bool          `json:"debug"`
	Env          string        `json:"env"`

	// Application paths
	LogDir   string `json:"log_dir"`
	LogLevel string `json:"log_level"`
	TempDir  string `json:"temp_dir"`

	CORS      CORSConfig      `json:"cors"`
	RateLimit RateLimitConfig `json:"rate_limit"`
	Database  DatabaseConfig  `json:"database"`
	Sources   SourcesConfig   `json:"sources"`
	LLM       LLMConfig       `json:"llm"`
	Summary   SummaryConfig   `json:"summary"`
	Quiz      QuizConfig      `json:"quiz"`
	Media     MediaConfig     `json:"media"`
	Storage   StorageConfig   `json:"storage"`

	Version string `json:"version"`

	// Request and shutdown timeouts
	RequestTimeout  time.Duration `json:"request_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Path               string        `json:"path"`
	MaxConnections     int           `json:"max_connections"`
	MaxIdleConnections int           `json:"max_idle_connections"`
	ConnMaxLifetime    time.Duration `json:"conn_max_lifetime"`
}

type CORSConfig struct {
	Enabled          bool     `json:"enabled"`
	AllowedOrigins   []string `json:"allowed_origins"`
	AllowedMethods   []string `json:"allowed_methods"`
	AllowedHeaders   []string `json:"allowed_headers"`
	ExposedHeaders   []string `json:"exposed_headers"`
	AllowCredentials bool     `json:"allow_credentials"`
	MaxAge           int      `json:"max_age"`
}

type RateLimitConfig struct {
	Enabled           bool `json:"enabled"`
	RequestsPerMinute int  `json:"requests_per_minute"`
	BurstSize         int  `json:"burst_size"`
}

// SourcesConfig controls the transcript fallback chain. Cookie and proxy
// values are handed to the extractors as-is.
type SourcesConfig struct {
	CookiesFromBrowser string        `json:"cookies_from_browser"`
	CookiesFile        string        `json:"cookies_file"`
	Proxies            []string      `json:"proxies"`
	YtDlpProxy         string        `json:"ytdlp_proxy"`
	YtDlpAutoInstall   bool          `json:"ytdlp_auto_install"`
	StepTimeout        time.Duration `json:"step_timeout"`
	HTTPTimeout        time.Duration `json:"http_timeout"`
	CacheTTL           time.Duration `json:"cache_ttl"`
}

type LLMConfig struct {
	Provider     string        `json:"provider"`
	APIKey       string        `json:"-"`
	BaseURL      string        `json:"base_url"`
	Model        string        `json:"model"`
	GeminiAPIKey string        `json:"-"`
	Timeout      time.Duration `json:"timeout"`
}

type SummaryConfig struct {
	ChunkSize   int    `json:"chunk_size"`
	DefaultLang string `json:"default_lang"`
}

type QuizConfig struct {
	DefaultQuestions int    `json:"default_questions"`
	MinQuestions     int    `json:"min_questions"`
	MaxQuestions     int    `json:"max_questions"`
	DefaultGrade     string `json:"default_grade"`
}

type MediaConfig struct {
	DownloadDir   string        `json:"download_dir"`
	WarnSize      int64         `json:"warn_size"`
	MaxSize       int64         `json:"max_size"`
	SocketTimeout time.Duration `json:"socket_timeout"`
	Retries       int           `json:"retries"`
}

type StorageConfig struct {
	AccessKey          string `json:"-"`
	SecretKey          string `json:"-"`
	Region             string `json:"region"`
	Endpoint           string `json:"endpoint"`
	Bucket             string `json:"bucket"`
	ArchiveTranscripts bool   `json:"archive_transcripts"`
}

// Enabled reports whether object storage has enough settings to be used.
func (s StorageConfig) Enabled() bool {
	return s.Bucket != "" && s.AccessKey != "" && s.SecretKey != ""
}

// CookieBrowsers lists the browsers yt-dlp can read cookies from.
var CookieBrowsers = []string{"none", "chrome", "firefox", "edge", "safari", "opera", "chromium"}

// Load reads configuration from environment variables, after merging an optional .env file.
func Load() (*Config, error) {
	envFile := getEnv("ENV_FILE", ".env")
	if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "failed to load %s", envFile)
	}

	cfg := &Config{
		ServerPort:   getEnv("SERVER_PORT", "8080"),
		ReadTimeout:  getEnvAsDuration("READ_TIMEOUT", 15*time.Second),
		WriteTimeout: getEnvAsDuration("WRITE_TIMEOUT", 10*time.Minute),
		IdleTimeout:  getEnvAsDuration("IDLE_TIMEOUT", 60*time.Second),
		Debug:        getEnvAsBool("DEBUG", false),
		Env:          getEnv("ENV", "development"),

		LogDir:   getEnv("LOG_DIR", ""),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		TempDir:  getEnv("TEMP_DIR", filepath.Join(os.TempDir(), "yt-quiz")),

		Version: getEnv("VERSION", "1.0.0"),

		RequestTimeout:  getEnvAsDuration("REQUEST_TIMEOUT", 10*time.Minute),
		ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 30*time.Second),

		CORS: CORSConfig{
			Enabled:        getEnvAsBool("CORS_ENABLED", true),
			AllowedOrigins: getEnvAsStringSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
			AllowedMethods: getEnvAsStringSlice(
				"CORS_ALLOWED_METHODS",
				[]string{"GET", "POST", "OPTIONS"},
			),
			AllowedHeaders:   getEnvAsStringSlice("CORS_ALLOWED_HEADERS", []string{"Content-Type"}),
			ExposedHeaders:   getEnvAsStringSlice("CORS_EXPOSED_HEADERS", []string{"X-Request-ID"}),
			AllowCredentials: getEnvAsBool("CORS_ALLOW_CREDENTIALS", false),
			MaxAge:           getEnvAsInt("CORS_MAX_AGE", 86400),
		},

		RateLimit: RateLimitConfig{
			Enabled:           getEnvAsBool("RATE_LIMIT_ENABLED", true),
			RequestsPerMinute: getEnvAsInt("RATE_LIMIT_RPM", 60),
			BurstSize:         getEnvAsInt("RATE_LIMIT_BURST", 10),
		},

		Database: DatabaseConfig{
			Path:               getEnv("DB_PATH", "./data/yt-quiz.db"),
			MaxConnections:     getEnvAsInt("DB_MAX_CONNECTIONS", 10),
			MaxIdleConnections: getEnvAsInt("DB_MAX_IDLE_CONNECTIONS", 5),
			ConnMaxLifetime:    getEnvAsDuration("DB_CONN_MAX_LIFETIME", time.Hour),
		},

		Sources: SourcesConfig{
			CookiesFromBrowser: strings.ToLower(getEnv("COOKIES_FROM_BROWSER", "none")),
			CookiesFile:        getEnv("COOKIES_FILE", ""),
			Proxies:            getEnvAsStringSlice("CAPTION_PROXIES", []string{}),
			YtDlpProxy:         getEnv("YTDLP_PROXY", ""),
			YtDlpAutoInstall:   getEnvAsBool("YTDLP_AUTO_INSTALL", false),
			StepTimeout:        getEnvAsDuration("SOURCE_STEP_TIMEOUT", 90*time.Second),
			HTTPTimeout:        getEnvAsDuration("SOURCE_HTTP_TIMEOUT", 30*time.Second),
			CacheTTL:           getEnvAsDuration("TRANSCRIPT_CACHE_TTL", 7*24*time.Hour),
		},

		LLM: LLMConfig{
			Provider:     strings.ToLower(getEnv("LLM_PROVIDER", "openai")),
			APIKey:       getEnv("OPENAI_API_KEY", ""),
			BaseURL:      getEnv("OPENAI_BASE_URL", ""),
			Model:        getEnv("LLM_MODEL", "Meta-Llama-4-Maverick-17B-128E-Instruct-FP8"),
			GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
			Timeout:      getEnvAsDuration("LLM_TIMEOUT", 3*time.Minute),
		},

		Summary: SummaryConfig{
			ChunkSize:   getEnvAsInt("CHUNK_SIZE", 100000),
			DefaultLang: getEnv("DEFAULT_LANG", "en"),
		},

		Quiz: QuizConfig{
			DefaultQuestions: getEnvAsInt("QUIZ_DEFAULT_QUESTIONS", 5),
			MinQuestions:     1,
			MaxQuestions:     getEnvAsInt("QUIZ_MAX_QUESTIONS", 20),
			DefaultGrade:     getEnv("QUIZ_DEFAULT_GRADE", "10"),
		},

		Media: MediaConfig{
			DownloadDir:   getEnv("DOWNLOAD_DIR", "./downloads"),
			WarnSize:      getEnvAsInt64("DOWNLOAD_WARN_SIZE", 100*1024*1024),
			MaxSize:       getEnvAsInt64("DOWNLOAD_MAX_SIZE", 500*1024*1024),
			SocketTimeout: getEnvAsDuration("DOWNLOAD_SOCKET_TIMEOUT", 30*time.Second),
			Retries:       getEnvAsInt("DOWNLOAD_RETRIES", 3),
		},

		Storage: StorageConfig{
			AccessKey:          getEnv("STORAGE_ACCESS_KEY", ""),
			SecretKey:          getEnv("STORAGE_SECRET_KEY", ""),
			Region:             getEnv("STORAGE_REGION", "us-east-1"),
			Endpoint:           getEnv("STORAGE_ENDPOINT", ""),
			Bucket:             getEnv("STORAGE_BUCKET", ""),
			ArchiveTranscripts: getEnvAsBool("TRANSCRIPT_ARCHIVE", false),
		},
	}

	if cfg.Env == "production" {
		cfg.Debug = false
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if err := validateTimeouts(c); err != nil {
		return err
	}

	if err := validateSources(c); err != nil {
		return err
	}

	if err := validateServices(c); err != nil {
		return err
	}

	return validatePaths(c)
}

func validatePaths(c *Config) error {
	paths := []struct {
		path string
		name string
	}{
		{c.TempDir, "temp directory"},
		{filepath.Dir(c.Database.Path), "database directory"},
		{c.Media.DownloadDir, "download directory"},
	}
	if c.LogDir != "" {
		paths = append(paths, struct {
			path string
			name string
		}{c.LogDir, "log directory"})
	}

	for _, p := range paths {
		if p.path == "" {
			continue
		}
		if err := os.MkdirAll(p.path, 0755); err != nil {
			return errors.Wrapf(err, "failed to create %s", p.name)
		}
	}

	return nil
}

func validateTimeouts(c *Config) error {
	if c.ServerPort == "" {
		return errors.New("server port is required")
	}
	if c.ReadTimeout <= 0 {
		return errors.New("read timeout must be positive")
	}
	if c.WriteTimeout <= 0 {
		return errors.New("write timeout must be positive")
	}
	if c.Sources.StepTimeout <= 0 {
		return errors.New("source step timeout must be positive")
	}
	return nil
}

func validateSources(c *Config) error {
	if !IsCookieBrowser(c.Sources.CookiesFromBrowser) {
		return errors.Errorf(
			"unsupported cookie browser %q (want one of %s)",
			c.Sources.CookiesFromBrowser,
			strings.Join(CookieBrowsers, ", "),
		)
	}

	if c.Sources.CookiesFile != "" && !strings.HasSuffix(strings.ToLower(c.Sources.CookiesFile), ".txt") {
		return errors.New("cookie file must be a Netscape-format .txt file")
	}

	for _, p := range c.Sources.Proxies {
		u, err := url.Parse(p)
		if err != nil {
			return errors.Wrapf(err, "invalid proxy %q", p)
		}
		if u.Scheme == "" || u.Host == "" {
			return errors.Errorf("proxy %q must include scheme and host", p)
		}
	}

	return nil
}

func validateServices(c *Config) error {
	if c.Summary.ChunkSize <= 0 {
		return errors.New("chunk size must be positive")
	}
	if c.Quiz.MaxQuestions < c.Quiz.MinQuestions {
		return errors.New("quiz max questions must not be below min questions")
	}
	if c.Quiz.DefaultQuestions < c.Quiz.MinQuestions || c.Quiz.DefaultQuestions > c.Quiz.MaxQuestions {
		return errors.Errorf(
			"default quiz questions must be between %d and %d",
			c.Quiz.MinQuestions,
			c.Quiz.MaxQuestions,
		)
	}
	if c.Media.MaxSize > 0 && c.Media.WarnSize > c.Media.MaxSize {
		return errors.New("download warn size must not exceed max size")
	}
	switch c.LLM.Provider {
	case "openai", "gemini":
	default:
		return errors.Errorf("unsupported LLM provider %q", c.LLM.Provider)
	}
	return nil
}

// IsCookieBrowser reports whether name is an accepted cookie source.
func IsCookieBrowser(name string) bool {
	for _, b := range CookieBrowsers {
		if b == name {
			return true
		}
	}
	return false
}

// UsesCookies reports whether any cookie source is configured.
func (s SourcesConfig) UsesCookies() bool {
	return (s.CookiesFromBrowser != "" && s.CookiesFromBrowser != "none") || s.CookiesFile != ""
}

// Helper functions for reading environment variables
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
		warnInvalid(key, value, defaultValue)
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
		warnInvalid(key, value, defaultValue)
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
		warnInvalid(key, value, defaultValue)
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		warnInvalid(key, value, defaultValue)
	}
	return defaultValue
}

func getEnvAsStringSlice(key string, defaultValue []string) []string {
	if value, exists := os.LookupEnv(key); exists {
		if value = strings.TrimSpace(value); value != "" {
			parts := strings.Split(value, ",")
			out := make([]string, 0, len(parts))
			for _, p := range parts {
				if p = strings.TrimSpace(p); p != "" {
					out = append(out, p)
				}
			}
			return out
		}
	}
	return defaultValue
}

func warnInvalid(key, value string, defaultValue interface{}) {
	logrus.WithFields(logrus.Fields{
		"key":          key,
		"value":        value,
		"defaultValue": defaultValue,
	}).Warn("Invalid value, using default")
}
