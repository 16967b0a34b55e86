package config

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// AppConfig holds environment driven configuration values.
// Secrets have no defaults in code and must come from the config file or the environment.
type AppConfig struct {
	AppPort   string
	APIPrefix string
	// Auth
	JWTSecret          string
	TokenExpireMinutes int
	// Relational store
	DatabaseURL string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	// Redis (optional, rate limiting only)
	RedisURL      string
	RedisHost     string
	RedisPort     int
	RedisDB       int
	RedisPassword string
	// HTTP
	AllowedOrigins        []string
	RateLimitPerMinute    int
	ServerReadTimeoutSec  int
	ServerWriteTimeoutSec int
	// Gin framework configuration
	GinMode string
	GinPath string
	// Logging configuration
	LogLevel      string
	LogPath       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
	LogCompress   bool
	// Uploads
	MaxUploadMB    int
	StorageBackend string
	UploadDir      string
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
	// Answer generation
	AnswerProvider  string
	GenAIAPIKey     string
	GenAIModel      string
	OpenAIAPIKey    string
	OpenAIModel     string
	OpenAIBaseURL   string
	AskContextChars int
	AskTimeoutSec   int
}

var cfg AppConfig
var loaded bool

// Load loads the application configuration. It should be called once during boot.
func Load() AppConfig {
	if loaded {
		return cfg
	}

	// Precedence: environment over config/config.json; defaults fill whatever is still unset.
	if err := loadJSONConfig(filepath.Join("config", "config.json"), &cfg); err != nil {
		log.Fatalf("invalid config/config.json: %v", err)
	}
	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET_KEY must be set in environment variables")
	}

	loaded = true
	return cfg
}

// Get returns the cached configuration, loading it if necessary.
func Get() AppConfig {
	if !loaded {
		return Load()
	}
	return cfg
}

// Set replaces the cached configuration. Used by tests and tools that build config in code.
func Set(c AppConfig) {
	cfg = WithDefaults(c)
	loaded = true
}

// WithDefaults returns c with every unset field given its default.
func WithDefaults(c AppConfig) AppConfig {
	applyDefaults(&c)
	return c
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// loadJSONConfig reads grouped sections from path into out if the file exists.
// Returns error only for invalid JSON.
func loadJSONConfig(path string, out *AppConfig) error {
	f, err := os.Open(path)
	if err != nil {
		return nil // silently ignore missing file
	}
	defer f.Close()

	var raw map[string]any
	if err := json.NewDecoder(f).Decode(&raw); err != nil {
		return err
	}
	applyJSONSections(raw, out)
	return nil
}

func applyJSONSections(raw map[string]any, out *AppConfig) {
	getString := func(m map[string]any, key string) string {
		if s, ok := m[key].(string); ok {
			return s
		}
		return ""
	}
	getInt := func(m map[string]any, key string) int {
		switch t := m[key].(type) {
		case float64:
			return int(t)
		case int:
			return t
		}
		return 0
	}
	getBool := func(m map[string]any, key string) bool {
		b, _ := m[key].(bool)
		return b
	}
	getStringSlice := func(m map[string]any, key string) []string {
		arr, ok := m[key].([]any)
		if !ok {
			return nil
		}
		res := make([]string, 0, len(arr))
		for _, it := range arr {
			if s, ok := it.(string); ok {
				res = append(res, s)
			}
		}
		return res
	}

	if app, ok := raw["app"].(map[string]any); ok {
		out.AppPort = getString(app, "AppPort")
		out.APIPrefix = getString(app, "APIPrefix")
		out.JWTSecret = getString(app, "JWTSecret")
		out.TokenExpireMinutes = getInt(app, "TokenExpireMinutes")
		out.RateLimitPerMinute = getInt(app, "RateLimitPerMinute")
		out.ServerReadTimeoutSec = getInt(app, "ServerReadTimeoutSec")
		out.ServerWriteTimeoutSec = getInt(app, "ServerWriteTimeoutSec")
		if list := getStringSlice(app, "AllowedOrigins"); len(list) > 0 {
			out.AllowedOrigins = list
		}
	}

	if dbs, ok := raw["database"].(map[string]any); ok {
		out.DatabaseURL = getString(dbs, "DatabaseURL")
		out.DBHost = getString(dbs, "DBHost")
		out.DBPort = getString(dbs, "DBPort")
		out.DBUser = getString(dbs, "DBUser")
		out.DBPassword = getString(dbs, "DBPassword")
		out.DBName = getString(dbs, "DBName")
	}

	if rds, ok := raw["redis"].(map[string]any); ok {
		out.RedisURL = getString(rds, "RedisURL")
		out.RedisHost = getString(rds, "RedisHost")
		out.RedisPort = getInt(rds, "RedisPort")
		out.RedisDB = getInt(rds, "RedisDB")
		out.RedisPassword = getString(rds, "RedisPassword")
	}

	if lg, ok := raw["log"].(map[string]any); ok {
		out.LogLevel = getString(lg, "Level")
		out.LogPath = getString(lg, "Path")
		out.GinMode = getString(lg, "GinMode")
		out.GinPath = getString(lg, "GinPath")
		out.LogMaxSizeMB = getInt(lg, "MaxSizeMB")
		out.LogMaxBackups = getInt(lg, "MaxBackups")
		out.LogMaxAgeDays = getInt(lg, "MaxAgeDays")
		out.LogCompress = getBool(lg, "Compress")
	}

	if up, ok := raw["upload"].(map[string]any); ok {
		out.MaxUploadMB = getInt(up, "MaxUploadMB")
		out.StorageBackend = getString(up, "StorageBackend")
		out.UploadDir = getString(up, "UploadDir")
		out.MinioEndpoint = getString(up, "MinioEndpoint")
		out.MinioAccessKey = getString(up, "MinioAccessKey")
		out.MinioSecretKey = getString(up, "MinioSecretKey")
		out.MinioBucket = getString(up, "MinioBucket")
		out.MinioUseSSL = getBool(up, "MinioUseSSL")
	}

	if ans, ok := raw["answer"].(map[string]any); ok {
		out.AnswerProvider = getString(ans, "Provider")
		out.GenAIAPIKey = getString(ans, "GenAIAPIKey")
		out.GenAIModel = getString(ans, "GenAIModel")
		out.OpenAIAPIKey = getString(ans, "OpenAIAPIKey")
		out.OpenAIModel = getString(ans, "OpenAIModel")
		out.OpenAIBaseURL = getString(ans, "OpenAIBaseURL")
		out.AskContextChars = getInt(ans, "ContextChars")
		out.AskTimeoutSec = getInt(ans, "TimeoutSec")
	}
}

// applyDefaults sets sane defaults for zero-value fields.
func applyDefaults(c *AppConfig) {
	if c.AppPort == "" {
		c.AppPort = "8000"
	}
	if c.APIPrefix == "" {
		c.APIPrefix = "/api/v1"
	}
	if c.TokenExpireMinutes == 0 {
		c.TokenExpireMinutes = 30
	}
	if c.DBPort == "" {
		c.DBPort = "3306"
	}
	if c.DBUser == "" {
		c.DBUser = "root"
	}
	if c.DBName == "" {
		c.DBName = "docqa"
	}
	if c.RedisPort == 0 {
		c.RedisPort = 6379
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"http://localhost:9002"}
	}
	if c.RateLimitPerMinute == 0 {
		c.RateLimitPerMinute = 60
	}
	if c.ServerReadTimeoutSec == 0 {
		c.ServerReadTimeoutSec = 60
	}
	if c.GinMode == "" {
		c.GinMode = "release"
	}
	if c.GinPath == "" {
		c.GinPath = "logs/go_gin.log"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogMaxSizeMB == 0 {
		c.LogMaxSizeMB = 100
	}
	if c.LogMaxBackups == 0 {
		c.LogMaxBackups = 3
	}
	if c.LogMaxAgeDays == 0 {
		c.LogMaxAgeDays = 7
	}
	if c.MaxUploadMB == 0 {
		c.MaxUploadMB = 10
	}
	if c.StorageBackend == "" {
		c.StorageBackend = "local"
	}
	if c.UploadDir == "" {
		c.UploadDir = "uploads"
	}
	if c.MinioBucket == "" {
		c.MinioBucket = "docqa-uploads"
	}
	if c.AnswerProvider == "" {
		c.AnswerProvider = "gemini"
	}
	if c.GenAIModel == "" {
		c.GenAIModel = "gemini-2.0-flash-001"
	}
	if c.OpenAIModel == "" {
		c.OpenAIModel = "gpt-4o-mini"
	}
	if c.AskContextChars == 0 {
		c.AskContextChars = 500
	}
	if c.AskTimeoutSec == 0 {
		c.AskTimeoutSec = 60
	}
	// Writes must outlive the answer call or slow answers get cut mid-response.
	if c.ServerWriteTimeoutSec == 0 {
		c.ServerWriteTimeoutSec = c.AskTimeoutSec + 30
	}
}

// applyEnvOverrides maps known environment variables onto config values when present.
func applyEnvOverrides(c *AppConfig) {
	// JWT_SECRET_KEY comes after the legacy JWT_SECRET alias so it wins when both are set.
	strVars := []struct {
		key string
		dst *string
	}{
		{"APP_PORT", &c.AppPort},
		{"API_PREFIX", &c.APIPrefix},
		{"JWT_SECRET", &c.JWTSecret},
		{"JWT_SECRET_KEY", &c.JWTSecret},
		{"DATABASE_URL", &c.DatabaseURL},
		{"DB_HOST", &c.DBHost},
		{"DB_PORT", &c.DBPort},
		{"DB_USER", &c.DBUser},
		{"DB_PASSWORD", &c.DBPassword},
		{"DB_NAME", &c.DBName},
		{"REDIS_URL", &c.RedisURL},
		{"REDIS_HOST", &c.RedisHost},
		{"REDIS_PASSWORD", &c.RedisPassword},
		{"GIN_MODE", &c.GinMode},
		{"GIN_PATH", &c.GinPath},
		{"LOG_LEVEL", &c.LogLevel},
		{"LOG_PATH", &c.LogPath},
		{"STORAGE_BACKEND", &c.StorageBackend},
		{"UPLOAD_DIR", &c.UploadDir},
		{"MINIO_ENDPOINT", &c.MinioEndpoint},
		{"MINIO_ACCESS_KEY", &c.MinioAccessKey},
		{"MINIO_SECRET_KEY", &c.MinioSecretKey},
		{"MINIO_BUCKET", &c.MinioBucket},
		{"ANSWER_PROVIDER", &c.AnswerProvider},
		{"GENAI_API_KEY", &c.GenAIAPIKey},
		{"GENAI_MODEL", &c.GenAIModel},
		{"OPENAI_API_KEY", &c.OpenAIAPIKey},
		{"OPENAI_MODEL", &c.OpenAIModel},
		{"OPENAI_BASE_URL", &c.OpenAIBaseURL},
	}
	for _, sv := range strVars {
		if v := getEnv(sv.key, ""); v != "" {
			*sv.dst = v
		}
	}

	intVars := map[string]*int{
		"TOKEN_EXPIRE_MINUTES":     &c.TokenExpireMinutes,
		"REDIS_PORT":               &c.RedisPort,
		"REDIS_DB":                 &c.RedisDB,
		"RATE_LIMIT_PER_MINUTE":    &c.RateLimitPerMinute,
		"SERVER_READ_TIMEOUT_SEC":  &c.ServerReadTimeoutSec,
		"SERVER_WRITE_TIMEOUT_SEC": &c.ServerWriteTimeoutSec,
		"LOG_MAX_SIZE_MB":          &c.LogMaxSizeMB,
		"LOG_MAX_BACKUPS":          &c.LogMaxBackups,
		"LOG_MAX_AGE_DAYS":         &c.LogMaxAgeDays,
		"MAX_UPLOAD_MB":            &c.MaxUploadMB,
		"ASK_CONTEXT_CHARS":        &c.AskContextChars,
		"ASK_TIMEOUT_SEC":          &c.AskTimeoutSec,
	}
	for key, dst := range intVars {
		if v := getEnv(key, ""); v != "" {
			*dst = mustParseInt(v)
		}
	}

	if v := getEnv("LOG_COMPRESS", ""); v != "" {
		c.LogCompress = v == "true"
	}
	if v := getEnv("MINIO_USE_SSL", ""); v != "" {
		c.MinioUseSSL = v == "true"
	}
	if v := getEnv("ALLOWED_ORIGINS", ""); v != "" {
		c.AllowedOrigins = splitAndTrim(v)
	}
}

func mustParseInt(val string) int {
	i, err := strconv.Atoi(val)
	if err != nil {
		log.Fatalf("invalid integer value %s: %v", val, err)
	}
	return i
}

func splitAndTrim(raw string) []string {
	items := []string{}
	for _, item := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
