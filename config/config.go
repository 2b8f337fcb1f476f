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
// Sensitive data should never have defaults inside code and must be provided via config.json or the environment.
type AppConfig struct {
	AppPort            string
	BaseURL            string
	JWTSecret          string
	RateLimitPerMinute int
	AllowedOrigins     []string
	AdminUsernames     []string

	// Database
	DatabaseURI string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string

	// Redis for caching, verification codes and OAuth state
	RedisHost     string
	RedisPort     int
	RedisDB       int
	RedisPassword string

	// OAuth (GitHub sign-in also powers the repository/commit integration)
	GitHubClientID     string
	GitHubClientSecret string

	// Generative AI
	GoogleAIKey string
	GeminiModel string

	// Stripe
	StripeSecretKey       string
	StripeWebhookSecret   string
	StripePricePro        string
	StripePriceEnterprise string

	// Notion (per-user tokens; the parent page anchors created pages)
	NotionParentPageID string

	// Comment moderation
	SpamKeywords []string

	// SMTP for email verification
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
	SMTPFromName string
	SMTPTLS      bool

	// Uploads
	UploadsTTLMinutes int

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

	// Registration abuse controls
	RegisterMaxPerIPPerDay     int
	RegisterAttemptCooldownSec int
}

var cfg AppConfig
var loaded bool

// Load loads the application configuration. It should be called once during boot.
// Precedence: config/config.json -> defaults -> environment variable overrides.
func Load() AppConfig {
	if loaded {
		return cfg
	}

	_ = loadJSONConfig(filepath.Join("config", "config.json"), &cfg)
	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET must be set in environment variables")
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

// loadJSONConfig reads a grouped JSON file into cfg if present. Returns error only for invalid JSON.
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
		out.BaseURL = getString(app, "BaseURL")
		out.JWTSecret = getString(app, "JWTSecret")
		if v := getInt(app, "RateLimitPerMinute"); v != 0 {
			out.RateLimitPerMinute = v
		}
		if list := getStringSlice(app, "AllowedOrigins"); len(list) > 0 {
			out.AllowedOrigins = list
		}
		if list := getStringSlice(app, "AdminUsernames"); len(list) > 0 {
			out.AdminUsernames = list
		}
		if v := getInt(app, "UploadsTTLMinutes"); v != 0 {
			out.UploadsTTLMinutes = v
		}
	}

	if dbs, ok := raw["database"].(map[string]any); ok {
		out.DatabaseURI = getString(dbs, "DatabaseURI")
		out.DBHost = getString(dbs, "DBHost")
		out.DBPort = getString(dbs, "DBPort")
		out.DBUser = getString(dbs, "DBUser")
		out.DBPassword = getString(dbs, "DBPassword")
		out.DBName = getString(dbs, "DBName")
	}

	if rds, ok := raw["redis"].(map[string]any); ok {
		out.RedisHost = getString(rds, "RedisHost")
		if v := getInt(rds, "RedisPort"); v != 0 {
			out.RedisPort = v
		}
		if v := getInt(rds, "RedisDB"); v != 0 {
			out.RedisDB = v
		}
		out.RedisPassword = getString(rds, "RedisPassword")
	}

	if oa, ok := raw["oauth"].(map[string]any); ok {
		out.GitHubClientID = getString(oa, "GitHubClientID")
		out.GitHubClientSecret = getString(oa, "GitHubClientSecret")
	}

	if ai, ok := raw["ai"].(map[string]any); ok {
		out.GoogleAIKey = getString(ai, "GoogleAIKey")
		out.GeminiModel = getString(ai, "GeminiModel")
	}

	if st, ok := raw["stripe"].(map[string]any); ok {
		out.StripeSecretKey = getString(st, "SecretKey")
		out.StripeWebhookSecret = getString(st, "WebhookSecret")
		out.StripePricePro = getString(st, "PricePro")
		out.StripePriceEnterprise = getString(st, "PriceEnterprise")
	}

	if nt, ok := raw["notion"].(map[string]any); ok {
		out.NotionParentPageID = getString(nt, "ParentPageID")
	}

	if md, ok := raw["moderation"].(map[string]any); ok {
		if list := getStringSlice(md, "SpamKeywords"); len(list) > 0 {
			out.SpamKeywords = list
		}
	}

	if sm, ok := raw["smtp"].(map[string]any); ok {
		out.SMTPHost = getString(sm, "SMTPHost")
		if v := getInt(sm, "SMTPPort"); v != 0 {
			out.SMTPPort = v
		}
		out.SMTPUsername = getString(sm, "SMTPUsername")
		out.SMTPPassword = getString(sm, "SMTPPassword")
		out.SMTPFrom = getString(sm, "SMTPFrom")
		out.SMTPFromName = getString(sm, "SMTPFromName")
		out.SMTPTLS = getBool(sm, "SMTPTLS")
	}

	if lg, ok := raw["log"].(map[string]any); ok {
		if v := getString(lg, "Level"); v != "" {
			out.LogLevel = v
		}
		if v := getString(lg, "Path"); v != "" {
			out.LogPath = v
		}
		if v := getString(lg, "GinMode"); v != "" {
			out.GinMode = v
		}
		if v := getString(lg, "GinPath"); v != "" {
			out.GinPath = v
		}
		if v := getInt(lg, "MaxSizeMB"); v != 0 {
			out.LogMaxSizeMB = v
		}
		if v := getInt(lg, "MaxBackups"); v != 0 {
			out.LogMaxBackups = v
		}
		if v := getInt(lg, "MaxAgeDays"); v != 0 {
			out.LogMaxAgeDays = v
		}
		out.LogCompress = getBool(lg, "Compress")
	}

	if rg, ok := raw["register"].(map[string]any); ok {
		if v := getInt(rg, "MaxPerIPPerDay"); v != 0 {
			out.RegisterMaxPerIPPerDay = v
		}
		if v := getInt(rg, "AttemptCooldownSec"); v != 0 {
			out.RegisterAttemptCooldownSec = v
		}
	}

	return nil
}

// applyDefaults sets sane defaults for zero-value fields.
func applyDefaults(c *AppConfig) {
	if c.AppPort == "" {
		c.AppPort = "8080"
	}
	if c.BaseURL == "" {
		c.BaseURL = "http://localhost:8080"
	}
	if c.GinMode == "" {
		c.GinMode = "release"
	}
	if c.GinPath == "" {
		c.GinPath = "logs/go_gin.log"
	}
	if c.RateLimitPerMinute == 0 {
		c.RateLimitPerMinute = 60
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
	if c.DBHost == "" {
		c.DBHost = "127.0.0.1"
	}
	if c.DBPort == "" {
		c.DBPort = "3306"
	}
	if c.DBUser == "" {
		c.DBUser = "root"
	}
	if c.DBName == "" {
		c.DBName = "clubdev"
	}
	if c.RedisHost == "" {
		c.RedisHost = "127.0.0.1"
	}
	if c.RedisPort == 0 {
		c.RedisPort = 6379
	}
	if c.GeminiModel == "" {
		c.GeminiModel = "gemini-1.5-flash"
	}
	if len(c.SpamKeywords) == 0 {
		c.SpamKeywords = []string{"viagra", "cialis", "buy now", "click here"}
	}
	if c.SMTPPort == 0 {
		c.SMTPPort = 587
	}
	if c.UploadsTTLMinutes == 0 {
		c.UploadsTTLMinutes = 60
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
	if c.RegisterMaxPerIPPerDay == 0 {
		c.RegisterMaxPerIPPerDay = 5
	}
	if c.RegisterAttemptCooldownSec == 0 {
		c.RegisterAttemptCooldownSec = 10
	}
}

// applyEnvOverrides maps known environment variables onto config values when present.
func applyEnvOverrides(c *AppConfig) {
	setStr := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			*dst = mustParseInt(v)
		}
	}
	setBool := func(key string, dst *bool) {
		if v := os.Getenv(key); v != "" {
			*dst = v == "true"
		}
	}
	setList := func(key string, dst *[]string) {
		if v := os.Getenv(key); v != "" {
			*dst = splitAndTrim(v)
		}
	}

	setStr("APP_PORT", &c.AppPort)
	setStr("APP_BASE_URL", &c.BaseURL)
	setStr("JWT_SECRET", &c.JWTSecret)
	setInt("RATE_LIMIT_PER_MINUTE", &c.RateLimitPerMinute)
	setList("CORS_ALLOWED_ORIGINS", &c.AllowedOrigins)
	setList("ADMIN_USERNAMES", &c.AdminUsernames)

	setStr("DATABASE_URI", &c.DatabaseURI)
	setStr("DB_HOST", &c.DBHost)
	setStr("DB_PORT", &c.DBPort)
	setStr("DB_USER", &c.DBUser)
	setStr("DB_PASSWORD", &c.DBPassword)
	setStr("DB_NAME", &c.DBName)

	setStr("REDIS_HOST", &c.RedisHost)
	setInt("REDIS_PORT", &c.RedisPort)
	setInt("REDIS_DB", &c.RedisDB)
	setStr("REDIS_PASSWORD", &c.RedisPassword)

	setStr("GITHUB_CLIENT_ID", &c.GitHubClientID)
	setStr("GITHUB_CLIENT_SECRET", &c.GitHubClientSecret)

	setStr("GOOGLE_AI_API_KEY", &c.GoogleAIKey)
	setStr("GEMINI_MODEL", &c.GeminiModel)

	setStr("STRIPE_SECRET_KEY", &c.StripeSecretKey)
	setStr("STRIPE_WEBHOOK_SECRET", &c.StripeWebhookSecret)
	setStr("STRIPE_PRICE_PRO", &c.StripePricePro)
	setStr("STRIPE_PRICE_ENTERPRISE", &c.StripePriceEnterprise)

	setStr("NOTION_PARENT_PAGE_ID", &c.NotionParentPageID)
	setList("SPAM_KEYWORDS", &c.SpamKeywords)

	setStr("SMTP_HOST", &c.SMTPHost)
	setInt("SMTP_PORT", &c.SMTPPort)
	setStr("SMTP_USERNAME", &c.SMTPUsername)
	setStr("SMTP_PASSWORD", &c.SMTPPassword)
	setStr("SMTP_FROM", &c.SMTPFrom)
	setStr("SMTP_FROM_NAME", &c.SMTPFromName)
	setBool("SMTP_TLS", &c.SMTPTLS)

	setInt("UPLOADS_TTL_MINUTES", &c.UploadsTTLMinutes)

	setStr("GIN_MODE", &c.GinMode)
	setStr("GIN_PATH", &c.GinPath)
	setStr("LOG_LEVEL", &c.LogLevel)
	setStr("LOG_PATH", &c.LogPath)
	setInt("LOG_MAX_SIZE_MB", &c.LogMaxSizeMB)
	setInt("LOG_MAX_BACKUPS", &c.LogMaxBackups)
	setInt("LOG_MAX_AGE_DAYS", &c.LogMaxAgeDays)
	setBool("LOG_COMPRESS", &c.LogCompress)

	setInt("REGISTER_MAX_PER_IP_PER_DAY", &c.RegisterMaxPerIPPerDay)
	setInt("REGISTER_ATTEMPT_COOLDOWN_SEC", &c.RegisterAttemptCooldownSec)
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
