package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
)

type Config struct {
	Port     string
	LogLevel string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSchema   string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	SessionCookieName   string
	SessionTTL          time.Duration
	SessionCookieSecure bool

	PaymentProvider   string
	YooKassaShopID    string
	YooKassaSecretKey string
	YooKassaAPIURL    string
	PaymentTimeout    time.Duration

	TelegramBotToken string
	TelegramChatIDs  []string
	TelegramAPIURL   string

	RecaptchaSecretKey string

	PublicBaseURL      string
	CORSAllowedOrigins []string

	// Static site labels, never changed at runtime.
	ShopName   string
	SiteTitle  string
	SiteHeader string

	ReconcileInterval   time.Duration
	ReconcileStaleAfter time.Duration
}

func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DBHost:     getEnv("BLUEPRINT_DB_HOST", "localhost"),
		DBPort:     getEnv("BLUEPRINT_DB_PORT", "5432"),
		DBUser:     getEnv("BLUEPRINT_DB_USERNAME", "postgres"),
		DBPassword: getEnvFromFile("BLUEPRINT_DB_PASSWORD_FILE", "BLUEPRINT_DB_PASSWORD", "postgres"),
		DBName:     getEnv("BLUEPRINT_DB_DATABASE", "rml"),
		DBSchema:   getEnv("BLUEPRINT_DB_SCHEMA", "public"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnvFromFile("REDIS_PASSWORD_FILE", "REDIS_PASSWORD", ""),
		RedisDB:       getInt("REDIS_DB", 0),

		SessionCookieName:   getEnv("SESSION_COOKIE_NAME", "sessionid"),
		SessionTTL:          getDuration("SESSION_TTL", 14*24*time.Hour),
		SessionCookieSecure: getBool("SESSION_COOKIE_SECURE", false),

		PaymentProvider:   getEnv("PAYMENT_PROVIDER", "yookassa"),
		YooKassaShopID:    getEnv("YOOKASSA_SHOP_ID", ""),
		YooKassaSecretKey: getEnvFromFile("YOOKASSA_SECRET_KEY_FILE", "YOOKASSA_SECRET_KEY", ""),
		YooKassaAPIURL:    getEnv("YOOKASSA_API_URL", "https://api.yookassa.ru/v3"),
		PaymentTimeout:    getDuration("PAYMENT_TIMEOUT", 10*time.Second),

		TelegramBotToken: getEnvFromFile("TELEGRAM_BOT_TOKEN_FILE", "TELEGRAM_BOT_TOKEN", ""),
		TelegramChatIDs:  getList("TELEGRAM_CHAT_IDS"),
		TelegramAPIURL:   getEnv("TELEGRAM_API_URL", "https://api.telegram.org"),

		RecaptchaSecretKey: getEnvFromFile("RECAPTCHA_SECRET_KEY_FILE", "RECAPTCHA_SECRET_KEY", ""),

		PublicBaseURL:      strings.TrimRight(getEnv("PUBLIC_BASE_URL", ""), "/"),
		CORSAllowedOrigins: getList("CORS_ALLOWED_ORIGINS"),

		ShopName:   getEnv("SHOP_NAME", "RML"),
		SiteTitle:  getEnv("SITE_TITLE", "RML — админ"),
		SiteHeader: getEnv("SITE_HEADER", "RML — администрирование"),

		ReconcileInterval:   getDuration("RECONCILE_INTERVAL", time.Minute),
		ReconcileStaleAfter: getDuration("RECONCILE_STALE_AFTER", 15*time.Minute),
	}
}

// DatabaseURL is the pgx connection string for the configured database.
func (c *Config) DatabaseURL() string {
	return "postgres://" + c.DBUser + ":" + c.DBPassword + "@" + c.DBHost + ":" + c.DBPort + "/" + c.DBName +
		"?sslmode=disable&search_path=" + c.DBSchema
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFromFile(fileKey, envKey, defaultValue string) string {
	if filePath := os.Getenv(fileKey); filePath != "" {
		if content, err := os.ReadFile(filePath); err == nil {
			return strings.TrimSpace(string(content))
		}
	}
	return getEnv(envKey, defaultValue)
}

func getInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
