package config

import (
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"

	"shuttle/internal/utils"
)

const (
	StoreMySQL  = "mysql"
	StoreMemory = "memory"

	defaultJWTSecret = "change-me-campus-shuttle-secret-key"
)

type Env struct {
	AppAddr string
	GinMode string

	StoreDriver string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string

	JWTSecret  string
	JWTTTL     time.Duration
	BcryptCost int

	CORSOrigins []string

	CancellationCutoff time.Duration
	LogLevel           string

	CompletionSchedule string
	ReconcileSchedule  string
}

var dotEnvOnce sync.Once

// LoadDotEnv loads .env into the process environment once. Call it before
// building the logger so LOG_LEVEL from the file is honoured.
func LoadDotEnv() (loaded bool) {
	dotEnvOnce.Do(func() {
		loaded = godotenv.Load() == nil
	})
	return loaded
}

// LoadEnv reads configuration from the environment. Warnings go to the package
// logger, so install it first.
func LoadEnv() Env {
	LoadDotEnv()

	env := Env{
		AppAddr: getEnv("APP_ADDR", ":8080"),
		GinMode: getEnv("GIN_MODE", ""),

		StoreDriver: strings.ToLower(getEnv("STORE_DRIVER", StoreMySQL)),
		DBHost:      getEnv("DB_HOST", "127.0.0.1"),
		DBPort:      getEnv("DB_PORT", "3306"),
		DBUser:      getEnv("DB_USER", "root"),
		DBPassword:  os.Getenv("DB_PASSWORD"),
		DBName:      getEnv("DB_NAME", "campus_shuttle"),

		JWTSecret:  getEnv("JWT_SECRET", defaultJWTSecret),
		JWTTTL:     getEnvDuration("JWT_TTL", 24*time.Hour),
		BcryptCost: getEnvInt("BCRYPT_COST", 12),

		CORSOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS",
			"http://localhost:3000,http://127.0.0.1:3000")),

		CancellationCutoff: getEnvDuration("CANCELLATION_CUTOFF", 2*time.Hour),
		LogLevel:           getEnv("LOG_LEVEL", "info"),

		CompletionSchedule: getEnv("COMPLETION_SCHEDULE", "@every 5m"),
		ReconcileSchedule:  getEnv("RECONCILE_SCHEDULE", "@every 15m"),
	}

	if env.JWTSecret == defaultJWTSecret {
		utils.Logger().Warn("using default JWT_SECRET, set it in your environment")
	} else if len(env.JWTSecret) < 32 {
		utils.Logger().Warn("JWT_SECRET is shorter than 32 characters")
	}
	return env
}

func getEnv(key, defaultValue string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		utils.Logger().Sugar().Warnf("invalid %s=%q, using %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		utils.Logger().Sugar().Warnf("invalid %s=%q, using %s", key, value, defaultValue)
		return defaultValue
	}
	return d
}

func splitList(raw string) []string {
	out := []string{}
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
