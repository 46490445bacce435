package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultPartnerAPIBaseURL = "https://battein-onboard-brown.vercel.app"
	defaultOnboardingBaseURL = "https://micro.baaten.in"
	defaultMicroBaseURL      = "https://micro.baaten.in"
)

// DefaultFallbackAvatars are used when a partner has no profile picture
var DefaultFallbackAvatars = []string{
	"https://micro.baaten.in/static/avatars/avatar-1.jpg",
	"https://micro.baaten.in/static/avatars/avatar-2.jpg",
	"https://micro.baaten.in/static/avatars/avatar-3.jpg",
	"https://micro.baaten.in/static/avatars/avatar-4.jpg",
}

// Config holds the runtime configuration read from the environment
type Config struct {
	Port string
	Env  string

	JWTSecret string

	PartnerAPIBaseURL string
	OnboardingBaseURL string
	MicroBaseURL      string
	HTTPClientTimeout time.Duration

	FallbackAvatars      []string
	OnboardingVideoFlags bool

	MongoURI string
	DBName   string

	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	PartnerCacheTTL time.Duration

	KafkaBroker   string
	KafkaTopic    string
	KafkaUsername string
	KafkaPassword string

	CORSAllowedOrigins []string
}

// IsDevelopment reports whether development-only routes should be served
func (c Config) IsDevelopment() bool {
	return c.Env == "development" || c.Env == "dev"
}

// Load reads .env (when present) and the process environment
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	mongoURI := os.Getenv("MONGO_URI")
	if mongoURI == "" {
		mongoURI = os.Getenv("MONGODB_URI")
	}

	return Config{
		Port:                 getEnv("PORT", "8080"),
		Env:                  getEnv("ENV", "production"),
		JWTSecret:            os.Getenv("JWT_SECRET"),
		PartnerAPIBaseURL:    strings.TrimRight(getEnv("PARTNER_API_BASE_URL", defaultPartnerAPIBaseURL), "/"),
		OnboardingBaseURL:    strings.TrimRight(getEnv("ONBOARDING_BASE_URL", defaultOnboardingBaseURL), "/"),
		MicroBaseURL:         strings.TrimRight(getEnv("MICRO_BASE_URL", defaultMicroBaseURL), "/"),
		HTTPClientTimeout:    getDuration("HTTP_CLIENT_TIMEOUT", 30*time.Second),
		FallbackAvatars:      getList("FALLBACK_AVATAR_URLS", DefaultFallbackAvatars),
		OnboardingVideoFlags: getBool("ONBOARDING_VIDEO_FLAGS", false),
		MongoURI:             mongoURI,
		DBName:               getEnv("DB_NAME", "partner_console"),
		RedisAddr:            os.Getenv("REDIS_ADDR"),
		RedisPassword:        os.Getenv("REDIS_PASSWORD"),
		RedisDB:              getInt("REDIS_DB", 0),
		PartnerCacheTTL:      getDuration("PARTNER_CACHE_TTL", 2*time.Minute),
		KafkaBroker:          os.Getenv("KAFKA_BROKER"),
		KafkaTopic:           getEnv("KAFKA_TOPIC", "partner-transitions"),
		KafkaUsername:        os.Getenv("KAFKA_USERNAME"),
		KafkaPassword:        os.Getenv("KAFKA_PASSWORD"),
		CORSAllowedOrigins:   getList("CORS_ALLOWED_ORIGINS", nil),
	}
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		log.Printf("Warning: invalid %s=%q, using %d", key, v, fallback)
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
		log.Printf("Warning: invalid %s=%q, using %t", key, v, fallback)
	}
	return fallback
}

// getDuration accepts Go durations ("45s") or plain seconds ("45")
func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	log.Printf("Warning: invalid %s=%q, using %s", key, v, fallback)
	return fallback
}

func getList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return append([]string(nil), fallback...)
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return append([]string(nil), fallback...)
	}
	return out
}
