package config

import (
	"os"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

type Config struct {
	Environment string
	Port        string
	DatabaseURL string
	RedisURL    string
	JWTSecret   string

	// Firebase Config
	FirebaseCredentials string
	FirebaseDatabaseURL string

	// Twilio Config
	TwilioAccountSID  string
	TwilioAuthToken   string
	TwilioPhoneNumber string

	// Google Maps / Places
	GoogleMapsAPIKey string

	// Regional emergency-number table (JSON file, optional)
	EmergencyNumbersFile string

	// Pipeline budgets
	LocationTimeout  time.Duration
	GeocodeTimeout   time.Duration
	PlacesTimeout    time.Duration
	StoreTimeout     time.Duration
	CountdownSeconds int

	// Nearby-service resolution
	NearbyRadiusMeters int
	MaxNearbyServices  int

	// Status watcher
	WatchPollInterval time.Duration
}

func Load() *Config {
	return &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: getEnv("DATABASE_URL", "mongodb://localhost:27017/rescuereach"),
		RedisURL:    getEnv("REDIS_URL", "redis://localhost:6379"),
		JWTSecret:   getEnv("JWT_SECRET", "your-super-secret-jwt-key"),

		// Firebase
		FirebaseCredentials: getEnv("FIREBASE_CREDENTIALS", ""),
		FirebaseDatabaseURL: getEnv("FIREBASE_DATABASE_URL", ""),

		// Twilio
		TwilioAccountSID:  getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:   getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioPhoneNumber: getEnv("TWILIO_PHONE_NUMBER", ""),

		// Google Maps
		GoogleMapsAPIKey: getEnv("GOOGLE_MAPS_API_KEY", ""),

		EmergencyNumbersFile: getEnv("EMERGENCY_NUMBERS_FILE", ""),

		// Budgets: location 10s, places 15s, store writes 15s
		LocationTimeout:  getEnvAsDuration("LOCATION_TIMEOUT_SECONDS", 10),
		GeocodeTimeout:   getEnvAsDuration("GEOCODE_TIMEOUT_SECONDS", 5),
		PlacesTimeout:    getEnvAsDuration("PLACES_TIMEOUT_SECONDS", 15),
		StoreTimeout:     getEnvAsDuration("STORE_TIMEOUT_SECONDS", 15),
		CountdownSeconds: getEnvAsInt("SOS_COUNTDOWN_SECONDS", 5),

		NearbyRadiusMeters: getEnvAsInt("NEARBY_RADIUS_METERS", 5000),
		MaxNearbyServices:  getEnvAsInt("MAX_NEARBY_SERVICES", 3),

		WatchPollInterval: getEnvAsDuration("WATCH_POLL_SECONDS", 15),
	}
}

func InitRedis(cfg *Config) *redis.Client {
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		// Fallback to default config
		opt = &redis.Options{
			Addr:     "localhost:6379",
			Password: "",
			DB:       0,
		}
	}

	return redis.NewClient(opt)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultSeconds int) time.Duration {
	return time.Duration(getEnvAsInt(key, defaultSeconds)) * time.Second
}
