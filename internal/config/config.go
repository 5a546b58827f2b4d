package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	BlobLocal = "local"
	BlobS3    = "s3"

	RegistrationActivation = "activation"
	RegistrationDirect     = "direct"

	NotifierSMTP = "smtp"
	NotifierLog  = "log"
)

type Config struct {
	Port          string
	DBDriver      string
	DBDSN         string
	MediaDir      string
	StagingDir    string
	LogFile       string
	PublicBaseURL string
	CORSOrigin    string

	AccessSecret     string
	AccessExpiry     time.Duration
	RefreshSecret    string
	RefreshExpiry    time.Duration
	ActivationSecret string

	CookieSecure   bool
	CookieSameSite string

	RegistrationMode string

	BlobBackend string
	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3PublicURL string

	Notifier     string
	SMTPHost     string
	SMTPPort     string
	SMTPUser     string
	SMTPPassword string
	SMTPFrom     string

	AdminEmail    string
	AdminPassword string
	AdminName     string
}

// Load reads the process environment, after merging a .env file when one
// is present, and fills in defaults for anything unset.
func Load() Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("[config] .env not loaded: %v", err)
	}

	cfg := Config{
		Port:          getEnv("PORT", "8080"),
		DBDriver:      getEnv("DB_DRIVER", "sqlite"),
		DBDSN:         getEnv("DB_DSN", "megastore.db"),
		MediaDir:      getEnv("MEDIA_DIR", "./media"),
		StagingDir:    getEnv("STAGING_DIR", "./staging"),
		LogFile:       getEnv("LOG_FILE", "./megastore.log"),
		PublicBaseURL: strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
		CORSOrigin:    getEnv("CORS_ORIGIN", "http://localhost:3000"),

		AccessSecret:     os.Getenv("ACCESS_TOKEN_SECRET"),
		AccessExpiry:     getDuration("ACCESS_TOKEN_EXPIRY", 15*time.Minute),
		RefreshSecret:    os.Getenv("REFRESH_TOKEN_SECRET"),
		RefreshExpiry:    getDuration("REFRESH_TOKEN_EXPIRY", 7*24*time.Hour),
		ActivationSecret: os.Getenv("ACTIVATION_TOKEN_SECRET"),

		CookieSecure:   getBool("COOKIE_SECURE", true),
		CookieSameSite: getEnv("COOKIE_SAMESITE", "Lax"),

		RegistrationMode: getEnv("REGISTRATION_MODE", RegistrationActivation),

		BlobBackend: getEnv("BLOB_BACKEND", BlobLocal),
		S3Bucket:    os.Getenv("S3_BUCKET"),
		S3Region:    getEnv("S3_REGION", "us-east-1"),
		S3Endpoint:  os.Getenv("S3_ENDPOINT"),
		S3AccessKey: os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey: os.Getenv("S3_SECRET_KEY"),
		S3PublicURL: os.Getenv("S3_PUBLIC_URL"),

		Notifier:     getEnv("NOTIFIER", NotifierSMTP),
		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     getEnv("SMTP_PORT", "587"),
		SMTPUser:     os.Getenv("SMTP_USER"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:     getEnv("SMTP_FROM", "no-reply@megastore.local"),

		AdminEmail:    strings.ToLower(strings.TrimSpace(os.Getenv("ADMIN_EMAIL"))),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		AdminName:     getEnv("ADMIN_NAME", "Administrator"),
	}
	log.Printf("[config] PORT=%s DB_DRIVER=%s MEDIA_DIR=%s BLOB_BACKEND=%s REGISTRATION_MODE=%s NOTIFIER=%s COOKIE_SECURE=%t LOG_FILE=%s",
		cfg.Port, cfg.DBDriver, cfg.MediaDir, cfg.BlobBackend, cfg.RegistrationMode, cfg.Notifier, cfg.CookieSecure, cfg.LogFile)
	return cfg
}

// Validate refuses configurations the server cannot run safely with.
func (c Config) Validate() error {
	var errs []error
	if c.AccessSecret == "" {
		errs = append(errs, errors.New("ACCESS_TOKEN_SECRET is required"))
	}
	if c.RefreshSecret == "" {
		errs = append(errs, errors.New("REFRESH_TOKEN_SECRET is required"))
	}
	if c.RegistrationMode == RegistrationActivation && c.ActivationSecret == "" {
		errs = append(errs, errors.New("ACTIVATION_TOKEN_SECRET is required for activation registration"))
	}
	if c.AccessSecret != "" && c.AccessSecret == c.RefreshSecret {
		errs = append(errs, errors.New("ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET must differ"))
	}
	switch c.RegistrationMode {
	case RegistrationActivation, RegistrationDirect:
	default:
		errs = append(errs, errors.New("REGISTRATION_MODE must be activation or direct"))
	}
	switch c.BlobBackend {
	case BlobLocal:
	case BlobS3:
		if c.S3Bucket == "" {
			errs = append(errs, errors.New("S3_BUCKET is required when BLOB_BACKEND=s3"))
		}
	default:
		errs = append(errs, errors.New("BLOB_BACKEND must be local or s3"))
	}
	switch c.Notifier {
	case NotifierSMTP:
		if c.SMTPHost == "" {
			errs = append(errs, errors.New("SMTP_HOST is required when NOTIFIER=smtp (set NOTIFIER=log for local development)"))
		}
	case NotifierLog:
	default:
		errs = append(errs, errors.New("NOTIFIER must be smtp or log"))
	}
	switch c.CookieSameSite {
	case "Lax", "Strict", "None":
	default:
		errs = append(errs, errors.New("COOKIE_SAMESITE must be Lax, Strict or None"))
	}
	if c.AccessExpiry <= 0 || c.RefreshExpiry <= 0 {
		errs = append(errs, errors.New("token expiries must be positive"))
	}
	return errors.Join(errs...)
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("[config] %s=%q is not a bool, using %t", key, v, def)
		return def
	}
	return b
}

// getDuration accepts Go durations ("15m") and a plain day count ("7d").
func getDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if days, ok := strings.CutSuffix(v, "d"); ok {
		if n, err := strconv.Atoi(days); err == nil {
			return time.Duration(n) * 24 * time.Hour
		}
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("[config] %s=%q is not a duration, using %s", key, v, def)
		return def
	}
	return d
}
