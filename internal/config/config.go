package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
)

// Config holds all runtime configuration values. Each field corresponds to
// an environment variable. Required values are enforced by must() and
// missing values cause the program to exit with a fatal log message;
// optional subsystems (Google login, SMTP, S3) read with os.Getenv and
// degrade to disabled when unset.
type Config struct {
	Env  string // application environment (e.g. "dev", "prod")
	Port string // HTTP port to listen on

	DBUser string // database username
	DBPass string // database password (optional)
	DBHost string // database host address
	DBPort string // database port number
	DBName string // database name

	JWTSecret    string // secret used to sign access tokens
	TokenTTLDays int    // access token time-to-live in days
	BcryptCost   int    // bcrypt cost for password hashing
	OTPTTLMin    int    // one-time code time-to-live in minutes

	HomeURL string // frontend base URL used by the Google redirect flow

	GoogleClientID     string // Google OAuth client id
	GoogleClientSecret string // Google OAuth client secret
	GoogleCallbackURL  string // Google OAuth redirect URL registered with the provider

	SMTPHost string // outbound mail host
	SMTPPort string // outbound mail port
	SMTPUser string // sender address, also used for auth
	SMTPPass string // sender password / app password

	S3Region    string // region of the upload bucket
	S3Bucket    string // bucket receiving presigned uploads
	S3AccessKey string // static access key id
	S3SecretKey string // static secret access key
}

// Load reads configuration values from environment variables and returns a
// Config. Required variables are enforced by must().
func Load() Config {
	return Config{
		Env:  must("APP_ENV"),
		Port: must("APP_PORT"),

		DBUser: must("DB_USER"),
		DBPass: os.Getenv("DB_PASS"),
		DBHost: must("DB_HOST"),
		DBPort: must("DB_PORT"),
		DBName: must("DB_NAME"),

		JWTSecret:    must("JWT_SECRET"),
		TokenTTLDays: envInt("TOKEN_TTL_DAYS", 30),
		BcryptCost:   envInt("BCRYPT_COST", 10),
		OTPTTLMin:    envInt("OTP_TTL_MIN", 10),

		HomeURL: os.Getenv("HOME_URL"),

		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		GoogleCallbackURL:  os.Getenv("GOOGLE_CALLBACK_URL"),

		SMTPHost: os.Getenv("SMTP_HOST"),
		SMTPPort: os.Getenv("SMTP_PORT"),
		SMTPUser: os.Getenv("SMTP_USER"),
		SMTPPass: os.Getenv("SMTP_PASS"),

		S3Region:    os.Getenv("S3_REGION"),
		S3Bucket:    os.Getenv("S3_BUCKET"),
		S3AccessKey: os.Getenv("S3_ACCESS_KEY_ID"),
		S3SecretKey: os.Getenv("S3_SECRET_ACCESS_KEY"),
	}
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// envInt reads an optional integer variable, falling back to a default
// when unset. Malformed values are fatal so misconfiguration is caught
// at startup rather than at first use.
func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, v)
	}
	return n
}
