package config // package config loads application configuration from environment variables

import (
    "log"     // log is used to report configuration errors and halt execution
    "os"      // os provides access to environment variables
    "strconv" // strconv converts strings to other types
    "strings"
    "time"

    "github.com/joho/godotenv" // optional .env file for local development
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.
type Config struct {
    Env             string        // application environment (e.g. "dev", "prod")
    Port            string        // HTTP port to listen on
    DBUser          string        // database username
    DBPass          string        // database password (optional)
    DBHost          string        // database host address
    DBPort          string        // database port number
    DBName          string        // database name
    JWTSecret       string        // secret used to sign access tokens
    RefreshSecret   string        // secret used to sign refresh tokens (defaults to JWTSecret)
    JWTIssuer       string        // iss claim written into and required on tokens
    AccessTTLMin    int           // access token time‑to‑live in minutes
    RefreshTTLDays  int           // refresh token time‑to‑live in days
    BcryptCost      int           // bcrypt cost for password hashing
    RedirectTTL     time.Duration // lifetime of the post-refresh redirect cookie
    RabbitURL       string        // AMQP url for auth events (empty disables publishing)
    AuditConsumer   bool          // run the auth.events consumer in-process
    AuditLogPath    string        // file the consumer appends to
    MetricsEnabled  bool          // expose Prometheus counters on /metrics
    MetricsAddr     string        // internal listen address for /metrics
    RevocationOnLogout bool       // record logged-out token ids in Redis
}

// Load reads an optional .env file, then builds Config from the environment.
// Required variables are enforced by must() and missing values cause the
// program to exit with a fatal log message.
func Load() Config {
    if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
        log.Printf("config: .env not loaded: %v", err)
    }
    secret := must("JWT_SECRET")
    return Config{
        Env:                envStr("APP_ENV", "dev"),
        Port:               envStr("APP_PORT", "8080"),
        DBUser:             must("DB_USER"),
        DBPass:             os.Getenv("DB_PASS"),
        DBHost:             must("DB_HOST"),
        DBPort:             envStr("DB_PORT", "3306"),
        DBName:             must("DB_NAME"),
        JWTSecret:          secret,
        RefreshSecret:      envStr("JWT_REFRESH_SECRET", secret),
        JWTIssuer:          envStr("JWT_ISSUER", "project-hub"),
        AccessTTLMin:       envInt("ACCESS_TOKEN_TTL_MIN", 60),
        RefreshTTLDays:     envInt("REFRESH_TOKEN_TTL_DAYS", 7),
        BcryptCost:         envInt("BCRYPT_COST", 12),
        RedirectTTL:        envDur("AUTH_REDIRECT_TTL", 60*time.Second),
        RabbitURL:          rabbitURL(),
        AuditConsumer:      envBool("AUDIT_CONSUMER_ENABLED", false),
        AuditLogPath:       envStr("AUDIT_LOG_PATH", "logs/auth.log"),
        MetricsEnabled:     envBool("METRICS_ENABLED", true),
        MetricsAddr:        envStr("METRICS_ADDR", "127.0.0.1:9090"),
        RevocationOnLogout: envBool("REVOKE_ON_LOGOUT", true),
    }
}

// IsProduction reports whether cookies must be marked Secure.
func (c Config) IsProduction() bool {
    switch strings.ToLower(c.Env) {
    case "prod", "production":
        return true
    }
    return false
}

// AccessTTL is AccessTTLMin as a duration.
func (c Config) AccessTTL() time.Duration { return time.Duration(c.AccessTTLMin) * time.Minute }

// RefreshTTL is RefreshTTLDays as a duration.
func (c Config) RefreshTTL() time.Duration {
    return time.Duration(c.RefreshTTLDays) * 24 * time.Hour
}

func rabbitURL() string {
    if v := os.Getenv("RABBITMQ_URL"); v != "" {
        return v
    }
    return os.Getenv("AMQP_URL")
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
    v, ok := os.LookupEnv(key)
    if !ok || v == "" {
        log.Fatalf("missing required env var: %s", key)
    }
    return v
}

func envStr(k, d string) string { if v := os.Getenv(k); v != "" { return v }; return d }
func envBool(k string, d bool) bool {
    v := os.Getenv(k)
    if v == "" { return d }
    switch v {
    case "1","true","TRUE","True","yes","YES","on","ON": return true
    case "0","false","FALSE","False","no","NO","off","OFF": return false
    }
    return d
}
func envInt(k string, d int) int {
    v := os.Getenv(k); if v == "" { return d }
    if n, err := strconv.Atoi(v); err == nil { return n }
    return d
}
func envDur(k string, d time.Duration) time.Duration {
    v := os.Getenv(k); if v == "" { return d }
    if dur, err := time.ParseDuration(v); err == nil { return dur }
    return d
}
