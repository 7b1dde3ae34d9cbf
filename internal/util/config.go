package util

import (
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

//nolint:gochecknoglobals // here its ok
var once sync.Once

func init() {
	once.Do(func() {
		if err := godotenv.Load(".env"); err != nil {
			log.Printf("Warning: could not load .env file: %v", err)
		}
	})
}

const (
	defaultServerAddr      = "localhost:8080"
	defaultWriteTimeout    = 10 * time.Second
	defaultReadTimeout     = 10 * time.Second
	defaultIdleTimeout     = 30 * time.Second
	defaultGracefulTimeout = 5 * time.Second

	defaultAccessTTL     = 15 * time.Minute
	defaultRefreshTTL    = 24 * time.Hour
	defaultRememberMeTTL = 30 * 24 * time.Hour

	defaultJobRetryDelay = 5 * time.Minute

	defaultVaultMount = "secret"
	defaultVaultPath  = "backoffice"

	RawTokenLength = 32
	JWTLeeWay      = 5 * time.Second
)

type ServerConfig struct {
	ServerAddr      string
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	IdleTimeout     time.Duration
	GracefulTimeout time.Duration
}

func NewServerConfig() *ServerConfig {
	addr := os.Getenv("SERVER_ADDRESS")
	if addr == "" {
		addr = defaultServerAddr
	}

	return &ServerConfig{
		ServerAddr:      addr,
		WriteTimeout:    parseDurationOrDefault("WRITE_TIMEOUT", defaultWriteTimeout),
		ReadTimeout:     parseDurationOrDefault("READ_TIMEOUT", defaultReadTimeout),
		IdleTimeout:     parseDurationOrDefault("IDLE_TIMEOUT", defaultIdleTimeout),
		GracefulTimeout: parseDurationOrDefault("GRACEFUL_TIMEOUT", defaultGracefulTimeout),
	}
}

// TokenConfig is built once at startup; the signing key may come from the secret store.
type TokenConfig struct {
	JwtSecretKey  []byte
	Issuer        string
	Audience      string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	RememberMeTTL time.Duration
}

func NewTokenConfig(secret string) *TokenConfig {
	return &TokenConfig{
		JwtSecretKey:  []byte(secret),
		Issuer:        os.Getenv("JWT_VALID_ISSUER"),
		Audience:      os.Getenv("JWT_VALID_AUDIENCE"),
		AccessTTL:     parseDurationOrDefault("ACCESS_TOKEN_TTL", defaultAccessTTL),
		RefreshTTL:    parseDurationOrDefault("REFRESH_TOKEN_TTL", defaultRefreshTTL),
		RememberMeTTL: parseDurationOrDefault("REMEMBER_ME_TTL", defaultRememberMeTTL),
	}
}

// GetJWTSecret returns the signing key from the environment, empty when unset.
func GetJWTSecret() string {
	return os.Getenv("JWT_SECRET")
}

type CookieConfig struct {
	Domain string
	Secure bool
}

func NewCookieConfig() *CookieConfig {
	return &CookieConfig{
		Domain: os.Getenv("COOKIE_DOMAIN"),
		Secure: parseBoolOrDefault("COOKIE_SECURE", true),
	}
}

type VaultConfig struct {
	URI      string
	RoleID   string
	SecretID string
	Mount    string
	Path     string
}

func NewVaultConfig() *VaultConfig {
	return &VaultConfig{
		URI:      os.Getenv("VAULT_URI"),
		RoleID:   os.Getenv("VAULT_ROLE_ID"),
		SecretID: os.Getenv("VAULT_SECRET_ID"),
		Mount:    getEnvOrDefault("VAULT_MOUNT", defaultVaultMount),
		Path:     getEnvOrDefault("VAULT_PATH", defaultVaultPath),
	}
}

func (c *VaultConfig) Enabled() bool {
	return c.URI != ""
}

type JobConfig struct {
	Enabled    bool
	RetryDelay time.Duration
}

func NewJobConfig() *JobConfig {
	return &JobConfig{
		Enabled:    parseBoolOrDefault("RECURRING_JOB_ENABLED", true),
		RetryDelay: parseDurationOrDefault("RECURRING_JOB_RETRY_DELAY", defaultJobRetryDelay),
	}
}

// GetStaticSecrets maps secret keys onto environment variables for runs without Vault.
func GetStaticSecrets() map[string]string {
	return map[string]string{
		"EmailAdmin":    os.Getenv("ADMIN_EMAIL"),
		"PasswordAdmin": os.Getenv("ADMIN_PASSWORD"),
		"JwtSecret":     os.Getenv("JWT_SECRET"),
	}
}

func GetWebhookURL() string {
	return os.Getenv("WEBHOOK_URL")
}

// GetStorageDriver returns "postgres" unless STORAGE selects the in-memory store.
func GetStorageDriver() string {
	if strings.EqualFold(os.Getenv("STORAGE"), "memory") {
		return "memory"
	}
	return "postgres"
}

func getEnvOrDefault(varName, def string) string {
	if v := os.Getenv(varName); v != "" {
		return v
	}
	return def
}

func parseDurationOrDefault(varName string, def time.Duration) time.Duration {
	if v := os.Getenv(varName); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		log.Printf("Invalid duration in %s: %s, using default %s", varName, v, def)
	}
	return def
}

func parseBoolOrDefault(varName string, def bool) bool {
	if v := os.Getenv(varName); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
		log.Printf("Invalid bool in %s: %s, using default %t", varName, v, def)
	}
	return def
}
