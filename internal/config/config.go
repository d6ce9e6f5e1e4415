// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
)

type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	JWT         JWTConfig
	Redis       RedisConfig
	AWS         AWSConfig
	Blockchain  BlockchainConfig
	Admin       AdminConfig
	Storage     StorageConfig
	Email       EmailConfig
	NATS        NATSConfig
	Renewal     RenewalConfig
	I18n        I18nConfig
	Logging     LoggingConfig
	Frontend    FrontendConfig
}

type FrontendConfig struct {
	BaseURL        string
	AllowedOrigins []string
}

type ServerConfig struct {
	Port         string
	Host         string
	ReadTimeout  int
	WriteTimeout int
	IdleTimeout  int
	RateLimit    float64 // requests per second per IP
	RateBurst    int
}

type DatabaseConfig struct {
	Enabled      bool
	Host         string
	Port         string
	User         string
	Password     string
	Database     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  int
	LogLevel     string
}

type JWTConfig struct {
	SecretKey      string
	AccessTokenTTL int // in hours
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	NonceTTL int // in seconds
}

func (r RedisConfig) Addr() string {
	return r.Host + ":" + r.Port
}

type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	S3Bucket        string
	CloudFrontURL   string
}

type BlockchainConfig struct {
	Network         string
	RPC_URL         string
	ChainID         int64
	PrivateKey      string
	ContractAddress string
	KeystoreDir     string
	Account         string
}

// Simulated reports whether no RPC endpoint is configured, in which case an
// in-process ledger is used.
func (b BlockchainConfig) Simulated() bool {
	return b.RPC_URL == ""
}

type AdminConfig struct {
	Addresses     []string
	AddressesFile string
}

type StorageConfig struct {
	Backend          string // pinata, s3 or local
	PinataJWT        string
	PinataAPIURL     string
	PinataGatewayURL string
	LocalDir         string
	LocalBaseURL     string
	MaxUploadSize    int64
	AllowedTypes     []string
}

type EmailConfig struct {
	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	FromEmail    string
	FromName     string
}

func (e EmailConfig) Enabled() bool {
	return e.SMTPHost != "" && e.SMTPUsername != ""
}

type NATSConfig struct {
	URL        string
	Subject    string
	MaxRetries int
}

type RenewalConfig struct {
	Enabled    bool
	WindowDays int
	Interval   time.Duration
}

func (r RenewalConfig) Window() time.Duration {
	return time.Duration(r.WindowDays) * 24 * time.Hour
}

type I18nConfig struct {
	DefaultLocale string
}

type LoggingConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	config := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			Host:         getEnv("SERVER_HOST", "localhost"),
			ReadTimeout:  getEnvAsInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout: getEnvAsInt("SERVER_WRITE_TIMEOUT", 15),
			IdleTimeout:  getEnvAsInt("SERVER_IDLE_TIMEOUT", 60),
			RateLimit:    getEnvAsFloat("RATE_LIMIT_RPS", 10),
			RateBurst:    getEnvAsInt("RATE_LIMIT_BURST", 20),
		},
		Database: DatabaseConfig{
			Enabled:      getEnvAsBool("DB_ENABLED", true),
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", ""),
			Database:     getEnv("DB_NAME", "licensechain"),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  getEnvAsInt("DB_MAX_LIFETIME", 300),
			LogLevel:     getEnv("DB_LOG_LEVEL", "warn"),
		},
		JWT: JWTConfig{
			SecretKey:      getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
			AccessTokenTTL: getEnvAsInt("JWT_ACCESS_TTL", 24),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			NonceTTL: getEnvAsInt("AUTH_NONCE_TTL", 300),
		},
		AWS: AWSConfig{
			Region:          getEnv("AWS_REGION", "us-east-1"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			S3Bucket:        getEnv("AWS_S3_BUCKET", "licensechain-documents"),
			CloudFrontURL:   getEnv("AWS_CLOUDFRONT_URL", ""),
		},
		Blockchain: BlockchainConfig{
			Network:         getEnv("BLOCKCHAIN_NETWORK", "sepolia"),
			RPC_URL:         getEnv("BLOCKCHAIN_RPC_URL", ""),
			ChainID:         int64(getEnvAsInt("BLOCKCHAIN_CHAIN_ID", 11155111)),
			PrivateKey:      getEnv("BLOCKCHAIN_PRIVATE_KEY", ""),
			ContractAddress: getEnv("BLOCKCHAIN_CONTRACT_ADDRESS", ""),
			KeystoreDir:     getEnv("KEYSTORE_DIR", defaultKeystoreDir()),
			Account:         getEnv("WALLET_ACCOUNT", ""),
		},
		Admin: AdminConfig{
			Addresses:     getEnvAsList("ADMIN_ADDRESSES"),
			AddressesFile: getEnv("ADMIN_ADDRESSES_FILE", ""),
		},
		Storage: StorageConfig{
			Backend:          getEnv("STORAGE_BACKEND", "pinata"),
			PinataJWT:        getEnv("PINATA_JWT", ""),
			PinataAPIURL:     getEnv("PINATA_API_URL", "https://api.pinata.cloud"),
			PinataGatewayURL: getEnv("PINATA_GATEWAY_URL", "https://gateway.pinata.cloud/ipfs"),
			LocalDir:         getEnv("STORAGE_LOCAL_DIR", "./uploads"),
			LocalBaseURL:     getEnv("STORAGE_LOCAL_BASE_URL", "http://localhost:8080/uploads"),
			MaxUploadSize:    int64(getEnvAsInt("STORAGE_MAX_UPLOAD_MB", 10)) * 1024 * 1024,
			AllowedTypes:     getEnvAsListDefault("STORAGE_ALLOWED_TYPES", []string{".pdf", ".png", ".jpg", ".jpeg"}),
		},
		Email: EmailConfig{
			SMTPHost:     getEnv("SMTP_HOST", ""),
			SMTPPort:     getEnv("SMTP_PORT", "587"),
			SMTPUsername: getEnv("SMTP_USERNAME", ""),
			SMTPPassword: getEnv("SMTP_PASSWORD", ""),
			FromEmail:    getEnv("FROM_EMAIL", "noreply@licensechain.io"),
			FromName:     getEnv("FROM_NAME", "LicenseChain"),
		},
		NATS: NATSConfig{
			URL:        getEnv("NATS_URL", ""),
			Subject:    getEnv("NATS_SUBJECT", "license.status_changed"),
			MaxRetries: getEnvAsInt("NATS_MAX_RETRIES", 3),
		},
		Renewal: RenewalConfig{
			Enabled:    getEnvAsBool("RENEWAL_REMINDERS_ENABLED", false),
			WindowDays: getEnvAsInt("RENEWAL_WINDOW_DAYS", 30),
			Interval:   time.Duration(getEnvAsInt("RENEWAL_INTERVAL_MINUTES", 60)) * time.Minute,
		},
		I18n: I18nConfig{
			DefaultLocale: getEnv("DEFAULT_LOCALE", "en"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", ""),
		},
		Frontend: FrontendConfig{
			BaseURL:        getEnv("FRONTEND_URL", "http://localhost:3000"),
			AllowedOrigins: getEnvAsListDefault("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		},
	}

	return config, config.Validate()
}

func (c *Config) Validate() error {
	if c.JWT.SecretKey == "your-secret-key-change-in-production" && c.Environment == "production" {
		return fmt.Errorf("JWT secret key must be changed in production")
	}

	if c.Database.Enabled && c.Database.Password == "" && c.Environment == "production" {
		return fmt.Errorf("database password is required in production")
	}

	if !c.Blockchain.Simulated() && !common.IsHexAddress(c.Blockchain.ContractAddress) {
		return fmt.Errorf("BLOCKCHAIN_CONTRACT_ADDRESS must be a hex address when BLOCKCHAIN_RPC_URL is set")
	}

	for _, addr := range c.Admin.Addresses {
		if !common.IsHexAddress(addr) {
			return fmt.Errorf("invalid admin address %q", addr)
		}
	}

	switch c.Storage.Backend {
	case "pinata":
		if c.Storage.PinataJWT == "" && c.Environment == "production" {
			return fmt.Errorf("PINATA_JWT is required for the pinata storage backend")
		}
	case "s3", "local":
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}

	if c.Renewal.WindowDays < 0 {
		return fmt.Errorf("RENEWAL_WINDOW_DAYS must not be negative")
	}

	if c.Renewal.Enabled && c.Renewal.Interval <= 0 {
		return fmt.Errorf("RENEWAL_INTERVAL_MINUTES must be positive when renewal reminders are enabled")
	}

	return nil
}

func defaultKeystoreDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./keystore"
	}
	return home + "/.licensechain/keystore"
}

// Helper functions
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

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(strings.ToLower(value)); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsList(key string) []string {
	return getEnvAsListDefault(key, nil)
}

func getEnvAsListDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
