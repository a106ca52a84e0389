package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env"
	"github.com/joho/godotenv"

	"github.com/imrishuroy/printeasy-orderflow/internal/apperror"
)

// Store backends.
const (
	StoreDynamoDB = "dynamodb"
	StorePostgres = "postgres"
	StorePebble   = "pebble"
	StoreMemory   = "memory"
)

// Storage backends.
const (
	StorageS3    = "s3"
	StorageLocal = "local"
)

// Object ACL modes for S3 uploads. ACLNone sends no ACL header, for buckets
// with ACLs disabled that grant read access through a bucket policy.
const (
	ACLPublicRead = "public-read"
	ACLNone       = "none"
)

// Config is every externally adjustable setting of the service.
type Config struct {
	RunLocal bool   `env:"RUN_LOCAL"`
	Address  string `env:"RUN_ADDRESS" envDefault:":8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	ShopNumber    string `env:"SHOP_NUMBER"`
	AdminPassword string `env:"ADMIN_PASSWORD"`

	StoreBackend     string `env:"STORE_BACKEND" envDefault:"dynamodb"`
	OrdersTable      string `env:"ORDERS_TABLE" envDefault:"print_requests"`
	IdempotencyTable string `env:"IDEMPOTENCY_TABLE"`
	DatabaseURI      string `env:"DATABASE_URI"`
	PebbleDir        string `env:"PEBBLE_DIR" envDefault:"./data/orders"`

	StorageBackend     string `env:"STORAGE_BACKEND" envDefault:"s3"`
	StorageDestination string `env:"STORAGE_DESTINATION"`
	StoragePrefix      string `env:"STORAGE_PREFIX" envDefault:"uploads"`
	PublicBaseURL      string `env:"STORAGE_PUBLIC_BASE_URL"`
	LocalStorageDir    string `env:"LOCAL_STORAGE_DIR" envDefault:"./uploads"`
	StorageObjectACL   string `env:"STORAGE_OBJECT_ACL" envDefault:"public-read"`

	ColorPricePerSide float64 `env:"COLOR_PRICE_PER_SIDE" envDefault:"5.0"`
	BWPricePerSide    float64 `env:"BW_PRICE_PER_SIDE" envDefault:"2.0"`
	MaxDocSizeMB      int     `env:"MAX_DOC_SIZE_MB" envDefault:"10"`
	MaxImageSizeMB    int     `env:"MAX_IMG_SIZE_MB" envDefault:"5"`
	MaxCopies         int     `env:"MAX_COPIES" envDefault:"20"`

	RetentionWindow time.Duration `env:"RETENTION_WINDOW" envDefault:"12h"`
	PollInterval    time.Duration `env:"POLL_INTERVAL" envDefault:"5s"`

	SessionSecret      string        `env:"SESSION_SECRET"`
	SessionIdleTimeout time.Duration `env:"SESSION_IDLE_TIMEOUT" envDefault:"2h"`
	AdminTokenTTL      time.Duration `env:"ADMIN_TOKEN_TTL" envDefault:"12h"`

	CloudWatchNamespace string `env:"CLOUDWATCH_NAMESPACE"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	cfg.StoreBackend = strings.ToLower(cfg.StoreBackend)
	cfg.StorageBackend = strings.ToLower(cfg.StorageBackend)
	cfg.StorageObjectACL = strings.ToLower(cfg.StorageObjectACL)

	return cfg, nil
}

// Validate reports every missing required setting in one ConfigurationError.
func (c *Config) Validate() error {
	var missing []string
	if c.ShopNumber == "" {
		missing = append(missing, "SHOP_NUMBER")
	}
	if c.AdminPassword == "" {
		missing = append(missing, "ADMIN_PASSWORD")
	}
	if c.StorageDestination == "" {
		missing = append(missing, "STORAGE_DESTINATION")
	}

	switch c.StoreBackend {
	case StorePostgres:
		if c.DatabaseURI == "" {
			missing = append(missing, "DATABASE_URI")
		}
	case StoreDynamoDB:
		if c.OrdersTable == "" {
			missing = append(missing, "ORDERS_TABLE")
		}
	case StorePebble:
		if c.PebbleDir == "" {
			missing = append(missing, "PEBBLE_DIR")
		}
	case StoreMemory:
	default:
		missing = append(missing, "STORE_BACKEND (dynamodb|postgres|pebble|memory)")
	}

	switch c.StorageBackend {
	case StorageS3:
		switch c.StorageObjectACL {
		case "", ACLPublicRead, ACLNone:
		default:
			missing = append(missing, "STORAGE_OBJECT_ACL (public-read|none)")
		}
	case StorageLocal:
		if c.LocalStorageDir == "" {
			missing = append(missing, "LOCAL_STORAGE_DIR")
		}
	default:
		missing = append(missing, "STORAGE_BACKEND (s3|local)")
	}

	if len(missing) > 0 {
		return &apperror.ConfigurationError{Missing: missing}
	}
	return nil
}

// MaxDocBytes is the document size cap in bytes.
func (c *Config) MaxDocBytes() int64 { return int64(c.MaxDocSizeMB) << 20 }

// MaxImageBytes is the screenshot size cap in bytes.
func (c *Config) MaxImageBytes() int64 { return int64(c.MaxImageSizeMB) << 20 }

// ObjectACL is the canned ACL sent with each S3 upload, empty for none.
func (c *Config) ObjectACL() string {
	switch c.StorageObjectACL {
	case ACLNone:
		return ""
	case "":
		return ACLPublicRead
	}
	return c.StorageObjectACL
}

// TokenSecret keys admin tokens: SESSION_SECRET when set, otherwise the
// admin password, so every instance of one deployment agrees on it.
func (c *Config) TokenSecret() string {
	if c.SessionSecret != "" {
		return c.SessionSecret
	}
	return c.AdminPassword
}
