package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	RateLimit    RateLimitConfig
	FeatureFlags FeatureFlagsConfig
	Storage      StorageConfig
	GCP          GCPConfig
	GCS          GCSConfig
	S3           S3Config
	Email        EmailConfig
	Budgets      BudgetsConfig
	Cron         CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	if err := cfg.Storage.validate(cfg.GCS, cfg.S3); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env           string `envconfig:"VIDROBOX_APP_ENV" required:"true"`
	Port          string `envconfig:"VIDROBOX_APP_PORT" required:"true"`
	LogLevel      string `envconfig:"VIDROBOX_LOG_LEVEL" default:"info"`
	LogWarnStack  bool   `envconfig:"VIDROBOX_LOG_WARN_STACK" default:"false"`
	PublicBaseURL string `envconfig:"VIDROBOX_PUBLIC_BASE_URL" default:"http://localhost:3000"`
	Timezone      string `envconfig:"VIDROBOX_TIMEZONE" default:"America/Sao_Paulo"`
}

// Location resolves Timezone, falling back to UTC when the zone is unknown.
func (a AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(a.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"VIDROBOX_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"VIDROBOX_DB_DSN"`
	Driver string `envconfig:"VIDROBOX_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"VIDROBOX_DB_HOST"`
	LegacyPort     int    `envconfig:"VIDROBOX_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"VIDROBOX_DB_USER"`
	LegacyPassword string `envconfig:"VIDROBOX_DB_PASSWORD"`
	LegacyName     string `envconfig:"VIDROBOX_DB_NAME"`
	LegacySSLMode  string `envconfig:"VIDROBOX_DB_SSLMODE" default:"disable"`

	SQLitePath string `envconfig:"VIDROBOX_SQLITE_PATH" default:"vidrobox.db"`

	MaxOpenConns    int           `envconfig:"VIDROBOX_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"VIDROBOX_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"VIDROBOX_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"VIDROBOX_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	// TxTimeout bounds interactive transactions such as budget confirmation.
	TxTimeout time.Duration `envconfig:"VIDROBOX_DB_TX_TIMEOUT" default:"15s"`
	// SlowQuery is the duration past which a statement is logged as a warning.
	SlowQuery time.Duration `envconfig:"VIDROBOX_DB_SLOW_QUERY" default:"500ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"VIDROBOX_REDIS_URL" required:"true"`
	Address      string        `envconfig:"VIDROBOX_REDIS_ADDR"`
	Password     string        `envconfig:"VIDROBOX_REDIS_PASSWORD"`
	DB           int           `envconfig:"VIDROBOX_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"VIDROBOX_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"VIDROBOX_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"VIDROBOX_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"VIDROBOX_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"VIDROBOX_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"VIDROBOX_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"VIDROBOX_JWT_ISSUER" default:"vidrobox"`
	ExpirationMinutes int    `envconfig:"VIDROBOX_JWT_EXPIRATION_MINUTES" default:"720"`
}

// SessionTTL mirrors the access token lifetime so logout can revoke it early.
func (j JWTConfig) SessionTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"VIDROBOX_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"VIDROBOX_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"VIDROBOX_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"VIDROBOX_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"VIDROBOX_ARGON_KEY_LEN" default:"32"`
}

type RateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"VIDROBOX_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginIPLimit       int           `envconfig:"VIDROBOX_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	LoginEmailLimit    int           `envconfig:"VIDROBOX_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"10"`
	PublicWindow       time.Duration `envconfig:"VIDROBOX_RATE_LIMIT_PUBLIC_WINDOW" default:"10m"`
	QuoteRequestsLimit int           `envconfig:"VIDROBOX_RATE_LIMIT_QUOTE_REQUESTS" default:"5"`
	ClientMessageLimit int           `envconfig:"VIDROBOX_RATE_LIMIT_CLIENT_MESSAGES" default:"10"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"VIDROBOX_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"VIDROBOX_AUTO_MIGRATE" default:"false"`
}

type StorageConfig struct {
	Provider  string `envconfig:"VIDROBOX_STORAGE_PROVIDER" default:"s3"`
	KeyPrefix string `envconfig:"VIDROBOX_STORAGE_KEY_PREFIX" default:"vidrobox"`
}

func (s StorageConfig) validate(gcs GCSConfig, s3 S3Config) error {
	switch strings.ToLower(strings.TrimSpace(s.Provider)) {
	case StorageProviderGCS:
		if gcs.BucketName == "" {
			return fmt.Errorf("%s is required when storage provider is gcs", EnvGCSBucket)
		}
	case StorageProviderS3:
		if s3.Bucket == "" {
			return fmt.Errorf("%s is required when storage provider is s3", EnvS3Bucket)
		}
	default:
		return fmt.Errorf("unsupported storage provider %q", s.Provider)
	}
	return nil
}

type GCPConfig struct {
	ProjectID              string `envconfig:"VIDROBOX_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"VIDROBOX_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"VIDROBOX_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName    string `envconfig:"VIDROBOX_GCS_BUCKET_NAME"`
	PublicBaseURL string `envconfig:"VIDROBOX_GCS_PUBLIC_BASE_URL" default:"https://storage.googleapis.com"`
}

type S3Config struct {
	Bucket        string `envconfig:"VIDROBOX_S3_BUCKET"`
	Region        string `envconfig:"VIDROBOX_S3_REGION" default:"us-east-1"`
	Endpoint      string `envconfig:"VIDROBOX_S3_ENDPOINT"`
	PathStyle     bool   `envconfig:"VIDROBOX_S3_PATH_STYLE" default:"false"`
	SkipACL       bool   `envconfig:"VIDROBOX_S3_SKIP_ACL" default:"false"`
	PublicBaseURL string `envconfig:"VIDROBOX_S3_PUBLIC_BASE_URL"`
}

type EmailConfig struct {
	APIKey       string        `envconfig:"VIDROBOX_EMAIL_API_KEY"`
	BaseURL      string        `envconfig:"VIDROBOX_EMAIL_BASE_URL" default:"https://api.resend.com"`
	From         string        `envconfig:"VIDROBOX_EMAIL_FROM" default:"Vidrobox <pedidos@vidrobox.com.br>"`
	ReplyTo      string        `envconfig:"VIDROBOX_EMAIL_REPLY_TO"`
	AdminAddress string        `envconfig:"VIDROBOX_EMAIL_ADMIN_ADDRESS"`
	ReviewURL    string        `envconfig:"VIDROBOX_EMAIL_REVIEW_URL"`
	Timeout      time.Duration `envconfig:"VIDROBOX_EMAIL_TIMEOUT" default:"15s"`
}

// Enabled reports whether outbound email is configured at all.
func (e EmailConfig) Enabled() bool {
	return strings.TrimSpace(e.APIKey) != ""
}

type BudgetsConfig struct {
	AttachmentMaxBytes int64         `envconfig:"VIDROBOX_ATTACHMENT_MAX_BYTES" default:"10485760"`
	AttachmentTimeout  time.Duration `envconfig:"VIDROBOX_ATTACHMENT_TIMEOUT" default:"20s"`
	PhotoMaxWidth      int           `envconfig:"VIDROBOX_PDF_PHOTO_MAX_WIDTH" default:"800"`
	CompanyName        string        `envconfig:"VIDROBOX_COMPANY_NAME" default:"Vidrobox Box para Banheiro"`
	QuoteValidityDays  int           `envconfig:"VIDROBOX_QUOTE_VALIDITY_DAYS" default:"15"`
}

type CronConfig struct {
	Interval        time.Duration `envconfig:"VIDROBOX_CRON_INTERVAL" default:"1h"`
	TrashRetention  time.Duration `envconfig:"VIDROBOX_TRASH_RETENTION" default:"720h"`
	SendJobStaleAge time.Duration `envconfig:"VIDROBOX_SEND_JOB_STALE_AFTER" default:"30m"`
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if db.DSN != "" || useSQLite {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
