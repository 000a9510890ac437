package config

const (
	EnvPrefix = "VIDROBOX"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	StorageProviderGCS = "gcs"
	StorageProviderS3  = "s3"
)

const (
	EnvAppEnv     = "VIDROBOX_APP_ENV"
	EnvPort       = "VIDROBOX_APP_PORT"
	EnvDBDSN      = "VIDROBOX_DB_DSN"
	EnvDBHost     = "VIDROBOX_DB_HOST"
	EnvDBUser     = "VIDROBOX_DB_USER"
	EnvDBName     = "VIDROBOX_DB_NAME"
	EnvDBTimeout  = "VIDROBOX_DB_TX_TIMEOUT"
	EnvUseSQLite  = "VIDROBOX_USE_SQLITE"
	EnvRedisURL   = "VIDROBOX_REDIS_URL"
	EnvJWTSecret  = "VIDROBOX_JWT_SECRET"
	EnvStorage    = "VIDROBOX_STORAGE_PROVIDER"
	EnvGCSBucket  = "VIDROBOX_GCS_BUCKET_NAME"
	EnvS3Bucket   = "VIDROBOX_S3_BUCKET"
	EnvS3Endpoint = "VIDROBOX_S3_ENDPOINT"
	EnvEmailKey   = "VIDROBOX_EMAIL_API_KEY"
	EnvEmailAdmin = "VIDROBOX_EMAIL_ADMIN_ADDRESS"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
