package config

// EnvPrefix namespaces every variable read by envconfig.
const EnvPrefix = "BOOKSTORE"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	defaultSQLiteDSN = "file:bookstore.db?_foreign_keys=on"
)

const (
	EnvAppEnv                 = "BOOKSTORE_APP_ENV"
	EnvPort                   = "BOOKSTORE_APP_PORT"
	EnvLogLevel               = "BOOKSTORE_LOG_LEVEL"
	EnvDBDSN                  = "BOOKSTORE_DB_DSN"
	EnvDBHost                 = "BOOKSTORE_DB_HOST"
	EnvDBUser                 = "BOOKSTORE_DB_USER"
	EnvDBName                 = "BOOKSTORE_DB_NAME"
	EnvDBPassword             = "BOOKSTORE_DB_PASSWORD"
	EnvRedisURL               = "BOOKSTORE_REDIS_URL"
	EnvJWTSecret              = "BOOKSTORE_JWT_SECRET"
	EnvJWTIssuer              = "BOOKSTORE_JWT_ISSUER"
	EnvJWTExpMins             = "BOOKSTORE_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "BOOKSTORE_REFRESH_TOKEN_TTL_MINUTES"
	EnvUseSQLite              = "BOOKSTORE_USE_SQLITE"
	EnvGCPProjectID           = "BOOKSTORE_GCP_PROJECT_ID"
	EnvPubSubOrdersTopic      = "BOOKSTORE_PUBSUB_ORDERS_TOPIC"
	EnvPubSubOrdersSub        = "BOOKSTORE_PUBSUB_ORDERS_SUBSCRIPTION"
	EnvOrdersPendingTTL       = "BOOKSTORE_ORDERS_PENDING_TTL"
	EnvCORSOrigins            = "BOOKSTORE_CORS_ORIGINS"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
