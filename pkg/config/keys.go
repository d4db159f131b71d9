package config

const EnvPrefix = "TN"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EventsDriverNone   = "none"
	EventsDriverPubSub = "pubsub"
	EventsDriverKafka  = "kafka"
)

const (
	EnvAppEnv       = "TN_APP_ENV"
	EnvPort         = "TN_APP_PORT"
	EnvDBDSN        = "TN_DB_DSN"
	EnvDBHost       = "TN_DB_HOST"
	EnvDBPort       = "TN_DB_PORT"
	EnvDBUser       = "TN_DB_USER"
	EnvDBPassword   = "TN_DB_PASSWORD"
	EnvDBName       = "TN_DB_NAME"
	EnvRedisURL     = "TN_REDIS_URL"
	EnvJWTSecret    = "TN_JWT_SECRET"
	EnvJWTIssuer    = "TN_JWT_ISSUER"
	EnvJWTExpMins   = "TN_JWT_EXPIRATION_MINUTES"
	EnvEventsDriver = "TN_EVENTS_DRIVER"
	EnvKafkaBrokers = "TN_KAFKA_BROKERS"
	EnvGCSBucket    = "TN_GCS_BUCKET_NAME"
)

var dbPartEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
