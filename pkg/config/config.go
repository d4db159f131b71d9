package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Store         StoreConfig
	Admin         AdminConfig
	Cart          CartConfig
	Dashboard     DashboardConfig
	GCP           GCPConfig
	GCS           GCSConfig
	Events        EventsConfig
	PubSub        PubSubConfig
	Kafka         KafkaConfig
	Sendgrid      SendgridConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Events.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"TN_APP_ENV" required:"true"`
	Port         string `envconfig:"TN_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"TN_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"TN_LOG_WARN_STACK" default:"false"`
	CORSOrigins  string `envconfig:"TN_CORS_ORIGINS" default:"*"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// AllowedOrigins splits the comma separated CORS origin list.
func (a AppConfig) AllowedOrigins() []string {
	out := []string{}
	for _, part := range strings.Split(a.CORSOrigins, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

type ServiceConfig struct {
	Kind string `envconfig:"TN_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"TN_DB_DSN"`
	Driver string `envconfig:"TN_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"TN_DB_HOST"`
	Port     int    `envconfig:"TN_DB_PORT" default:"5432"`
	User     string `envconfig:"TN_DB_USER"`
	Password string `envconfig:"TN_DB_PASSWORD"`
	Name     string `envconfig:"TN_DB_NAME"`
	SSLMode  string `envconfig:"TN_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"TN_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"TN_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"TN_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"TN_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"TN_REDIS_URL"`
	Address      string        `envconfig:"TN_REDIS_ADDR" default:"localhost:6379"`
	Password     string        `envconfig:"TN_REDIS_PASSWORD"`
	DB           int           `envconfig:"TN_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"TN_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"TN_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"TN_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"TN_REDIS_READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"TN_REDIS_WRITE_TIMEOUT" default:"3s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"TN_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"TN_JWT_ISSUER" default:"tortasnery"`
	ExpirationMinutes int    `envconfig:"TN_JWT_EXPIRATION_MINUTES" default:"1440"`
	CookieName        string `envconfig:"TN_SESSION_COOKIE_NAME" default:"admin_session"`
	CookieSecure      bool   `envconfig:"TN_SESSION_COOKIE_SECURE" default:"false"`
}

// Expiration returns the access token lifetime.
func (j JWTConfig) Expiration() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"TN_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"TN_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"TN_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"TN_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"TN_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"TN_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"TN_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"TN_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"TN_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"TN_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"TN_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"TN_AUTO_MIGRATE" default:"false"`
	AutoSeed    bool `envconfig:"TN_AUTO_SEED" default:"false"`
}

type StoreConfig struct {
	Name           string `envconfig:"TN_STORE_NAME" default:"Tortas Nery"`
	AdminEmail     string `envconfig:"TN_STORE_ADMIN_EMAIL" default:"admin@tortasnery.com"`
	WhatsAppNumber string `envconfig:"TN_STORE_WHATSAPP_NUMBER" default:"51997935991"`
	Currency       string `envconfig:"TN_STORE_CURRENCY_SYMBOL" default:"S/"`
}

// WhatsAppURL returns the wa.me deep link for the store number.
func (s StoreConfig) WhatsAppURL() string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s.WhatsAppNumber)
	return "https://wa.me/" + digits
}

type AdminConfig struct {
	BootstrapEmail    string `envconfig:"TN_ADMIN_EMAIL" default:"admin@tortasnery.com"`
	BootstrapPassword string `envconfig:"TN_ADMIN_PASSWORD" default:"admin123"`
}

type CartConfig struct {
	TTL time.Duration `envconfig:"TN_CART_TTL" default:"720h"`
}

type DashboardConfig struct {
	CacheTTL time.Duration `envconfig:"TN_DASHBOARD_CACHE_TTL" default:"30s"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"TN_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"TN_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"TN_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName string `envconfig:"TN_GCS_BUCKET_NAME"`
	PublicBase string `envconfig:"TN_GCS_PUBLIC_BASE_URL" default:"https://storage.googleapis.com"`
}

// Enabled reports whether a bucket is configured.
func (g GCSConfig) Enabled() bool {
	return strings.TrimSpace(g.BucketName) != ""
}

type EventsConfig struct {
	Driver   string `envconfig:"TN_EVENTS_DRIVER" default:"none"`
	Producer string `envconfig:"TN_EVENTS_PRODUCER" default:"storefront-api"`
}

func (e EventsConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(e.Driver)) {
	case "", EventsDriverNone, EventsDriverPubSub, EventsDriverKafka:
		return nil
	default:
		return fmt.Errorf("%s must be one of %s, %s, %s", EnvEventsDriver, EventsDriverNone, EventsDriverPubSub, EventsDriverKafka)
	}
}

// NormalizedDriver returns the lowercase driver name, defaulting to none.
func (e EventsConfig) NormalizedDriver() string {
	d := strings.ToLower(strings.TrimSpace(e.Driver))
	if d == "" {
		return EventsDriverNone
	}
	return d
}

type PubSubConfig struct {
	OrdersTopic string `envconfig:"TN_PUBSUB_ORDERS_TOPIC" default:"tn-order-events"`
}

type KafkaConfig struct {
	Brokers     string `envconfig:"TN_KAFKA_BROKERS" default:"localhost:9092"`
	OrdersTopic string `envconfig:"TN_KAFKA_ORDERS_TOPIC" default:"order.events"`
	BufferSize  int    `envconfig:"TN_KAFKA_BUFFER_SIZE" default:"256"`
}

// BrokerList splits the comma separated broker addresses.
func (k KafkaConfig) BrokerList() []string {
	out := []string{}
	for _, part := range strings.Split(k.Brokers, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

type SendgridConfig struct {
	APIKey      string `envconfig:"TN_SENDGRID_API_KEY"`
	DefaultFrom string `envconfig:"TN_SENDGRID_FROM_EMAIL" default:"pedidos@tortasnery.com"`
	FromName    string `envconfig:"TN_SENDGRID_FROM_NAME" default:"Tortas Nery"`
	BaseURL     string `envconfig:"TN_SENDGRID_BASE_URL" default:"https://api.sendgrid.com"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range dbPartEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
