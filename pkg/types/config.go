package types

type Config struct {
	Environment     string `envconfig:"ENVIRONMENT" default:"development"`
	ServerPort      uint   `envconfig:"SERVER_PORT" default:"8080"`
	ReadTimeoutSec  uint   `envconfig:"READ_TIMEOUT_SEC" default:"30"`
	WriteTimeoutSec uint   `envconfig:"WRITE_TIMEOUT_SEC" default:"60"`
	LogLevel        string `envconfig:"LOG_LEVEL" default:"info"`

	// Upload limits
	MaxPayloadBytes   int64   `envconfig:"MAX_PAYLOAD_BYTES" default:"41943040"` // 40 MiB
	MaxFileBytes      int64   `envconfig:"MAX_FILE_BYTES" default:"10485760"`    // 10 MiB
	MaxImageDimension int     `envconfig:"MAX_IMAGE_DIMENSION" default:"4000"`
	ImageQuality      float64 `envconfig:"IMAGE_QUALITY" default:"0.7"`
	SlotMaxFiles      int     `envconfig:"SLOT_MAX_FILES" default:"5"`
	MaxRequestBytes   int64   `envconfig:"MAX_REQUEST_BYTES" default:"62914560"` // 60 MiB
	DraftMaxAgeSec    int     `envconfig:"DRAFT_MAX_AGE_SEC" default:"86400"`

	// Postal code lookup
	CEPBaseURL     string `envconfig:"CEP_BASE_URL" default:"https://viacep.com.br/ws"`
	CEPTimeoutSec  uint   `envconfig:"CEP_TIMEOUT_SEC"`
	CEPCacheTTLSec uint   `envconfig:"CEP_CACHE_TTL_SEC" default:"86400"`
	RedisURL       string `envconfig:"REDIS_URL"`

	// Submission
	SubmitTransport        string `envconfig:"SUBMIT_TRANSPORT" default:"log"` // log, webhook, s3, postgres
	SubmitWebhookURL       string `envconfig:"SUBMIT_WEBHOOK_URL"`
	SubmitSimulatedDelayMS uint   `envconfig:"SUBMIT_SIMULATED_DELAY_MS" default:"2000"`
	S3Bucket               string `envconfig:"S3_BUCKET"`
	S3Prefix               string `envconfig:"S3_PREFIX" default:"submissions"`
	DatabaseURL            string `envconfig:"DATABASE_URL"`

	// Postgres pool
	DatabaseMaxConns           int32 `envconfig:"DATABASE_MAX_CONNS" default:"8"`
	DatabaseMaxConnIdleSec     uint  `envconfig:"DATABASE_MAX_CONN_IDLE_SEC" default:"900"`
	DatabaseMaxConnLifetimeSec uint  `envconfig:"DATABASE_MAX_CONN_LIFETIME_SEC" default:"2700"`

	// Draft cookie
	CookieName string `envconfig:"SESSION_COOKIE_NAME" default:"solar_draft"`

	// Cookie encryption keys (base64 encoded)
	// openssl rand -base64 32
	// to generate values
	CookieHashKey  string `envconfig:"COOKIE_HASH_KEY"`  // 32 or 64 bytes
	CookieBlockKey string `envconfig:"COOKIE_BLOCK_KEY"` // 16, 24, or 32 bytes
}

const (
	TransportLog      = "log"
	TransportWebhook  = "webhook"
	TransportS3       = "s3"
	TransportPostgres = "postgres"
)
