package models

// MConfig Structure
type MConfig struct {
	Name      string          `yaml:"name" env:"NAME"`
	Host      string          `yaml:"host" env:"HOST"`
	Port      int             `yaml:"port" env:"PORT"`
	LogLevel  string          `yaml:"log_level" env:"LOG_LEVEL"`
	GrpcPort  int             `yaml:"grpc_port" env:"GRPC_PORT"`
	Timezone  string          `yaml:"timezone" env:"TIMEZONE"`
	DataStart string          `yaml:"data_start" env:"DATA_START"`
	Storage   MStorageConfig  `yaml:"storage" envPrefix:"STORAGE_"`
	Network   MNetworkConfig  `yaml:"network" envPrefix:"NETWORK_"`
	Provider  MProviderConfig `yaml:"provider" envPrefix:"PROVIDER_"`
	Calendar  MCalendarConfig `yaml:"calendar" envPrefix:"CALENDAR_"`
	Universe  MUniverseConfig `yaml:"universe" envPrefix:"UNIVERSE_"`
	Backfill  MBackfillConfig `yaml:"backfill" envPrefix:"BACKFILL_"`
}

type MStorageConfig struct {
	DBType             string `yaml:"db_type" env:"DB_TYPE"`
	DBPath             string `yaml:"db_path" env:"DB_PATH"`
	DBConnectionString string `yaml:"db_connection_string" env:"DB_CONNECTION_STRING"`
	Schema             string `yaml:"schema" env:"SCHEMA"` // postgres only
}

type MNetworkConfig struct {
	RequestTimeout int    `yaml:"timeout" env:"TIMEOUT"`
	MaxRetries     int    `yaml:"retries" env:"RETRIES"`
	UserAgent      string `yaml:"user_agent" env:"USER_AGENT"`
}

type MProviderConfig struct {
	RequestsPerMinute int             `yaml:"requests_per_minute" env:"REQUESTS_PER_MINUTE"`
	APIKey            string          `yaml:"api_key" env:"API_KEY"`
	APISecret         string          `yaml:"api_secret" env:"API_SECRET"`
	Sources           []MSourceConfig `yaml:"sources"`
}

type MSourceConfig struct {
	Name      string `yaml:"name"`
	Type      string `yaml:"type"` // alpaca | polygon
	BaseURL   string `yaml:"base_url"`
	APIKey    string `yaml:"api_key"`    // falls back to provider.api_key
	APISecret string `yaml:"api_secret"` // falls back to provider.api_secret
	Feed      string `yaml:"feed"`       // alpaca only
}

type MCalendarConfig struct {
	Source string `yaml:"source" env:"SOURCE"` // builtin | exchange
	MIC    string `yaml:"mic" env:"MIC"`
}

type MUniverseConfig struct {
	Symbols []string `yaml:"symbols" env:"SYMBOLS" envSeparator:","`
	Range   int      `yaml:"range" env:"RANGE"` // 0 = whole universe
}

type MBackfillConfig struct {
	Workers              int    `yaml:"workers" env:"WORKERS"`
	SymbolTimeoutSeconds int    `yaml:"symbol_timeout_seconds" env:"SYMBOL_TIMEOUT_SECONDS"`
	ScheduleAt           string `yaml:"schedule_at" env:"SCHEDULE_AT"` // HH:MM local, serve mode
	Interpolate          bool   `yaml:"interpolate" env:"INTERPOLATE"` // reconcile also interpolates
}
