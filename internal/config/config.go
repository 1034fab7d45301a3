package config

// Config holds all application configuration.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"      validate:"required"`
	Database    DatabaseConfig    `mapstructure:"database"    validate:"required"`
	Auth        AuthConfig        `mapstructure:"auth"        validate:"required"`
	Catalog     CatalogConfig     `mapstructure:"catalog"     validate:"required"`
	Maintenance MaintenanceConfig `mapstructure:"maintenance"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains connection and pool settings.
type DatabaseConfig struct {
	URL                    string `mapstructure:"url"                       validate:"required,url"`
	MaxOpenConns           int    `mapstructure:"max_open_conns"            validate:"gte=1"`
	MaxIdleConns           int    `mapstructure:"max_idle_conns"            validate:"gte=0"`
	ConnMaxLifetimeMinutes int    `mapstructure:"conn_max_lifetime_minutes" validate:"gte=0"`
}

// AuthConfig contains token and password hashing settings.
type AuthConfig struct {
	JWTSecret                  string `mapstructure:"jwt_secret"                    validate:"required,min=32"`
	AccessTokenLifetimeMinutes int    `mapstructure:"access_token_lifetime_minutes" validate:"required,gt=0"`
	RefreshTokenLifetimeDays   int    `mapstructure:"refresh_token_lifetime_days"   validate:"required,gt=0"`
	BcryptCost                 int    `mapstructure:"bcrypt_cost"                   validate:"gte=4,lte=31"`
}

// CatalogConfig bounds list and import requests.
type CatalogConfig struct {
	DefaultPageSize int   `mapstructure:"default_page_size" validate:"required,gt=0,ltefield=MaxPageSize"`
	MaxPageSize     int   `mapstructure:"max_page_size"     validate:"required,gt=0"`
	MaxImportBytes  int64 `mapstructure:"max_import_bytes"  validate:"required,gt=0"`
}

// MaintenanceConfig controls the background sweeper. Zero disables it.
type MaintenanceConfig struct {
	SweepIntervalMinutes int `mapstructure:"sweep_interval_minutes" validate:"gte=0"`
}
