package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Client  ClientConfig  `mapstructure:"client" validate:"required"`
	Store   StoreConfig   `mapstructure:"store" validate:"required"`
	API     APIConfig     `mapstructure:"api" validate:"required"`
	Sync    SyncConfig    `mapstructure:"sync" validate:"required"`
	Session SessionConfig `mapstructure:"session"`
}

// ClientConfig contains process-level settings of the client host.
type ClientConfig struct {
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	DataDir  string `mapstructure:"data_dir" validate:"required"`
}

// StoreConfig selects and configures the persistent key-value backend.
type StoreConfig struct {
	Driver        string `mapstructure:"driver" validate:"required,oneof=memory file sqlite redis postgres"`
	Path          string `mapstructure:"path"`
	RedisAddr     string `mapstructure:"redis_addr" validate:"required_if=Driver redis"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db" validate:"gte=0"`
	PostgresDSN   string `mapstructure:"postgres_dsn" validate:"required_if=Driver postgres"`
	// EncryptionKey, when set, seals sensitive values at rest.
	EncryptionKey string `mapstructure:"encryption_key" validate:"omitempty,hexadecimal,len=64"`
}

// APIConfig contains settings for the remote auth and medical services.
type APIConfig struct {
	BaseURL        string `mapstructure:"base_url" validate:"required,url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" validate:"required,gte=1,lte=120"`
}

// SyncConfig tunes the medical profile synchronizer.
type SyncConfig struct {
	QueueSize int `mapstructure:"queue_size" validate:"required,gte=1,lte=10000"`
}

// SessionConfig controls session restoration at startup.
type SessionConfig struct {
	InvalidateExpired bool `mapstructure:"invalidate_expired"`
}
