// internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Security SecurityConfig `mapstructure:"security"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Serial   SerialDefaults `mapstructure:"serial"`
	Terminal TerminalConfig `mapstructure:"terminal"`
	App      AppConfig      `mapstructure:"app"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// DatabaseConfig represents the embedded sqlite database configuration
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// SecurityConfig represents security configuration
type SecurityConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// SerialDefaults represents the serial parameters applied when a client
// omits them on connect
type SerialDefaults struct {
	BaudRate      int    `mapstructure:"baud_rate"`
	DataBits      int    `mapstructure:"data_bits"`
	StopBits      string `mapstructure:"stop_bits"`
	Parity        string `mapstructure:"parity"`
	FlowControl   string `mapstructure:"flow_control"`
	ReadTimeoutMs int    `mapstructure:"read_timeout_ms"`
}

// TerminalConfig represents terminal pipeline configuration
type TerminalConfig struct {
	LogCapacity          int    `mapstructure:"log_capacity"`
	RecordingDir         string `mapstructure:"recording_dir"`
	SegmentationMode     string `mapstructure:"segmentation_mode"`
	SegmentationTimeout  int    `mapstructure:"segmentation_timeout_ms"`
	SegmentationBoundary string `mapstructure:"segmentation_delimiter"`
	ReadBufferSize       int    `mapstructure:"read_buffer_size"`
}

// AppConfig represents application metadata
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`
}

// Load loads configuration from file and environment variables
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.SetEnvPrefix("SERIAL_TERMINAL")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	// Config file is optional; defaults plus environment are enough
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "127.0.0.1")
	viper.SetDefault("server.port", "8090")
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("server.idle_timeout", "120s")

	// Database defaults
	viper.SetDefault("database.path", "./data/serial-terminal.db")

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.output", "stdout")
	viper.SetDefault("logging.max_size", 100)
	viper.SetDefault("logging.max_backups", 3)
	viper.SetDefault("logging.max_age", 28)
	viper.SetDefault("logging.compress", true)

	// Serial defaults
	viper.SetDefault("serial.baud_rate", 115200)
	viper.SetDefault("serial.data_bits", 8)
	viper.SetDefault("serial.stop_bits", "1")
	viper.SetDefault("serial.parity", "none")
	viper.SetDefault("serial.flow_control", "none")
	viper.SetDefault("serial.read_timeout_ms", 50)

	// Terminal defaults
	viper.SetDefault("terminal.log_capacity", 1000)
	viper.SetDefault("terminal.recording_dir", "./SerialLogs")
	viper.SetDefault("terminal.segmentation_mode", "combined")
	viper.SetDefault("terminal.segmentation_timeout_ms", 50)
	viper.SetDefault("terminal.segmentation_delimiter", "any_newline")
	viper.SetDefault("terminal.read_buffer_size", 1024)

	// App defaults
	viper.SetDefault("app.name", "serial-terminal")
	viper.SetDefault("app.version", "1.0.0")
	viper.SetDefault("app.environment", "development")
	viper.SetDefault("app.debug", false)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Server.Host == "" {
		return fmt.Errorf("server.host is required")
	}
	if config.Server.Port == "" {
		return fmt.Errorf("server.port is required")
	}
	if config.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	validEnvs := []string{"development", "staging", "production", "test"}
	isValidEnv := false
	for _, env := range validEnvs {
		if config.App.Environment == env {
			isValidEnv = true
			break
		}
	}
	if !isValidEnv {
		return fmt.Errorf("app.environment must be one of: %v", validEnvs)
	}

	validLevels := []string{"debug", "info", "warn", "error", "fatal"}
	isValidLevel := false
	for _, level := range validLevels {
		if config.Logging.Level == level {
			isValidLevel = true
			break
		}
	}
	if !isValidLevel {
		return fmt.Errorf("logging.level must be one of: %v", validLevels)
	}

	if config.Terminal.ReadBufferSize <= 0 {
		return fmt.Errorf("terminal.read_buffer_size must be positive")
	}

	return nil
}

// GetServerAddr returns the server address
func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

// IsProduction checks if the environment is production
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// IsDevelopment checks if the environment is development
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsDebugEnabled checks if debug mode is enabled
func (c *Config) IsDebugEnabled() bool {
	return c.App.Debug || c.IsDevelopment()
}
