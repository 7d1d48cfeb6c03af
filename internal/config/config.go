// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"pos-service/internal/model"
	"pos-service/internal/protocol"
)

// Config represents the application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Security SecurityConfig `mapstructure:"security"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	App      AppConfig      `mapstructure:"app"`
	Store    StoreConfig    `mapstructure:"store"`
	Receipt  ReceiptConfig  `mapstructure:"receipt"`
	Printer  PrinterConfig  `mapstructure:"printer"`
	Pairing  PairingConfig  `mapstructure:"pairing"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            string        `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	TLS             TLSConfig     `mapstructure:"tls"`
}

// TLSConfig represents TLS configuration
type TLSConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	CertFile string `mapstructure:"cert_file"`
	KeyFile  string `mapstructure:"key_file"`
}

// DatabaseConfig represents database configuration. When disabled the
// in-memory stores back products, transactions and print jobs.
type DatabaseConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	Host          string        `mapstructure:"host"`
	Port          int           `mapstructure:"port"`
	User          string        `mapstructure:"user"`
	Password      string        `mapstructure:"password"`
	DBName        string        `mapstructure:"dbname"`
	SSLMode       string        `mapstructure:"sslmode"`
	MaxOpenConns  int           `mapstructure:"max_open_conns"`
	MaxIdleConns  int           `mapstructure:"max_idle_conns"`
	MaxLifetime   time.Duration `mapstructure:"max_lifetime"`
	MigrateOnBoot bool          `mapstructure:"migrate_on_boot"`
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

// AppConfig represents application metadata
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`
}

// StoreConfig is the store profile printed on every receipt
type StoreConfig struct {
	Name         string   `mapstructure:"name"`
	AddressLines []string `mapstructure:"address_lines"`
	Phone        string   `mapstructure:"phone"`
	Feedback     []string `mapstructure:"feedback"`
	ClosingLine  string   `mapstructure:"closing_line"`
}

// ReceiptConfig controls receipt layout
type ReceiptConfig struct {
	Width           int    `mapstructure:"width"`
	Timezone        string `mapstructure:"timezone"`
	TimestampLayout string `mapstructure:"timestamp_layout"`
}

// PrinterConfig represents printer link and pacing configuration
type PrinterConfig struct {
	ConnectionType       string           `mapstructure:"connection_type"`
	ServiceUUID          string           `mapstructure:"service_uuid"`
	CharacteristicUUID   string           `mapstructure:"characteristic_uuid"`
	NamePrefix           string           `mapstructure:"name_prefix"`
	ScanTimeout          time.Duration    `mapstructure:"scan_timeout"`
	ConnectTimeout       time.Duration    `mapstructure:"connect_timeout"`
	WriteWithoutResponse bool             `mapstructure:"write_without_response"`
	MTU                  int              `mapstructure:"mtu"`
	ChunkSize            int              `mapstructure:"chunk_size"`
	ChunkDelay           time.Duration    `mapstructure:"chunk_delay"`
	AutoConnectOnStart   bool             `mapstructure:"auto_connect_on_start"`
	StatusInterval       time.Duration    `mapstructure:"status_interval"`
	JobRetention         time.Duration    `mapstructure:"job_retention"`
	Serial               SerialLinkConfig `mapstructure:"serial"`
	TCP                  TCPLinkConfig    `mapstructure:"tcp"`
	USB                  USBLinkConfig    `mapstructure:"usb"`
}

// SerialLinkConfig represents serial port configuration
type SerialLinkConfig struct {
	Port        string        `mapstructure:"port"`
	PortPattern string        `mapstructure:"port_pattern"`
	BaudRate    int           `mapstructure:"baud_rate"`
	DataBits    int           `mapstructure:"data_bits"`
	StopBits    int           `mapstructure:"stop_bits"`
	Parity      string        `mapstructure:"parity"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// TCPLinkConfig represents raw TCP printer configuration
type TCPLinkConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	KeepAlive    bool          `mapstructure:"keep_alive"`
	Timeout      time.Duration `mapstructure:"timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// USBLinkConfig represents USB printer configuration
type USBLinkConfig struct {
	VendorID  string        `mapstructure:"vendor_id"`
	ProductID string        `mapstructure:"product_id"`
	Interface int           `mapstructure:"interface"`
	Endpoint  int           `mapstructure:"endpoint"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// Pairing persistence policies
const (
	PairingMemory = "memory"
	PairingBolt   = "bolt"
)

// PairingConfig decides whether the last used printer survives a restart
type PairingConfig struct {
	Persistence string `mapstructure:"persistence"`
	BoltPath    string `mapstructure:"bolt_path"`
}

// Load loads configuration from file and environment variables
func Load() (*Config, error) {
	return LoadFrom("")
}

// LoadFrom loads configuration from an explicit file. An empty path searches
// the default locations; a missing file there falls back to defaults.
func LoadFrom(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/pos-service")
	}

	// Environment variable support
	v.SetEnvPrefix("POS_SERVICE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8084")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.tls.enabled", false)

	// Database defaults
	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "pos_service")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.max_lifetime", "5m")
	v.SetDefault("database.migrate_on_boot", true)

	// Security defaults
	v.SetDefault("security.allowed_origins", []string{"*"})

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.max_size", 100)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age", 28)
	v.SetDefault("logging.compress", true)

	// App defaults
	v.SetDefault("app.name", "pos-service")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.debug", false)

	// Store profile defaults
	v.SetDefault("store.name", "Bakery")
	v.SetDefault("store.address_lines", []string{})
	v.SetDefault("store.phone", "")
	v.SetDefault("store.feedback", []string{"Kritik & saran:", "hubungi nomor di atas"})
	v.SetDefault("store.closing_line", "Thank you!")

	// Receipt defaults
	v.SetDefault("receipt.width", 32)
	v.SetDefault("receipt.timezone", "Asia/Jakarta")
	v.SetDefault("receipt.timestamp_layout", "02/01/2006 15:04:05")

	// Printer defaults
	v.SetDefault("printer.connection_type", string(model.ConnectionTypeBluetooth))
	v.SetDefault("printer.service_uuid", protocol.DefaultServiceUUID)
	v.SetDefault("printer.characteristic_uuid", protocol.DefaultCharacteristicUUID)
	v.SetDefault("printer.scan_timeout", "15s")
	v.SetDefault("printer.connect_timeout", "10s")
	v.SetDefault("printer.write_without_response", false)
	v.SetDefault("printer.mtu", 185)
	v.SetDefault("printer.chunk_size", protocol.DefaultChunkSize)
	v.SetDefault("printer.chunk_delay", protocol.DefaultChunkDelay.String())
	v.SetDefault("printer.auto_connect_on_start", true)
	v.SetDefault("printer.status_interval", "5s")
	v.SetDefault("printer.job_retention", "720h")

	v.SetDefault("printer.serial.port_pattern", "/dev/rfcomm*")
	v.SetDefault("printer.serial.baud_rate", 9600)
	v.SetDefault("printer.serial.data_bits", 8)
	v.SetDefault("printer.serial.stop_bits", 1)
	v.SetDefault("printer.serial.parity", "none")
	v.SetDefault("printer.serial.timeout", "5s")

	v.SetDefault("printer.tcp.port", protocol.DefaultRawPrintPort)
	v.SetDefault("printer.tcp.keep_alive", true)
	v.SetDefault("printer.tcp.timeout", "10s")
	v.SetDefault("printer.tcp.write_timeout", "10s")

	v.SetDefault("printer.usb.interface", 0)
	v.SetDefault("printer.usb.endpoint", 0)
	v.SetDefault("printer.usb.timeout", "5s")

	// Pairing defaults
	v.SetDefault("pairing.persistence", PairingMemory)
	v.SetDefault("pairing.bolt_path", "./data/pairing.db")
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Server.Host == "" {
		return fmt.Errorf("server.host is required")
	}
	if config.Server.Port == "" {
		return fmt.Errorf("server.port is required")
	}
	if config.Database.Enabled && config.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}

	if !oneOf(config.App.Environment, "development", "staging", "production", "test") {
		return fmt.Errorf("app.environment must be one of: development, staging, production, test")
	}
	if !oneOf(config.Logging.Level, "debug", "info", "warn", "error", "fatal") {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error, fatal")
	}

	if config.Store.Name == "" {
		return fmt.Errorf("store.name is required")
	}
	if config.Receipt.Width < 16 {
		return fmt.Errorf("receipt.width must be at least 16, got %d", config.Receipt.Width)
	}
	if _, err := time.LoadLocation(config.Receipt.Timezone); err != nil {
		return fmt.Errorf("receipt.timezone is invalid: %w", err)
	}

	if _, err := model.ParseConnectionType(config.Printer.ConnectionType); err != nil {
		return fmt.Errorf("printer.connection_type: %w", err)
	}
	if config.Printer.ChunkSize < protocol.MinChunkSize || config.Printer.ChunkSize > protocol.MaxChunkSize {
		return fmt.Errorf("printer.chunk_size must be between %d and %d, got %d",
			protocol.MinChunkSize, protocol.MaxChunkSize, config.Printer.ChunkSize)
	}
	if config.Printer.ChunkDelay < protocol.MinChunkDelay || config.Printer.ChunkDelay > protocol.MaxChunkDelay {
		return fmt.Errorf("printer.chunk_delay must be between %s and %s, got %s",
			protocol.MinChunkDelay, protocol.MaxChunkDelay, config.Printer.ChunkDelay)
	}
	if err := protocol.ValidateConfig(config.LinkConfig()); err != nil {
		return fmt.Errorf("printer: %w", err)
	}

	if !oneOf(config.Pairing.Persistence, PairingMemory, PairingBolt) {
		return fmt.Errorf("pairing.persistence must be one of: %s, %s", PairingMemory, PairingBolt)
	}
	if config.Pairing.Persistence == PairingBolt && config.Pairing.BoltPath == "" {
		return fmt.Errorf("pairing.bolt_path is required when pairing.persistence is %s", PairingBolt)
	}

	return nil
}

func oneOf(value string, allowed ...string) bool {
	for _, a := range allowed {
		if value == a {
			return true
		}
	}
	return false
}

// LinkConfig builds the printer link configuration
func (c *Config) LinkConfig() *protocol.LinkConfig {
	connType, _ := model.ParseConnectionType(c.Printer.ConnectionType)
	p := c.Printer

	return &protocol.LinkConfig{
		Type: connType,
		Bluetooth: protocol.BluetoothConfig{
			ServiceUUID:          p.ServiceUUID,
			CharacteristicUUID:   p.CharacteristicUUID,
			NamePrefix:           p.NamePrefix,
			ScanTimeout:          p.ScanTimeout,
			ConnectTimeout:       p.ConnectTimeout,
			WriteWithoutResponse: p.WriteWithoutResponse,
			MTU:                  p.MTU,
		},
		Serial: protocol.SerialConfig{
			Port:        p.Serial.Port,
			PortPattern: p.Serial.PortPattern,
			BaudRate:    p.Serial.BaudRate,
			DataBits:    p.Serial.DataBits,
			StopBits:    p.Serial.StopBits,
			Parity:      p.Serial.Parity,
			Timeout:     p.Serial.Timeout,
		},
		TCP: protocol.TCPConfig{
			Host:         p.TCP.Host,
			Port:         p.TCP.Port,
			KeepAlive:    p.TCP.KeepAlive,
			Timeout:      p.TCP.Timeout,
			WriteTimeout: p.TCP.WriteTimeout,
		},
		USB: protocol.USBConfig{
			VendorID:  p.USB.VendorID,
			ProductID: p.USB.ProductID,
			Interface: p.USB.Interface,
			Endpoint:  p.USB.Endpoint,
			Timeout:   p.USB.Timeout,
		},
	}
}

// StoreProfile returns the store profile printed on receipts
func (c *Config) StoreProfile() model.StoreProfile {
	return model.StoreProfile{
		Name:          c.Store.Name,
		AddressLines:  append([]string(nil), c.Store.AddressLines...),
		PhoneNumber:   c.Store.Phone,
		FeedbackLines: append([]string(nil), c.Store.Feedback...),
		ClosingLine:   c.Store.ClosingLine,
	}
}

// Location returns the receipt timezone
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Receipt.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// DSN returns the lib/pq connection string
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
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
