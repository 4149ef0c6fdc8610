package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"restaurant_pos_backend/pkg/utils"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Status policies for PATCH /orders/:id/status.
const (
	StatusPolicyStrict     = "strict"
	StatusPolicyPermissive = "permissive"
)

// Store drivers.
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

type DatabaseConfig struct {
	Host        string `yaml:"host"`
	Port        string `yaml:"port"`
	User        string `yaml:"user"`
	Password    string `yaml:"password"`
	Name        string `yaml:"name"`
	SSLMode     string `yaml:"sslmode"`
	SchemaPath  string `yaml:"schema_path"`
	ApplySchema bool   `yaml:"apply_schema"`
}

// DSN builds a lib/pq connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	BoardTTL time.Duration `yaml:"board_ttl"`
}

type KafkaConfig struct {
	Brokers    []string `yaml:"brokers"`
	OrderTopic string   `yaml:"order_topic"`
}

type PrintConfig struct {
	RabbitMQURL    string `yaml:"rabbitmq_url"`
	Exchange       string `yaml:"exchange"`
	BillPrinter    string `yaml:"bill_printer"`
	KitchenPrinter string `yaml:"kitchen_printer"`
	ReferenceCopy  bool   `yaml:"reference_copy"`
}

// ReceiptConfig is the store header/footer printed on every customer bill.
type ReceiptConfig struct {
	StoreName    string   `yaml:"store_name"`
	StoreTagline string   `yaml:"store_tagline"`
	AddressLines []string `yaml:"address_lines"`
	FooterLines  []string `yaml:"footer_lines"`
	QRBaseURL    string   `yaml:"qr_base_url"`
	Timezone     string   `yaml:"timezone"`
	Dialect      string   `yaml:"dialect"`
}

type Config struct {
	Env                string         `yaml:"env"`
	Port               string         `yaml:"port"`
	LogLevel           string         `yaml:"log_level"`
	StoreDriver        string         `yaml:"store_driver"`
	JWTSecret          string         `yaml:"jwt_secret"`
	DeviceKeyHash      string         `yaml:"device_key_hash"`
	CORSAllowedOrigins []string       `yaml:"cors_allowed_origins"`
	StatusPolicy       string         `yaml:"status_policy"`
	Database           DatabaseConfig `yaml:"database"`
	Redis              RedisConfig    `yaml:"redis"`
	Kafka              KafkaConfig    `yaml:"kafka"`
	Print              PrintConfig    `yaml:"print"`
	Receipt            ReceiptConfig  `yaml:"receipt"`
}

// IsDevelopment reports whether human readable logs are wanted.
func (c *Config) IsDevelopment() bool {
	return c.Env == "" || c.Env == "development"
}

func defaults() *Config {
	return &Config{
		Env:                "development",
		Port:               "8080",
		LogLevel:           "info",
		StoreDriver:        StoreDriverPostgres,
		CORSAllowedOrigins: []string{"http://localhost:3000", "http://localhost:3001"},
		StatusPolicy:       StatusPolicyStrict,
		Database: DatabaseConfig{
			Host:        "localhost",
			Port:        "5432",
			User:        "pos_user",
			Password:    "pos_password",
			Name:        "restaurant_pos_db",
			SSLMode:     "disable",
			ApplySchema: true,
		},
		Redis: RedisConfig{BoardTTL: time.Second},
		Kafka: KafkaConfig{OrderTopic: "pos.orders"},
		Print: PrintConfig{
			Exchange:       "print_jobs",
			BillPrinter:    "counter",
			KitchenPrinter: "kitchen",
			ReferenceCopy:  true,
		},
		Receipt: ReceiptConfig{
			StoreName:    "LOTTERIA",
			StoreTagline: "CHINESE RESTAURANT",
			AddressLines: []string{"No 434, Athurugiriya Road", "Hokandara North", "Tel: 0117987100 / 0719440100"},
			FooterLines:  []string{"Thank You! Come Again"},
			Timezone:     "UTC",
			Dialect:      "escpos",
		},
	}
}

// Load builds the configuration: defaults, then the optional YAML file named by
// CONFIG_FILE, then environment variables (a .env file is loaded first if present).
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(cfg, path); err != nil {
			return nil, err
		}
	}
	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(cfg *Config, path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("could not read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(content, cfg); err != nil {
		return fmt.Errorf("could not parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Env = utils.Getenv("ENV", cfg.Env)
	cfg.Port = utils.Getenv("PORT", cfg.Port)
	cfg.LogLevel = utils.Getenv("LOG_LEVEL", cfg.LogLevel)
	cfg.StoreDriver = strings.ToLower(utils.Getenv("STORE_DRIVER", cfg.StoreDriver))
	cfg.JWTSecret = utils.Getenv("JWT_SECRET", cfg.JWTSecret)
	cfg.DeviceKeyHash = utils.Getenv("DEVICE_KEY_HASH", cfg.DeviceKeyHash)
	cfg.CORSAllowedOrigins = utils.GetenvList("CORS_ALLOWED_ORIGINS", cfg.CORSAllowedOrigins)
	cfg.StatusPolicy = strings.ToLower(utils.Getenv("ORDER_STATUS_POLICY", cfg.StatusPolicy))

	cfg.Database.Host = utils.Getenv("DB_HOST", cfg.Database.Host)
	cfg.Database.Port = utils.Getenv("DB_PORT", cfg.Database.Port)
	cfg.Database.User = utils.Getenv("DB_USER", cfg.Database.User)
	cfg.Database.Password = utils.Getenv("DB_PASSWORD", cfg.Database.Password)
	cfg.Database.Name = utils.Getenv("DB_NAME", cfg.Database.Name)
	cfg.Database.SSLMode = utils.Getenv("DB_SSLMODE", cfg.Database.SSLMode)
	cfg.Database.SchemaPath = utils.Getenv("DB_SCHEMA_PATH", cfg.Database.SchemaPath)
	cfg.Database.ApplySchema = utils.GetenvBool("DB_APPLY_SCHEMA", cfg.Database.ApplySchema)

	cfg.Redis.Addr = utils.Getenv("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = utils.Getenv("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = utils.GetenvInt("REDIS_DB", cfg.Redis.DB)
	cfg.Redis.BoardTTL = utils.GetenvDuration("BOARD_CACHE_TTL", cfg.Redis.BoardTTL)

	cfg.Kafka.Brokers = utils.GetenvList("KAFKA_BROKERS", cfg.Kafka.Brokers)
	cfg.Kafka.OrderTopic = utils.Getenv("KAFKA_ORDER_TOPIC", cfg.Kafka.OrderTopic)

	cfg.Print.RabbitMQURL = utils.Getenv("RABBITMQ_URL", cfg.Print.RabbitMQURL)
	cfg.Print.Exchange = utils.Getenv("PRINT_EXCHANGE", cfg.Print.Exchange)
	cfg.Print.BillPrinter = utils.Getenv("PRINTER_NAME", cfg.Print.BillPrinter)
	cfg.Print.KitchenPrinter = utils.Getenv("KITCHEN_PRINTER_NAME", cfg.Print.KitchenPrinter)
	cfg.Print.ReferenceCopy = utils.GetenvBool("PRINT_REFERENCE_COPY", cfg.Print.ReferenceCopy)

	cfg.Receipt.StoreName = utils.Getenv("STORE_NAME", cfg.Receipt.StoreName)
	cfg.Receipt.StoreTagline = utils.Getenv("STORE_TAGLINE", cfg.Receipt.StoreTagline)
	cfg.Receipt.QRBaseURL = utils.Getenv("RECEIPT_QR_URL", cfg.Receipt.QRBaseURL)
	cfg.Receipt.Timezone = utils.Getenv("RECEIPT_TIMEZONE", cfg.Receipt.Timezone)
	cfg.Receipt.Dialect = strings.ToLower(utils.Getenv("RECEIPT_DIALECT", cfg.Receipt.Dialect))
	if lines := utils.GetenvList("STORE_ADDRESS_LINES", nil); lines != nil {
		cfg.Receipt.AddressLines = lines
	}
	if lines := utils.GetenvList("STORE_FOOTER_LINES", nil); lines != nil {
		cfg.Receipt.FooterLines = lines
	}
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	switch c.StatusPolicy {
	case StatusPolicyStrict, StatusPolicyPermissive:
	default:
		return fmt.Errorf("unknown ORDER_STATUS_POLICY %q (want %s or %s)", c.StatusPolicy, StatusPolicyStrict, StatusPolicyPermissive)
	}
	switch c.StoreDriver {
	case StoreDriverPostgres, StoreDriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET must be set")
	}
	if _, err := time.LoadLocation(c.Receipt.Timezone); err != nil {
		return fmt.Errorf("invalid RECEIPT_TIMEZONE %q: %w", c.Receipt.Timezone, err)
	}
	return nil
}
