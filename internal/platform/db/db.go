package db

import (
	"database/sql"
	"fmt"
	"os"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"gopkg.in/yaml.v3"
)

const driverName = "mysql"

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

type AuthConfig struct {
	Secret string `yaml:"secret"`
}

// CirculationConfig holds the loan policy knobs. Read once at startup and
// treated as immutable for the process lifetime.
type CirculationConfig struct {
	LoanPeriodDays  int     `yaml:"loan_period_days"`
	FinePerDay      float64 `yaml:"fine_per_day"`
	DefaultMaxLoans int     `yaml:"default_max_loans"`
}

type Config struct {
	Version     string            `yaml:"version"`
	Mode        string            `yaml:"mode"`
	DB          DatabaseConfig    `yaml:"database"`
	HTTP        HTTPConfig        `yaml:"http"`
	Auth        AuthConfig        `yaml:"auth"`
	Circulation CirculationConfig `yaml:"circulation"`
}

func LoadConfig(path string) (*Config, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(buf, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8080"
	}
	if c.Circulation.LoanPeriodDays <= 0 {
		c.Circulation.LoanPeriodDays = 30
	}
	if c.Circulation.FinePerDay < 0 {
		c.Circulation.FinePerDay = 0
	}
	if c.Circulation.DefaultMaxLoans <= 0 {
		c.Circulation.DefaultMaxLoans = 5
	}
}

func Connect(c DatabaseConfig) (*sql.DB, error) {
	// innodb_lock_wait_timeout keeps row-lock waits bounded so a contended
	// Borrow/Return surfaces a retryable conflict instead of hanging.
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&tls=false&timeout=3s&readTimeout=5s&writeTimeout=5s&loc=UTC&innodb_lock_wait_timeout=3",
		c.Username, c.Password, c.Host, c.Port, c.DBName)

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare connection: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to DB: %w", err)
	}

	db.SetMaxOpenConns(80)
	db.SetMaxIdleConns(20)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return db, nil
}
