// Package pool opens the MySQL connection pool that an xorm.DB wraps.
package pool

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
)

// Config holds connection pool settings.
type Config struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	User            string        `koanf:"user"`
	Password        string        `koanf:"password"`
	DB              string        `koanf:"db"`
	Charset         string        `koanf:"charset"`
	AutoCommit      bool          `koanf:"autocommit"`
	MaxSize         int           `koanf:"maxsize"` // SetMaxOpenConns
	// MinSize caps idle connections (SetMaxIdleConns). database/sql has no
	// minimum pool size: connections are opened on demand and nothing is
	// kept warm at startup.
	MinSize         int           `koanf:"minsize"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
}

// Defaults returns a Config with the defaults applied.
func Defaults() Config {
	return Config{
		Host:       "localhost",
		Port:       3306,
		Charset:    "utf8",
		AutoCommit: true,
		MaxSize:    10,
		MinSize:    1,
	}
}

// ApplyDefaults fills zero-valued fields. AutoCommit is left as is.
func (c *Config) ApplyDefaults() {
	d := Defaults()
	if c.Host == "" {
		c.Host = d.Host
	}
	if c.Port == 0 {
		c.Port = d.Port
	}
	if c.Charset == "" {
		c.Charset = d.Charset
	}
	if c.MaxSize == 0 {
		c.MaxSize = d.MaxSize
	}
	if c.MinSize == 0 {
		c.MinSize = d.MinSize
	}
}

// Validate reports missing required settings.
func (c Config) Validate() error {
	var errs []error
	if c.User == "" {
		errs = append(errs, errors.New("user is required"))
	}
	if c.DB == "" {
		errs = append(errs, errors.New("db is required"))
	}
	if c.MinSize > c.MaxSize {
		errs = append(errs, fmt.Errorf("minsize %d exceeds maxsize %d", c.MinSize, c.MaxSize))
	}
	return errors.Join(errs...)
}

// MySQL converts the settings into a driver configuration.
func (c Config) MySQL() (*mysql.Config, error) {
	mc := mysql.NewConfig()
	mc.User = c.User
	mc.Passwd = c.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
	mc.DBName = c.DB

	// charset and session variables go through the DSN so the driver
	// handles them the same way as a hand-written connection string.
	dsn := mc.FormatDSN()
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	params := url.Values{}
	params.Set("charset", c.Charset)
	params.Set("autocommit", strconv.FormatBool(c.AutoCommit))
	return mysql.ParseDSN(dsn + sep + params.Encode())
}

// DSN returns the driver data source name for the settings.
func (c Config) DSN() (string, error) {
	mc, err := c.MySQL()
	if err != nil {
		return "", err
	}
	return mc.FormatDSN(), nil
}

// Open creates the pool, sizes it and verifies connectivity with a ping.
// The caller closes the returned *sql.DB.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*sql.DB, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pool config: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("create database connection pool", "addr", net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)), "db", cfg.DB)

	mc, err := cfg.MySQL()
	if err != nil {
		return nil, fmt.Errorf("invalid pool config: %w", err)
	}
	connector, err := mysql.NewConnector(mc)
	if err != nil {
		return nil, fmt.Errorf("failed to create connector: %w", err)
	}
	db := sql.OpenDB(connector)
	Configure(db, cfg)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// Configure applies the pool sizing in cfg to db. MaxSize bounds open
// connections and MinSize bounds idle ones.
func Configure(db *sql.DB, cfg Config) {
	db.SetMaxOpenConns(cfg.MaxSize)
	db.SetMaxIdleConns(cfg.MinSize)
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
}
