// Package sqldb implements the contract against SQL databases through
// database/sql. Supported drivers are postgres (lib/pq), pgx, and sqlite;
// a dialect layer absorbs the placeholder, DDL, and error-code
// differences between them.
package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	_ "github.com/lib/pq"              // postgres driver
	_ "modernc.org/sqlite"             // sqlite driver

	"github.com/nucleus/resource-core/internal/resource"
)

// Config holds the database connection configuration.
type Config struct {
	Driver   string
	Host     string
	Port     int
	Database string
	User     string
	Password string
	SSLMode  string
	DSN      string
}

// ParseConfig extracts connection configuration from settings. A full DSN
// wins over the individual fields.
func ParseConfig(settings resource.Settings) (*Config, error) {
	cfg := &Config{
		Driver:   settings.String("driver"),
		Host:     settings.String("host"),
		Port:     settings.Int(5432, "port"),
		Database: settings.String("database", "dbname"),
		User:     settings.String("user", "username"),
		Password: settings.String("password"),
		SSLMode:  settings.String("sslMode", "ssl_mode"),
		DSN:      settings.String("dsn", "connectionString", "connection_string"),
	}
	if cfg.Driver == "" {
		cfg.Driver = DriverPostgres
	}
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.SSLMode == "" {
		cfg.SSLMode = "disable"
	}

	switch cfg.Driver {
	case DriverPostgres, DriverPgx:
		if cfg.DSN == "" {
			cfg.DSN = fmt.Sprintf(
				"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
				cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
			)
		}
	case DriverSQLite:
		if cfg.DSN == "" {
			cfg.DSN = settings.String("path", "file")
		}
		if cfg.DSN == "" {
			return nil, resource.New(resource.KindValidation, "sqlite requires a dsn or path setting")
		}
	default:
		return nil, resource.New(resource.KindServiceType,
			fmt.Sprintf("unsupported database driver %q", cfg.Driver)).
			WithDetail("driver", cfg.Driver).
			WithDetail("known", []string{DriverPostgres, DriverPgx, DriverSQLite})
	}
	return cfg, nil
}

// LinkedService binds the contract surface to one database. The *sql.DB
// pool lives on the connection handle.
type LinkedService struct {
	*resource.ServiceBase

	cfg *Config
	d   dialect
}

// NewLinkedService builds a database linked service from settings. The
// driver is validated here; no connection is made until Connect.
func NewLinkedService(settings resource.Settings) (*LinkedService, error) {
	cfg, err := ParseConfig(settings)
	if err != nil {
		return nil, err
	}
	d := dialectFor(cfg.Driver)

	name := settings.String(resource.SettingName, "title")
	if name == "" {
		name = cfg.Database
	}
	if name == "" {
		name = cfg.Driver
	}
	info := resource.NewInfo(Kind, Version, name)
	info.Description = fmt.Sprintf("%s database", cfg.Driver)

	svc := &LinkedService{cfg: cfg, d: d}
	svc.ServiceBase = resource.NewServiceBase(info, settings, &connector{cfg: cfg, d: d})
	return svc, nil
}

// DB returns the connected database pool.
func (s *LinkedService) DB() (*sql.DB, error) {
	h, err := s.Connection()
	if err != nil {
		return nil, err
	}
	db, ok := h.(*sql.DB)
	if !ok {
		return nil, resource.New(resource.KindServiceMismatch, "connection handle is not a database pool")
	}
	return db, nil
}

type connector struct {
	cfg *Config
	d   dialect
}

func (c *connector) Open(ctx context.Context) (any, error) {
	db, err := sql.Open(c.cfg.Driver, c.cfg.DSN)
	if err != nil {
		return nil, resource.Wrap(resource.KindConnection, err, "open database")
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		kind := resource.KindConnection
		if k, ok := c.d.classify(err); ok && k != resource.KindNotFound {
			kind = k
		}
		return nil, resource.Wrap(kind, err, "database unreachable")
	}
	return db, nil
}

func (c *connector) Ping(ctx context.Context, handle any) error {
	db, ok := handle.(*sql.DB)
	if !ok {
		return resource.New(resource.KindServiceMismatch, "connection handle is not a database pool")
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return db.PingContext(pingCtx)
}

func (c *connector) Shutdown(handle any) error {
	db, ok := handle.(*sql.DB)
	if !ok {
		return nil
	}
	return db.Close()
}
