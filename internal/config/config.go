package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/SageData-OOD/tap-firebird/internal/domain"
	"github.com/SageData-OOD/tap-firebird/internal/jsoncodec"
)

const (
	DialectFirebird = "firebird"
	DialectPostgres = "postgres"
	DialectMySQL    = "mysql"
	DialectSQLite   = "sqlite"
)

// StartDateLayout is the layout Singer configs use for start_date.
const StartDateLayout = "2006-01-02T15:04:05Z"

// Config is the tap configuration file. The first six keys are the ones
// every Singer tap of this family requires; the rest are optional.
type Config struct {
	Host      string `json:"host" yaml:"host"`
	Port      Port   `json:"port" yaml:"port"`
	Database  string `json:"database" yaml:"database"`
	User      string `json:"user" yaml:"user"`
	Password  string `json:"password" yaml:"password"`
	StartDate string `json:"start_date" yaml:"start_date"`

	// Dialect selects the row source driver. Defaults to firebird.
	Dialect string `json:"dialect,omitempty" yaml:"dialect,omitempty"`
	// SSLMode is passed to drivers that understand it (postgres).
	SSLMode string `json:"ssl_mode,omitempty" yaml:"ssl_mode,omitempty"`
	// PasswordSecret resolves the password at startup, e.g. "env:FB_PASSWORD"
	// or "keychain:warehouse".
	PasswordSecret string `json:"password_secret,omitempty" yaml:"password_secret,omitempty"`

	LogLevel string `json:"log_level,omitempty" yaml:"log_level,omitempty"`
	// StateDB is the path of the SQLite run store. Empty disables it.
	StateDB string `json:"state_db,omitempty" yaml:"state_db,omitempty"`
	// MetricsAddr exposes Prometheus metrics, e.g. ":9102". Empty disables it.
	MetricsAddr string `json:"metrics_addr,omitempty" yaml:"metrics_addr,omitempty"`
	// Schedule is a cron expression for repeated syncs.
	Schedule string `json:"schedule,omitempty" yaml:"schedule,omitempty"`
}

// Port accepts both 3050 and "3050".
type Port int

func (p *Port) UnmarshalJSON(data []byte) error {
	var n int
	if err := jsoncodec.Unmarshal(data, &n); err == nil {
		*p = Port(n)
		return nil
	}
	var s string
	if err := jsoncodec.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("port: %w", err)
	}
	return p.parse(s)
}

func (p *Port) UnmarshalYAML(node *yaml.Node) error {
	return p.parse(node.Value)
}

func (p *Port) parse(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		*p = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("%w: port %q", domain.ErrInvalidConfig, s)
	}
	*p = Port(n)
	return nil
}

// WithDefaults fills the optional keys.
func (c Config) WithDefaults() Config {
	if c.Dialect == "" {
		c.Dialect = DialectFirebird
	}
	c.Dialect = strings.ToLower(c.Dialect)
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	return c
}

func (c Config) String() string {
	copy := c
	if copy.Password != "" {
		copy.Password = "***REDACTED***"
	}
	type configAlias Config
	return fmt.Sprintf("%+v", configAlias(copy))
}

// Validate reports every missing or invalid key at once.
func (c *Config) Validate() error {
	var errs []error

	required := map[string]string{
		"database":   c.Database,
		"start_date": c.StartDate,
	}
	if c.dialect() != DialectSQLite {
		required["host"] = c.Host
		required["user"] = c.User
		if c.PasswordSecret == "" {
			required["password"] = c.Password
		}
		if c.Port == 0 {
			errs = append(errs, fmt.Errorf("%w: port", domain.ErrMissingConfig))
		}
	}
	for _, key := range []string{"host", "database", "user", "password", "start_date"} {
		if v, ok := required[key]; ok && v == "" {
			errs = append(errs, fmt.Errorf("%w: %s", domain.ErrMissingConfig, key))
		}
	}

	if c.Port < 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("%w: port %d", domain.ErrInvalidConfig, c.Port))
	}
	if c.StartDate != "" {
		if _, err := c.StartDateTime(); err != nil {
			errs = append(errs, err)
		}
	}
	switch c.dialect() {
	case DialectFirebird, DialectPostgres, DialectMySQL, DialectSQLite:
	default:
		errs = append(errs, fmt.Errorf("%w: %q", domain.ErrUnsupportedDialect, c.Dialect))
	}

	return errors.Join(errs...)
}

func (c *Config) dialect() string {
	if c.Dialect == "" {
		return DialectFirebird
	}
	return strings.ToLower(c.Dialect)
}

// StartDateTime parses start_date. Besides the canonical
// "2006-01-02T15:04:05Z" layout any RFC 3339 timestamp or a bare date works.
func (c *Config) StartDateTime() (time.Time, error) {
	for _, layout := range []string{StartDateLayout, time.RFC3339Nano, "2006-01-02"} {
		if t, err := time.Parse(layout, c.StartDate); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: start_date %q is not ISO-8601", domain.ErrInvalidConfig, c.StartDate)
}
