package pg

import (
	"database/sql"
	"fmt"
	"net/url"
	"time"

	"github.com/pkg/errors"

	_ "github.com/newrelic/go-agent/v3/integrations/nrpgx"
)

const defaultConnMaxIdleTime = 5 * time.Minute

// Config describes a postgres connection pool. Zero pool limits keep the
// database/sql defaults.
type Config struct {
	User               string
	Host               string
	Password           string
	Port               int
	DbName             string
	MaxOpenConnections int
	MaxIdleConnections int
}

// DSN returns the connection URL for c, with credentials escaped
func (c *Config) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.DbName,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

// New opens and pings a connection pool. Queries are traced through the New
// Relic pgx driver.
func New(config *Config) (*sql.DB, error) {
	db, err := sql.Open("nrpgx", config.DSN())
	if err != nil {
		return nil, errors.Wrap(err, "error opening postgres connection pool")
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "error connecting to postgres at %s:%d", config.Host, config.Port)
	}

	if config.MaxOpenConnections > 0 {
		db.SetMaxOpenConns(config.MaxOpenConnections)
	}
	if config.MaxIdleConnections > 0 {
		db.SetMaxIdleConns(config.MaxIdleConnections)
	}
	db.SetConnMaxIdleTime(defaultConnMaxIdleTime)

	return db, nil
}
