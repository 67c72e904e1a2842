package test

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/pkg/errors"

	_ "github.com/jackc/pgx/v4/stdlib" //nolint:revive

	"github.com/code-payments/code-config-program/pkg/retry"
	"github.com/code-payments/code-config-program/pkg/retry/backoff"
)

const (
	image        = "postgres"
	imageTag     = "14"
	autoKillTime = 120 * time.Second

	user     = "localtest"
	password = "localpassword"
	dbname   = "configprogramtest"

	maxPingAttempts = 50
	pingInterval    = 500 * time.Millisecond
)

// StartPostgresDB runs a throwaway postgres container, waits for it to accept
// connections and applies schema. closeFunc stops and removes the container.
func StartPostgresDB(pool *dockertest.Pool, schema string) (db *sql.DB, closeFunc func(), err error) {
	closeFunc = func() {}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: image,
		Tag:        imageTag,
		Env: []string{
			"listen_addresses = '*'",
			"POSTGRES_USER=" + user,
			"POSTGRES_PASSWORD=" + password,
			"POSTGRES_DB=" + dbname,
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		return nil, closeFunc, errors.Wrap(err, "failed to start postgres container")
	}

	// Expire() never returns an error
	_ = resource.Expire(uint(autoKillTime.Seconds()))

	closeFunc = func() {
		if db != nil {
			db.Close()
		}
		_ = pool.Purge(resource)
	}

	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s/%s?sslmode=disable",
		user, password, resource.GetHostPort("5432/tcp"), dbname,
	)

	_, err = retry.Retry(
		func() error {
			if db == nil {
				if db, err = sql.Open("pgx", dsn); err != nil {
					return err
				}
			}
			return db.Ping()
		},
		retry.Limit(maxPingAttempts),
		retry.Backoff(backoff.Constant(pingInterval), pingInterval),
	)
	if err != nil {
		closeFunc()
		return nil, func() {}, errors.Wrap(err, "timed out waiting for postgres container to become available")
	}

	if len(schema) > 0 {
		if _, err := db.Exec(schema); err != nil {
			closeFunc()
			return nil, func() {}, errors.Wrap(err, "failed to apply schema")
		}
	}

	return db, closeFunc, nil
}
