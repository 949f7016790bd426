package database

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"database/sql"
	"fmt"
	"log/slog"
	"net"
	"os"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/sethvargo/go-retry"
)

// Options describes how to reach the MySQL server.
type Options struct {
	User   string
	Pass   string
	Host   string
	Port   string
	Name   string
	TLSCA  string // PEM bundle path; empty connects without TLS
	Logger *slog.Logger

	Attempts int           // connection attempts before giving up (default 12)
	Delay    time.Duration // pause between attempts (default 5s)
}

const tlsConfigName = "weatherwear"

// DSN builds the driver DSN.  parseTime=true maps DATETIME to time.Time,
// loc=UTC keeps times consistent and clientFoundRows makes an UPDATE that
// matches a row report it as affected even when nothing changed.
func DSN(o Options) string {
	c := mysql.NewConfig()
	c.User = o.User
	c.Passwd = o.Pass
	c.Net = "tcp"
	c.Addr = net.JoinHostPort(o.Host, o.Port)
	c.DBName = o.Name
	c.ParseTime = true
	c.ClientFoundRows = true
	c.Loc = time.UTC
	c.Params = map[string]string{"charset": "utf8mb4"}
	if o.TLSCA != "" {
		c.TLSConfig = tlsConfigName
	}
	return c.FormatDSN()
}

// Open connects to MySQL and verifies the connection, retrying a bounded
// number of times.  Exhausting the attempts returns the last error.
func Open(ctx context.Context, o Options) (*sql.DB, error) {
	if o.Attempts <= 0 {
		o.Attempts = 12
	}
	if o.Delay <= 0 {
		o.Delay = 5 * time.Second
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.TLSCA != "" {
		if err := registerCA(o.TLSCA); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("mysql", DSN(o))
	if err != nil {
		return nil, err
	}

	// Pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	attempt := 0
	backoff := retry.WithMaxRetries(uint64(o.Attempts-1), retry.NewConstant(o.Delay))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := db.PingContext(pingCtx); err != nil {
			o.Logger.Warn("database not reachable", "attempt", attempt, "max", o.Attempts, "err", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect mysql after %d attempts: %w", attempt, err)
	}
	return db, nil
}

func registerCA(path string) error {
	pem, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read db ca: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return fmt.Errorf("db ca %s: no certificates found", path)
	}
	return mysql.RegisterTLSConfig(tlsConfigName, &tls.Config{
		RootCAs:    pool,
		MinVersion: tls.VersionTLS12,
	})
}
