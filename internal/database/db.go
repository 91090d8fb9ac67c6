// Package database opens the MySQL pool used by the booking store and
// creates its schema.
package database

import (
	"context"
	"database/sql"
	"net"
	"time"

	"github.com/go-sql-driver/mysql"
)

// Checkout requests hold row locks on one payment and one booking for the
// length of a short transaction, so a small pool is enough.  Idle
// connections are dropped well before MySQL's default wait_timeout.
const (
	maxOpenConns    = 20
	maxIdleConns    = 10
	connMaxIdleTime = 5 * time.Minute
	connMaxLifetime = 30 * time.Minute
	pingTimeout     = 5 * time.Second
)

// driverConfig describes the connection.  Times are parsed as UTC
// time.Time values.  ClientFoundRows makes RowsAffected count matched
// rows, so a conditional status UPDATE that matches but changes nothing is
// not mistaken for a missing row.
func driverConfig(user, pass, host, port, name string) *mysql.Config {
	cfg := mysql.NewConfig()
	cfg.User = user
	cfg.Passwd = pass
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(host, port)
	cfg.DBName = name
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	cfg.ClientFoundRows = true
	cfg.Params = map[string]string{"charset": "utf8mb4"}
	return cfg
}

// Open connects to the booking database and checks that it answers
// within five seconds.  Credentials are passed through mysql.Config and
// need no DSN escaping.
func Open(user, pass, host, port, name string) (*sql.DB, error) {
	connector, err := mysql.NewConnector(driverConfig(user, pass, host, port, name))
	if err != nil {
		return nil, err
	}
	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxIdleTime(connMaxIdleTime)
	db.SetConnMaxLifetime(connMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
