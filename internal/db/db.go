package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	_ "github.com/lib/pq"
)

// Params describes a postgres connection.
type Params struct {
	Host, Port, Name, User, Password string

	MaxOpenConns int
	MaxIdleConns int
}

// DSN returns the key/value form accepted by lib/pq.
func (p Params) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s dbname=%s user=%s password=%s sslmode=disable",
		p.Host, p.Port, p.Name, p.User, p.Password,
	)
}

// URL returns the postgres:// form expected by the migrator.
func (p Params) URL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(p.User, p.Password),
		Host:     p.Host + ":" + p.Port,
		Path:     "/" + p.Name,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

// Connect opens the pool and pings it within ctx.
func Connect(ctx context.Context, p Params) (*sql.DB, error) {
	db, err := sql.Open("postgres", p.DSN())
	if err != nil {
		return nil, err
	}
	if p.MaxOpenConns > 0 {
		db.SetMaxOpenConns(p.MaxOpenConns)
	}
	if p.MaxIdleConns > 0 {
		db.SetMaxIdleConns(p.MaxIdleConns)
	}
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}
