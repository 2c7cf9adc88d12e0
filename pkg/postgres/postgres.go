package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

type Config struct {
	DSN          string `split_words:"true"`
	DialTimeout  int    `split_words:"true" default:"5"`
	ReadTimeout  int    `split_words:"true" default:"5"`
	WriteTimeout int    `split_words:"true" default:"5"`
}

// New opens a bun.DB over pgdriver and verifies the connection.
func (c *Config) New(ctx context.Context) (*bun.DB, error) {
	connector := pgdriver.NewConnector(
		pgdriver.WithDSN(c.DSN),
		pgdriver.WithDialTimeout(time.Duration(c.DialTimeout)*time.Second),
		pgdriver.WithReadTimeout(time.Duration(c.ReadTimeout)*time.Second),
		pgdriver.WithWriteTimeout(time.Duration(c.WriteTimeout)*time.Second),
	)

	sqldb := sql.OpenDB(connector)
	db := bun.NewDB(sqldb, pgdialect.New())

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func (c *Config) MustNew(ctx context.Context) *bun.DB {
	db, err := c.New(ctx)
	if err != nil {
		panic(err)
	}
	return db
}
