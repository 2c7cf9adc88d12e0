package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

type Config struct {
	URL          string `split_words:"true"`
	ReadTimeout  int    `split_words:"true" default:"3"`
	WriteTimeout int    `split_words:"true" default:"3"`
	DialTimeout  int    `split_words:"true" default:"5"`
}

// New parses the URL, applies timeouts, and pings once so wiring
// failures show up at startup rather than mid-conversation.
func (c *Config) New(ctx context.Context) (*redis.Client, error) {
	opts, err := redis.ParseURL(c.URL)
	if err != nil {
		return nil, err
	}

	opts.ReadTimeout = time.Duration(c.ReadTimeout) * time.Second
	opts.WriteTimeout = time.Duration(c.WriteTimeout) * time.Second
	opts.DialTimeout = time.Duration(c.DialTimeout) * time.Second

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return client, nil
}
