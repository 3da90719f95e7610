package das

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/cms-top/crabgen/config"
)

// ErrClientConfig is returned when the configured client cannot be built,
// e.g. because the grid proxy is missing or expired.
var ErrClientConfig = errors.New("invalid das client configuration")

// NewClient returns the client selected by conf.Client.
func NewClient(conf config.DAS) (Client, error) {
	switch strings.ToLower(conf.Client) {
	case "", "http":
		c, err := NewHTTPClient(conf)
		if err != nil {
			return nil, err
		}
		return c, nil
	case "command":
		c, err := NewCommandClient(conf.Command)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, unknownClient(conf.Client)
	}
}

func unknownClient(name string) error {
	return fmt.Errorf("das: unknown client %q, expected \"http\" or \"command\"", name)
}

// LazyClient builds the configured client on the first query. Runs which
// never look up a parent need no DAS credentials.
type LazyClient struct {
	conf   config.DAS
	once   sync.Once
	client Client
	err    error
}

// NewLazyClient returns a LazyClient for "conf". Only the client name is
// checked here.
func NewLazyClient(conf config.DAS) (*LazyClient, error) {
	switch strings.ToLower(conf.Client) {
	case "", "http", "command":
	default:
		return nil, unknownClient(conf.Client)
	}
	return &LazyClient{conf: conf}, nil
}

// Query builds the client if needed and runs the query.
func (c *LazyClient) Query(ctx context.Context, query string) (*Response, error) {
	c.once.Do(func() {
		c.client, c.err = NewClient(c.conf)
		if c.err != nil {
			c.err = fmt.Errorf("%w: %v", ErrClientConfig, c.err)
		}
	})
	if c.err != nil {
		return nil, c.err
	}
	return c.client.Query(ctx, query)
}
