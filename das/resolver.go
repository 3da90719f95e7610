package das

import (
	"context"

	"github.com/cms-top/crabgen/logger"
	"github.com/cms-top/crabgen/metrics"
	"github.com/cms-top/crabgen/util"
)

// DefaultMaxTries is the default number of attempts of a parent lookup.
const DefaultMaxTries = 5

// Cache stores resolved parents between runs.
type Cache interface {
	GetParent(dataset string) (string, bool, error)
	PutParent(dataset, parent string) error
}

// Resolver looks up parent datasets, retrying transient failures.
type Resolver struct {
	client  Client
	retrier *util.Retrier
	cache   Cache
	log     *logger.Logger
}

// NewResolver returns a Resolver making at most "maxTries" attempts per
// lookup. "cache" may be nil.
func NewResolver(client Client, maxTries int, cache Cache, log *logger.Logger) *Resolver {
	r := &Resolver{
		client: client,
		cache:  cache,
		log:    log,
	}
	r.retrier = &util.Retrier{
		MaxTries:    maxTries,
		ShouldRetry: Retryable,
		Notify: func(err error, attempt int) {
			metrics.DASRetry()
			r.log.Warn("Parent lookup failed, retrying", "attempt", attempt, "error", err)
		},
	}
	return r
}

// Parent returns the parent dataset of "dataset".
func (r *Resolver) Parent(ctx context.Context, dataset string) (string, error) {
	if r.cache != nil {
		parent, ok, err := r.cache.GetParent(dataset)
		if err != nil {
			r.log.Warn("Reading parent cache", "dataset", dataset, "error", err)
		} else if ok {
			metrics.DASQuery("cached")
			r.log.Debug("Parent found in cache", "dataset", dataset, "parent", parent)
			return parent, nil
		}
	}

	parent, err := util.RetryValue(ctx, r.retrier, func() (string, error) {
		resp, err := r.client.Query(ctx, ParentQuery(dataset))
		if err != nil {
			return "", err
		}
		return ParentFromResponse(dataset, resp)
	})
	if err != nil {
		metrics.DASQuery("error")
		return "", err
	}
	metrics.DASQuery("ok")

	if r.cache != nil {
		if err := r.cache.PutParent(dataset, parent); err != nil {
			r.log.Warn("Writing parent cache", "dataset", dataset, "error", err)
		}
	}
	return parent, nil
}
