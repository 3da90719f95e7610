package util

import (
	"github.com/cms-top/crabgen/config"
	"github.com/cms-top/crabgen/das"
	"github.com/cms-top/crabgen/ledger"
	"github.com/cms-top/crabgen/logger"
)

// OpenLedger opens and initializes the configured ledger. It returns nil
// when the ledger is disabled.
func OpenLedger(conf config.Ledger) (*ledger.Ledger, error) {
	if conf.Path == "" {
		return nil, nil
	}
	l, err := ledger.New(conf.Path)
	if err != nil {
		return nil, err
	}
	if err := l.Init(); err != nil {
		l.Close()
		return nil, err
	}
	return l, nil
}

// NewResolver returns a parent resolver for the configured DAS client.
// The client is built on the first lookup. Parents are cached in "l" unless
// it is nil.
func NewResolver(conf config.DAS, l *ledger.Ledger, log *logger.Logger) (*das.Resolver, error) {
	client, err := das.NewLazyClient(conf)
	if err != nil {
		return nil, err
	}
	var cache das.Cache
	if l != nil {
		cache = l
	}
	return das.NewResolver(client, conf.MaxTries, cache, log), nil
}
