package main

import (
	"go.uber.org/zap"

	"quran-tui/internal/api"
	"quran-tui/internal/cache"
)

// newClient builds the API client from the configuration. With offline
// enabled, chapters stored by download are served from disk first.
func newClient(offline bool) (*api.Client, error) {
	client := api.NewClient(
		api.WithBaseURL(cfg.API.BaseURL),
		api.WithTimeout(cfg.API.Timeout),
		api.WithLogger(log),
	)
	if !offline {
		return client, nil
	}

	store, err := cache.NewCache(cfg.Cache.Dir)
	if err != nil {
		return nil, err
	}
	client.SetCache(store)
	log.Debug("offline cache attached", zap.String("dir", store.Dir()))
	return client, nil
}
