// Copyright (c) 2025 Darren Soothill
// Licensed under the MIT License

package slacknotifier

import (
	"context"
	"fmt"
)

// CacheNotifierAdapter adapts the Notifier to the cache.Notifier interface.
type CacheNotifierAdapter struct {
	notifier *Notifier
}

// NewCacheNotifierAdapter creates a new adapter.
func NewCacheNotifierAdapter(notifier *Notifier) *CacheNotifierAdapter {
	return &CacheNotifierAdapter{notifier: notifier}
}

// SendStoreFailure sends an alert when the local SQLite cache fails
func (a *CacheNotifierAdapter) SendStoreFailure(ctx context.Context, err error) error {
	return a.notifier.SendAlert(ctx, "danger", "⚠️ Local Cache Failure",
		fmt.Sprintf("Failed to read or write the SQLite cache: %v\nRequests will be served directly from the Octopus API until the cache recovers.", err))
}

// SendStoreRecovery sends an alert when the local SQLite cache recovers
func (a *CacheNotifierAdapter) SendStoreRecovery(ctx context.Context) error {
	return a.notifier.SendAlert(ctx, "good", "✅ Local Cache Restored",
		"The SQLite cache is reachable again. Fresh API responses are being cached as normal.")
}

// IsEnabled returns whether Slack notifications are enabled
func (a *CacheNotifierAdapter) IsEnabled() bool {
	return a.notifier.IsEnabled()
}
