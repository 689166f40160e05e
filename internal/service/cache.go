package service

import (
	"context"
	"fmt"
	"log"
	"time"
)

// Cache is the slice of the redis client the services use: plain keys
// for listing caches and export statuses, a set for the export index.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	SAdd(ctx context.Context, key string, members ...any) error
	SMembers(ctx context.Context, key string) ([]string, error)
}

const listingCacheTTL = 5 * time.Minute

func loansCacheKey(customerID int64) string {
	return fmt.Sprintf("loans:%d", customerID)
}

func installmentsCacheKey(loanID int64) string {
	return fmt.Sprintf("installments:%d", loanID)
}

func invalidateListings(ctx context.Context, cache Cache, customerID, loanID int64) {
	if cache == nil {
		return
	}
	if err := cache.Del(ctx, loansCacheKey(customerID), installmentsCacheKey(loanID)); err != nil {
		log.Printf("cache invalidation failed for customer %d loan %d: %v", customerID, loanID, err)
	}
}
