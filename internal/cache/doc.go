// Package cache memoizes pipeline results.
//
// Memo is an in-process LRU table guarded by a mutex, with singleflight
// coalescing so identical concurrent requests compute once. An optional
// RedisTier shares JSON-encoded results between replicas. Keys embed the
// source data version, so a new version never reads stale entries:
//
//	memo := cache.New(cache.Options{Name: "aggregate", MaxEntries: 256})
//	agg, err := cache.Do(ctx, memo, version+"|"+req.Key(), compute)
package cache
