// Package dataloader provides request-scoped batch loading for N+1
// prevention: duplicate loads of the same key within one request hit a
// cache, and concurrent loads of one key are collapsed into a single
// batch call.
package dataloader

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
)

// BatchFunc fetches all values for the given keys in one call. Keys
// absent from the returned map are treated as missing, not as errors.
type BatchFunc[K comparable, V any] func(ctx context.Context, keys []K) (map[K]V, error)

// Loader caches and batches loads for one request. Create one per
// request; a Loader must not be retained beyond it.
type Loader[K comparable, V any] struct {
	batch BatchFunc[K, V]

	mu    sync.Mutex
	cache map[K]V
	group singleflight.Group
}

// New creates a Loader around a batch function.
func New[K comparable, V any](batch BatchFunc[K, V]) *Loader[K, V] {
	return &Loader[K, V]{
		batch: batch,
		cache: make(map[K]V),
	}
}

// Load returns the value for one key. The boolean reports whether the
// key exists; a missing key is not an error.
func (l *Loader[K, V]) Load(ctx context.Context, key K) (V, bool, error) {
	l.mu.Lock()
	if v, ok := l.cache[key]; ok {
		l.mu.Unlock()
		return v, true, nil
	}
	l.mu.Unlock()

	_, err, _ := l.group.Do(fmt.Sprint(key), func() (any, error) {
		values, err := l.batch(ctx, []K{key})
		if err != nil {
			return nil, err
		}
		l.store(values)
		return nil, nil
	})
	if err != nil {
		var zero V
		return zero, false, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	v, ok := l.cache[key]
	return v, ok, nil
}

// LoadMany returns the values for all given keys, batching the uncached
// ones into a single call. Missing keys are simply absent from the
// result.
func (l *Loader[K, V]) LoadMany(ctx context.Context, keys []K) (map[K]V, error) {
	result := make(map[K]V, len(keys))
	var missing []K

	l.mu.Lock()
	for _, key := range keys {
		if v, ok := l.cache[key]; ok {
			result[key] = v
		} else {
			missing = append(missing, key)
		}
	}
	l.mu.Unlock()

	if len(missing) > 0 {
		values, err := l.batch(ctx, missing)
		if err != nil {
			return nil, err
		}
		l.store(values)
		for _, key := range missing {
			if v, ok := values[key]; ok {
				result[key] = v
			}
		}
	}
	return result, nil
}

// Prime seeds the cache with a known value, e.g. an entity already
// fetched by the parent resolver.
func (l *Loader[K, V]) Prime(key K, value V) {
	l.mu.Lock()
	l.cache[key] = value
	l.mu.Unlock()
}

// Clear drops all cached values.
func (l *Loader[K, V]) Clear() {
	l.mu.Lock()
	l.cache = make(map[K]V)
	l.mu.Unlock()
}

func (l *Loader[K, V]) store(values map[K]V) {
	l.mu.Lock()
	for k, v := range values {
		l.cache[k] = v
	}
	l.mu.Unlock()
}
