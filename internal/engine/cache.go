package engine

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// fallbackComputeType is the most conservative numeric mode; every device
// supports it, so it is the single retry target on unsupported-compute
// failures.
const fallbackComputeType = "float32"

type cacheKey struct {
	model       string
	device      string
	computeType string
}

// Cache hands out engine instances, constructing each (model, device,
// compute type) combination at most once. Constructed handles are shared by
// all jobs and live until process shutdown; there is no eviction.
type Cache struct {
	factory Factory
	logger  zerolog.Logger

	mu      sync.Mutex
	engines map[cacheKey]Engine
}

// NewCache creates an empty cache backed by the given factory.
func NewCache(factory Factory, logger zerolog.Logger) *Cache {
	return &Cache{
		factory: factory,
		logger:  logger,
		engines: make(map[cacheKey]Engine),
	}
}

// Acquire returns the cached engine for the key, constructing it on first
// use. When construction fails because the compute type is unsupported and
// the request was not already for float32, it retries once with float32 and
// registers the fallback handle under both keys, so later requests for the
// unsupported combination short-circuit without retrying.
func (c *Cache) Acquire(model, device, computeType string) (Engine, error) {
	key := cacheKey{model: model, device: device, computeType: computeType}

	c.mu.Lock()
	defer c.mu.Unlock()

	if eng, ok := c.engines[key]; ok {
		return eng, nil
	}

	eng, err := c.factory(model, device, computeType)
	if err != nil {
		if computeType == fallbackComputeType || !errors.Is(err, ErrUnsupportedCompute) {
			return nil, fmt.Errorf("construct engine %s/%s/%s: %w", model, device, computeType, err)
		}
		c.logger.Warn().
			Str("model", model).
			Str("device", device).
			Str("compute_type", computeType).
			Err(err).
			Msg("compute type unsupported, falling back to float32")
		eng, err = c.factory(model, device, fallbackComputeType)
		if err != nil {
			return nil, fmt.Errorf("construct engine %s/%s/%s: %w", model, device, fallbackComputeType, err)
		}
		c.engines[cacheKey{model: model, device: device, computeType: fallbackComputeType}] = eng
	}

	c.engines[key] = eng
	return eng, nil
}
