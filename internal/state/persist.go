package state

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/phrazzld/medinodus/internal/redact"
	"github.com/phrazzld/medinodus/internal/store"
)

// read returns the value under key. Absent keys and failed reads both
// report ok == false; failures are logged and counted.
func (c *Container) read(ctx context.Context, key string) (value string, ok bool) {
	v, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			c.logger.Warn("failed to read persisted value, using default",
				"key", key,
				"error", redact.Error(err))
			c.metrics.StorageError("get")
		}
		return "", false
	}
	return v, true
}

// decode unmarshals a persisted JSON document. Malformed documents are
// logged, counted and reported as ok == false.
func (c *Container) decode(key, raw string, v interface{}) bool {
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		c.logger.Warn("malformed persisted value, using default",
			"key", key,
			"error", redact.Error(err))
		c.metrics.StorageError("decode")
		return false
	}
	return true
}

// write stores value under key. A failed write is logged and counted; the
// in-memory value stays authoritative.
func (c *Container) write(ctx context.Context, key, value string) {
	if err := c.store.Set(ctx, key, value); err != nil {
		c.logger.Error("failed to persist value",
			"key", key,
			"error", redact.Error(err))
		c.metrics.StorageError("set")
	}
}

func (c *Container) writeJSON(ctx context.Context, key string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		c.logger.Error("failed to encode value for persistence",
			"key", key,
			"error", redact.Error(err))
		c.metrics.StorageError("encode")
		return
	}
	c.write(ctx, key, string(data))
}

func (c *Container) remove(ctx context.Context, keys ...string) {
	if err := c.store.RemoveMany(ctx, keys); err != nil {
		c.logger.Error("failed to remove persisted values",
			"keys", keys,
			"error", redact.Error(err))
		c.metrics.StorageError("remove")
	}
}
