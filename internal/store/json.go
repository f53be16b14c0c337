package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"storefront/internal/util"

	"go.uber.org/zap"
)

// ReadJSON decodes the blob at key into T. Missing, null, unreadable or corrupt
// blobs all yield fallback; only the last two are logged.
func ReadJSON[T any](ctx context.Context, kv KV, key string, fallback T) T {
	raw, ok, err := kv.Get(ctx, key)
	if err != nil {
		util.GetLogger().Warn("Cannot read stored key",
			zap.String("key", key),
			zap.Error(err))
		return fallback
	}
	if !ok || len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return fallback
	}

	var value T
	if err := json.Unmarshal(raw, &value); err != nil {
		util.StoreDecodeFailuresTotal.WithLabelValues(key).Inc()
		util.GetLogger().Warn("Cannot parse stored key",
			zap.String("key", key),
			zap.Error(err))
		return fallback
	}
	return value
}

// WriteJSON encodes value and stores it under key
func WriteJSON(ctx context.Context, kv KV, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	if err := kv.Set(ctx, key, data); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}
