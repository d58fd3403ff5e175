package progress

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// RemoteConfig points at a Supabase-style REST endpoint exposing a
// watch_history table.
type RemoteConfig struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

// restSink implements RemoteSink against a PostgREST upsert endpoint.
type restSink struct {
	client *resty.Client
}

// historyRow is the remote row shape. Conflict target is the composite
// (device_id, storage_key) key.
type historyRow struct {
	DeviceID   string `json:"device_id"`
	StorageKey string `json:"storage_key"`
	Position   int    `json:"position"`
	Duration   int    `json:"duration"`
	UpdatedAt  string `json:"updated_at"`
}

// NewRemote builds the remote sink, or returns nil when no URL is
// configured (local-only operation).
func NewRemote(cfg RemoteConfig) RemoteSink {
	if cfg.URL == "" {
		return nil
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}

	client := resty.New().
		SetBaseURL(cfg.URL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500*time.Millisecond).
		SetHeader("Content-Type", "application/json")
	if cfg.APIKey != "" {
		client.SetHeader("apikey", cfg.APIKey).
			SetAuthToken(cfg.APIKey)
	}

	return &restSink{client: client}
}

// Upsert writes the record, resolving conflicts on (device_id,
// storage_key) so the last writer wins.
func (r *restSink) Upsert(ctx context.Context, deviceID, sessionKey string, rec Record) error {
	row := historyRow{
		DeviceID:   deviceID,
		StorageKey: sessionKey,
		Position:   rec.Position,
		Duration:   rec.Duration,
		UpdatedAt:  time.UnixMilli(rec.CapturedAt).UTC().Format(time.RFC3339),
	}

	resp, err := r.client.R().
		SetContext(ctx).
		SetQueryParam("on_conflict", "device_id,storage_key").
		SetHeader("Prefer", "resolution=merge-duplicates").
		SetBody([]historyRow{row}).
		Post("/rest/v1/watch_history")
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("remote store returned %s", resp.Status())
	}
	return nil
}
