// Package progress persists playback positions. The local sqlite record
// is the source of truth; an optional remote sink mirrors it best-effort,
// keyed by (device id, session key), last writer wins.
package progress

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/wibustream/anistream/internal/localdata"
)

// Record is one watch-progress snapshot. JSON field names match the
// on-disk layout: t=position seconds, d=duration seconds, at=epoch millis.
type Record struct {
	Position   int   `json:"t"`
	Duration   int   `json:"d"`
	CapturedAt int64 `json:"at"`
}

// RemoteSink mirrors progress records to an external store. Implementations
// must be safe for concurrent use.
type RemoteSink interface {
	Upsert(ctx context.Context, deviceID, sessionKey string, rec Record) error
}

// Store couples the local key-value store with an optional remote sink.
type Store struct {
	local  *localdata.Store
	remote RemoteSink
	logger *slog.Logger

	// remoteTimeout bounds each fire-and-forget upsert.
	remoteTimeout time.Duration
}

// NewStore builds a progress store. remote may be nil for local-only
// operation.
func NewStore(local *localdata.Store, remote RemoteSink, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		local:         local,
		remote:        remote,
		logger:        logger,
		remoteTimeout: 10 * time.Second,
	}
}

// Load returns the saved record for sessionKey, or nil when none exists.
// Missing or malformed local data is "no resume point", never an error.
func (s *Store) Load(sessionKey string) *Record {
	if s.local == nil {
		return nil
	}
	var rec Record
	if err := s.local.GetJSON(localdata.KeyProgressPrefix+sessionKey, &rec); err != nil {
		if !errors.Is(err, localdata.ErrNotFound) {
			s.logger.Debug("ignoring unreadable progress record", "key", sessionKey, "error", err)
		}
		return nil
	}
	if rec.Position < 0 || rec.Duration < 0 {
		return nil
	}
	return &rec
}

// Save overwrites the local record for sessionKey and then mirrors it
// remotely. The local write must succeed before the remote attempt is
// made; remote failures are swallowed.
func (s *Store) Save(sessionKey string, positionSeconds, durationSeconds int) error {
	rec := Record{
		Position:   positionSeconds,
		Duration:   durationSeconds,
		CapturedAt: time.Now().UnixMilli(),
	}
	if s.local != nil {
		if err := s.local.SetJSON(localdata.KeyProgressPrefix+sessionKey, rec); err != nil {
			return err
		}
	}

	if s.remote != nil {
		deviceID := localdata.DeviceID(s.local)
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), s.remoteTimeout)
			defer cancel()
			if err := s.remote.Upsert(ctx, deviceID, sessionKey, rec); err != nil {
				s.logger.Debug("remote progress upsert failed", "key", sessionKey, "error", err)
			}
		}()
	}
	return nil
}
