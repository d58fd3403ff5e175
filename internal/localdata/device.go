package localdata

import (
	"errors"

	"github.com/google/uuid"
)

// AnonymousDeviceID is used for a single remote write when the store is
// unavailable. It is never cached, so a later call retries persistence.
const AnonymousDeviceID = "anon"

// DeviceID returns the per-install device identifier, generating and
// persisting one on first use. If the store cannot be read or written the
// anonymous identifier is returned for this call only.
func DeviceID(s *Store) string {
	if s == nil {
		return AnonymousDeviceID
	}
	id, err := s.Get(KeyDeviceID)
	if err == nil && id != "" {
		return id
	}
	if err != nil && !errors.Is(err, ErrNotFound) {
		return AnonymousDeviceID
	}

	id = uuid.NewString()
	if err := s.Set(KeyDeviceID, id); err != nil {
		return AnonymousDeviceID
	}
	return id
}

// Theme returns the persisted theme, defaulting to "dark". Unknown values
// are treated as absent.
func Theme(s *Store) string {
	if s == nil {
		return "dark"
	}
	v, err := s.Get(KeyTheme)
	if err != nil || (v != "light" && v != "dark") {
		return "dark"
	}
	return v
}

// SetTheme persists the theme choice. Values other than "light" and
// "dark" are rejected.
func SetTheme(s *Store, theme string) error {
	if theme != "light" && theme != "dark" {
		return errors.New("theme must be \"light\" or \"dark\"")
	}
	return s.Set(KeyTheme, theme)
}
