// Package settings holds the mutable runtime knobs that operators change
// through the admin API without restarting the relay: whether delivery is
// on, where it goes, and which key authenticates it.
package settings

import (
	"fmt"
	"net/url"
	"os"
	"sync"

	"github.com/spf13/viper"
)

// Settings is an immutable snapshot of the runtime configuration. Callers
// read a snapshot per event so a concurrent update never splits one
// event's view.
type Settings struct {
	Enabled      bool   `json:"enabled" mapstructure:"enabled"`
	APIURL       string `json:"api_url" mapstructure:"api_url"`
	APIKey       string `json:"api_key" mapstructure:"api_key"`
	DevMode      bool   `json:"dev_mode" mapstructure:"dev_mode"`
	SystemLookup bool   `json:"system_lookup" mapstructure:"system_lookup"`
}

// Update carries a partial settings change; nil fields are left untouched.
type Update struct {
	Enabled      *bool   `json:"enabled"`
	APIURL       *string `json:"api_url"`
	APIKey       *string `json:"api_key"`
	DevMode      *bool   `json:"dev_mode"`
	SystemLookup *bool   `json:"system_lookup"`
}

// Store persists settings to a YAML file and serves snapshots to the
// event path. Writes are synchronous: once Apply returns, the change is
// on disk and visible to every later snapshot.
type Store struct {
	mu      sync.RWMutex
	current Settings
	file    string
	v       *viper.Viper
}

func NewStore(file string) (*Store, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(file)

	v.SetDefault("enabled", false)
	v.SetDefault("api_url", "")
	v.SetDefault("api_key", "")
	v.SetDefault("dev_mode", false)
	v.SetDefault("system_lookup", true)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read settings file %s: %w", file, err)
		}
	}

	var current Settings
	if err := v.Unmarshal(&current); err != nil {
		return nil, fmt.Errorf("failed to unmarshal settings: %w", err)
	}

	return &Store{
		current: current,
		file:    file,
		v:       v,
	}, nil
}

// Snapshot returns the current settings by value.
func (s *Store) Snapshot() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Apply merges an update, validates the result, and persists it. On any
// error the previous settings stay in force.
func (s *Store) Apply(update Update) (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.current
	if update.Enabled != nil {
		next.Enabled = *update.Enabled
	}
	if update.APIURL != nil {
		next.APIURL = *update.APIURL
	}
	if update.APIKey != nil {
		next.APIKey = *update.APIKey
	}
	if update.DevMode != nil {
		next.DevMode = *update.DevMode
	}
	if update.SystemLookup != nil {
		next.SystemLookup = *update.SystemLookup
	}

	if err := Validate(next); err != nil {
		return s.current, err
	}

	if err := s.persist(next); err != nil {
		return s.current, fmt.Errorf("failed to persist settings: %w", err)
	}

	s.current = next
	return next, nil
}

func (s *Store) persist(next Settings) error {
	s.v.Set("enabled", next.Enabled)
	s.v.Set("api_url", next.APIURL)
	s.v.Set("api_key", next.APIKey)
	s.v.Set("dev_mode", next.DevMode)
	s.v.Set("system_lookup", next.SystemLookup)
	return s.v.WriteConfigAs(s.file)
}

// Validate rejects settings that would make delivery silently useless.
// An empty URL is allowed (delivery just skips), a present but broken
// one is not.
func Validate(s Settings) error {
	if s.APIURL == "" {
		return nil
	}

	u, err := url.Parse(s.APIURL)
	if err != nil {
		return fmt.Errorf("api_url is not a valid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("api_url must use http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("api_url must be absolute")
	}
	return nil
}
