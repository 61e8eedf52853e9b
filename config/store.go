package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const envPrefix = "DOLPHINRETRO"

// Store holds the persisted settings. It is safe for concurrent use.
type Store struct {
	log  zerolog.Logger
	path string

	mu       sync.RWMutex
	settings Settings
}

// NewMemoryStore returns a store that never touches the filesystem.
func NewMemoryStore(log zerolog.Logger, settings Settings) *Store {
	return &Store{
		log:      log.With().Str("component", "config").Logger(),
		settings: settings,
	}
}

// Load resolves settings from defaults, the YAML file at path, and
// DOLPHINRETRO_* environment variables, in increasing precedence. A missing
// file is created with the defaults.
func Load(log zerolog.Logger, path string) (*Store, error) {
	s := NewMemoryStore(log, Default())
	s.path = path

	v := viper.New()
	v.SetConfigType("yaml")
	if err := setDefaults(v, Default()); err != nil {
		return nil, fmt.Errorf("config: defaults: %w", err)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("config: read %s: %w", path, err)
			}

			if err = writeFile(path, Default()); err != nil {
				s.log.Warn().Err(err).Str("path", path).Msg("config: load: could not write default config")
			} else {
				s.log.Info().Str("path", path).Msg("config: load: created default config")
			}
		}
	}

	if err := v.Unmarshal(&s.settings); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	s.log.Debug().Str("path", path).Msg("config: load: loaded")
	return s, nil
}

// setDefaults registers every settings key with viper so that environment
// overrides apply to keys absent from the file.
func setDefaults(v *viper.Viper, defaults Settings) error {
	b, err := yaml.Marshal(defaults)
	if err != nil {
		return err
	}

	var tree map[string]interface{}
	if err = yaml.Unmarshal(b, &tree); err != nil {
		return err
	}

	var walk func(prefix string, m map[string]interface{})
	walk = func(prefix string, m map[string]interface{}) {
		for k, val := range m {
			key := k
			if prefix != "" {
				key = prefix + "." + k
			}
			if sub, ok := val.(map[string]interface{}); ok {
				walk(key, sub)
				continue
			}
			v.SetDefault(key, val)
		}
	}
	walk("", tree)

	return nil
}

func writeFile(path string, settings Settings) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(settings)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func (s *Store) Path() string { return s.path }

// Get returns a copy of the current settings.
func (s *Store) Get() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// Update applies fn to a copy of the settings and stores the result,
// reporting whether anything changed.
func (s *Store) Update(fn func(settings *Settings)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.settings
	fn(&next)
	if next == s.settings {
		return false
	}

	s.settings = next
	return true
}

// Save writes the settings to the store's file. Memory stores ignore it.
func (s *Store) Save() error {
	if s.path == "" {
		return nil
	}

	settings := s.Get()
	if err := writeFile(s.path, settings); err != nil {
		return fmt.Errorf("config: save %s: %w", s.path, err)
	}

	s.log.Debug().Str("path", s.path).Msg("config: save: saved")
	return nil
}

// UpdateAndSave is Update followed by Save when something changed.
func (s *Store) UpdateAndSave(fn func(settings *Settings)) bool {
	if !s.Update(fn) {
		return false
	}
	if err := s.Save(); err != nil {
		s.log.Warn().Err(err).Msg("config: save failed")
	}
	return true
}
