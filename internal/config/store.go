package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/TheCacophonyProject/vr-battery-monitor/internal/battery"
	"github.com/fsnotify/fsnotify"
	"github.com/google/go-cmp/cmp"
	"github.com/spf13/viper"
)

// Store holds the current settings and writes them back to disk whenever
// the user changes one. It is safe for concurrent use.
type Store struct {
	mu       sync.Mutex
	path     string
	settings Settings
	mutes    battery.MuteSet
}

// Load reads the settings from configDir, falling back to defaults.
func Load(configDir string) *Store {
	path := filepath.Join(configDir, ConfigFileName)
	s := readSettings(path)
	log.Debugf("Loaded config from '%s': %+v", path, s)
	return &Store{
		path:     path,
		settings: s,
		mutes:    battery.NewMuteSet(s.MutedDevices...),
	}
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) Settings() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copySettings()
}

func (s *Store) copySettings() Settings {
	c := s.settings
	c.MutedDevices = s.mutes.Serials()
	return c
}

// MuteSet returns a snapshot of the muted serials.
func (s *Store) MuteSet() battery.MuteSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mutes.Clone()
}

func (s *Store) IsMuted(serial string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mutes.IsMuted(serial)
}

// Save writes the current settings to the config file.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked()
}

func (s *Store) saveLocked() error {
	if err := writeSettings(s.path, s.copySettings()); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	return nil
}

func (s *Store) SetMuted(serial string, muted bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if muted {
		s.mutes.Mute(serial)
	} else {
		s.mutes.Unmute(serial)
	}
	log.Infof("Device %s muted: %t", serial, muted)
	return s.saveLocked()
}

// ToggleMute flips the mute state of serial and returns the new state.
func (s *Store) ToggleMute(serial string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	muted := s.mutes.Toggle(serial)
	log.Infof("Device %s muted: %t", serial, muted)
	return muted, s.saveLocked()
}

// SetNotification enables or disables a notification option by its name
// in the config file, e.g. "desktop" or "play_sound".
func (s *Store) SetNotification(name string, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := &s.settings.Notifications
	switch name {
	case "play_sound":
		n.PlaySound = enabled
	case "desktop":
		n.Desktop = enabled
	case "ovrt":
		n.OVRT = enabled
	case "mqtt":
		n.MQTT = enabled
	case "events":
		n.Events = enabled
	default:
		return fmt.Errorf("%w '%s'", ErrUnknownSetting, name)
	}
	log.Infof("Notification setting %s: %t", name, enabled)
	return s.saveLocked()
}

func (s *Store) SetUpdateInterval(seconds int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings.UpdateInterval = clampInterval(seconds)
	log.Infof("Update interval: %ds", s.settings.UpdateInterval)
	return s.saveLocked()
}

// Reload rereads the config file and returns a diff of what changed. The
// current settings are kept if the file can't be read. The file is read
// under the lock so a save can't land between reading and applying it.
func (s *Store) Reload() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	fresh, err := readFile(s.path)
	if err != nil {
		log.Debugf("Keeping current settings, failed to read '%s': %v", s.path, err)
		return ""
	}
	diff := cmp.Diff(s.copySettings(), fresh)
	if diff == "" {
		return ""
	}
	s.settings = fresh
	s.mutes = battery.NewMuteSet(fresh.MutedDevices...)
	return diff
}

// Watch reloads the settings whenever the config file is changed by
// something else, such as the user editing it by hand.
func (s *Store) Watch() error {
	if _, err := os.Stat(s.path); errors.Is(err, os.ErrNotExist) {
		// The watcher only follows a file that exists when it starts.
		if err := s.Save(); err != nil {
			return err
		}
	}
	v := viper.New()
	v.SetConfigFile(s.path)
	v.OnConfigChange(func(e fsnotify.Event) {
		log.Debugf("Config file event: %s", e)
		if diff := s.Reload(); diff != "" {
			log.Info("Config changed:\n", diff)
		} else {
			log.Debug("No relevant changes detected in config file.")
		}
	})
	v.WatchConfig()
	return nil
}
