package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(content), 0644))
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	s := Load(t.TempDir())
	assert.Equal(t, Defaults(), s.Settings())
}

func TestLoadCorruptFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `{"update_interval": 5,`)
	assert.Equal(t, Defaults(), Load(dir).Settings())
}

func TestLoadMergesOverDefaults(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `{
		"muted_devices": ["LHR-2", "LHR-1", "LHR-2"],
		"update_interval": 30,
		"notifications": {"desktop": false, "ovrt": true}
	}`)
	s := Load(dir).Settings()

	want := Defaults()
	want.MutedDevices = []string{"LHR-1", "LHR-2"}
	want.UpdateInterval = 30
	want.Notifications.Desktop = false
	want.Notifications.OVRT = true
	assert.Equal(t, want, s)
}

func TestLoadFallsBackPerField(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `{
		"update_interval": "often",
		"notifications": {"play_sound": "loud", "desktop": false}
	}`)
	s := Load(dir).Settings()
	assert.Equal(t, 10, s.UpdateInterval)
	assert.True(t, s.Notifications.PlaySound)
	assert.False(t, s.Notifications.Desktop)
}

func TestLoadClampsUpdateInterval(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `{"update_interval": 0}`)
	assert.Equal(t, 1, Load(dir).Settings().UpdateInterval)

	writeConfig(t, dir, `{"update_interval": -20}`)
	assert.Equal(t, 1, Load(dir).Settings().UpdateInterval)
}

func TestSaveAndLoad(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	s := Load(dir)

	require.NoError(t, s.SetMuted("LHR-9", true))
	muted, err := s.ToggleMute("LHR-3")
	require.NoError(t, err)
	assert.True(t, muted)
	require.NoError(t, s.SetNotification("ovrt", true))
	require.NoError(t, s.SetNotification("play_sound", false))
	require.NoError(t, s.SetUpdateInterval(0))

	loaded := Load(dir).Settings()
	assert.Equal(t, []string{"LHR-3", "LHR-9"}, loaded.MutedDevices)
	assert.True(t, loaded.Notifications.OVRT)
	assert.False(t, loaded.Notifications.PlaySound)
	assert.Equal(t, 1, loaded.UpdateInterval)

	// The file is plain JSON with the documented keys.
	data, err := os.ReadFile(filepath.Join(dir, ConfigFileName))
	require.NoError(t, err)
	raw := map[string]interface{}{}
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Contains(t, raw, "muted_devices")
	assert.Contains(t, raw, "update_interval")
	assert.Contains(t, raw["notifications"], "desktop")
}

func TestUnknownNotificationSetting(t *testing.T) {
	s := Load(t.TempDir())
	assert.ErrorIs(t, s.SetNotification("carrier_pigeon", true), ErrUnknownSetting)
}

func TestMuteSetIsSnapshot(t *testing.T) {
	s := Load(t.TempDir())
	require.NoError(t, s.SetMuted("A", true))
	m := s.MuteSet()
	require.NoError(t, s.SetMuted("A", false))
	assert.True(t, m.IsMuted("A"))
	assert.False(t, s.IsMuted("A"))
}

func TestReload(t *testing.T) {
	dir := t.TempDir()
	s := Load(dir)
	assert.Empty(t, s.Reload())

	writeConfig(t, dir, `{"muted_devices": ["LHR-5"]}`)
	assert.NotEmpty(t, s.Reload())
	assert.True(t, s.IsMuted("LHR-5"))
	assert.Empty(t, s.Reload())
}

func TestReloadKeepsSettingsWhenFileUnreadable(t *testing.T) {
	dir := t.TempDir()
	s := Load(dir)
	require.NoError(t, s.SetMuted("LHR-1", true))

	for _, content := range []string{"", `{"muted_devices": ["LH`} {
		writeConfig(t, dir, content)
		assert.Empty(t, s.Reload())
		assert.True(t, s.IsMuted("LHR-1"))
	}
}

func TestSaveReplacesFile(t *testing.T) {
	dir := t.TempDir()
	s := Load(dir)
	require.NoError(t, s.SetMuted("LHR-1", true))
	require.NoError(t, s.SetMuted("LHR-2", true))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ConfigFileName, entries[0].Name())
	assert.Equal(t, []string{"LHR-1", "LHR-2"}, Load(dir).Settings().MutedDevices)
}

func TestWatchKeepsMutesWhileSaving(t *testing.T) {
	dir := t.TempDir()
	s := Load(dir)
	require.NoError(t, s.SetMuted("LHR-KEEP", true))
	require.NoError(t, s.Watch())

	var wg sync.WaitGroup
	stop := make(chan struct{})
	drops := 0
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			if !s.IsMuted("LHR-KEEP") {
				drops++
			}
			time.Sleep(time.Millisecond)
		}
	}()

	for i := 0; i < 50; i++ {
		require.NoError(t, s.SetMuted(fmt.Sprintf("LHR-%02d", i), true))
		time.Sleep(5 * time.Millisecond)
	}
	// Let the watcher catch up with the last saves.
	time.Sleep(100 * time.Millisecond)
	close(stop)
	wg.Wait()

	assert.Zero(t, drops)
	assert.Len(t, s.Settings().MutedDevices, 51)
	assert.Len(t, Load(dir).Settings().MutedDevices, 51)
}

func TestWatchPicksUpExternalEdit(t *testing.T) {
	dir := t.TempDir()
	s := Load(dir)
	require.NoError(t, s.Watch())
	_, err := os.Stat(filepath.Join(dir, ConfigFileName))
	require.NoError(t, err, "watching creates the file")

	writeConfig(t, dir, `{"muted_devices": ["LHR-EXT"], "update_interval": 30}`)
	require.Eventually(t, func() bool {
		return s.IsMuted("LHR-EXT")
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, 30, s.Settings().UpdateInterval)
}
