package repository

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/go-kit/kit/log/level"
)

// Preferences is the small fixed-schema per-account record. Mute is kept as
// a string on purpose; the stored format predates any boolean handling.
type Preferences struct {
	Theme string `json:"theme"`
	Mute  string `json:"mute"`
}

// DefaultPreferences returns the values backfilled on read.
func DefaultPreferences() Preferences {
	return Preferences{Theme: "blue", Mute: "False"}
}

func (r *Repository) preferencePath(user string) string {
	return filepath.Join(r.dataDir, PreferenceDir, user+".txt")
}

// GetPreferences reads the account's preferences. A missing file persists
// and returns the defaults; malformed data or missing keys fall back to the
// defaults without surfacing an error.
func (r *Repository) GetPreferences(user string) (Preferences, error) {
	user = SanitizeName(user)
	mu := r.preferenceMu.lock(user)
	defer mu.Unlock()
	defaults := DefaultPreferences()
	path := r.preferencePath(user)
	raw, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			_ = level.Error(r.logger).Log("method", "GetPreferences", "user", user, "err", err)
			return defaults, err
		}
		if err := r.savePreferences(path, defaults); err != nil {
			return defaults, err
		}
		return defaults, nil
	}
	var stored map[string]string
	if err := json.Unmarshal(raw, &stored); err != nil {
		return defaults, nil
	}
	prefs := defaults
	if v, ok := stored["theme"]; ok {
		prefs.Theme = v
	}
	if v, ok := stored["mute"]; ok {
		prefs.Mute = v
	}
	return prefs, nil
}

// SetPreferences overwrites the account's preferences.
func (r *Repository) SetPreferences(user, theme, mute string) error {
	user = SanitizeName(user)
	mu := r.preferenceMu.lock(user)
	defer mu.Unlock()
	return r.savePreferences(r.preferencePath(user), Preferences{Theme: theme, Mute: mute})
}

func (r *Repository) savePreferences(path string, prefs Preferences) error {
	raw, err := json.Marshal(prefs)
	if err != nil {
		return err
	}
	if err := writeFileAtomic(path, raw); err != nil {
		_ = level.Error(r.logger).Log("method", "savePreferences", "err", err)
		return err
	}
	return nil
}
