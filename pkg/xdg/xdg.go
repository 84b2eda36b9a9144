// pkg/xdg/xdg.go

package xdg

import (
	"os"
	"path/filepath"
)

func envOrDefault(envVar, fallback string) string {
	if val := os.Getenv(envVar); val != "" {
		return val
	}
	return fallback
}

// ConfigPath returns the XDG config location for a file of app.
func ConfigPath(app, file string) string {
	base := envOrDefault("XDG_CONFIG_HOME", filepath.Join(os.Getenv("HOME"), ".config"))
	return filepath.Join(base, app, file)
}

// StatePath returns the XDG state location for a file of app; logs and other
// persistent-but-not-precious data belong here.
func StatePath(app, file string) string {
	base := envOrDefault("XDG_STATE_HOME", filepath.Join(os.Getenv("HOME"), ".local", "state"))
	return filepath.Join(base, app, file)
}

// CachePath returns the XDG cache location for a file of app.
func CachePath(app, file string) string {
	base := envOrDefault("XDG_CACHE_HOME", filepath.Join(os.Getenv("HOME"), ".cache"))
	return filepath.Join(base, app, file)
}
