// Package config loads the team-colors palette from a JSON file, falling
// back to a baked-in default palette, and can optionally watch the file
// for changes.
package config

import (
	"encoding/json"
	"os"

	"neon-beat-back/internal/logging"
	"neon-beat-back/internal/model"
)

const defaultConfigPath = "config/app.json"

// EnvConfigPath is the environment variable that overrides the config
// file location.
const EnvConfigPath = "NEON_BEAT_BACK_CONFIG_PATH"

type rawColor struct {
	Hue        float64 `json:"hue"`
	Saturation float64 `json:"saturation"`
	Value      float64 `json:"value"`
}

type rawConfig struct {
	Colors []rawColor `json:"colors"`
}

// AppConfig is the immutable runtime configuration shared across the
// process. It is safe to read concurrently; reload installs a new value
// into the Holder passed to Watch.
type AppConfig struct {
	Colors []model.TeamColor
}

// Load reads the colors config from the resolved path, falling back to
// DefaultColors on any read or parse error.
func Load() AppConfig {
	path := resolveConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		logging.Log.WithError(err).WithField("path", path).Warn("could not read colors config, using defaults")
		return AppConfig{Colors: DefaultColors()}
	}
	var raw rawConfig
	if err := json.Unmarshal(data, &raw); err != nil {
		logging.Log.WithError(err).WithField("path", path).Warn("could not parse colors config, using defaults")
		return AppConfig{Colors: DefaultColors()}
	}
	colors := make([]model.TeamColor, 0, len(raw.Colors))
	for _, c := range raw.Colors {
		colors = append(colors, model.TeamColor{Hue: c.Hue, Saturation: c.Saturation, Value: c.Value})
	}
	logging.Log.WithField("path", path).WithField("count", len(colors)).Info("loaded team colors set from config")
	return AppConfig{Colors: colors}
}

func resolveConfigPath() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	return defaultConfigPath
}

// DefaultColors is the built-in palette shipped with the binary, used
// whenever no colors config can be read.
func DefaultColors() []model.TeamColor {
	return []model.TeamColor{
		{Hue: -64.69388, Saturation: 1.0, Value: 1.0},
		{Hue: 119.331474, Saturation: 1.0, Value: 1.0},
		{Hue: -113.57562, Saturation: 1.0, Value: 1.0},
		{Hue: 34.365788, Saturation: 1.0, Value: 1.0},
		{Hue: -169.41148, Saturation: 1.0, Value: 1.0},
		{Hue: -19.08323, Saturation: 1.0, Value: 1.0},
		{Hue: 58.87927, Saturation: 1.0, Value: 1.0},
		{Hue: -134.34782, Saturation: 0.6, Value: 1.0},
		{Hue: 153.15997, Saturation: 0.6, Value: 1.0},
		{Hue: -9.423828, Saturation: 0.6, Value: 1.0},
	}
}
