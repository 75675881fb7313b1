package config

// Default configuration values.
const (
	DefaultDataDir    = "data"
	DefaultStatePath  = ".sightline/state.db"
	DefaultPort       = 8765
	DefaultBackupKeep = 5
	DefaultBrandTitle = "Sightline Dashboards"
	DefaultBrandColor = "#0ea5e9"
)

// Defaults returns the built-in configuration map loaded below every other
// provider.
func Defaults() map[string]any {
	return map[string]any{
		"data_dir":     DefaultDataDir,
		"state_path":   DefaultStatePath,
		"listen.port":  DefaultPort,
		"listen.watch": true,
		"upload.keep":  DefaultBackupKeep,
		"brand.title":  DefaultBrandTitle,
		"brand.color":  DefaultBrandColor,
	}
}

// ApplyDefaults fills zero values that may remain after unmarshaling, for
// configs constructed outside the loader (tests, init scaffolding).
func (c *Config) ApplyDefaults() {
	if c.DataDir == "" {
		c.DataDir = DefaultDataDir
	}
	if c.StatePath == "" {
		c.StatePath = DefaultStatePath
	}
	if c.Listen.Port == 0 {
		c.Listen.Port = DefaultPort
	}
	if c.Upload.Keep == 0 {
		c.Upload.Keep = DefaultBackupKeep
	}
	if c.Brand.Title == "" {
		c.Brand.Title = DefaultBrandTitle
	}
	if c.Brand.Color == "" {
		c.Brand.Color = DefaultBrandColor
	}
}
