// Package config handles objtool configuration loading and management.
package config

import "time"

// Config holds all objtool settings.
type Config struct {
	Loader  LoaderConfig  `yaml:"loader"`
	Export  ExportConfig  `yaml:"export"`
	Logging LoggingConfig `yaml:"logging"`
}

// LoaderConfig holds model fetching and parsing settings.
type LoaderConfig struct {
	HTTPTimeout          time.Duration `yaml:"http_timeout"`
	MaxConcurrentFetches int           `yaml:"max_concurrent_fetches"`
	StrictMaterials      bool          `yaml:"strict_materials"` // Fail when a material library cannot be loaded
	NameEncoding         string        `yaml:"name_encoding"`    // Encoding of names in OBJ/MTL files, e.g. "euc-kr"
	MaxElements          int           `yaml:"max_elements"`     // Per-collection element limit, 0 = unlimited
	ObjectsAsGroups      bool          `yaml:"objects_as_groups"`
}

// ExportConfig holds glTF export settings.
type ExportConfig struct {
	KeepTexcoordV bool   `yaml:"keep_texcoord_v"`
	OutputDir     string `yaml:"output_dir"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Loader: LoaderConfig{
			HTTPTimeout:          30 * time.Second,
			MaxConcurrentFetches: 4,
			StrictMaterials:      false,
			NameEncoding:         "",
			MaxElements:          0,
			ObjectsAsGroups:      false,
		},
		Export: ExportConfig{
			KeepTexcoordV: false,
			OutputDir:     "",
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
