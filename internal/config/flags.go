package config

import "flag"

var (
	flagConfig   = flag.String("config", "", "Path to config file")
	flagDebug    = flag.Bool("debug", false, "Enable debug logging")
	flagStrict   = flag.Bool("strict", false, "Fail when a material library cannot be loaded")
	flagEncoding = flag.String("encoding", "", "Encoding of names in model files (e.g. euc-kr, shift_jis)")
	flagGroupObj = flag.Bool("objects-as-groups", false, "Treat 'o' directives as groups")
	flagLogFile  = flag.String("log", "", "Write logs to this file")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// Args returns the non-flag command-line arguments.
func Args() []string {
	return flag.Args()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagStrict {
		cfg.Loader.StrictMaterials = true
	}
	if *flagEncoding != "" {
		cfg.Loader.NameEncoding = *flagEncoding
	}
	if *flagGroupObj {
		cfg.Loader.ObjectsAsGroups = true
	}
	if *flagLogFile != "" {
		cfg.Logging.LogFile = *flagLogFile
	}
}
