package config

const (
	defaultBaseTolerance = 0.01
	defaultPPMTolerance  = 10
	defaultWorkers       = 0
	defaultLogLevel      = "info"
	defaultLogFormat     = "auto"
	defaultServerAddr    = "127.0.0.1:8087"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Inference: Inference{
			BaseTolerance: defaultBaseTolerance,
			PPMTolerance:  defaultPPMTolerance,
		},
		Scoring: Scoring{
			Workers: defaultWorkers,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
		Server: Server{
			Addr: defaultServerAddr,
		},
	}
}
