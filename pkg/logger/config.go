package logger

type Config struct {
	Level string `yaml:"level"`
	// FileName is the rotated log file; empty logs to stdout.
	FileName   string `yaml:"filename"`
	MaxSize    int    `yaml:"maxsize"`
	MaxAge     int    `yaml:"maxage"`
	MaxBackups int    `yaml:"maxbackups"`
	Compress   bool   `yaml:"compress"`
}

func DefaultConfig() *Config {
	return &Config{
		Level:      "INFO",
		FileName:   "./logs/ledger.log",
		MaxSize:    500,
		MaxAge:     360,
		MaxBackups: 20,
		Compress:   true,
	}
}
