package assessment

import "time"

type Config struct {
	// Timeout bounds one scoring call; 0 leaves it to the caller's context.
	Timeout time.Duration
	// DefaultName is used when the form leaves the name blank.
	DefaultName string
}

func LoadConfig() *Config {
	return &Config{
		Timeout:     30 * time.Second,
		DefaultName: "New Applicant",
	}
}
