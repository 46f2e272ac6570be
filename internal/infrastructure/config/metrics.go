package config

import "fmt"

// MetricsConfig holds metrics collection and exposure configuration
type MetricsConfig struct {
	// Enabled controls whether metrics collection and the status server are active
	Enabled bool `mapstructure:"enabled"`

	// Port for the HTTP status server (/metrics, /machines)
	Port int `mapstructure:"port" validate:"omitempty,min=1024,max=65535"`

	// Host to bind the status server (default: localhost)
	Host string `mapstructure:"host"`
}

// Addr returns the listen address of the status server
func (c MetricsConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
