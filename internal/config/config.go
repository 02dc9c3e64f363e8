package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Client holds all configuration for the game client.
type Client struct {
	Auth      AuthServer `yaml:"auth"`
	World     World      `yaml:"world"`
	Account   Account    `yaml:"account"`
	Reconnect Reconnect  `yaml:"reconnect"`
	Journal   Journal    `yaml:"journal"`
}

// AuthServer points at the login server.
type AuthServer struct {
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	LoginTimeout int    `yaml:"login_timeout"` // seconds
}

// World holds world-server connection parameters.
type World struct {
	// Port overrides the port advertised by the realm list when non-zero.
	Port int `yaml:"port"`

	// PreferredRealm selects a realm by name; empty means first advertised.
	PreferredRealm string `yaml:"preferred_realm"`
}

// Account holds login credentials. Password may be left empty in the file
// and supplied via environment instead.
type Account struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// Reconnect configures the backoff policy for unexpected disconnects.
type Reconnect struct {
	MaxAttempts  int `yaml:"max_attempts"`
	InitialDelay int `yaml:"initial_delay"` // seconds
	MaxDelay     int `yaml:"max_delay"`     // seconds
}

// Journal configures the optional SQLite session journal.
type Journal struct {
	// Path to the journal database file; empty disables journaling.
	Path string `yaml:"path"`
}

// DefaultClient returns Client config with sensible defaults.
func DefaultClient() Client {
	return Client{
		Auth: AuthServer{
			Host:         "127.0.0.1",
			Port:         3724,
			LoginTimeout: 10,
		},
		World: World{
			Port: 0, // use the realm-advertised port
		},
		Reconnect: Reconnect{
			MaxAttempts:  5,
			InitialDelay: 1,
			MaxDelay:     30,
		},
	}
}

// LoadClient loads client config from a YAML file.
// If the file doesn't exist, returns defaults.
func LoadClient(path string) (Client, error) {
	cfg := DefaultClient()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}
