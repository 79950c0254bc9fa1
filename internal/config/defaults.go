package config

const (
	// DefaultScriptURL is the Google Identity Services client script.
	DefaultScriptURL = "https://accounts.google.com/gsi/client"
	// DefaultLoginURI is where the identity SDK posts the credential.
	DefaultLoginURI = "/auth/google/callback"
)

// NewDefaultConfig creates a configuration with default values.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "prod",
		Server: ServerConfig{
			Port: 4241,
			Host: "localhost",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data/portal",
			},
		},
		Session: SessionConfig{
			DeviceCookie:    "portal_device",
			ReadyWait:       "500ms",
			HydrateTimeout:  "5s",
			CacheTTL:        "30m",
			CacheMaxEntries: 10000,
		},
		Identity: IdentityConfig{
			ScriptURL:    DefaultScriptURL,
			LoginURI:     DefaultLoginURI,
			UXMode:       "popup",
			ReadyTimeout: "2s",
			RetryAfter:   "1m",
		},
		Login: LoginConfig{
			FallbackEmails: []string{
				"user1@gmail.com",
				"user2@example.com",
				"user3@example.com",
			},
		},
		Logging: LoggingConfig{
			Level:   "info",
			Format:  "text",
			Outputs: []string{"console"},
		},
	}
}
