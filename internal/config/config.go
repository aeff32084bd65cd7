package config

type Config interface {
	EnvConfig
	XeroConfig
	CorsConfig
	SecurityConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetAPIVersion() string
	GetDataFolder() string
	GetBaseURL() string
	GetEnv() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	Cors
	Xero
	Security
}

func New() Config {
	return mainConfig{}
}

// Validate reports the critical settings that are missing. An empty slice
// means the configuration is usable.
func Validate(c Config) []string {
	var missing []string
	if c.GetXeroClientID() == "" {
		missing = append(missing, "XERO_CLIENT_ID")
	}
	if c.GetXeroClientSecret() == "" {
		missing = append(missing, "XERO_CLIENT_SECRET")
	}
	if c.GetAPIKey() == "" {
		missing = append(missing, "API_KEY")
	}
	return missing
}
