package config

type SecurityConfig interface {
	GetAPIKey() string
	GetStorageSecret() string
}

type Security struct{}

var _ SecurityConfig = Security{}

// GetAPIKey returns the shared key consumers must present in the X-API-Key
// header on /api routes.
func (Security) GetAPIKey() string {
	return GetEnv("API_KEY", "")
}

// GetStorageSecret returns the key material used to encrypt the token
// snapshot at rest. Empty means the snapshot is stored in plaintext.
func (Security) GetStorageSecret() string {
	return GetEnv("SECRET_KEY", "")
}
