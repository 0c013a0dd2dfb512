package domain

// APIKeyName is the credential key holding the catalog API key
const APIKeyName = "apiKey"

// CredentialProvider is a key/value secret lookup
type CredentialProvider interface {
	Get(key string) (string, bool)
	Set(key, value string) error
}
