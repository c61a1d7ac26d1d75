package redis

import "fmt"

// KeyBuilder provides environment-aware Redis key building functionality
type KeyBuilder struct {
	prefix string // Environment prefix (staging/prod)
}

// NewKeyBuilder creates a new key builder with environment-based prefix
func NewKeyBuilder(environment string) *KeyBuilder {
	prefix := "prod"
	if environment == "development" || environment == "staging" || environment == "test" {
		prefix = "staging"
	}

	return &KeyBuilder{
		prefix: prefix,
	}
}

// BuildKey constructs a Redis key with the environment prefix
func (kb *KeyBuilder) BuildKey(key string) string {
	return fmt.Sprintf("%s:%s", kb.prefix, key)
}

// GetPrefix returns the current environment prefix
func (kb *KeyBuilder) GetPrefix() string {
	return kb.prefix
}

// KeySessionSnapshot is the serialized editor session for one operator session id.
func (kb *KeyBuilder) KeySessionSnapshot(sessionID string) string {
	return kb.BuildKey(fmt.Sprintf("board:session:%s", sessionID))
}

// KeyPairIdempotency guards pair persistence against double submission;
// the lock is named after the synthetic composite id.
func (kb *KeyBuilder) KeyPairIdempotency(compositeID string) string {
	return kb.BuildKey(fmt.Sprintf("board:pair:idem:%s", compositeID))
}

// KeyCustom builds a key from a custom pattern.
func (kb *KeyBuilder) KeyCustom(pattern string, args ...interface{}) string {
	key := fmt.Sprintf(pattern, args...)
	return kb.BuildKey(key)
}
