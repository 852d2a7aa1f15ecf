package security

import "time"

// NewTestTokenProvider returns a TokenProvider signing with a fresh ECDSA key.
// For unit tests only.
func NewTestTokenProvider() (*TokenProvider, error) {
	key, err := GenerateEphemeralKey()
	if err != nil {
		return nil, err
	}
	return NewTokenProvider(key, nil, "test-issuer", "test-audience", 15*time.Minute, 24*time.Hour, time.Hour)
}
