package ports

import "context"

// PasswordHasher is the one-way, salted password primitive. Both operations
// are CPU-heavy and take a context so callers can stop waiting for them.
type PasswordHasher interface {
	Hash(ctx context.Context, password string) (string, error)
	// Compare reports whether password matches hash. A mismatch is not an error.
	Compare(ctx context.Context, hash, password string) (bool, error)
}

// KeyCipher encrypts API keys deterministically so equal keys produce equal
// ciphertexts and can be looked up.
type KeyCipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// KeyGenerator produces fresh raw API keys.
type KeyGenerator interface {
	Generate() (string, error)
}
