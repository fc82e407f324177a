package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"

	"golang.org/x/crypto/bcrypt"
)

// Resolver turns plaintext passwords into one-way digests and verifies
// candidates against stored digests. Encode is deterministic only for
// schemes without a salt; Match is the contract callers rely on.
type Resolver interface {
	Encode(password string) (string, error)
	Match(storedDigest, candidate string) bool
}

// NewResolver returns the resolver for the configured scheme.
// Unknown schemes fall back to sha256.
func NewResolver(scheme string) Resolver {
	if scheme == "bcrypt" {
		return BcryptResolver{}
	}
	return SHA256Resolver{}
}

// SHA256Resolver digests the UTF-8 bytes of the password with a single
// unsalted SHA-256 pass, hex-encoded.
type SHA256Resolver struct{}

func (SHA256Resolver) Encode(password string) (string, error) {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:]), nil
}

func (r SHA256Resolver) Match(storedDigest, candidate string) bool {
	encoded, _ := r.Encode(candidate)
	return subtle.ConstantTimeCompare([]byte(encoded), []byte(storedDigest)) == 1
}

// BcryptResolver is the salted, iterated alternative. Digests are not
// deterministic across Encode calls; only Match is meaningful.
type BcryptResolver struct {
	Cost int
}

func (r BcryptResolver) Encode(password string) (string, error) {
	cost := r.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (BcryptResolver) Match(storedDigest, candidate string) bool {
	return bcrypt.CompareHashAndPassword([]byte(storedDigest), []byte(candidate)) == nil
}
