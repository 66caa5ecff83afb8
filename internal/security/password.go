package security

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// bcrypt only looks at the first 72 bytes of its input.
const maxBcryptInput = 72

// Hasher hashes and verifies passwords with bcrypt at a fixed cost.
type Hasher struct {
	cost  int
	dummy []byte
}

func NewHasher(cost int) (*Hasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range [%d,%d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}

	// used by DummyVerify so a miss costs the same as a wrong password
	dummy, err := bcrypt.GenerateFromPassword([]byte("dummy-password-for-timing"), cost)
	if err != nil {
		return nil, err
	}

	return &Hasher{cost: cost, dummy: dummy}, nil
}

func (h *Hasher) Cost() int {
	return h.cost
}

// Hash returns a self-describing bcrypt string (algorithm, cost, salt and digest).
func (h *Hasher) Hash(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(prepare(plain), h.cost)

	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// Verify reports whether plain matches the stored hash. Malformed hashes never match.
func (h *Hasher) Verify(plain, stored string) bool {
	return bcrypt.CompareHashAndPassword([]byte(stored), prepare(plain)) == nil
}

func (h *Hasher) DummyVerify(plain string) {
	_ = bcrypt.CompareHashAndPassword(h.dummy, prepare(plain))
}

// prepare digests inputs bcrypt would otherwise truncate or reject.
func prepare(plain string) []byte {
	if len(plain) <= maxBcryptInput {
		return []byte(plain)
	}

	sum := sha256.Sum256([]byte(plain))

	return []byte(base64.StdEncoding.EncodeToString(sum[:]))
}
