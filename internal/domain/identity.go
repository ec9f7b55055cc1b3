package domain

import (
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// Identity is a base58-encoded 32-byte public key identifying an
// actor: auction owner, bidder, fee recipient, or the engine itself.
type Identity string

// IsZero reports whether the identity is unset.
func (id Identity) IsZero() bool {
	return id == ""
}

// Validate checks that the identity decodes to 32 bytes of base58.
func (id Identity) Validate() error {
	if id.IsZero() {
		return fmt.Errorf("empty identity")
	}
	decoded, err := base58.Decode(string(id))
	if err != nil {
		return fmt.Errorf("decode identity %q: %w", id, err)
	}
	if len(decoded) != 32 {
		return fmt.Errorf("identity %q: expected 32 bytes, got %d", id, len(decoded))
	}
	return nil
}

// ValidateStrict additionally requires the key to be a valid ed25519
// curve point. Program-derived addresses are off-curve and fail this.
func (id Identity) ValidateStrict() error {
	if err := id.Validate(); err != nil {
		return err
	}
	decoded, _ := base58.Decode(string(id))
	if _, err := new(edwards25519.Point).SetBytes(decoded); err != nil {
		return fmt.Errorf("identity %q is not on the ed25519 curve", id)
	}
	return nil
}
