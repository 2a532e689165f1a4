package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"github.com/btcsuite/btcd/btcutil/bech32"
	"golang.org/x/crypto/ripemd160"
)

// AddressDeriver maps a textual identity to its ledger address. The mapping
// is deterministic so both sides of a payment can derive the same address
// without a directory lookup.
type AddressDeriver struct {
	Prefix string
}

func (d AddressDeriver) Derive(identity string) (string, error) {
	if identity == "" {
		return "", errors.New("identity is empty")
	}
	if d.Prefix == "" {
		return "", errors.New("address prefix is not configured")
	}

	digest := identityDigest(identity)
	converted, err := bech32.ConvertBits(digest, 8, 5, true)
	if err != nil {
		return "", err
	}
	return bech32.Encode(d.Prefix, converted)
}

// Subaccount returns the hex subaccount used as the transfer source for the
// given identity.
func (d AddressDeriver) Subaccount(identity string) string {
	return hex.EncodeToString(identityDigest(identity))
}

func identityDigest(identity string) []byte {
	hash := sha256.Sum256([]byte(identity))
	rip := ripemd160.New()
	_, _ = rip.Write(hash[:])
	return rip.Sum(nil)
}
