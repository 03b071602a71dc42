package solver

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"

	solana "github.com/gagliardetto/solana-go"
	"github.com/joho/godotenv"
)

// Keys bundles the solver's two identities: the chain key that signs price
// updates and the X25519 key intents are sealed to.
type Keys struct {
	Signing solana.PrivateKey
	BoxPriv [32]byte
}

// LoadKeysFromEnv reads both solver keys from the environment, letting a
// local .env override for development.
func LoadKeysFromEnv() (Keys, error) {
	_ = godotenv.Load() // best-effort

	var keys Keys
	b58 := os.Getenv("SOLVER_PRIVATE_KEY_BASE58")
	if b58 == "" {
		return keys, errors.New("SOLVER_PRIVATE_KEY_BASE58 not set")
	}
	signing, err := solana.PrivateKeyFromBase58(b58)
	if err != nil {
		return keys, fmt.Errorf("decode signing key: %w", err)
	}
	keys.Signing = signing

	b64 := os.Getenv("SOLVER_BOX_KEY_BASE64")
	if b64 == "" {
		return keys, errors.New("SOLVER_BOX_KEY_BASE64 not set")
	}
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return keys, fmt.Errorf("decode box key: %w", err)
	}
	if len(raw) != 32 {
		return keys, fmt.Errorf("box key must be 32 bytes, got %d", len(raw))
	}
	copy(keys.BoxPriv[:], raw)
	return keys, nil
}
