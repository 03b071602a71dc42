package intent

import (
	"bytes"
	"crypto/rand"
	"errors"
	"testing"

	"golang.org/x/crypto/nacl/box"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	solverPub, solverPriv, err := box.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	want := Intent{Size: -2_500_000, MaxSlippageBps: 30, Deadline: 1_900_000_000}
	env, err := Encrypt(want, solverPub)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	got, err := Decrypt(env, solverPriv)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if got != want {
		t.Fatalf("roundtrip mismatch: %+v vs %+v", got, want)
	}
}

func TestFreshEphemeralKeyPerMessage(t *testing.T) {
	solverPub, _, err := box.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	it := Intent{Size: 100, MaxSlippageBps: 10, Deadline: 1_900_000_000}

	a, err := Encrypt(it, solverPub)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	b, err := Encrypt(it, solverPub)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if a.EphemeralPub == b.EphemeralPub {
		t.Fatalf("ephemeral key reused across messages")
	}
	if bytes.Equal(a.Ciphertext, b.Ciphertext) {
		t.Fatalf("identical plaintexts produced identical ciphertext")
	}
}

func TestDecryptRejectsTampering(t *testing.T) {
	solverPub, solverPriv, err := box.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	env, err := Encrypt(Intent{Size: 1, Deadline: 1}, solverPub)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	env.Ciphertext[0] ^= 0x01
	if _, err := Decrypt(env, solverPriv); !errors.Is(err, ErrDecryptionFailed) {
		t.Fatalf("expected ErrDecryptionFailed, got %v", err)
	}

	_, wrongPriv, err := box.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	env.Ciphertext[0] ^= 0x01
	if _, err := Decrypt(env, wrongPriv); !errors.Is(err, ErrDecryptionFailed) {
		t.Fatalf("expected ErrDecryptionFailed for wrong key, got %v", err)
	}
}

func TestEnvelopeTransportRoundTrip(t *testing.T) {
	solverPub, solverPriv, err := box.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	want := Intent{Size: 42, MaxSlippageBps: 5, Deadline: 99}
	env, err := Encrypt(want, solverPub)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	decoded, err := UnmarshalEnvelope(env.Marshal())
	if err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	got, err := Decrypt(decoded, solverPriv)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if got != want {
		t.Fatalf("transport roundtrip mismatch: %+v vs %+v", got, want)
	}

	if _, err := UnmarshalEnvelope(make([]byte, 10)); !errors.Is(err, ErrEnvelopeTruncated) {
		t.Fatalf("expected ErrEnvelopeTruncated, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	base := Intent{Size: 100, MaxSlippageBps: 25, Deadline: 1_000}
	cases := []struct {
		name    string
		mutate  func(*Intent)
		now     int64
		maxSlip uint32
		wantErr error
	}{
		{"ok", func(*Intent) {}, 999, 50, nil},
		{"at deadline", func(*Intent) {}, 1_000, 50, nil},
		{"expired", func(*Intent) {}, 1_001, 50, ErrIntentExpired},
		{"too loose", func(*Intent) {}, 999, 24, ErrSlippageTooLoose},
		{"at limit", func(*Intent) {}, 999, 25, nil},
		{"zero size", func(it *Intent) { it.Size = 0 }, 999, 50, ErrZeroSize},
	}
	for _, tc := range cases {
		it := base
		tc.mutate(&it)
		err := it.Validate(tc.now, tc.maxSlip)
		if tc.wantErr == nil && err != nil {
			t.Fatalf("%s: unexpected error %v", tc.name, err)
		}
		if tc.wantErr != nil && !errors.Is(err, tc.wantErr) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.wantErr, err)
		}
	}
}
