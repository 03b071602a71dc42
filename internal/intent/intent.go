// Package intent implements the encrypted order-intent envelope exchanged
// between counterparties and the authorized solver. Intents are sealed to the
// solver's X25519 key with nacl box authenticated encryption, using a fresh
// ephemeral sender key per message so two identical intents never produce
// identical ciphertext.
package intent

import (
	"bytes"
	"crypto/rand"
	"errors"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"golang.org/x/crypto/nacl/box"
)

var (
	ErrIntentExpired     = errors.New("intent deadline passed")
	ErrSlippageTooLoose  = errors.New("slippage tolerance above solver limit")
	ErrZeroSize          = errors.New("intent size is zero")
	ErrDecryptionFailed  = errors.New("intent decryption failed")
	ErrEnvelopeTruncated = errors.New("envelope shorter than header")
)

// Intent is a counterparty's order: signed size (negative = sell), the widest
// slippage the counterparty accepts, and a unix deadline after which the
// solver must discard it.
type Intent struct {
	Size           int64
	MaxSlippageBps uint32
	Deadline       int64
}

// Marshal renders the little-endian wire form.
func (it Intent) Marshal() ([]byte, error) {
	buf := new(bytes.Buffer)
	enc := bin.NewBinEncoder(buf)
	if err := enc.WriteInt64(it.Size, bin.LE); err != nil {
		return nil, err
	}
	if err := enc.WriteUint32(it.MaxSlippageBps, bin.LE); err != nil {
		return nil, err
	}
	if err := enc.WriteInt64(it.Deadline, bin.LE); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalIntent decodes the wire form produced by Marshal.
func UnmarshalIntent(data []byte) (Intent, error) {
	var it Intent
	dec := bin.NewBinDecoder(data)
	var err error
	if it.Size, err = dec.ReadInt64(bin.LE); err != nil {
		return it, err
	}
	if it.MaxSlippageBps, err = dec.ReadUint32(bin.LE); err != nil {
		return it, err
	}
	if it.Deadline, err = dec.ReadInt64(bin.LE); err != nil {
		return it, err
	}
	return it, nil
}

// Validate applies the solver's acceptance policy.
func (it Intent) Validate(now int64, maxSlippageBps uint32) error {
	if it.Size == 0 {
		return ErrZeroSize
	}
	if now > it.Deadline {
		return fmt.Errorf("%w: deadline %d, now %d", ErrIntentExpired, it.Deadline, now)
	}
	if it.MaxSlippageBps > maxSlippageBps {
		return fmt.Errorf("%w: %d > %d", ErrSlippageTooLoose, it.MaxSlippageBps, maxSlippageBps)
	}
	return nil
}

// Envelope is the sealed transport form: the sender's one-shot public key,
// the box nonce, and the ciphertext.
type Envelope struct {
	EphemeralPub [32]byte
	Nonce        [24]byte
	Ciphertext   []byte
}

const envelopeHeaderSize = 32 + 24

// Marshal renders the envelope for transport.
func (e Envelope) Marshal() []byte {
	out := make([]byte, 0, envelopeHeaderSize+len(e.Ciphertext))
	out = append(out, e.EphemeralPub[:]...)
	out = append(out, e.Nonce[:]...)
	return append(out, e.Ciphertext...)
}

// UnmarshalEnvelope decodes the transport form.
func UnmarshalEnvelope(data []byte) (Envelope, error) {
	var e Envelope
	if len(data) < envelopeHeaderSize+box.Overhead {
		return e, ErrEnvelopeTruncated
	}
	copy(e.EphemeralPub[:], data[:32])
	copy(e.Nonce[:], data[32:envelopeHeaderSize])
	e.Ciphertext = append([]byte(nil), data[envelopeHeaderSize:]...)
	return e, nil
}

// Encrypt seals an intent to the recipient's public key with a fresh
// ephemeral sender key and random nonce.
func Encrypt(it Intent, recipientPub *[32]byte) (Envelope, error) {
	var e Envelope
	plaintext, err := it.Marshal()
	if err != nil {
		return e, err
	}
	ephemeralPub, ephemeralPriv, err := box.GenerateKey(rand.Reader)
	if err != nil {
		return e, err
	}
	if _, err := rand.Read(e.Nonce[:]); err != nil {
		return e, err
	}
	e.EphemeralPub = *ephemeralPub
	e.Ciphertext = box.Seal(nil, plaintext, &e.Nonce, recipientPub, ephemeralPriv)
	return e, nil
}

// Decrypt opens an envelope with the recipient's private key and decodes the
// intent inside.
func Decrypt(e Envelope, recipientPriv *[32]byte) (Intent, error) {
	plaintext, ok := box.Open(nil, e.Ciphertext, &e.Nonce, &e.EphemeralPub, recipientPriv)
	if !ok {
		return Intent{}, ErrDecryptionFailed
	}
	return UnmarshalIntent(plaintext)
}
