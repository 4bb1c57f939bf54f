// MDS Poller - Mobility Data Specification Provider Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mdspoller

package tokencache

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"github.com/fernet/fernet-go"
	"golang.org/x/crypto/hkdf"
)

const keyDerivationInfo = "mdspoller-token-cache"

// ErrEncryptionKeyMissing indicates no encryption key was configured.
var ErrEncryptionKeyMissing = errors.New("token encryption key not configured")

// Cipher seals cached tokens with Fernet (AES-128-CBC + HMAC-SHA256).
type Cipher struct {
	keys []*fernet.Key
}

// NewCipher builds a cipher from a Fernet key (32 bytes, URL-safe or standard
// base64, or hex). Any other non-empty string is treated as a passphrase and
// stretched into a Fernet key with HKDF-SHA256.
func NewCipher(key string) (*Cipher, error) {
	if key == "" {
		return nil, ErrEncryptionKeyMissing
	}
	k, err := fernet.DecodeKey(key)
	if err != nil {
		k, err = deriveKey([]byte(key))
		if err != nil {
			return nil, fmt.Errorf("derive token encryption key: %w", err)
		}
	}
	return &Cipher{keys: []*fernet.Key{k}}, nil
}

// GenerateKey returns a new random Fernet key in its URL-safe encoding.
func GenerateKey() (string, error) {
	var k fernet.Key
	if err := k.Generate(); err != nil {
		return "", fmt.Errorf("generate token encryption key: %w", err)
	}
	return k.Encode(), nil
}

func deriveKey(secret []byte) (*fernet.Key, error) {
	reader := hkdf.New(sha256.New, secret, nil, []byte(keyDerivationInfo))
	k := new(fernet.Key)
	if _, err := io.ReadFull(reader, k[:]); err != nil {
		return nil, err
	}
	return k, nil
}

// Encrypt seals plaintext into a Fernet token.
func (c *Cipher) Encrypt(plaintext []byte) ([]byte, error) {
	tok, err := fernet.EncryptAndSign(plaintext, c.keys[0])
	if err != nil {
		return nil, fmt.Errorf("encrypt token: %w", err)
	}
	return tok, nil
}

// Decrypt opens a Fernet token. ok is false when the token was not produced
// by this key or has been tampered with.
func (c *Cipher) Decrypt(token []byte) (plaintext []byte, ok bool) {
	msg := fernet.VerifyAndDecrypt(token, 0, c.keys)
	return msg, msg != nil
}
