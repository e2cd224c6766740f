// Copyright (C) 2025 sage-x-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

package envelope

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/sage-x-project/sage-hub/keystore"
)

// Builder signs (and optionally encrypts) outbound envelopes with one
// process's long-lived key.
type Builder struct {
	store *keystore.Store
}

// NewBuilder wires a Builder to the signing key store.
func NewBuilder(store *keystore.Store) *Builder {
	return &Builder{store: store}
}

// Build assembles a signed envelope. When opts.RecipientPublicKey is set,
// the payload is sealed under a fresh AES-256-GCM content key, wrapped to
// the recipient via an ephemeral X25519 exchange, and only the ciphertext
// travels on the wire; the signature still covers the plaintext payload.
func (b *Builder) Build(opts BuildOptions) (*Envelope, error) {
	if opts.SenderID == "" || opts.RecipientID == "" || opts.Kind == "" {
		return nil, ErrMissingFields
	}

	nonce, err := randomNonce()
	if err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	env := &Envelope{
		SenderID:    opts.SenderID,
		RecipientID: opts.RecipientID,
		Kind:        opts.Kind,
		Timestamp:   time.Now().UTC(),
		Nonce:       nonce,
	}

	if len(opts.RecipientPublicKey) > 0 {
		plaintext, err := json.Marshal(opts.Payload)
		if err != nil {
			return nil, fmt.Errorf("marshal payload: %w", err)
		}
		blob, err := sealPayload(opts.RecipientPublicKey, plaintext)
		if err != nil {
			return nil, fmt.Errorf("seal payload: %w", err)
		}
		env.Encrypted = true
		env.Ciphertext = blob
	} else {
		env.Payload = opts.Payload
	}

	pubPEM, err := b.store.PublicKeyPEM()
	if err != nil {
		return nil, fmt.Errorf("load sender public key: %w", err)
	}
	fingerprint, err := b.store.Fingerprint()
	if err != nil {
		return nil, fmt.Errorf("compute sender fingerprint: %w", err)
	}

	canon, err := canonicalize(env, opts.Payload)
	if err != nil {
		return nil, fmt.Errorf("canonicalize envelope: %w", err)
	}
	sig, err := b.store.Sign(canon)
	if err != nil {
		return nil, fmt.Errorf("sign envelope: %w", err)
	}

	env.SenderPublicKey = string(pubPEM)
	env.SenderKeyFingerprint = fingerprint
	env.Signature = hex.EncodeToString(sig)
	return env, nil
}

// VerifyOptions configures Verify.
type VerifyOptions struct {
	// FreshnessWindow overrides DefaultFreshnessWindow when non-zero.
	FreshnessWindow time.Duration
	// RecipientPrivateKey decrypts an encrypted envelope's payload; it is
	// the recipient's X25519 scalar, distinct from the signing key.
	RecipientPrivateKey []byte
	// Replay is consulted (and updated) after signature and timestamp
	// checks pass. Nil disables replay checking.
	Replay *ReplayCache
}

// Verify checks an inbound envelope in a fixed order: decrypt (if
// encrypted), re-canonicalize, verify signature, check timestamp freshness,
// then check nonce replay. Returns the decoded payload on success.
func Verify(env *Envelope, opts VerifyOptions) (json.RawMessage, error) {
	if env.Signature == "" || env.SenderPublicKey == "" {
		return nil, fmt.Errorf("%w: signature or sender public key missing", ErrSignatureInvalid)
	}
	if env.Nonce == "" {
		return nil, fmt.Errorf("%w: nonce missing", ErrReplay)
	}

	var payload json.RawMessage

	if env.Encrypted {
		if env.Ciphertext == nil {
			return nil, fmt.Errorf("%w: encrypted envelope missing ciphertext", ErrDecryptFailed)
		}
		if len(opts.RecipientPrivateKey) == 0 {
			return nil, fmt.Errorf("%w: no recipient private key supplied", ErrDecryptFailed)
		}
		plaintext, err := openPayload(env.Ciphertext, opts.RecipientPrivateKey)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecryptFailed, err)
		}
		payload = plaintext
	} else if env.Payload != nil {
		raw, err := json.Marshal(env.Payload)
		if err != nil {
			return nil, fmt.Errorf("marshal payload: %w", err)
		}
		payload = raw
	}

	canon, err := canonicalize(env, payload)
	if err != nil {
		return nil, fmt.Errorf("canonicalize envelope: %w", err)
	}
	sig, err := hexDecode(env.Signature)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed signature encoding", ErrSignatureInvalid)
	}
	ok, err := keystore.Verify(canon, sig, []byte(env.SenderPublicKey))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSignatureInvalid, err)
	}
	if !ok {
		return nil, ErrSignatureInvalid
	}

	window := opts.FreshnessWindow
	if window <= 0 {
		window = DefaultFreshnessWindow
	}
	if age := time.Since(env.Timestamp); age > window || age < -window {
		return nil, ErrStale
	}

	if opts.Replay != nil {
		if opts.Replay.SeenAndRecord(env.SenderKeyFingerprint, env.Nonce) {
			return nil, ErrReplay
		}
	}

	return payload, nil
}

func randomNonce() (string, error) {
	buf := make([]byte, 16)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func hexDecode(s string) ([]byte, error) {
	return hex.DecodeString(s)
}
