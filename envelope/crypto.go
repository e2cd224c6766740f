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
	"crypto/aes"
	"crypto/cipher"
	"crypto/ecdh"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"time"

	"golang.org/x/crypto/hkdf"

	"github.com/sage-x-project/sage-hub/internal/metrics"
)

const hkdfInfo = "sagehub-envelope-key-wrap"

// sealPayload encrypts plaintext under a freshly generated AES-256-GCM key,
// then wraps that key to recipientPub via an ephemeral X25519 exchange, so
// only the holder of the matching private key can recover it.
func sealPayload(recipientPub []byte, plaintext []byte) (blob *CiphertextBlob, err error) {
	start := time.Now()
	defer func() { metrics.ObserveCrypto("encrypt", "aes256gcm", time.Since(start), err) }()

	aesKey := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, aesKey); err != nil {
		return nil, fmt.Errorf("generate content key: %w", err)
	}

	block, err := aes.NewCipher(aesKey)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	iv := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return nil, err
	}
	sealed := aead.Seal(nil, iv, plaintext, nil)
	ciphertext, tag := sealed[:len(sealed)-aead.Overhead()], sealed[len(sealed)-aead.Overhead():]

	wrappedKey, ephPub, err := wrapKey(recipientPub, aesKey)
	if err != nil {
		return nil, fmt.Errorf("wrap content key: %w", err)
	}

	return &CiphertextBlob{
		Key:             base64.StdEncoding.EncodeToString(wrappedKey),
		IV:              base64.StdEncoding.EncodeToString(iv),
		Ciphertext:      base64.StdEncoding.EncodeToString(ciphertext),
		Tag:             base64.StdEncoding.EncodeToString(tag),
		EphemeralPublic: base64.StdEncoding.EncodeToString(ephPub),
	}, nil
}

// openPayload reverses sealPayload, recovering the content key with recipPriv
// (a 32-byte X25519 scalar) before opening the AEAD payload.
func openPayload(blob *CiphertextBlob, recipPriv []byte) (plaintext []byte, err error) {
	start := time.Now()
	defer func() { metrics.ObserveCrypto("decrypt", "aes256gcm", time.Since(start), err) }()

	wrappedKey, err := base64.StdEncoding.DecodeString(blob.Key)
	if err != nil {
		return nil, fmt.Errorf("decode wrapped key: %w", err)
	}
	ephPub, err := base64.StdEncoding.DecodeString(blob.EphemeralPublic)
	if err != nil {
		return nil, fmt.Errorf("decode ephemeral public key: %w", err)
	}
	iv, err := base64.StdEncoding.DecodeString(blob.IV)
	if err != nil {
		return nil, fmt.Errorf("decode iv: %w", err)
	}
	ciphertext, err := base64.StdEncoding.DecodeString(blob.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("decode ciphertext: %w", err)
	}
	tag, err := base64.StdEncoding.DecodeString(blob.Tag)
	if err != nil {
		return nil, fmt.Errorf("decode tag: %w", err)
	}

	aesKey, err := unwrapKey(recipPriv, ephPub, wrappedKey)
	if err != nil {
		return nil, fmt.Errorf("unwrap content key: %w", err)
	}

	block, err := aes.NewCipher(aesKey)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	plaintext, err = aead.Open(nil, iv, append(ciphertext, tag...), nil)
	if err != nil {
		return nil, fmt.Errorf("open sealed payload: %w", err)
	}
	return plaintext, nil
}

// wrapKey derives a one-time wrapping key from a fresh ephemeral X25519 key
// agreement with recipientPub and seals aesKey under it.
func wrapKey(recipientPub []byte, aesKey []byte) (wrapped, ephPub []byte, err error) {
	eph, err := ecdh.X25519().GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, err
	}
	peer, err := ecdh.X25519().NewPublicKey(recipientPub)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid recipient key: %w", err)
	}
	shared, err := eph.ECDH(peer)
	if err != nil {
		return nil, nil, err
	}
	wrapKeyBytes, err := deriveWrapKey(shared)
	if err != nil {
		return nil, nil, err
	}

	block, err := aes.NewCipher(wrapKeyBytes)
	if err != nil {
		return nil, nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, nil, err
	}
	nonce := make([]byte, aead.NonceSize())
	wrapped = aead.Seal(nonce[:0:aead.NonceSize()], nonce, aesKey, nil)
	return wrapped, eph.PublicKey().Bytes(), nil
}

func unwrapKey(recipPriv []byte, ephPub []byte, wrapped []byte) ([]byte, error) {
	priv, err := ecdh.X25519().NewPrivateKey(recipPriv)
	if err != nil {
		return nil, fmt.Errorf("invalid recipient private key: %w", err)
	}
	peer, err := ecdh.X25519().NewPublicKey(ephPub)
	if err != nil {
		return nil, fmt.Errorf("invalid ephemeral public key: %w", err)
	}
	shared, err := priv.ECDH(peer)
	if err != nil {
		return nil, err
	}
	wrapKeyBytes, err := deriveWrapKey(shared)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(wrapKeyBytes)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aead.NonceSize())
	return aead.Open(nil, nonce, wrapped, nil)
}

// deriveWrapKey derives a 32-byte AES key from a raw ECDH shared secret via
// HKDF-SHA256, using a fixed context string as HKDF info.
func deriveWrapKey(shared []byte) ([]byte, error) {
	h := hkdf.New(sha256.New, shared, nil, []byte(hkdfInfo))
	key := make([]byte, 32)
	if _, err := io.ReadFull(h, key); err != nil {
		return nil, fmt.Errorf("hkdf: %w", err)
	}
	return key, nil
}
