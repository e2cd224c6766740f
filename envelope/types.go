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

// Package envelope builds and verifies the signed, optionally encrypted
// messages agents exchange with the hub and with each other.
package envelope

import (
	"errors"
	"time"
)

// DefaultFreshnessWindow bounds how far a timestamp may drift from now
// before an envelope is rejected as stale.
const DefaultFreshnessWindow = 300 * time.Second

// Envelope is the signed unit of exchange between two parties. Body carries
// either a plaintext Payload or an encrypted Ciphertext, never both.
type Envelope struct {
	SenderID       string          `json:"sender_id"`
	RecipientID    string          `json:"recipient_id"`
	Kind           string          `json:"kind"`
	Timestamp      time.Time       `json:"timestamp"`
	Nonce          string          `json:"nonce"`
	Payload        interface{}     `json:"payload,omitempty"`
	Encrypted      bool            `json:"encrypted"`
	Ciphertext     *CiphertextBlob `json:"ciphertext,omitempty"`
	Signature      string          `json:"signature,omitempty"`
	SenderPublicKey string         `json:"sender_public_key,omitempty"`
	SenderKeyFingerprint string    `json:"sender_key_fingerprint,omitempty"`
}

// CiphertextBlob is the wire form of an AES-256-GCM sealed payload, with
// its content key wrapped to the recipient's public key via X25519+HKDF.
type CiphertextBlob struct {
	Key            string `json:"key,omitempty"`
	IV             string `json:"iv"`
	Ciphertext     string `json:"ciphertext"`
	Tag            string `json:"tag"`
	EphemeralPublic string `json:"ephemeral_public,omitempty"`
}

// BuildOptions configures Build.
type BuildOptions struct {
	SenderID    string
	RecipientID string
	Kind        string
	Payload     interface{}
	// RecipientPublicKey, when set, requests encryption of Payload via
	// X25519 ECDH key agreement with the recipient.
	RecipientPublicKey []byte
}

// Errors surfaced by Build/Verify, matching the hub's error-kind taxonomy.
var (
	ErrSignatureInvalid = errors.New("envelope signature invalid")
	ErrStale            = errors.New("envelope stale")
	ErrReplay           = errors.New("envelope replay detected")
	ErrDecryptFailed    = errors.New("envelope decrypt failed")
	ErrMissingFields    = errors.New("envelope missing required fields")
)
