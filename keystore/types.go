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

// Package keystore holds the process's long-lived asymmetric signing key
// pair and exposes sign/verify primitives over it.
package keystore

import (
	"crypto"
	"errors"
)

// Algorithm names a supported signing key type.
type Algorithm string

const (
	AlgorithmEd25519   Algorithm = "ed25519"
	AlgorithmSecp256k1 Algorithm = "secp256k1"
)

// KeyPair is a generated or loaded asymmetric signing key.
type KeyPair interface {
	PublicKey() crypto.PublicKey
	PrivateKey() crypto.PrivateKey
	Algorithm() Algorithm
	Sign(message []byte) ([]byte, error)
	Verify(message, signature []byte) error
	ID() string
}

// Persistence stores and retrieves a single named key pair in PEM form.
type Persistence interface {
	Save(name string, keyPair KeyPair) error
	Load(name string, alg Algorithm) (KeyPair, error)
	Exists(name string) bool
}

// Common errors.
var (
	ErrKeyNotFound       = errors.New("key not found")
	ErrInvalidAlgorithm  = errors.New("invalid key algorithm")
	ErrInvalidSignature  = errors.New("invalid signature")
	ErrKeyUnavailable    = errors.New("signing key unavailable")
)
