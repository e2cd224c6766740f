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

package keystore

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/sha256"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/sage-x-project/sage-hub/internal/metrics"
)

// keyName is the fixed persistence key for a process's single long-lived
// identity key pair (a process holds exactly one).
const keyName = "identity"

// Store holds the process's signing key pair, generating and persisting it
// on first use. It is the component named "Key Store" in the coordination
// fabric: sign/verify primitives over one long-lived key.
type Store struct {
	mu          sync.RWMutex
	persistence Persistence
	algorithm   Algorithm
	current     KeyPair
}

// NewStore wires a Store to its persistence backend and default algorithm.
// If a key already exists in the backend it is loaded eagerly; otherwise a
// new one is generated and persisted on the first call needing it.
func NewStore(persistence Persistence, algorithm Algorithm) (*Store, error) {
	s := &Store{persistence: persistence, algorithm: algorithm}
	if persistence.Exists(keyName) {
		kp, err := persistence.Load(keyName, algorithm)
		if err != nil {
			return nil, fmt.Errorf("load signing key: %w", err)
		}
		s.current = kp
	}
	return s, nil
}

// Ensure returns the current key pair, generating and persisting a new one
// on first use if none exists yet. Failure here is the one fatal startup
// condition in the error taxonomy (key-store unavailability).
func (s *Store) Ensure() (KeyPair, error) {
	s.mu.RLock()
	if s.current != nil {
		kp := s.current
		s.mu.RUnlock()
		return kp, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil {
		return s.current, nil
	}

	kp, err := generate(s.algorithm)
	if err != nil {
		return nil, fmt.Errorf("generate signing key: %w", err)
	}
	if err := s.persistence.Save(keyName, kp); err != nil {
		return nil, fmt.Errorf("persist signing key: %w", err)
	}
	s.current = kp
	return kp, nil
}

func generate(alg Algorithm) (KeyPair, error) {
	switch alg {
	case AlgorithmSecp256k1:
		return GenerateSecp256k1KeyPair()
	case AlgorithmEd25519, "":
		return GenerateEd25519KeyPair()
	default:
		return nil, ErrInvalidAlgorithm
	}
}

// PublicKeyPEM returns the current key's public key in PEM.
func (s *Store) PublicKeyPEM() ([]byte, error) {
	kp, err := s.Ensure()
	if err != nil {
		return nil, err
	}
	return PublicKeyPEM(kp)
}

// Fingerprint returns the current key's stable fingerprint.
func (s *Store) Fingerprint() (string, error) {
	kp, err := s.Ensure()
	if err != nil {
		return "", err
	}
	return FingerprintKeyPair(kp)
}

// Sign signs arbitrary bytes with the current key.
func (s *Store) Sign(message []byte) ([]byte, error) {
	kp, err := s.Ensure()
	if err != nil {
		return nil, err
	}
	start := time.Now()
	sig, err := kp.Sign(message)
	metrics.ObserveCrypto("sign", string(kp.Algorithm()), time.Since(start), err)
	return sig, err
}

// Verify checks a signature over message against a sender's advertised
// PEM-encoded public key. A verification failure is non-fatal: it is
// returned as a plain boolean, never an error about the store's own state.
func Verify(message, signature, senderPEM []byte) (bool, error) {
	alg, pub, err := ParsePublicKeyPEM(senderPEM)
	if err != nil {
		metrics.ObserveCrypto("verify", "unknown", 0, err)
		return false, fmt.Errorf("parse sender public key: %w", err)
	}

	start := time.Now()
	ok, err := verifyParsed(alg, pub, message, signature)
	metrics.ObserveCrypto("verify", string(alg), time.Since(start), err)
	return ok, err
}

func verifyParsed(alg Algorithm, pub interface{}, message, signature []byte) (bool, error) {
	switch alg {
	case AlgorithmEd25519:
		key, ok := pub.(ed25519.PublicKey)
		if !ok {
			return false, ErrInvalidAlgorithm
		}
		return ed25519.Verify(key, message, signature), nil
	case AlgorithmSecp256k1:
		return verifySecp256k1Bytes(pub, message, signature)
	default:
		return false, ErrInvalidAlgorithm
	}
}

func verifySecp256k1Bytes(pub interface{}, message, signature []byte) (bool, error) {
	key, ok := pub.(*secp256k1.PublicKey)
	if !ok {
		return false, ErrInvalidAlgorithm
	}
	if len(signature) != 64 {
		return false, nil
	}
	hash := sha256.Sum256(message)
	r := new(big.Int).SetBytes(signature[:32])
	s := new(big.Int).SetBytes(signature[32:])
	return ecdsa.Verify(key.ToECDSA(), hash[:], r, s), nil
}
