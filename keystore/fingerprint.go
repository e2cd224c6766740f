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

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/mr-tron/base58"
)

// CanonicalPublicKeyBytes returns the wire representation of a public key
// used both for signature verification and fingerprinting.
func CanonicalPublicKeyBytes(alg Algorithm, pub interface{}) ([]byte, error) {
	switch alg {
	case AlgorithmEd25519:
		key, ok := pub.(ed25519.PublicKey)
		if !ok {
			return nil, ErrInvalidAlgorithm
		}
		return []byte(key), nil
	case AlgorithmSecp256k1:
		switch key := pub.(type) {
		case *secp256k1.PublicKey:
			return key.SerializeCompressed(), nil
		case *ecdsa.PublicKey:
			parsed, err := secp256k1.ParsePubKey(elliptic(key))
			if err != nil {
				return nil, err
			}
			return parsed.SerializeCompressed(), nil
		}
		return nil, ErrInvalidAlgorithm
	default:
		return nil, ErrInvalidAlgorithm
	}
}

// elliptic re-marshals an *ecdsa.PublicKey to uncompressed SEC1 bytes so it
// can be reparsed by the secp256k1 package (used only on the load path,
// where PEM decoding yields a generic *ecdsa.PublicKey).
func elliptic(key *ecdsa.PublicKey) []byte {
	byteLen := (key.Curve.Params().BitSize + 7) / 8
	buf := make([]byte, 1+2*byteLen)
	buf[0] = 4
	key.X.FillBytes(buf[1 : 1+byteLen])
	key.Y.FillBytes(buf[1+byteLen:])
	return buf
}

// Fingerprint returns a stable, short identifier for a public key: the
// first 16 bytes of SHA-256 over its canonical bytes, base58-encoded.
func Fingerprint(alg Algorithm, pub interface{}) (string, error) {
	raw, err := CanonicalPublicKeyBytes(alg, pub)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	return base58.Encode(sum[:16]), nil
}

// FingerprintKeyPair is a convenience wrapper over Fingerprint.
func FingerprintKeyPair(kp KeyPair) (string, error) {
	return Fingerprint(kp.Algorithm(), kp.PublicKey())
}

// Address returns a cosmetic chain-style address for secp256k1 agents:
// base58 of the full SHA-256 digest of the compressed public key. It is
// never resolved on-chain; attestation provenance stays allow-list based.
func Address(kp KeyPair) (string, error) {
	if kp.Algorithm() != AlgorithmSecp256k1 {
		return "", fmt.Errorf("address derivation only defined for secp256k1: %w", ErrInvalidAlgorithm)
	}
	raw, err := CanonicalPublicKeyBytes(kp.Algorithm(), kp.PublicKey())
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	return base58.Encode(sum[:]), nil
}
