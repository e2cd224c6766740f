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
	"crypto/x509"
	"encoding/pem"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// EncodePrivatePEM encodes a key pair's private key as a PEM block tagged
// with its algorithm, so DecodePrivatePEM can reconstruct the right type.
// Ed25519 uses PKCS#8 DER; secp256k1 is stored as its raw 32-byte scalar
// since the curve is not in the x509 curve registry.
func EncodePrivatePEM(kp KeyPair) ([]byte, error) {
	switch kp.Algorithm() {
	case AlgorithmEd25519:
		der, err := x509.MarshalPKCS8PrivateKey(kp.PrivateKey())
		if err != nil {
			return nil, err
		}
		return pem.EncodeToMemory(&pem.Block{
			Type:    "PRIVATE KEY",
			Headers: map[string]string{"algorithm": string(AlgorithmEd25519)},
			Bytes:   der,
		}), nil
	case AlgorithmSecp256k1:
		ecdsaKey, ok := kp.PrivateKey().(*ecdsa.PrivateKey)
		if !ok {
			return nil, ErrInvalidAlgorithm
		}
		priv := secp256k1.PrivKeyFromBytes(ecdsaKey.D.Bytes())
		return pem.EncodeToMemory(&pem.Block{
			Type:    "SECP256K1 PRIVATE KEY",
			Headers: map[string]string{"algorithm": string(AlgorithmSecp256k1)},
			Bytes:   priv.Serialize(),
		}), nil
	default:
		return nil, ErrInvalidAlgorithm
	}
}

// DecodePrivatePEM reconstructs a KeyPair from the PEM produced by
// EncodePrivatePEM.
func DecodePrivatePEM(data []byte) (KeyPair, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("invalid PEM block")
	}

	switch Algorithm(block.Headers["algorithm"]) {
	case AlgorithmEd25519:
		key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, err
		}
		priv, ok := key.(ed25519.PrivateKey)
		if !ok {
			return nil, ErrInvalidAlgorithm
		}
		return NewEd25519KeyPair(priv), nil
	case AlgorithmSecp256k1:
		priv := secp256k1.PrivKeyFromBytes(block.Bytes)
		return NewSecp256k1KeyPair(priv), nil
	default:
		return nil, ErrInvalidAlgorithm
	}
}

// PublicKeyPEM returns the PEM encoding of a key pair's public key, the
// form advertised over the wire for registration and envelope verification.
// Ed25519 uses standard PKIX DER; secp256k1 is not an x509-registered curve,
// so its public key is the raw 33-byte compressed point instead.
func PublicKeyPEM(kp KeyPair) ([]byte, error) {
	switch kp.Algorithm() {
	case AlgorithmEd25519:
		der, err := x509.MarshalPKIXPublicKey(kp.PublicKey())
		if err != nil {
			return nil, err
		}
		return pem.EncodeToMemory(&pem.Block{
			Type:    "PUBLIC KEY",
			Headers: map[string]string{"algorithm": string(AlgorithmEd25519)},
			Bytes:   der,
		}), nil
	case AlgorithmSecp256k1:
		raw, err := CanonicalPublicKeyBytes(AlgorithmSecp256k1, kp.PublicKey())
		if err != nil {
			return nil, err
		}
		return pem.EncodeToMemory(&pem.Block{
			Type:    "SECP256K1 PUBLIC KEY",
			Headers: map[string]string{"algorithm": string(AlgorithmSecp256k1)},
			Bytes:   raw,
		}), nil
	default:
		return nil, ErrInvalidAlgorithm
	}
}

// ParsePublicKeyPEM parses a PEM-encoded public key and returns the raw key
// value together with the algorithm advertised in its header.
func ParsePublicKeyPEM(data []byte) (Algorithm, interface{}, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return "", nil, fmt.Errorf("invalid PEM block")
	}

	switch Algorithm(block.Headers["algorithm"]) {
	case AlgorithmSecp256k1:
		pub, err := secp256k1.ParsePubKey(block.Bytes)
		if err != nil {
			return "", nil, err
		}
		return AlgorithmSecp256k1, pub, nil
	default:
		pub, err := x509.ParsePKIXPublicKey(block.Bytes)
		if err != nil {
			return "", nil, err
		}
		alg := Algorithm(block.Headers["algorithm"])
		if alg == "" {
			if _, ok := pub.(ed25519.PublicKey); ok {
				alg = AlgorithmEd25519
			}
		}
		return alg, pub, nil
	}
}
