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
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// coreFields is the logical content that is signed: every field except the
// wire-only signature, sender public key, and ciphertext wrapper. When a
// recipient public key is supplied only the payload is encrypted; the other
// core fields travel in clear, and the signature covers them together with
// the plaintext payload, which the receiver recovers before verifying.
type coreFields struct {
	SenderID    string      `json:"sender_id"`
	RecipientID string      `json:"recipient_id"`
	Kind        string      `json:"kind"`
	Timestamp   time.Time   `json:"timestamp"`
	Nonce       string      `json:"nonce"`
	Payload     interface{} `json:"payload"`
}

// canonicalize produces the deterministic byte serialization that gets
// signed for an envelope, given the logical payload that was (or, on
// verify, will be) exchanged — the caller's original value on Build, the
// decrypted plaintext on Verify of an encrypted envelope.
func canonicalize(env *Envelope, payload interface{}) ([]byte, error) {
	return canonicalizeCore(coreFields{
		SenderID:    env.SenderID,
		RecipientID: env.RecipientID,
		Kind:        env.Kind,
		Timestamp:   env.Timestamp,
		Nonce:       env.Nonce,
		Payload:     payload,
	})
}

// canonicalizeCore produces a deterministic byte serialization of an
// envelope's signed content: object keys are sorted recursively, so the
// same logical content always yields the same bytes regardless of struct
// field order or map iteration order.
func canonicalizeCore(c coreFields) ([]byte, error) {
	raw, err := json.Marshal(map[string]interface{}{
		"sender_id":    c.SenderID,
		"recipient_id": c.RecipientID,
		"kind":         c.Kind,
		"timestamp":    c.Timestamp.UTC().Format("2006-01-02T15:04:05Z"),
		"nonce":        c.Nonce,
		"payload":      c.Payload,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal envelope fields: %w", err)
	}

	return canonicalizeJSON(raw)
}

// canonicalizeJSON re-parses raw JSON and re-emits it with recursively
// sorted object keys, so two JSON encodings of the same logical value
// always collapse to the same bytes.
func canonicalizeJSON(raw []byte) ([]byte, error) {
	var generic interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("re-parse json: %w", err)
	}

	var buf bytes.Buffer
	if err := writeCanonical(&buf, generic); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeCanonical walks a decoded JSON value, emitting objects with
// lexicographically sorted keys and no extraneous whitespace.
func writeCanonical(buf *bytes.Buffer, v interface{}) error {
	switch val := v.(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, err := json.Marshal(k)
			if err != nil {
				return err
			}
			buf.Write(kb)
			buf.WriteByte(':')
			if err := writeCanonical(buf, val[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case []interface{}:
		buf.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonical(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return err
		}
		buf.Write(b)
	}
	return nil
}
