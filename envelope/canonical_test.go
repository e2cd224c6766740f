package envelope

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalizeIsFieldOrderIndependent(t *testing.T) {
	ts := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	a := &Envelope{SenderID: "s", RecipientID: "r", Kind: "k", Timestamp: ts, Nonce: "n", Payload: map[string]string{"b": "2", "a": "1"}}
	b := &Envelope{SenderID: "s", RecipientID: "r", Kind: "k", Timestamp: ts, Nonce: "n", Payload: map[string]string{"a": "1", "b": "2"}}

	ca, err := canonicalize(a, a.Payload)
	require.NoError(t, err)
	cb, err := canonicalize(b, b.Payload)
	require.NoError(t, err)
	assert.Equal(t, ca, cb)
}

func TestCanonicalizeDiffersOnPayloadChange(t *testing.T) {
	ts := time.Now().UTC()
	a := &Envelope{SenderID: "s", RecipientID: "r", Kind: "k", Timestamp: ts, Nonce: "n", Payload: "one"}
	b := &Envelope{SenderID: "s", RecipientID: "r", Kind: "k", Timestamp: ts, Nonce: "n", Payload: "two"}

	ca, err := canonicalize(a, a.Payload)
	require.NoError(t, err)
	cb, err := canonicalize(b, b.Payload)
	require.NoError(t, err)
	assert.NotEqual(t, ca, cb)
}
