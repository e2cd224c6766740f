package keystore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreEnsureGeneratesAndPersists(t *testing.T) {
	persistence := NewMemoryPersistence()
	store, err := NewStore(persistence, AlgorithmEd25519)
	require.NoError(t, err)

	kp1, err := store.Ensure()
	require.NoError(t, err)
	require.NotNil(t, kp1)

	kp2, err := store.Ensure()
	require.NoError(t, err)
	assert.Equal(t, kp1.ID(), kp2.ID(), "Ensure must return the same key on repeated calls")

	assert.True(t, persistence.Exists("identity"))
}

func TestStoreSignAndVerifyRoundTrip(t *testing.T) {
	store, err := NewStore(NewMemoryPersistence(), AlgorithmEd25519)
	require.NoError(t, err)

	msg := []byte("route acme-finance-001")
	sig, err := store.Sign(msg)
	require.NoError(t, err)

	pubPEM, err := store.PublicKeyPEM()
	require.NoError(t, err)

	ok, err := Verify(msg, sig, pubPEM)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Verify([]byte("tampered"), sig, pubPEM)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStoreSecp256k1(t *testing.T) {
	store, err := NewStore(NewMemoryPersistence(), AlgorithmSecp256k1)
	require.NoError(t, err)

	msg := []byte("heartbeat finance-1")
	sig, err := store.Sign(msg)
	require.NoError(t, err)

	pubPEM, err := store.PublicKeyPEM()
	require.NoError(t, err)

	ok, err := Verify(msg, sig, pubPEM)
	require.NoError(t, err)
	assert.True(t, ok)

	kp, err := store.Ensure()
	require.NoError(t, err)
	addr, err := Address(kp)
	require.NoError(t, err)
	assert.NotEmpty(t, addr)
}

func TestFingerprintStable(t *testing.T) {
	store, err := NewStore(NewMemoryPersistence(), AlgorithmEd25519)
	require.NoError(t, err)

	fp1, err := store.Fingerprint()
	require.NoError(t, err)
	fp2, err := store.Fingerprint()
	require.NoError(t, err)
	assert.Equal(t, fp1, fp2)
	assert.NotEmpty(t, fp1)
}

func TestFilePersistenceRoundTrip(t *testing.T) {
	dir := t.TempDir()
	persistence, err := NewFilePersistence(dir)
	require.NoError(t, err)

	store, err := NewStore(persistence, AlgorithmEd25519)
	require.NoError(t, err)
	kp, err := store.Ensure()
	require.NoError(t, err)

	reloaded, err := NewStore(persistence, AlgorithmEd25519)
	require.NoError(t, err)
	kp2, err := reloaded.Ensure()
	require.NoError(t, err)

	assert.Equal(t, kp.ID(), kp2.ID())
}
