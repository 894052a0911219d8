package pairing

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCodeShape(t *testing.T) {
	code, err := GenerateCode("host-1", time.Minute)
	require.NoError(t, err)
	assert.Len(t, code.Value, 9) // AAAA-NNNN
	assert.Equal(t, byte('-'), code.Value[4])
	for _, r := range code.Value[:4] {
		assert.Contains(t, letterAlphabet, string(r))
	}
	for _, r := range code.Value[5:] {
		assert.Contains(t, digitAlphabet, string(r))
	}
}

func TestCodeMatchesIgnoresCaseAndDash(t *testing.T) {
	code := &Code{Value: "ABCD-1234"}
	assert.True(t, code.Matches("abcd-1234"))
	assert.True(t, code.Matches("ABCD1234"))
	assert.True(t, code.Matches("abcd1234"))
	assert.False(t, code.Matches("abcd-1235"))
}

func TestTokenIssueAndValidate(t *testing.T) {
	secret := []byte("0123456789abcdef0123456789abcdef")
	token, err := IssueToken(secret, "host-1", "viewer-1")
	require.NoError(t, err)

	assert.Equal(t, ValidationValid, token.Validate(secret, "host-1"))
	assert.Equal(t, ValidationInvalidHost, token.Validate(secret, "host-2"))
	assert.Equal(t, ValidationInvalidSignature, token.Validate([]byte("wrong-secret-wrong-secret-wrong!"), "host-1"))

	expired := token
	expired.ExpiresAt = time.Now().Add(-time.Hour)
	expired.Signature = sign(secret, expired)
	assert.Equal(t, ValidationExpired, expired.Validate(secret, "host-1"))
}

func TestManagerRedeemHappyPath(t *testing.T) {
	secret := []byte("0123456789abcdef0123456789abcdef")
	m, err := NewManager(secret, "host-1")
	require.NoError(t, err)
	defer m.Close()

	code, err := m.NewCode(time.Minute)
	require.NoError(t, err)

	token, err := m.Redeem(code.Value, "viewer-1")
	require.NoError(t, err)
	assert.Equal(t, ValidationValid, m.ValidateToken(token))

	_, err = m.Redeem(code.Value, "viewer-2")
	assert.Error(t, err, "a redeemed code must not be usable twice")
}

func TestManagerRedeemRejectsUnknownCode(t *testing.T) {
	m, err := NewManager([]byte("secret-secret-secret-secret-0123"), "host-1")
	require.NoError(t, err)
	defer m.Close()

	_, err = m.Redeem("ZZZZ-0000", "viewer-1")
	assert.Error(t, err)
}

func TestLoadOrCreateHostSecretPersists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "secret.bin")

	s1, err := LoadOrCreateHostSecret(path)
	require.NoError(t, err)
	assert.Len(t, s1, hostSecretSize)

	s2, err := LoadOrCreateHostSecret(path)
	require.NoError(t, err)
	assert.Equal(t, s1, s2)
}

func TestTokenStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tokens.json")

	ts, err := LoadTokenStore(path)
	require.NoError(t, err)
	_, ok := ts.Get("host-1")
	assert.False(t, ok)

	token := AuthToken{ID: "t1", HostID: "host-1", ViewerID: "v1"}
	require.NoError(t, ts.Put("host-1", token))

	reloaded, err := LoadTokenStore(path)
	require.NoError(t, err)
	got, ok := reloaded.Get("host-1")
	require.True(t, ok)
	assert.Equal(t, token.ID, got.ID)

	require.NoError(t, ts.Delete("host-1"))
	_, ok = ts.Get("host-1")
	assert.False(t, ok)
}
