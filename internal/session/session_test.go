package session

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	token   string
	loadErr error
	saves   int
	deletes int
}

func (m *memStore) LoadToken() (string, error) {
	return m.token, m.loadErr
}

func (m *memStore) SaveToken(token string) error {
	m.token = token
	m.saves++
	return nil
}

func (m *memStore) DeleteToken() error {
	m.token = ""
	m.deletes++
	return nil
}

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestNew_EmptyStoreStartsLoggedOut(t *testing.T) {
	s, err := New(&memStore{})
	require.NoError(t, err)

	assert.False(t, s.Authenticated())
	assert.Empty(t, s.Token())
	assert.Equal(t, int64(fallbackUserID), s.UserID())
}

func TestNew_RestoresPersistedToken(t *testing.T) {
	token := signToken(t, jwt.MapClaims{
		"userId": float64(42),
		"exp":    float64(time.Now().Add(time.Hour).Unix()),
	})
	s, err := New(&memStore{token: token})
	require.NoError(t, err)

	assert.True(t, s.Authenticated())
	assert.Equal(t, token, s.Token())
	assert.Equal(t, int64(42), s.UserID())
}

func TestNew_StoreFailureSurfaces(t *testing.T) {
	_, err := New(&memStore{loadErr: errors.New("boom")})
	assert.Error(t, err)
}

func TestSetToken_ParsesClaimsAndPersists(t *testing.T) {
	store := &memStore{}
	s, err := New(store)
	require.NoError(t, err)

	token := signToken(t, jwt.MapClaims{
		"sub": "7",
		"exp": float64(time.Now().Add(time.Hour).Unix()),
	})
	require.NoError(t, s.SetToken(token))

	assert.True(t, s.Authenticated())
	assert.Equal(t, int64(7), s.UserID())
	assert.Equal(t, token, store.token)
	assert.Equal(t, 1, store.saves)
}

func TestSetToken_ExpiredTokenNotAuthenticated(t *testing.T) {
	s, err := New(nil)
	require.NoError(t, err)

	token := signToken(t, jwt.MapClaims{
		"userId": float64(5),
		"exp":    float64(time.Now().Add(-time.Minute).Unix()),
	})
	require.NoError(t, s.SetToken(token))

	assert.False(t, s.Authenticated())
	assert.Equal(t, int64(5), s.UserID(), "identity still parsed from an expired token")
}

func TestSetToken_NoExpiryClaimCountsAsAuthenticated(t *testing.T) {
	s, err := New(nil)
	require.NoError(t, err)

	require.NoError(t, s.SetToken(signToken(t, jwt.MapClaims{"userId": float64(3)})))
	assert.True(t, s.Authenticated())
}

func TestSetToken_OpaqueTokenFallsBackToDefaultUser(t *testing.T) {
	s, err := New(nil)
	require.NoError(t, err)

	// Not a JWT at all. The token is still kept for the Authorization
	// header; identity falls back to the default user id.
	require.NoError(t, s.SetToken("opaque-session-token"))

	assert.True(t, s.Authenticated())
	assert.Equal(t, "opaque-session-token", s.Token())
	assert.Equal(t, int64(fallbackUserID), s.UserID())
}

func TestClear_EndsSessionAndDeletesToken(t *testing.T) {
	store := &memStore{}
	s, err := New(store)
	require.NoError(t, err)
	require.NoError(t, s.SetToken(signToken(t, jwt.MapClaims{"userId": float64(9)})))

	require.NoError(t, s.Clear())

	assert.False(t, s.Authenticated())
	assert.Empty(t, s.Token())
	assert.Equal(t, int64(fallbackUserID), s.UserID())
	assert.Equal(t, 1, store.deletes)
}

func TestParseClaims_ClaimKeyPrecedence(t *testing.T) {
	token := signToken(t, jwt.MapClaims{
		"userId": float64(11),
		"uid":    float64(22),
		"sub":    "33",
	})
	userID, _ := parseClaims(token)
	assert.Equal(t, int64(11), userID)
}
