package iamclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func signHS256(t *testing.T, claims jwtv5.MapClaims, secret string) string {
	t.Helper()
	tok := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims)
	s, err := tok.SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func TestVerifier_ValidToken(t *testing.T) {
	v := NewVerifier(VerifierConfig{Secret: testSecret, Issuer: "https://iam.test"})
	tok := signHS256(t, jwtv5.MapClaims{
		"sub": "admin-1",
		"iss": "https://iam.test",
		"exp": time.Now().Add(time.Hour).Unix(),
	}, testSecret)

	s, err := v.Verify(context.Background(), tok)
	require.NoError(t, err)
	assert.Equal(t, "admin-1", s.Subject)
	assert.False(t, s.ExpiresAt.IsZero())
}

func TestVerifier_Rejections(t *testing.T) {
	v := NewVerifier(VerifierConfig{Secret: testSecret, Issuer: "https://iam.test"})

	_, err := v.Verify(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrNoSession)

	expired := signHS256(t, jwtv5.MapClaims{
		"sub": "a", "iss": "https://iam.test",
		"exp": time.Now().Add(-time.Hour).Unix(),
	}, testSecret)
	_, err = v.Verify(context.Background(), expired)
	assert.ErrorIs(t, err, ErrSessionExpired)

	wrongKey := signHS256(t, jwtv5.MapClaims{"sub": "a", "iss": "https://iam.test"}, "another-secret-another-secret-xx")
	_, err = v.Verify(context.Background(), wrongKey)
	assert.ErrorIs(t, err, ErrInvalidSession)

	wrongIss := signHS256(t, jwtv5.MapClaims{"sub": "a", "iss": "https://evil.test"}, testSecret)
	_, err = v.Verify(context.Background(), wrongIss)
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestVerifier_CachesWithinTTL(t *testing.T) {
	v := NewVerifier(VerifierConfig{Secret: testSecret, CacheTTL: time.Minute})
	tok := signHS256(t, jwtv5.MapClaims{"sub": "admin-1", "exp": time.Now().Add(time.Hour).Unix()}, testSecret)

	for i := 0; i < 3; i++ {
		s, err := v.Verify(context.Background(), tok)
		require.NoError(t, err)
		assert.Equal(t, "admin-1", s.Subject)
	}
	assert.Equal(t, int64(1), v.verifications.Load())
}

func TestVerifier_ConcurrentVerify(t *testing.T) {
	v := NewVerifier(VerifierConfig{Secret: testSecret, CacheTTL: time.Minute})
	tok := signHS256(t, jwtv5.MapClaims{"sub": "admin-1"}, testSecret)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := v.Verify(context.Background(), tok)
			assert.NoError(t, err)
			if s != nil {
				assert.Equal(t, "admin-1", s.Subject)
			}
		}()
	}
	wg.Wait()
	assert.GreaterOrEqual(t, v.verifications.Load(), int64(1))
}

func TestVerifier_DevModeAcceptsOpaqueTokens(t *testing.T) {
	v := NewVerifier(VerifierConfig{})
	s, err := v.Verify(context.Background(), "opaque-session-token")
	require.NoError(t, err)
	assert.Equal(t, "opaque-session-token", s.Token)
	assert.Empty(t, s.Subject)
}

func TestTokenFromRequest(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer abc")
	r.AddCookie(&http.Cookie{Name: "sid", Value: "from-cookie"})
	assert.Equal(t, "abc", TokenFromRequest(r, "sid"))

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: "sid", Value: "from-cookie"})
	assert.Equal(t, "from-cookie", TokenFromRequest(r, "sid"))

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, TokenFromRequest(r, "sid"))
}

func TestClient_DoForwardsCredentials(t *testing.T) {
	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(context.Background())
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	r := httptest.NewRequest(http.MethodPost, "/systems/users/u1", nil)
	r.Header.Set("Authorization", "Bearer tok-1")
	r.Header.Set("X-Request-ID", "rid-1")

	f := NewFactory(NewVerifier(VerifierConfig{}), "sid", time.Second)
	c := f.FromRequest(r)
	require.NoError(t, c.VerifySession(context.Background()))

	resp, err := c.Do(context.Background(), http.MethodPut, srv.URL+"/x", map[string]string{"first_name": "Ann"})
	require.NoError(t, err)
	resp.Body.Close()

	require.NotNil(t, got)
	assert.Equal(t, "Bearer tok-1", got.Header.Get("Authorization"))
	assert.Equal(t, "rid-1", got.Header.Get("X-Request-ID"))
	assert.Equal(t, "application/json", got.Header.Get("Content-Type"))
}
