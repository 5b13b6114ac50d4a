package apiclient_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-courier"
	"github.com/goliatone/go-courier/apiclient"
	"github.com/goliatone/go-courier/storage"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, claims *apiclient.TokenClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestClientAuthorizesRequests(t *testing.T) {
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := apiclient.New(srv.URL + "/")

	send := func() {
		req, err := client.NewRequest(http.MethodGet, "/deliveries")
		require.NoError(t, err)
		res, err := client.Do(req)
		require.NoError(t, err)
		res.Body.Close()
	}

	send()
	client.SetToken("abc")
	send()
	client.SetToken("")
	send()

	assert.Equal(t, []string{"", "Bearer abc", ""}, seen)
}

func TestClientClaims(t *testing.T) {
	now := time.Date(2024, 6, 2, 9, 0, 0, 0, time.UTC)
	client := apiclient.New("https://api.example.com", apiclient.WithClock(func() time.Time { return now }))

	_, err := client.Claims()
	assert.ErrorIs(t, err, apiclient.ErrNoToken)

	client.SetToken(signToken(t, &apiclient.TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		UserRole: "staff",
		TenantID: "tenant-1",
	}))

	claims, err := client.Claims()
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID())
	assert.Equal(t, "staff", claims.Role())
	assert.Equal(t, "tenant-1", claims.TenantID)
	assert.True(t, claims.Expires().Equal(now.Add(time.Hour)))
	assert.True(t, claims.IssuedAt().Equal(now))

	expired, err := client.Expired()
	require.NoError(t, err)
	assert.False(t, expired)

	client.SetToken(signToken(t, &apiclient.TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(-time.Minute))},
		UID:              "uid-2",
	}))
	expired, err = client.Expired()
	require.NoError(t, err)
	assert.True(t, expired)

	client.SetToken("opaque-token")
	_, err = client.Claims()
	assert.ErrorIs(t, err, apiclient.ErrTokenMalformed)
}

func TestClientFollowsSessionMachine(t *testing.T) {
	client := apiclient.New("https://api.example.com")
	m, err := courier.NewSessionMachine(storage.NewMemoryStore(), client, nil)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = m.Restore(ctx)
	require.NoError(t, err)
	_, err = m.LoginAdmin(ctx, &courier.AdminProfile{ID: uuid.NewString(), Email: "ops@example.com"}, "token-a")
	require.NoError(t, err)
	assert.Equal(t, "token-a", client.Token())

	_, err = m.Logout(ctx)
	require.NoError(t, err)
	assert.Empty(t, client.Token())
}
