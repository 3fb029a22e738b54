package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"cinema-booking-cli/service"
)

type mockAuthenticator struct {
	mock.Mock
}

func (m *mockAuthenticator) Login(ctx context.Context, username string, password string) (string, error) {
	args := m.Called(ctx, username, password)
	return args.String(0), args.Error(1)
}

func (m *mockAuthenticator) Register(ctx context.Context, username string, email string, password string) error {
	args := m.Called(ctx, username, email, password)
	return args.Error(0)
}

type memoryStore struct {
	token string
}

func (m *memoryStore) LoadToken() (string, error)   { return m.token, nil }
func (m *memoryStore) SaveToken(token string) error { m.token = token; return nil }
func (m *memoryStore) ClearToken() error            { m.token = ""; return nil }

var testNow = time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

func signToken(t *testing.T, userID int, exp time.Time) string {
	t.Helper()
	claims := Claims{
		UserID:   userID,
		Username: "ana",
		Role:     "user",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test"))
	require.NoError(t, err)
	return token
}

func TestLogin_StoresTokenAndUser(t *testing.T) {
	persist := &memoryStore{}
	session := NewSession(persist, WithClock(func() time.Time { return testNow }))
	token := signToken(t, 4, testNow.Add(time.Hour))

	api := &mockAuthenticator{}
	api.On("Login", mock.Anything, "ana", "secret").Return(token, nil).Once()

	user, err := session.Login(context.Background(), api, "ana", "secret")
	require.NoError(t, err)
	assert.Equal(t, 4, user.Id)
	assert.Equal(t, "ana", user.Username)
	assert.Equal(t, token, persist.token)

	got, err := session.Token()
	require.NoError(t, err)
	assert.Equal(t, token, got)
	api.AssertExpectations(t)
}

func TestLogin_PropagatesAPIError(t *testing.T) {
	session := NewSession(&memoryStore{})
	api := &mockAuthenticator{}
	api.On("Login", mock.Anything, "ana", "bad").Return("", errors.New("invalid credentials"))

	_, err := session.Login(context.Background(), api, "ana", "bad")
	require.Error(t, err)
	_, ok := session.CurrentUser()
	assert.False(t, ok)
}

func TestToken_ExpiredIsClearedAndReported(t *testing.T) {
	now := testNow
	persist := &memoryStore{}
	session := NewSession(persist, WithClock(func() time.Time { return now }))
	api := &mockAuthenticator{}
	api.On("Login", mock.Anything, "ana", "secret").Return(signToken(t, 4, testNow.Add(time.Minute)), nil)

	_, err := session.Login(context.Background(), api, "ana", "secret")
	require.NoError(t, err)

	now = testNow.Add(2 * time.Minute)
	_, err = session.Token()
	assert.ErrorIs(t, err, service.ErrTokenExpired)
	assert.Empty(t, persist.token)

	_, err = session.RequireUser()
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestRestore_DiscardsExpiredToken(t *testing.T) {
	persist := &memoryStore{token: signToken(t, 4, testNow.Add(-time.Hour))}
	session := NewSession(persist, WithClock(func() time.Time { return testNow }))

	require.NoError(t, session.Restore())
	_, ok := session.CurrentUser()
	assert.False(t, ok)
	assert.Empty(t, persist.token)
}

func TestRestore_KeepsValidToken(t *testing.T) {
	persist := &memoryStore{token: signToken(t, 9, testNow.Add(time.Hour))}
	session := NewSession(persist, WithClock(func() time.Time { return testNow }))

	require.NoError(t, session.Restore())
	user, err := session.RequireUser()
	require.NoError(t, err)
	assert.Equal(t, 9, user.Id)

	expires, ok := session.ExpiresAt()
	require.True(t, ok)
	assert.True(t, expires.Equal(testNow.Add(time.Hour)))
}

func TestRestore_DiscardsGarbage(t *testing.T) {
	persist := &memoryStore{token: "not-a-jwt"}
	session := NewSession(persist)

	require.NoError(t, session.Restore())
	assert.Empty(t, persist.token)
}

func TestLogout_ClearsEverything(t *testing.T) {
	persist := &memoryStore{token: signToken(t, 9, testNow.Add(time.Hour))}
	session := NewSession(persist, WithClock(func() time.Time { return testNow }))
	require.NoError(t, session.Restore())

	require.NoError(t, session.Logout())
	_, ok := session.ExpiresAt()
	assert.False(t, ok)
	token, err := session.Token()
	require.NoError(t, err)
	assert.Empty(t, token)
	assert.Empty(t, persist.token)
}

func TestValidateRegistration(t *testing.T) {
	cases := []struct {
		name                            string
		username, email, pass, confirm string
		ok                              bool
	}{
		{"valid", "ana", "ana@example.com", "secret1", "secret1", true},
		{"missing username", "", "ana@example.com", "secret1", "secret1", false},
		{"short password", "ana", "ana@example.com", "abc", "abc", false},
		{"mismatch", "ana", "ana@example.com", "secret1", "secret2", false},
		{"bad email", "ana", "ana.example.com", "secret1", "secret1", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateRegistration(tc.username, tc.email, tc.pass, tc.confirm)
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestRegister_ValidatesBeforeCallingAPI(t *testing.T) {
	session := NewSession(&memoryStore{})
	api := &mockAuthenticator{}

	err := session.Register(context.Background(), api, "ana", "ana@example.com", "abc", "abc")
	require.Error(t, err)
	api.AssertNotCalled(t, "Register", mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	api.On("Register", mock.Anything, "ana", "ana@example.com", "secret1").Return(nil).Once()
	require.NoError(t, session.Register(context.Background(), api, "ana", "ana@example.com", "secret1", "secret1"))
	api.AssertExpectations(t)
}
