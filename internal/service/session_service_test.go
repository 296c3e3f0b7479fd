package service_test

import (
	"testing"
	"time"

	"github.com/dom/card-chess/internal/config"
	"github.com/dom/card-chess/internal/service"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(secret string) *config.Config {
	return &config.Config{SessionSecret: secret, SessionTTLHours: 1}
}

func TestSessionService_RoundTrip(t *testing.T) {
	svc := service.NewSessionService(testConfig("secret"))

	token, err := svc.Issue("conn-1")
	require.NoError(t, err)

	connID, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "conn-1", connID)
}

func TestSessionService_Validate(t *testing.T) {
	svc := service.NewSessionService(testConfig("secret"))
	other, err := service.NewSessionService(testConfig("other")).Issue("conn-1")
	require.NoError(t, err)

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "conn-1",
		"exp": time.Now().Add(-time.Hour).Unix(),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"wrong secret", other},
		{"expired", expired},
		{"no subject", noSubject},
		{"malformed", "notavalidjwt"},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Validate(tt.token)
			assert.ErrorIs(t, err, service.ErrInvalidSession)
		})
	}
}
