package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pasetoTestKey = []byte("0123456789abcdef0123456789abcdef")

func TestPasetoService_RoundTrip(t *testing.T) {
	service, err := NewPasetoService(pasetoTestKey)
	require.NoError(t, err)

	userID := uuid.New()
	token, err := service.CreateToken(userID, time.Hour)
	require.NoError(t, err)

	claims, err := service.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
}

func TestPasetoService_ExpiredToken(t *testing.T) {
	service, err := NewPasetoService(pasetoTestKey)
	require.NoError(t, err)

	token, err := service.CreateToken(uuid.New(), -time.Minute)
	require.NoError(t, err)

	_, err = service.VerifyToken(token)
	assert.Error(t, err)
}

func TestPasetoService_MalformedToken(t *testing.T) {
	service, err := NewPasetoService(pasetoTestKey)
	require.NoError(t, err)

	_, err = service.VerifyToken("v4.local.garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewPasetoService_KeyLength(t *testing.T) {
	_, err := NewPasetoService([]byte("too short"))
	assert.Error(t, err)
}
