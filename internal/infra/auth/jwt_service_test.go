package auth

import (
	"testing"
	"time"

	"cleancity/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConfig(secret string) *config.Config {
	return &config.Config{
		SecretKey: config.SecretKeyConfig{
			Access:    secret,
			AccessTTL: time.Hour,
		},
	}
}

func TestJWTService_GenerateAndValidate(t *testing.T) {
	svc, err := NewJWTService(newTestConfig("test_access_secret_key_very_long_for_testing"))
	require.NoError(t, err)

	token, err := svc.GenerateAccessToken("L1", []string{"labour"})
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "L1", claims.ActorID)
	assert.Equal(t, "L1", claims.Subject)
	assert.Equal(t, []string{"labour"}, claims.Roles)
	assert.Equal(t, time.Hour, svc.GetAccessTokenDuration())
}

func TestJWTService_MissingSecret(t *testing.T) {
	_, err := NewJWTService(newTestConfig(""))
	require.Error(t, err)
}

func TestJWTService_RejectsForeignSignature(t *testing.T) {
	issuer, err := NewJWTService(newTestConfig("secret-one"))
	require.NoError(t, err)
	verifier, err := NewJWTService(newTestConfig("secret-two"))
	require.NoError(t, err)

	token, err := issuer.GenerateAccessToken("U1", []string{"user"})
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	require.Error(t, err)
}

func TestJWTService_RejectsExpired(t *testing.T) {
	svc, err := NewJWTService(newTestConfig("secret"))
	require.NoError(t, err)

	impl := svc.(*jwtService)
	impl.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, err := svc.GenerateAccessToken("U1", []string{"user"})
	require.NoError(t, err)

	impl.now = time.Now
	_, err = svc.ValidateToken(token)
	require.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestJWTService_RejectsNoneAlgorithm(t *testing.T) {
	svc, err := NewJWTService(newTestConfig("secret"))
	require.NoError(t, err)

	token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"actor_id": "U1", "iss": "cleancity"})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = svc.ValidateToken(signed)
	require.Error(t, err)
}

func TestJWTService_EmptyActor(t *testing.T) {
	svc, err := NewJWTService(newTestConfig("secret"))
	require.NoError(t, err)

	_, err = svc.GenerateAccessToken("", nil)
	require.Error(t, err)
}
