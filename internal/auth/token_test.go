package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gabrielvss/ecclesia/internal/model"
)

const testSecretKey = "test-secret-key-for-predictable-results"

func TestTokenManager_Generate(t *testing.T) {
	tests := []struct {
		name   string
		userID int64
		role   model.Role
		ttl    time.Duration
	}{
		{
			name:   "success: member token",
			userID: 7,
			role:   model.RoleMember,
			ttl:    time.Hour,
		},
		{
			name:   "success: admin token",
			userID: 1,
			role:   model.RoleAdmin,
			ttl:    30 * time.Minute,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewTokenManager(testSecretKey, tt.ttl)

			tokenString, err := m.Generate(tt.userID, tt.role)
			require.NoError(t, err)
			require.NotEmpty(t, tokenString)

			claims, err := m.Verify(tokenString)
			require.NoError(t, err)
			assert.Equal(t, tt.userID, claims.UserID)
			assert.Equal(t, tt.role, claims.Role)
			assert.NotEmpty(t, claims.ID)
			assert.WithinDuration(t, time.Now().Add(tt.ttl), claims.ExpiresAt.Time, time.Second*5)
		})
	}
}

func TestTokenManager_Verify(t *testing.T) {
	m := NewTokenManager(testSecretKey, time.Hour)

	validToken, _ := m.Generate(7, model.RoleMember)

	expiredClaims := TokenClaims{
		UserID: 7,
		Role:   model.RoleMember,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}
	expiredToken, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, expiredClaims).SignedString([]byte(testSecretKey))

	otherSecret, _ := NewTokenManager("different-secret-key", time.Hour).Generate(7, model.RoleMember)

	noneToken, _ := jwt.NewWithClaims(jwt.SigningMethodNone, TokenClaims{
		UserID: 7,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)

	tests := []struct {
		name              string
		tokenString       string
		expectError       bool
		expectedErrorType error
		expectedUserID    int64
		expectedRole      model.Role
	}{
		{
			name:           "success: valid token",
			tokenString:    validToken,
			expectedUserID: 7,
			expectedRole:   model.RoleMember,
		},
		{
			name:              "failure: expired token",
			tokenString:       expiredToken,
			expectError:       true,
			expectedErrorType: jwt.ErrTokenExpired,
		},
		{
			name:              "failure: wrong signature",
			tokenString:       otherSecret,
			expectError:       true,
			expectedErrorType: jwt.ErrTokenSignatureInvalid,
		},
		{
			name:              "failure: malformed token",
			tokenString:       "not-a-valid-jwt-token",
			expectError:       true,
			expectedErrorType: jwt.ErrTokenMalformed,
		},
		{
			name:              "failure: none signing method",
			tokenString:       noneToken,
			expectError:       true,
			expectedErrorType: ErrInvalidSigningMethod,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := m.Verify(tt.tokenString)

			if tt.expectError {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.expectedErrorType)
				assert.Nil(t, claims)
			} else {
				require.NoError(t, err)
				require.NotNil(t, claims)
				assert.Equal(t, tt.expectedUserID, claims.UserID)
				assert.Equal(t, tt.expectedRole, claims.Role)
			}
		})
	}
}
