package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTService_GenerateToken(t *testing.T) {
	service := NewJWTService("test-secret-key", "test-issuer", time.Hour)

	token, err := service.GenerateToken(1, "EMP001", "test@example.com", "employee")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
}

func TestJWTService_ValidateToken(t *testing.T) {
	service := NewJWTService("test-secret-key", "test-issuer", time.Hour)

	// 生成token
	token, err := service.GenerateToken(1, "EMP001", "test@example.com", "hr")
	require.NoError(t, err)

	// 验证token
	claims, err := service.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(1), claims.UserID)
	assert.Equal(t, "EMP001", claims.EmployeeID)
	assert.Equal(t, "test@example.com", claims.Email)
	assert.Equal(t, "hr", claims.Role)
}

func TestJWTService_ValidateToken_Expired(t *testing.T) {
	service := NewJWTService("test-secret-key", "test-issuer", -time.Hour) // 已过期

	token, err := service.GenerateToken(1, "EMP001", "test@example.com", "employee")
	require.NoError(t, err)

	// 验证过期token
	_, err = service.ValidateToken(token)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "expired")
}

func TestJWTService_ValidateToken_Invalid(t *testing.T) {
	service := NewJWTService("test-secret-key", "test-issuer", time.Hour)

	// 使用错误的密钥签发
	wrongService := NewJWTService("wrong-secret-key", "test-issuer", time.Hour)
	token, err := wrongService.GenerateToken(1, "EMP001", "test@example.com", "employee")
	require.NoError(t, err)

	_, err = service.ValidateToken(token)
	assert.Error(t, err)
}

func TestJWTService_RefreshToken(t *testing.T) {
	service := NewJWTService("test-secret-key", "test-issuer", time.Hour)

	token, err := service.GenerateToken(2, "EMP002", "hr@example.com", "hr")
	require.NoError(t, err)

	refreshed, err := service.RefreshToken(token)
	require.NoError(t, err)

	claims, err := service.ValidateToken(refreshed)
	require.NoError(t, err)
	assert.Equal(t, uint(2), claims.UserID)
	assert.Equal(t, "hr", claims.Role)
}

func TestExtractTokenFromHeader(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		want    string
		wantErr bool
	}{
		{
			name:    "valid token",
			header:  "Bearer valid-token",
			want:    "valid-token",
			wantErr: false,
		},
		{
			name:    "empty header",
			header:  "",
			want:    "",
			wantErr: true,
		},
		{
			name:    "missing bearer prefix",
			header:  "Basic abc123",
			want:    "",
			wantErr: true,
		},
		{
			name:    "empty token",
			header:  "Bearer ",
			want:    "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractTokenFromHeader(tt.header)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("s3cret-password")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-password", hash)

	assert.True(t, CheckPassword(hash, "s3cret-password"))
	assert.False(t, CheckPassword(hash, "wrong-password"))
}
