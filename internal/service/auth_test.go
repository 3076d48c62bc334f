package service_test // 测试包

import (
	"context"
	"errors"
	"testing"

	"pixel-earth/internal/service" // 导入被测试的包

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// 使用最低 cost 生成哈希，加快测试
func testHash(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestNewAuthService_Validation(t *testing.T) {
	_, err := service.NewAuthService("", "secret", 1)
	assert.Error(t, err, "空的密码哈希应返回错误")

	_, err = service.NewAuthService("not-a-bcrypt-hash", "secret", 1)
	assert.Error(t, err, "非法的 bcrypt 哈希应返回错误")

	_, err = service.NewAuthService(testHash(t, "pw"), "", 1)
	assert.Error(t, err, "空的 JWT 密钥应返回错误")
}

func TestAuthService_Login_Success(t *testing.T) {
	// Arrange
	secret := "test-secret"
	authService, err := service.NewAuthService(testHash(t, "password123"), secret, 24)
	require.NoError(t, err, "创建 AuthService 不应失败")

	// Act
	token, err := authService.Login(context.Background(), "password123")

	// Assert
	require.NoError(t, err)
	require.NotEmpty(t, token)

	parsed, err := jwt.Parse(token, func(tk *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	require.NoError(t, err)
	claims, ok := parsed.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.Equal(t, service.OperatorSubject, claims["sub"])
	assert.NotNil(t, claims["exp"])
}

func TestAuthService_Login_IncorrectPassword(t *testing.T) {
	authService, _ := service.NewAuthService(testHash(t, "password123"), "test-secret", 24)

	token, err := authService.Login(context.Background(), "wrongpassword")

	require.Error(t, err)
	assert.Empty(t, token)
	assert.True(t, errors.Is(err, service.ErrAuthenticationFailed))
}

func TestAuthService_Login_EmptyPassword(t *testing.T) {
	authService, _ := service.NewAuthService(testHash(t, "password123"), "test-secret", 24)

	_, err := authService.Login(context.Background(), "")
	assert.ErrorIs(t, err, service.ErrAuthenticationFailed)
}

func TestHashPassword(t *testing.T) {
	hash, err := service.HashPassword("StrongPass123")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("StrongPass123")), "密码应被正确哈希")
}
