package service

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// OperatorSubject 是操作员 token 的 sub 声明
const OperatorSubject = "operator"

// AuthService 负责操作员认证。
// 服务持有的钱包会真实花费链上资产，所以修改类接口都需要操作员 token。
type AuthService struct {
	passwordHash []byte        // bcrypt 哈希，来自配置
	jwtSecret    []byte        // 存储密钥的字节形式
	jwtExpiry    time.Duration // JWT 过期时间
	now          func() time.Time
}

// NewAuthService 创建 AuthService 实例。
// passwordHash 是操作员密码的 bcrypt 哈希，jwtExpiryHours 定义 token 过期的小时数。
func NewAuthService(passwordHash, jwtSecretKey string, jwtExpiryHours int) (*AuthService, error) {
	if passwordHash == "" {
		return nil, fmt.Errorf("operator password hash cannot be empty")
	}
	if _, err := bcrypt.Cost([]byte(passwordHash)); err != nil {
		return nil, fmt.Errorf("operator password hash is not a valid bcrypt hash: %w", err)
	}
	if jwtSecretKey == "" {
		return nil, fmt.Errorf("JWT secret key cannot be empty")
	}
	if jwtExpiryHours <= 0 {
		jwtExpiryHours = 24 // 默认 24 小时
	}
	return &AuthService{
		passwordHash: []byte(passwordHash),
		jwtSecret:    []byte(jwtSecretKey),
		jwtExpiry:    time.Duration(jwtExpiryHours) * time.Hour,
		now:          time.Now,
	}, nil
}

// Login 校验操作员密码并签发 JWT。
func (s *AuthService) Login(ctx context.Context, password string) (string, error) {
	logCtx := logrus.WithField("operation", "Login")

	if password == "" || !checkPassword(password, s.passwordHash) {
		logCtx.Warn("Login attempt failed: Invalid password")
		return "", ErrAuthenticationFailed
	}

	token, err := s.generateJWT()
	if err != nil {
		logCtx.WithError(err).Error("Failed to generate JWT token during login")
		return "", ErrInternalServer
	}

	logCtx.Info("Operator logged in successfully")
	return token, nil
}

// HashPassword 使用 bcrypt 对密码进行哈希处理，用于生成配置中的 OPERATOR_PASSWORD_HASH。
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to generate hash from password: %w", err)
	}
	return string(bytes), nil
}

// --- 私有辅助函数 ---

// checkPassword 验证提供的密码是否与存储的哈希匹配
func checkPassword(password string, hash []byte) bool {
	return bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil
}

// generateJWT 生成操作员 token
func (s *AuthService) generateJWT() (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": OperatorSubject,
		"exp": now.Add(s.jwtExpiry).Unix(),
		"iat": now.Unix(),
	})
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}
