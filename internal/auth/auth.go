package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CustomClaims определяет пользовательские данные, которые мы храним в токене.
type CustomClaims struct {
	UserID string `json:"user_id"`
	Guest  bool   `json:"guest,omitempty"`
	jwt.RegisteredClaims
}

// Manager подписывает и проверяет JWT-токены игроков.
type Manager struct {
	secret     []byte
	expiration time.Duration
	issuer     string
}

// NewManager создает менеджер токенов. Секрет обязателен.
func NewManager(secret string, expirationMinutes int) (*Manager, error) {
	if secret == "" {
		return nil, errors.New("JWT secret is not set")
	}
	if expirationMinutes <= 0 {
		expirationMinutes = 60
	}
	return &Manager{
		secret:     []byte(secret),
		expiration: time.Duration(expirationMinutes) * time.Minute,
		issuer:     "escape-server",
	}, nil
}

// GenerateToken создает новый JWT для указанного UserID.
func (m *Manager) GenerateToken(userID string, guest bool) (string, time.Time, error) {
	expiresAt := time.Now().Add(m.expiration)
	claims := &CustomClaims{
		UserID: userID,
		Guest:  guest,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    m.issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// ValidateToken проверяет JWT и возвращает CustomClaims, если токен валиден.
func (m *Manager) ValidateToken(tokenString string) (*CustomClaims, error) {
	claims := &CustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("token validation failed: %w", err)
	}
	if !token.Valid || claims.UserID == "" {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
