package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/prom-io/data-validator-node/internal/model"
)

// Claims はアクセストークンに含まれる利用者情報。
type Claims struct {
	jwt.RegisteredClaims
	UserID       string `json:"id"`
	LambdaWallet string `json:"lambdaWallet"`
}

// TokenIssuer はユーザーに紐付くアクセストークン（HS256 JWT）を発行・検証する。
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenIssuer はTokenIssuerを生成する。
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl}
}

// Issue は指定ユーザーに紐付くアクセストークンを発行する。
func (i *TokenIssuer) Issue(user *model.User) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
		UserID:       user.ID,
		LambdaWallet: user.LambdaWallet,
	})

	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("アクセストークンの署名に失敗しました: %w", err)
	}

	return signed, nil
}

// Parse はアクセストークンを検証し、含まれるClaimsを返す。
// 無効・期限切れのトークンはエラーを返す。
func (i *TokenIssuer) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("アクセストークンの検証に失敗しました: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("アクセストークンが無効です")
	}

	return claims, nil
}
