package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// PasswordEncoder はbcryptによるパスワードのハッシュ化と照合を提供する。
type PasswordEncoder struct {
	cost int
}

// NewPasswordEncoder はデフォルトコストのPasswordEncoderを生成する。
func NewPasswordEncoder() *PasswordEncoder {
	return &PasswordEncoder{cost: bcrypt.DefaultCost}
}

// Hash はパスワードのbcryptハッシュを生成する。
func (e *PasswordEncoder) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), e.cost)
	if err != nil {
		return "", fmt.Errorf("パスワードのハッシュ化に失敗しました: %w", err)
	}
	return string(hash), nil
}

// Matches はパスワードがハッシュと一致するかを検証する。
func (e *PasswordEncoder) Matches(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
