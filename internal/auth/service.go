// Package auth はlambdaウォレットとパスワードによる認証と
// アクセストークンの発行・検証を提供する。
package auth

import (
	"context"
	"fmt"

	"github.com/prom-io/data-validator-node/internal/model"
	"github.com/prom-io/data-validator-node/internal/repository"
)

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	userRepo repository.UserRepository
	encoder  *PasswordEncoder
	issuer   *TokenIssuer
}

// NewService はServiceを生成する。
func NewService(userRepo repository.UserRepository, encoder *PasswordEncoder, issuer *TokenIssuer) *Service {
	return &Service{
		userRepo: userRepo,
		encoder:  encoder,
		issuer:   issuer,
	}
}

// Login はlambdaウォレットとパスワードを検証し、アクセストークンを発行する。
// 未知のウォレットとパスワード不一致は同一の認証エラーとして扱い、
// ユーザーの存在を漏らさない。
func (s *Service) Login(ctx context.Context, lambdaWallet, password string) (string, error) {
	user, err := s.userRepo.FindByLambdaWallet(ctx, lambdaWallet)
	if err != nil {
		return "", fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return "", model.NewUnauthorizedError()
	}

	if !s.encoder.Matches(password, user.PasswordHash) {
		return "", model.NewUnauthorizedError()
	}

	token, err := s.issuer.Issue(user)
	if err != nil {
		return "", fmt.Errorf("アクセストークンの発行に失敗しました: %w", err)
	}

	return token, nil
}
