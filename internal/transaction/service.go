// Package transaction はlambdaウォレットの取引履歴のドメインロジックを提供する。
package transaction

import (
	"context"
	"errors"

	"github.com/prom-io/data-validator-node/internal/model"
	"github.com/prom-io/data-validator-node/internal/servicenode"
)

// マイクロ単位からトークン単位への換算係数。
const microUnitsPerToken = 1_000_000

// HistoryClient はサービスノードから取引履歴を取得するインターフェース。
type HistoryClient interface {
	GetTransactionsOfLambdaWallet(ctx context.Context, wallet string) ([]servicenode.LambdaTransaction, error)
}

// Service は取引履歴のサービス層。
// systemWalletはロック資金の集約先アドレスで、取引の方向判定に使う。
type Service struct {
	client       HistoryClient
	systemWallet string
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(client HistoryClient, systemWallet string) *Service {
	return &Service{
		client:       client,
		systemWallet: systemWallet,
	}
}

// GetTransactionsOfUser は認証済みユーザーのlambdaウォレットの取引履歴を返す。
//
// ユーザーのlambdaウォレットからシステムウォレット宛の送金はLOCK、
// システムウォレットからユーザーのlambdaウォレットへの受領はUNLOCKに
// 分類する。この二者間以外の取引（第三者とシステムウォレット間の取引を
// 含む）は結果から除外する。金額はマイクロ単位からトークン単位に換算して
// 返す。
func (s *Service) GetTransactionsOfUser(ctx context.Context, user *model.User) ([]model.Transaction, error) {
	remote, err := s.client.GetTransactionsOfLambdaWallet(ctx, user.LambdaWallet)
	if err != nil {
		return nil, classifyServiceNodeError(err)
	}

	results := make([]model.Transaction, 0, len(remote))
	for _, tx := range remote {
		var txType model.TransactionType
		switch {
		case tx.From == user.LambdaWallet && tx.To == s.systemWallet:
			txType = model.TransactionTypeLock
		case tx.From == s.systemWallet && tx.To == user.LambdaWallet:
			txType = model.TransactionTypeUnlock
		default:
			continue
		}

		results = append(results, model.Transaction{
			Hash:      tx.Hash,
			Type:      txType,
			Value:     float64(tx.Amount) / microUnitsPerToken,
			CreatedAt: tx.CreatedAt,
		})
	}

	return results, nil
}

// classifyServiceNodeError はサービスノード呼び出しの失敗を分類する。
func classifyServiceNodeError(err error) error {
	var statusErr *servicenode.StatusError
	if errors.As(err, &statusErr) {
		return model.NewServiceNodeStatusError(statusErr.StatusCode)
	}
	return model.NewServiceNodeUnavailableError()
}
