package transaction

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/prom-io/data-validator-node/internal/model"
	"github.com/prom-io/data-validator-node/internal/servicenode"
)

const systemWallet = "lambda-system"

type mockHistoryClient struct {
	getTransactionsFn func(ctx context.Context, wallet string) ([]servicenode.LambdaTransaction, error)
}

func (m *mockHistoryClient) GetTransactionsOfLambdaWallet(ctx context.Context, wallet string) ([]servicenode.LambdaTransaction, error) {
	return m.getTransactionsFn(ctx, wallet)
}

// TestService_GetTransactionsOfUser_ClassifiesLockAndUnlock はシステムウォレット宛の
// 送金がLOCK、システムウォレットからの受領がUNLOCKに分類され、金額がトークン単位に
// 換算されることを検証する。
func TestService_GetTransactionsOfUser_ClassifiesLockAndUnlock(t *testing.T) {
	now := time.Now()
	client := &mockHistoryClient{
		getTransactionsFn: func(ctx context.Context, wallet string) ([]servicenode.LambdaTransaction, error) {
			if wallet != "lambda-user" {
				t.Errorf("wallet = %s, want lambda-user", wallet)
			}
			return []servicenode.LambdaTransaction{
				{Hash: "0x1", From: "lambda-user", To: systemWallet, Amount: 5_000_000, CreatedAt: now},
				{Hash: "0x2", From: systemWallet, To: "lambda-user", Amount: 1_500_000, CreatedAt: now},
			}, nil
		},
	}
	svc := NewService(client, systemWallet)

	results, err := svc.GetTransactionsOfUser(context.Background(), &model.User{LambdaWallet: "lambda-user"})
	if err != nil {
		t.Fatalf("GetTransactionsOfUser returned error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(results))
	}
	if results[0].Type != model.TransactionTypeLock {
		t.Errorf("results[0].Type = %s, want LOCK", results[0].Type)
	}
	if results[0].Value != 5.0 {
		t.Errorf("results[0].Value = %v, want 5.0", results[0].Value)
	}
	if results[1].Type != model.TransactionTypeUnlock {
		t.Errorf("results[1].Type = %s, want UNLOCK", results[1].Type)
	}
	if results[1].Value != 1.5 {
		t.Errorf("results[1].Value = %v, want 1.5", results[1].Value)
	}
}

// TestService_GetTransactionsOfUser_DropsUnrelatedTransfers はシステムウォレットが
// 関与しない取引が結果から除外されることを検証する。
func TestService_GetTransactionsOfUser_DropsUnrelatedTransfers(t *testing.T) {
	client := &mockHistoryClient{
		getTransactionsFn: func(ctx context.Context, wallet string) ([]servicenode.LambdaTransaction, error) {
			return []servicenode.LambdaTransaction{
				{Hash: "0x1", From: "lambda-user", To: "lambda-other", Amount: 1_000_000},
				{Hash: "0x2", From: "lambda-user", To: systemWallet, Amount: 2_000_000},
			}, nil
		},
	}
	svc := NewService(client, systemWallet)

	results, err := svc.GetTransactionsOfUser(context.Background(), &model.User{LambdaWallet: "lambda-user"})
	if err != nil {
		t.Fatalf("GetTransactionsOfUser returned error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(results))
	}
	if results[0].Hash != "0x2" {
		t.Errorf("Hash = %s, want 0x2", results[0].Hash)
	}
}

// TestService_GetTransactionsOfUser_DropsThirdPartySystemWalletTransfers は
// 第三者とシステムウォレット間の取引が、ユーザーのlambdaウォレットが関与
// しない限り結果から除外されることを検証する。
func TestService_GetTransactionsOfUser_DropsThirdPartySystemWalletTransfers(t *testing.T) {
	client := &mockHistoryClient{
		getTransactionsFn: func(ctx context.Context, wallet string) ([]servicenode.LambdaTransaction, error) {
			return []servicenode.LambdaTransaction{
				{Hash: "0x1", From: "lambda-third-party", To: systemWallet, Amount: 1_000_000},
				{Hash: "0x2", From: systemWallet, To: "lambda-third-party", Amount: 2_000_000},
				{Hash: "0x3", From: "lambda-user", To: systemWallet, Amount: 3_000_000},
			}, nil
		},
	}
	svc := NewService(client, systemWallet)

	results, err := svc.GetTransactionsOfUser(context.Background(), &model.User{LambdaWallet: "lambda-user"})
	if err != nil {
		t.Fatalf("GetTransactionsOfUser returned error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 transaction, got %d: %+v", len(results), results)
	}
	if results[0].Hash != "0x3" {
		t.Errorf("Hash = %s, want 0x3", results[0].Hash)
	}
	if results[0].Type != model.TransactionTypeLock {
		t.Errorf("Type = %s, want LOCK", results[0].Type)
	}
}

// TestService_GetTransactionsOfUser_EmptyHistory は取引がない場合に
// 空のスライスが返ることを検証する。
func TestService_GetTransactionsOfUser_EmptyHistory(t *testing.T) {
	client := &mockHistoryClient{
		getTransactionsFn: func(ctx context.Context, wallet string) ([]servicenode.LambdaTransaction, error) {
			return nil, nil
		},
	}
	svc := NewService(client, systemWallet)

	results, err := svc.GetTransactionsOfUser(context.Background(), &model.User{LambdaWallet: "lambda-user"})
	if err != nil {
		t.Fatalf("GetTransactionsOfUser returned error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected empty result, got %d", len(results))
	}
}

// TestService_GetTransactionsOfUser_RemoteErrors はリモート障害の分類を検証する。
func TestService_GetTransactionsOfUser_RemoteErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{"status error", &servicenode.StatusError{StatusCode: 500}, model.ErrCodeServiceNodeError},
		{"transport error", fmt.Errorf("connection refused"), model.ErrCodeServiceNodeUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &mockHistoryClient{
				getTransactionsFn: func(ctx context.Context, wallet string) ([]servicenode.LambdaTransaction, error) {
					return nil, tt.err
				},
			}
			svc := NewService(client, systemWallet)

			_, err := svc.GetTransactionsOfUser(context.Background(), &model.User{LambdaWallet: "lambda-user"})
			apiErr, ok := err.(*model.APIError)
			if !ok {
				t.Fatalf("expected APIError, got %v", err)
			}
			if apiErr.Code != tt.wantCode {
				t.Errorf("code = %s, want %s", apiErr.Code, tt.wantCode)
			}
		})
	}
}
