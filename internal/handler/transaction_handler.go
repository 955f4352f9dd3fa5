package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/prom-io/data-validator-node/internal/middleware"
	"github.com/prom-io/data-validator-node/internal/model"
)

// TransactionServiceInterface は取引履歴ハンドラーが必要とするサービスインターフェース。
type TransactionServiceInterface interface {
	// GetTransactionsOfUser は認証済みユーザーの取引履歴を返す。
	GetTransactionsOfUser(ctx context.Context, user *model.User) ([]model.Transaction, error)
}

// TransactionHandler は取引履歴のHTTPハンドラー。
type TransactionHandler struct {
	service TransactionServiceInterface
}

// NewTransactionHandler はTransactionHandlerを生成する。
func NewTransactionHandler(service TransactionServiceInterface) *TransactionHandler {
	return &TransactionHandler{
		service: service,
	}
}

// transactionResponse は取引のAPIレスポンス。
type transactionResponse struct {
	Hash      string    `json:"hash"`
	Type      string    `json:"type"`
	Value     float64   `json:"value"`
	CreatedAt time.Time `json:"createdAt"`
}

// ListTransactions は認証済みユーザーの取引履歴を取得する。
// GET /api/v3/transactions
func (h *TransactionHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.CurrentUserFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	transactions, err := h.service.GetTransactionsOfUser(r.Context(), user)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]transactionResponse, len(transactions))
	for i, tx := range transactions {
		results[i] = transactionResponse{
			Hash:      tx.Hash,
			Type:      string(tx.Type),
			Value:     tx.Value,
			CreatedAt: tx.CreatedAt,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(results)
}
