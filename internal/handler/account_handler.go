// Package handler はHTTPハンドラーとルーティングを提供する。
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/prom-io/data-validator-node/internal/account"
	"github.com/prom-io/data-validator-node/internal/middleware"
	"github.com/prom-io/data-validator-node/internal/model"
)

// AccountServiceInterface はアカウントハンドラーが必要とするサービスインターフェース。
type AccountServiceInterface interface {
	// CreateDataValidatorAccount はデータバリデータアカウントを作成または採用する。
	CreateDataValidatorAccount(ctx context.Context, req account.CreateDataValidatorRequest) (*account.CreateDataValidatorResult, error)
	// GetAllAccounts は全アカウントの公開表現一覧を返す。
	GetAllAccounts(ctx context.Context) ([]account.AccountInfo, error)
	// GetDefaultAccount はデフォルトアカウントを返す。
	GetDefaultAccount(ctx context.Context) (*account.AccountInfo, error)
	// SetDefaultAccount は指定アドレスをデフォルトに設定する。
	SetDefaultAccount(ctx context.Context, address string) (*account.AccountInfo, error)
	// GetCurrentAccount は認証済みユーザーのアカウント情報を返す。
	GetCurrentAccount(ctx context.Context, user *model.User) (*account.CurrentAccountInfo, error)
	// GetBalanceOfAccount は指定アドレスの残高を返す。
	GetBalanceOfAccount(ctx context.Context, address string) (float64, error)
	// GetBalanceOfCurrentAccount は認証済みユーザーのlambdaウォレット残高を返す。
	GetBalanceOfCurrentAccount(ctx context.Context, user *model.User) (float64, error)
	// GetBalancesOfAllAccounts は全アカウントの残高を並行取得して返す。
	GetBalancesOfAllAccounts(ctx context.Context) (map[string]float64, error)
	// WithdrawFunds は認証済みユーザーのアカウントから出金する。
	WithdrawFunds(ctx context.Context, req account.WithdrawFundsRequest, user *model.User) error
}

// AccountHandler はアカウント管理のHTTPハンドラー。
type AccountHandler struct {
	service AccountServiceInterface
}

// NewAccountHandler はAccountHandlerを生成する。
func NewAccountHandler(service AccountServiceInterface) *AccountHandler {
	return &AccountHandler{
		service: service,
	}
}

// createAccountRequest はアカウント作成リクエストのボディ。
type createAccountRequest struct {
	Address      string `json:"address"`
	PrivateKey   string `json:"privateKey"`
	LambdaWallet string `json:"lambdaWallet"`
	Password     string `json:"password"`
}

// createAccountResponse はアカウント作成のAPIレスポンス。
type createAccountResponse struct {
	Address      string `json:"address"`
	LambdaWallet string `json:"lambdaWallet,omitempty"`
	AccessToken  string `json:"accessToken,omitempty"`
}

// accountResponse はアカウントのAPIレスポンス。秘密鍵は含まない。
type accountResponse struct {
	Address string `json:"address"`
	Default bool   `json:"default"`
}

// currentAccountResponse は認証済みユーザーのアカウント情報レスポンス。
type currentAccountResponse struct {
	LambdaAddress   string `json:"lambdaAddress"`
	EthereumAddress string `json:"ethereumAddress"`
}

// balanceResponse は残高のAPIレスポンス。
type balanceResponse struct {
	Balance float64 `json:"balance"`
}

// withdrawRequest は出金リクエストのボディ。
type withdrawRequest struct {
	Amount float64 `json:"amount"`
}

// CreateAccount はデータバリデータアカウントを作成する。
// POST /api/v3/accounts
func (h *AccountHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("リクエストボディの解析に失敗しました。"))
		return
	}

	if req.Address != "" && req.PrivateKey == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("addressを指定する場合はprivateKeyも必要です。"))
		return
	}
	if req.LambdaWallet != "" && req.Password == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("lambdaWalletを指定する場合はpasswordも必要です。"))
		return
	}

	result, err := h.service.CreateDataValidatorAccount(r.Context(), account.CreateDataValidatorRequest{
		Address:      req.Address,
		PrivateKey:   req.PrivateKey,
		LambdaWallet: req.LambdaWallet,
		Password:     req.Password,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(createAccountResponse{
		Address:      result.Address,
		LambdaWallet: result.LambdaWallet,
		AccessToken:  result.AccessToken,
	})
}

// ListAccounts は全アカウントの一覧を取得する。
// GET /api/v3/accounts
func (h *AccountHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.service.GetAllAccounts(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]accountResponse, len(accounts))
	for i, a := range accounts {
		results[i] = accountResponse{Address: a.Address, Default: a.Default}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(results)
}

// GetCurrentAccount は認証済みユーザーのアカウント情報を取得する。
// GET /api/v3/accounts/current
func (h *AccountHandler) GetCurrentAccount(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.CurrentUserFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	info, err := h.service.GetCurrentAccount(r.Context(), user)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(currentAccountResponse{
		LambdaAddress:   info.LambdaAddress,
		EthereumAddress: info.EthereumAddress,
	})
}

// GetCurrentAccountBalance は認証済みユーザーのlambdaウォレット残高を取得する。
// GET /api/v3/accounts/current/balance
func (h *AccountHandler) GetCurrentAccountBalance(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.CurrentUserFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	balance, err := h.service.GetBalanceOfCurrentAccount(r.Context(), user)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(balanceResponse{Balance: balance})
}

// GetBalances は全アカウントの残高を取得する。
// GET /api/v3/accounts/balances
func (h *AccountHandler) GetBalances(w http.ResponseWriter, r *http.Request) {
	balances, err := h.service.GetBalancesOfAllAccounts(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(balances)
}

// GetBalance は指定アドレスの残高を取得する。
// GET /api/v3/accounts/{address}/balance
func (h *AccountHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	address := chi.URLParam(r, "address")

	balance, err := h.service.GetBalanceOfAccount(r.Context(), address)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(balanceResponse{Balance: balance})
}

// SetDefaultAccount は指定アドレスをデフォルトアカウントに設定する。
// POST /api/v3/accounts/{address}/default
func (h *AccountHandler) SetDefaultAccount(w http.ResponseWriter, r *http.Request) {
	address := chi.URLParam(r, "address")

	info, err := h.service.SetDefaultAccount(r.Context(), address)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(accountResponse{Address: info.Address, Default: info.Default})
}

// GetDefaultAccount はデフォルトアカウントを取得する。
// GET /api/v3/accounts/default
func (h *AccountHandler) GetDefaultAccount(w http.ResponseWriter, r *http.Request) {
	info, err := h.service.GetDefaultAccount(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(accountResponse{Address: info.Address, Default: info.Default})
}

// Withdraw は認証済みユーザーのアカウントから出金する。
// POST /api/v3/accounts/withdraw
func (h *AccountHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.CurrentUserFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req withdrawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("リクエストボディの解析に失敗しました。"))
		return
	}

	if err := h.service.WithdrawFunds(r.Context(), account.WithdrawFundsRequest{Amount: req.Amount}, user); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// apiErrorResponse はAPIエラーレスポンスのボディ。
type apiErrorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(apiErrorResponse{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		statusCode := mapAPIErrorToHTTPStatus(apiErr)
		writeAPIErrorResponse(w, statusCode, apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	})
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeValidation, model.ErrCodeAccountAlreadyRegistered:
		return http.StatusBadRequest
	case model.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case model.ErrCodeInsufficientBalance:
		return http.StatusPaymentRequired
	case model.ErrCodeAccountNotFound, model.ErrCodeUserNotFound, model.ErrCodeNoAccountsRegistered:
		return http.StatusNotFound
	case model.ErrCodeLambdaWalletInUse, model.ErrCodeAccountRoleConflict:
		return http.StatusConflict
	case model.ErrCodeServiceNodeError:
		return http.StatusInternalServerError
	case model.ErrCodeServiceNodeUnavailable, model.ErrCodeWalletGeneratorUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
