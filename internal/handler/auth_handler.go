package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/prom-io/data-validator-node/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	// Login はlambdaウォレットとパスワードを検証し、アクセストークンを発行する。
	Login(ctx context.Context, lambdaWallet, password string) (string, error)
}

// AuthHandler は認証のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface) *AuthHandler {
	return &AuthHandler{
		service: service,
	}
}

// loginRequest はログインリクエストのボディ。
type loginRequest struct {
	LambdaWallet string `json:"lambdaWallet"`
	Password     string `json:"password"`
}

// loginResponse はログインのAPIレスポンス。
type loginResponse struct {
	AccessToken string `json:"accessToken"`
}

// Login はlambdaウォレットとパスワードでログインする。
// POST /api/v3/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("リクエストボディの解析に失敗しました。"))
		return
	}

	if req.LambdaWallet == "" || req.Password == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("lambdaWalletとpasswordは必須です。"))
		return
	}

	token, err := h.service.Login(r.Context(), req.LambdaWallet, req.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(loginResponse{AccessToken: token})
}
