package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/prom-io/data-validator-node/internal/account"
	"github.com/prom-io/data-validator-node/internal/middleware"
	"github.com/prom-io/data-validator-node/internal/model"
)

// --- モック ---

type mockAccountService struct {
	createFn            func(ctx context.Context, req account.CreateDataValidatorRequest) (*account.CreateDataValidatorResult, error)
	getAllFn            func(ctx context.Context) ([]account.AccountInfo, error)
	getDefaultFn        func(ctx context.Context) (*account.AccountInfo, error)
	setDefaultFn        func(ctx context.Context, address string) (*account.AccountInfo, error)
	getCurrentFn        func(ctx context.Context, user *model.User) (*account.CurrentAccountInfo, error)
	getBalanceFn        func(ctx context.Context, address string) (float64, error)
	getCurrentBalanceFn func(ctx context.Context, user *model.User) (float64, error)
	getBalancesFn       func(ctx context.Context) (map[string]float64, error)
	withdrawFn          func(ctx context.Context, req account.WithdrawFundsRequest, user *model.User) error
}

func (m *mockAccountService) CreateDataValidatorAccount(ctx context.Context, req account.CreateDataValidatorRequest) (*account.CreateDataValidatorResult, error) {
	return m.createFn(ctx, req)
}
func (m *mockAccountService) GetAllAccounts(ctx context.Context) ([]account.AccountInfo, error) {
	return m.getAllFn(ctx)
}
func (m *mockAccountService) GetDefaultAccount(ctx context.Context) (*account.AccountInfo, error) {
	return m.getDefaultFn(ctx)
}
func (m *mockAccountService) SetDefaultAccount(ctx context.Context, address string) (*account.AccountInfo, error) {
	return m.setDefaultFn(ctx, address)
}
func (m *mockAccountService) GetCurrentAccount(ctx context.Context, user *model.User) (*account.CurrentAccountInfo, error) {
	return m.getCurrentFn(ctx, user)
}
func (m *mockAccountService) GetBalanceOfAccount(ctx context.Context, address string) (float64, error) {
	return m.getBalanceFn(ctx, address)
}
func (m *mockAccountService) GetBalanceOfCurrentAccount(ctx context.Context, user *model.User) (float64, error) {
	return m.getCurrentBalanceFn(ctx, user)
}
func (m *mockAccountService) GetBalancesOfAllAccounts(ctx context.Context) (map[string]float64, error) {
	return m.getBalancesFn(ctx)
}
func (m *mockAccountService) WithdrawFunds(ctx context.Context, req account.WithdrawFundsRequest, user *model.User) error {
	return m.withdrawFn(ctx, req, user)
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

// --- テスト ---

// TestAccountHandler_CreateAccount_Success はアカウント作成の201レスポンスを検証する。
func TestAccountHandler_CreateAccount_Success(t *testing.T) {
	svc := &mockAccountService{
		createFn: func(ctx context.Context, req account.CreateDataValidatorRequest) (*account.CreateDataValidatorResult, error) {
			if req.LambdaWallet != "lambda-1" || req.Password != "secret" {
				t.Errorf("req = %+v", req)
			}
			return &account.CreateDataValidatorResult{
				Address:      "0xabc",
				LambdaWallet: "lambda-1",
				AccessToken:  "token-1",
			}, nil
		},
	}
	h := NewAccountHandler(svc)

	body := `{"lambdaWallet":"lambda-1","password":"secret"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v3/accounts", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.CreateAccount(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
	var resp createAccountResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if resp.Address != "0xabc" || resp.AccessToken != "token-1" {
		t.Errorf("resp = %+v", resp)
	}
}

// TestAccountHandler_CreateAccount_InvalidJSON は不正なボディが400になることを検証する。
func TestAccountHandler_CreateAccount_InvalidJSON(t *testing.T) {
	h := NewAccountHandler(&mockAccountService{})

	req := httptest.NewRequest(http.MethodPost, "/api/v3/accounts", strings.NewReader("not json"))
	rec := httptest.NewRecorder()
	h.CreateAccount(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

// TestAccountHandler_CreateAccount_AddressWithoutKey はprivateKeyなしのaddress指定が
// 400になることを検証する。
func TestAccountHandler_CreateAccount_AddressWithoutKey(t *testing.T) {
	h := NewAccountHandler(&mockAccountService{})

	req := httptest.NewRequest(http.MethodPost, "/api/v3/accounts", strings.NewReader(`{"address":"0xabc"}`))
	rec := httptest.NewRecorder()
	h.CreateAccount(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

// TestAccountHandler_CreateAccount_ErrorMapping はサービス層のAPIErrorが
// 期待するHTTPステータスにマッピングされることを検証する。
func TestAccountHandler_CreateAccount_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        *model.APIError
		wantStatus int
	}{
		{"validation", model.NewValidationError("bad"), http.StatusBadRequest},
		{"wallet in use", model.NewLambdaWalletInUseError("lambda-1"), http.StatusConflict},
		{"role conflict", model.NewAccountRoleConflictError("0xabc"), http.StatusConflict},
		{"already registered", model.NewAccountAlreadyRegisteredError("0xabc"), http.StatusBadRequest},
		{"service node error", model.NewServiceNodeStatusError(500), http.StatusInternalServerError},
		{"service node unavailable", model.NewServiceNodeUnavailableError(), http.StatusServiceUnavailable},
		{"wallet generator unavailable", model.NewWalletGeneratorUnavailableError(), http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockAccountService{
				createFn: func(ctx context.Context, req account.CreateDataValidatorRequest) (*account.CreateDataValidatorResult, error) {
					return nil, tt.err
				},
			}
			h := NewAccountHandler(svc)

			req := httptest.NewRequest(http.MethodPost, "/api/v3/accounts", strings.NewReader(`{"lambdaWallet":"lambda-1","password":"p"}`))
			rec := httptest.NewRecorder()
			h.CreateAccount(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var body apiErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("response is not JSON: %v", err)
			}
			if body.Code != tt.err.Code {
				t.Errorf("code = %s, want %s", body.Code, tt.err.Code)
			}
		})
	}
}

// TestAccountHandler_ListAccounts は一覧レスポンスの形式を検証する。
func TestAccountHandler_ListAccounts(t *testing.T) {
	svc := &mockAccountService{
		getAllFn: func(ctx context.Context) ([]account.AccountInfo, error) {
			return []account.AccountInfo{
				{Address: "0xa", Default: true},
				{Address: "0xb"},
			}, nil
		},
	}
	h := NewAccountHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v3/accounts", nil)
	rec := httptest.NewRecorder()
	h.ListAccounts(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp []accountResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if len(resp) != 2 || resp[0].Address != "0xa" || !resp[0].Default {
		t.Errorf("resp = %+v", resp)
	}
}

// TestAccountHandler_GetBalance はURLパラメータのアドレスで残高照会することを検証する。
func TestAccountHandler_GetBalance(t *testing.T) {
	svc := &mockAccountService{
		getBalanceFn: func(ctx context.Context, address string) (float64, error) {
			if address != "0xabc" {
				t.Errorf("address = %s, want 0xabc", address)
			}
			return 12.5, nil
		},
	}
	h := NewAccountHandler(svc)

	req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/v3/accounts/0xabc/balance", nil), "address", "0xabc")
	rec := httptest.NewRecorder()
	h.GetBalance(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp balanceResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if resp.Balance != 12.5 {
		t.Errorf("Balance = %v, want 12.5", resp.Balance)
	}
}

// TestAccountHandler_GetBalances は全残高マップのレスポンスを検証する。
func TestAccountHandler_GetBalances(t *testing.T) {
	svc := &mockAccountService{
		getBalancesFn: func(ctx context.Context) (map[string]float64, error) {
			return map[string]float64{"0xa": 1.0, "0xb": 2.0}, nil
		},
	}
	h := NewAccountHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v3/accounts/balances", nil)
	rec := httptest.NewRecorder()
	h.GetBalances(rec, req)

	var resp map[string]float64
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if resp["0xa"] != 1.0 || resp["0xb"] != 2.0 {
		t.Errorf("resp = %v", resp)
	}
}

// TestAccountHandler_GetDefaultAccount_NotFound はNO_ACCOUNTS_REGISTEREDが
// 404になることを検証する。
func TestAccountHandler_GetDefaultAccount_NotFound(t *testing.T) {
	svc := &mockAccountService{
		getDefaultFn: func(ctx context.Context) (*account.AccountInfo, error) {
			return nil, model.NewNoAccountsRegisteredError()
		},
	}
	h := NewAccountHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v3/accounts/default", nil)
	rec := httptest.NewRecorder()
	h.GetDefaultAccount(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

// TestAccountHandler_SetDefaultAccount はデフォルト設定のレスポンスを検証する。
func TestAccountHandler_SetDefaultAccount(t *testing.T) {
	svc := &mockAccountService{
		setDefaultFn: func(ctx context.Context, address string) (*account.AccountInfo, error) {
			return &account.AccountInfo{Address: address, Default: true}, nil
		},
	}
	h := NewAccountHandler(svc)

	req := withURLParam(httptest.NewRequest(http.MethodPost, "/api/v3/accounts/0xabc/default", nil), "address", "0xabc")
	rec := httptest.NewRecorder()
	h.SetDefaultAccount(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp accountResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if resp.Address != "0xabc" || !resp.Default {
		t.Errorf("resp = %+v", resp)
	}
}

// TestAccountHandler_GetCurrentAccount_Unauthenticated は未認証コンテキストで
// 401になることを検証する。
func TestAccountHandler_GetCurrentAccount_Unauthenticated(t *testing.T) {
	h := NewAccountHandler(&mockAccountService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v3/accounts/current", nil)
	rec := httptest.NewRecorder()
	h.GetCurrentAccount(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

// TestAccountHandler_GetCurrentAccount は認証済みユーザーのアカウント情報を検証する。
func TestAccountHandler_GetCurrentAccount(t *testing.T) {
	svc := &mockAccountService{
		getCurrentFn: func(ctx context.Context, user *model.User) (*account.CurrentAccountInfo, error) {
			return &account.CurrentAccountInfo{LambdaAddress: user.LambdaWallet, EthereumAddress: "0xabc"}, nil
		},
	}
	h := NewAccountHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v3/accounts/current", nil)
	req = req.WithContext(middleware.ContextWithUser(req.Context(), &model.User{ID: "user-1", LambdaWallet: "lambda-1"}))
	rec := httptest.NewRecorder()
	h.GetCurrentAccount(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp currentAccountResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if resp.LambdaAddress != "lambda-1" || resp.EthereumAddress != "0xabc" {
		t.Errorf("resp = %+v", resp)
	}
}

// TestAccountHandler_Withdraw_Success は出金成功が204になることを検証する。
func TestAccountHandler_Withdraw_Success(t *testing.T) {
	svc := &mockAccountService{
		withdrawFn: func(ctx context.Context, req account.WithdrawFundsRequest, user *model.User) error {
			if req.Amount != 5.0 {
				t.Errorf("Amount = %v, want 5.0", req.Amount)
			}
			return nil
		},
	}
	h := NewAccountHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v3/accounts/withdraw", strings.NewReader(`{"amount":5}`))
	req = req.WithContext(middleware.ContextWithUser(req.Context(), &model.User{ID: "user-1"}))
	rec := httptest.NewRecorder()
	h.Withdraw(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
}

// TestAccountHandler_Withdraw_InsufficientBalance は残高不足が402になることを検証する。
func TestAccountHandler_Withdraw_InsufficientBalance(t *testing.T) {
	svc := &mockAccountService{
		withdrawFn: func(ctx context.Context, req account.WithdrawFundsRequest, user *model.User) error {
			return model.NewInsufficientBalanceError()
		},
	}
	h := NewAccountHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v3/accounts/withdraw", strings.NewReader(`{"amount":100}`))
	req = req.WithContext(middleware.ContextWithUser(req.Context(), &model.User{ID: "user-1"}))
	rec := httptest.NewRecorder()
	h.Withdraw(rec, req)

	if rec.Code != http.StatusPaymentRequired {
		t.Errorf("status = %d, want 402", rec.Code)
	}
}
