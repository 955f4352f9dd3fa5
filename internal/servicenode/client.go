// Package servicenode はリモートのサービスノード（台帳レジストラ）との連携機能を提供する。
// アカウント登録状態の照会、登録、残高照会、出金、トランザクション履歴の取得を含む。
package servicenode

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// StatusError はサービスノードがエラーステータスを返したことを表す。
// トランスポート障害（接続不可・タイムアウト）はこの型にならず、
// 通常のラップ済みエラーとして返る。呼び出し元はerrors.Asで判別する。
type StatusError struct {
	StatusCode int
}

// Error はerrorインターフェースを実装する。
func (e *StatusError) Error() string {
	return fmt.Sprintf("service node returned status %d", e.StatusCode)
}

// RegistrationStatus はアドレスの登録状態を表す。
type RegistrationStatus struct {
	Registered bool   `json:"registered"`
	Role       string `json:"role,omitempty"`
}

// walletRegistrationStatus はlambdaウォレットの登録状態のレスポンス。
type walletRegistrationStatus struct {
	Registered bool `json:"registered"`
}

// balanceResponse は残高照会のレスポンス。
type balanceResponse struct {
	Balance float64 `json:"balance"`
}

// RegisterAccountPayload はアカウント登録リクエストのペイロード。
// Signatureは署名欄を除いたペイロードへのECDSA署名。
type RegisterAccountPayload struct {
	Address      string `json:"address"`
	Type         string `json:"type"`
	LambdaWallet string `json:"lambdaWallet,omitempty"`
	Signature    string `json:"signature,omitempty"`
}

// withdrawFundsPayload は出金リクエストのペイロード。
type withdrawFundsPayload struct {
	Address string  `json:"address"`
	Amount  float64 `json:"amount"`
}

// LambdaTransaction はサービスノードが返すlambdaチェーン上の生トランザクション。
// Amountはマイクロ単位の整数。
type LambdaTransaction struct {
	Hash      string    `json:"hash"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Amount    int64     `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
}

// MetricsRecorder はサービスノード呼び出しのメトリクス記録インターフェース。
type MetricsRecorder interface {
	RecordServiceNodeCall(operation string, outcome string, duration time.Duration)
}

// noopMetrics は何も記録しないMetricsRecorder。
type noopMetrics struct{}

func (noopMetrics) RecordServiceNodeCall(string, string, time.Duration) {}

// Client はサービスノードAPIのクライアント。
// タイムアウトポリシーは注入されたhttp.Clientが持つ。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	baseURL    string
	metrics    MetricsRecorder
}

// NewClient はClientの新しいインスタンスを生成する。
// metricsにnilを渡した場合はメトリクスを記録しない。
func NewClient(httpClient *http.Client, logger *slog.Logger, baseURL string, metrics MetricsRecorder) *Client {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		baseURL:    baseURL,
		metrics:    metrics,
	}
}

// IsAccountRegistered は指定アドレスの登録状態を照会する。
func (c *Client) IsAccountRegistered(ctx context.Context, address string) (*RegistrationStatus, error) {
	status := &RegistrationStatus{}
	err := c.doJSON(ctx, "is_account_registered", http.MethodGet,
		fmt.Sprintf("/api/v1/accounts/%s/registration-status", address), nil, status)
	if err != nil {
		return nil, err
	}
	return status, nil
}

// IsLambdaWalletRegistered は指定lambdaウォレットの登録状態を照会する。
func (c *Client) IsLambdaWalletRegistered(ctx context.Context, wallet string) (bool, error) {
	status := &walletRegistrationStatus{}
	err := c.doJSON(ctx, "is_lambda_wallet_registered", http.MethodGet,
		fmt.Sprintf("/api/v1/wallets/%s/registration-status", wallet), nil, status)
	if err != nil {
		return false, err
	}
	return status.Registered, nil
}

// RegisterAccount はアカウント登録リクエストを送信する。
// サービスノードが重複登録を検知した場合は400のStatusErrorが返る。
func (c *Client) RegisterAccount(ctx context.Context, payload RegisterAccountPayload) error {
	return c.doJSON(ctx, "register_account", http.MethodPost, "/api/v1/accounts", payload, nil)
}

// GetBalanceOfAccount は指定アドレスの残高を取得する。
func (c *Client) GetBalanceOfAccount(ctx context.Context, address string) (float64, error) {
	balance := &balanceResponse{}
	err := c.doJSON(ctx, "get_balance_of_account", http.MethodGet,
		fmt.Sprintf("/api/v1/accounts/%s/balance", address), nil, balance)
	if err != nil {
		return 0, err
	}
	return balance.Balance, nil
}

// GetBalanceOfLambdaWallet は指定lambdaウォレットの残高を取得する。
func (c *Client) GetBalanceOfLambdaWallet(ctx context.Context, wallet string) (float64, error) {
	balance := &balanceResponse{}
	err := c.doJSON(ctx, "get_balance_of_lambda_wallet", http.MethodGet,
		fmt.Sprintf("/api/v1/wallets/%s/balance", wallet), nil, balance)
	if err != nil {
		return 0, err
	}
	return balance.Balance, nil
}

// WithdrawFunds は指定アドレスからの出金リクエストを送信する。
func (c *Client) WithdrawFunds(ctx context.Context, address string, amount float64) error {
	return c.doJSON(ctx, "withdraw_funds", http.MethodPost, "/api/v1/withdrawals",
		withdrawFundsPayload{Address: address, Amount: amount}, nil)
}

// GetTransactionsOfLambdaWallet は指定lambdaウォレットのトランザクション履歴を取得する。
func (c *Client) GetTransactionsOfLambdaWallet(ctx context.Context, wallet string) ([]LambdaTransaction, error) {
	var transactions []LambdaTransaction
	err := c.doJSON(ctx, "get_transactions_of_lambda_wallet", http.MethodGet,
		fmt.Sprintf("/api/v1/wallets/%s/transactions", wallet), nil, &transactions)
	if err != nil {
		return nil, err
	}
	return transactions, nil
}

// doJSON はJSONリクエストを実行し、レスポンスをoutにデコードする。
// bodyがnilでない場合はJSONエンコードして送信する。outがnilの場合はボディを破棄する。
// 2xx以外のステータスはStatusErrorとして返す。
func (c *Client) doJSON(ctx context.Context, operation, method, path string, body any, out any) error {
	start := time.Now()

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("リクエストボディのエンコードに失敗しました: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("サービスノードAPIの呼び出しに失敗しました",
			slog.String("operation", operation),
			slog.String("error", err.Error()),
		)
		c.metrics.RecordServiceNodeCall(operation, "unreachable", time.Since(start))
		return fmt.Errorf("サービスノードAPIの呼び出しに失敗しました: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// エラーボディは読み捨てる。内容を上位に伝播させない
		io.Copy(io.Discard, resp.Body)
		c.logger.Error("サービスノードAPIがエラーステータスを返しました",
			slog.String("operation", operation),
			slog.Int("http_status", resp.StatusCode),
		)
		c.metrics.RecordServiceNodeCall(operation, "error_status", time.Since(start))
		return &StatusError{StatusCode: resp.StatusCode}
	}

	if out == nil {
		// コネクション再利用のためボディを読み捨てる
		io.Copy(io.Discard, resp.Body)
	} else {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			c.logger.Error("サービスノードAPIのレスポンスのパースに失敗しました",
				slog.String("operation", operation),
				slog.String("error", err.Error()),
			)
			c.metrics.RecordServiceNodeCall(operation, "decode_error", time.Since(start))
			return fmt.Errorf("レスポンスJSONのパースに失敗しました: %w", err)
		}
	}

	c.metrics.RecordServiceNodeCall(operation, "success", time.Since(start))
	return nil
}
