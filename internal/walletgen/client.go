// Package walletgen は外部のウォレット生成サービスとの連携機能を提供する。
package walletgen

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// Wallet は生成されたアドレスと秘密鍵のペアを表す。
// PrivateKeyはレスポンスの受け取り以降、外部に送信してはならない。
type Wallet struct {
	Address    string `json:"address"`
	PrivateKey string `json:"privateKey"`
}

// Client はウォレット生成APIのクライアント。
// APIはBasic認証で保護されている。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	baseURL    string
	username   string
	password   string
}

// NewClient はClientの新しいインスタンスを生成する。
func NewClient(httpClient *http.Client, logger *slog.Logger, baseURL, username, password string) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		baseURL:    baseURL,
		username:   username,
		password:   password,
	}
}

// GenerateWallet は新しいアドレスと秘密鍵のペアを生成する。
func (c *Client) GenerateWallet(ctx context.Context) (*Wallet, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/wallets/generate", nil)
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(c.username, c.password)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("ウォレット生成APIの呼び出しに失敗しました",
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("ウォレット生成APIの呼び出しに失敗しました: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		c.logger.Error("ウォレット生成APIがエラーステータスを返しました",
			slog.Int("http_status", resp.StatusCode),
		)
		return nil, fmt.Errorf("ウォレット生成APIがステータス %d を返しました", resp.StatusCode)
	}

	wallet := &Wallet{}
	if err := json.NewDecoder(resp.Body).Decode(wallet); err != nil {
		c.logger.Error("ウォレット生成APIのレスポンスのパースに失敗しました",
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("レスポンスJSONのパースに失敗しました: %w", err)
	}

	if wallet.Address == "" || wallet.PrivateKey == "" {
		return nil, fmt.Errorf("ウォレット生成APIが不完全なレスポンスを返しました")
	}

	return wallet, nil
}
