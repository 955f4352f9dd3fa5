package walletgen

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// TestClient_GenerateWallet はBasic認証付きのリクエストとレスポンスの
// デコードを検証する。
func TestClient_GenerateWallet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/wallets/generate" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		username, password, ok := r.BasicAuth()
		if !ok || username != "api-user" || password != "api-pass" {
			t.Errorf("basic auth = (%s, %s, %v)", username, password, ok)
		}
		json.NewEncoder(w).Encode(map[string]string{
			"address":    "0xabc",
			"privateKey": "0xkey",
		})
	}))
	defer server.Close()

	client := NewClient(server.Client(), newTestLogger(), server.URL, "api-user", "api-pass")

	wallet, err := client.GenerateWallet(context.Background())
	if err != nil {
		t.Fatalf("GenerateWallet returned error: %v", err)
	}
	if wallet.Address != "0xabc" {
		t.Errorf("Address = %s, want 0xabc", wallet.Address)
	}
	if wallet.PrivateKey != "0xkey" {
		t.Errorf("PrivateKey = %s, want 0xkey", wallet.PrivateKey)
	}
}

// TestClient_GenerateWallet_ErrorStatus はエラーステータスが失敗として
// 報告されることを検証する。
func TestClient_GenerateWallet_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient(server.Client(), newTestLogger(), server.URL, "wrong", "wrong")

	if _, err := client.GenerateWallet(context.Background()); err == nil {
		t.Fatal("expected error for 401 response")
	}
}

// TestClient_GenerateWallet_IncompleteResponse はアドレスまたは秘密鍵が欠けた
// レスポンスが拒否されることを検証する。
func TestClient_GenerateWallet_IncompleteResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"address": "0xabc"})
	}))
	defer server.Close()

	client := NewClient(server.Client(), newTestLogger(), server.URL, "u", "p")

	if _, err := client.GenerateWallet(context.Background()); err == nil {
		t.Fatal("expected error for incomplete response")
	}
}

// TestClient_GenerateWallet_Unreachable は接続障害が失敗として報告されることを検証する。
func TestClient_GenerateWallet_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := NewClient(&http.Client{}, newTestLogger(), server.URL, "u", "p")

	if _, err := client.GenerateWallet(context.Background()); err == nil {
		t.Fatal("expected error for closed server")
	}
}
