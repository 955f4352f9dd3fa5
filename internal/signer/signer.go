// Package signer はアカウント登録ペイロードへのECDSA署名を提供する。
package signer

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/prom-io/data-validator-node/internal/servicenode"
)

// Signer は登録ペイロードのkeccak256ダイジェストにsecp256k1署名を生成する。
type Signer struct{}

// New はSignerを生成する。
func New() *Signer {
	return &Signer{}
}

// Sign は署名欄を空にしたペイロードの正規化JSONをkeccak256でハッシュし、
// 秘密鍵で署名してhex文字列で返す。秘密鍵は"0x"プレフィックス付きでも受け付ける。
func (s *Signer) Sign(payload servicenode.RegisterAccountPayload, privateKeyHex string) (string, error) {
	payload.Signature = ""

	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("ペイロードのエンコードに失敗しました: %w", err)
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return "", fmt.Errorf("秘密鍵のパースに失敗しました: %w", err)
	}

	signature, err := crypto.Sign(crypto.Keccak256(data), key)
	if err != nil {
		return "", fmt.Errorf("署名の生成に失敗しました: %w", err)
	}

	return "0x" + hex.EncodeToString(signature), nil
}

// AddressFromPrivateKey は秘密鍵に対応するアドレスを導出する。
// 呼び出し元が指定したアドレスと秘密鍵の組の整合性確認に使用する。
func AddressFromPrivateKey(privateKeyHex string) (string, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return "", fmt.Errorf("秘密鍵のパースに失敗しました: %w", err)
	}
	return crypto.PubkeyToAddress(key.PublicKey).Hex(), nil
}
