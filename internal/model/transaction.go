package model

import "time"

// TransactionType はlambdaウォレットとシステムウォレット間の資金移動の種別を表す。
type TransactionType string

const (
	// TransactionTypeLock はユーザーウォレットからシステムウォレットへの移動（ロック）を示す。
	TransactionTypeLock TransactionType = "LOCK"
	// TransactionTypeUnlock はシステムウォレットからユーザーウォレットへの移動（アンロック）を示す。
	TransactionTypeUnlock TransactionType = "UNLOCK"
)

// Transaction は分類・正規化済みのトランザクションを表す。
// Valueはリモート台帳のマイクロ単位を10^6で割った値。
type Transaction struct {
	Hash      string
	Type      TransactionType
	Value     float64
	CreatedAt time.Time
}
