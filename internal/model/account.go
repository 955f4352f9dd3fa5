// Package model はドメインモデルを定義する。
package model

import "time"

// AccountRole はサービスノードが認識するアカウントのロールを表す。
type AccountRole string

const (
	// RoleDataValidator はデータバリデータとして動作可能なアカウントを示す。
	RoleDataValidator AccountRole = "DATA_VALIDATOR"
	// RoleDataMart はデータマートとして登録済みのアカウントを示す。
	RoleDataMart AccountRole = "DATA_MART"
	// RoleServiceNode はサービスノード自身のアカウントを示す。
	RoleServiceNode AccountRole = "SERVICE_NODE"
)

// Account はこのノードが管理するデータバリデータアカウントを表す。
// PrivateKeyはローカル署名と永続化にのみ使用し、外部サービスへ送信したり
// ログに出力したりしてはならない。
type Account struct {
	Address    string
	PrivateKey string
	Default    bool
	UserID     string // 紐付くユーザーのID。紐付きがない場合は空文字列
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// User はlambdaウォレットで識別されるローカルユーザーを表す。
// lambdaウォレットはユーザー間で一意。
type User struct {
	ID           string
	LambdaWallet string
	PasswordHash string
	CreatedAt    time.Time
}
