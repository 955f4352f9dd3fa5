// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/prom-io/data-validator-node/internal/model"
)

// AccountRepository はアカウントデータの永続化インターフェース。
type AccountRepository interface {
	// FindAll は全アカウントをcreated_at, addressの昇順で取得する。
	FindAll(ctx context.Context) ([]*model.Account, error)

	// FindByAddress は指定アドレスのアカウントを取得する。見つからない場合はnilを返す。
	FindByAddress(ctx context.Context, address string) (*model.Account, error)

	// FindByUserID は指定ユーザーに紐付くアカウント一覧を取得する。
	FindByUserID(ctx context.Context, userID string) ([]*model.Account, error)

	// Save はアカウントをaddressをキーにUPSERTする。
	Save(ctx context.Context, account *model.Account) (*model.Account, error)

	// SetDefault は指定アドレスのアカウントをデフォルトに設定し、
	// 他のアカウントのデフォルトフラグを同一トランザクションで解除する。
	// 保存後のアカウントを返す。指定アドレスが存在しない場合はnilを返す。
	SetDefault(ctx context.Context, address string) (*model.Account, error)
}

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByLambdaWallet は指定lambdaウォレットのユーザーを取得する。見つからない場合はnilを返す。
	FindByLambdaWallet(ctx context.Context, wallet string) (*model.User, error)

	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// Save はユーザーをidをキーにUPSERTする。
	Save(ctx context.Context, user *model.User) (*model.User, error)
}
