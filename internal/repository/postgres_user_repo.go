package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/prom-io/data-validator-node/internal/model"
)

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

// FindByLambdaWallet は指定lambdaウォレットのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByLambdaWallet(ctx context.Context, wallet string) (*model.User, error) {
	user := &model.User{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, lambda_wallet, password_hash, created_at FROM users WHERE lambda_wallet = $1`,
		wallet,
	).Scan(&user.ID, &user.LambdaWallet, &user.PasswordHash, &user.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by lambda wallet: %w", err)
	}

	return user, nil
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	user := &model.User{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, lambda_wallet, password_hash, created_at FROM users WHERE id = $1`,
		id,
	).Scan(&user.ID, &user.LambdaWallet, &user.PasswordHash, &user.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}

	return user, nil
}

// Save はユーザーをidをキーにUPSERTする。
func (r *PostgresUserRepo) Save(ctx context.Context, user *model.User) (*model.User, error) {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, lambda_wallet, password_hash, created_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE SET
		     lambda_wallet = EXCLUDED.lambda_wallet,
		     password_hash = EXCLUDED.password_hash`,
		user.ID, user.LambdaWallet, user.PasswordHash, user.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}

	return user, nil
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
