package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/prom-io/data-validator-node/internal/model"
)

// PostgresAccountRepo はPostgreSQLを使用したアカウントリポジトリ。
type PostgresAccountRepo struct {
	db *sql.DB
}

// NewPostgresAccountRepo はPostgresAccountRepoを生成する。
func NewPostgresAccountRepo(db *sql.DB) *PostgresAccountRepo {
	return &PostgresAccountRepo{db: db}
}

const accountColumns = `address, private_key, is_default, COALESCE(user_id, ''), created_at, updated_at`

// scanAccount は1行分のアカウントをスキャンする。
func scanAccount(row interface{ Scan(...any) error }) (*model.Account, error) {
	account := &model.Account{}
	err := row.Scan(
		&account.Address, &account.PrivateKey, &account.Default,
		&account.UserID, &account.CreatedAt, &account.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return account, nil
}

// FindAll は全アカウントをcreated_at, addressの昇順で取得する。
// デフォルトアカウントの自己修復が決定的になるよう順序を固定している。
func (r *PostgresAccountRepo) FindAll(ctx context.Context) ([]*model.Account, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM accounts ORDER BY created_at, address`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*model.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate accounts: %w", err)
	}

	return accounts, nil
}

// FindByAddress は指定アドレスのアカウントを取得する。見つからない場合はnilを返す。
func (r *PostgresAccountRepo) FindByAddress(ctx context.Context, address string) (*model.Account, error) {
	account, err := scanAccount(r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE address = $1`,
		address,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find account by address: %w", err)
	}

	return account, nil
}

// FindByUserID は指定ユーザーに紐付くアカウント一覧を取得する。
func (r *PostgresAccountRepo) FindByUserID(ctx context.Context, userID string) ([]*model.Account, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE user_id = $1 ORDER BY created_at, address`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts by user ID: %w", err)
	}
	defer rows.Close()

	var accounts []*model.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate accounts: %w", err)
	}

	return accounts, nil
}

// Save はアカウントをaddressをキーにUPSERTする。
func (r *PostgresAccountRepo) Save(ctx context.Context, account *model.Account) (*model.Account, error) {
	now := time.Now()
	if account.CreatedAt.IsZero() {
		account.CreatedAt = now
	}
	account.UpdatedAt = now

	// user_idは空文字列をNULLとして保存する（外部キー制約のため）
	var userID sql.NullString
	if account.UserID != "" {
		userID = sql.NullString{String: account.UserID, Valid: true}
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (address, private_key, is_default, user_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (address) DO UPDATE SET
		     private_key = EXCLUDED.private_key,
		     is_default  = EXCLUDED.is_default,
		     user_id     = EXCLUDED.user_id,
		     updated_at  = EXCLUDED.updated_at`,
		account.Address, account.PrivateKey, account.Default, userID,
		account.CreatedAt, account.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert account: %w", err)
	}

	return account, nil
}

// SetDefault は指定アドレスのアカウントをデフォルトに設定し、
// 他のアカウントのデフォルトフラグを同一トランザクションで解除する。
// 指定アドレスが存在しない場合はnilを返す。
func (r *PostgresAccountRepo) SetDefault(ctx context.Context, address string) (*model.Account, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE accounts SET is_default = TRUE, updated_at = now() WHERE address = $1`,
		address,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to set default account: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return nil, nil
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE accounts SET is_default = FALSE, updated_at = now() WHERE is_default AND address <> $1`,
		address,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to clear previous default account: %w", err)
	}

	account, err := scanAccount(tx.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE address = $1`,
		address,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to reload default account: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return account, nil
}

// compile-time interface check
var _ AccountRepository = (*PostgresAccountRepo)(nil)
