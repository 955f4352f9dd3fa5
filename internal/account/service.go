// Package account はデータバリデータアカウントの登録・管理のドメインロジックを提供する。
// アカウント作成サーガ、デフォルトアカウント維持、残高集約、出金フローを含む。
package account

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/prom-io/data-validator-node/internal/model"
	"github.com/prom-io/data-validator-node/internal/repository"
	"github.com/prom-io/data-validator-node/internal/servicenode"
	"github.com/prom-io/data-validator-node/internal/walletgen"
)

// RegistrarClient はサービスノードに対するアカウント操作のインターフェース。
// servicenode.Clientの部分集合として定義する。
type RegistrarClient interface {
	IsAccountRegistered(ctx context.Context, address string) (*servicenode.RegistrationStatus, error)
	IsLambdaWalletRegistered(ctx context.Context, wallet string) (bool, error)
	RegisterAccount(ctx context.Context, payload servicenode.RegisterAccountPayload) error
	GetBalanceOfAccount(ctx context.Context, address string) (float64, error)
	GetBalanceOfLambdaWallet(ctx context.Context, wallet string) (float64, error)
	WithdrawFunds(ctx context.Context, address string, amount float64) error
}

// WalletGenerator はウォレット生成のインターフェース。
type WalletGenerator interface {
	GenerateWallet(ctx context.Context) (*walletgen.Wallet, error)
}

// PayloadSigner は登録ペイロードへの署名生成のインターフェース。
type PayloadSigner interface {
	Sign(payload servicenode.RegisterAccountPayload, privateKeyHex string) (string, error)
}

// PasswordHasher はパスワードのハッシュ化のインターフェース。
type PasswordHasher interface {
	Hash(password string) (string, error)
}

// TokenIssuer はユーザーへのアクセストークン発行のインターフェース。
type TokenIssuer interface {
	Issue(user *model.User) (string, error)
}

// MetricsRecorder はアカウント操作のメトリクス記録インターフェース。
type MetricsRecorder interface {
	RecordAccountCreated()
	RecordWithdrawal()
}

// noopMetrics は何も記録しないMetricsRecorder。
type noopMetrics struct{}

func (noopMetrics) RecordAccountCreated() {}
func (noopMetrics) RecordWithdrawal()     {}

// CreateDataValidatorRequest はデータバリデータアカウント作成リクエストを表す。
// AddressとLambdaWalletの少なくとも一方が必須。Addressを指定する場合は
// PrivateKeyも必須、LambdaWalletを指定する場合はPasswordも必須。
type CreateDataValidatorRequest struct {
	Address      string
	PrivateKey   string
	LambdaWallet string
	Password     string
}

// CreateDataValidatorResult はアカウント作成の結果を表す。
// AccessTokenはユーザーを新規作成した場合のみ設定される。
type CreateDataValidatorResult struct {
	Address      string
	LambdaWallet string
	AccessToken  string
}

// AccountInfo はアカウントの公開表現。秘密鍵は含まない。
type AccountInfo struct {
	Address string
	Default bool
}

// CurrentAccountInfo は認証済みユーザーのアカウント情報を表す。
type CurrentAccountInfo struct {
	LambdaAddress   string
	EthereumAddress string
}

// WithdrawFundsRequest は出金リクエストを表す。
type WithdrawFundsRequest struct {
	Amount float64
}

// Service はアカウント登録・管理のサービス層。
type Service struct {
	accountRepo repository.AccountRepository
	userRepo    repository.UserRepository
	registrar   RegistrarClient
	walletGen   WalletGenerator
	signer      PayloadSigner
	hasher      PasswordHasher
	issuer      TokenIssuer
	metrics     MetricsRecorder
}

// NewService はServiceの新しいインスタンスを生成する。
// metricsにnilを渡した場合はメトリクスを記録しない。
func NewService(
	accountRepo repository.AccountRepository,
	userRepo repository.UserRepository,
	registrar RegistrarClient,
	walletGen WalletGenerator,
	signer PayloadSigner,
	hasher PasswordHasher,
	issuer TokenIssuer,
	metrics MetricsRecorder,
) *Service {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &Service{
		accountRepo: accountRepo,
		userRepo:    userRepo,
		registrar:   registrar,
		walletGen:   walletGen,
		signer:      signer,
		hasher:      hasher,
		issuer:      issuer,
		metrics:     metrics,
	}
}

// CreateDataValidatorAccount はデータバリデータアカウントを作成する。
//
// 分散トランザクションを使わない逐次サーガとして実行する。各ステップは
// 冪等であるか、事前チェックで保護されている。永続化の順序は
// リモート登録成功 → ユーザー保存 → アカウント保存に固定しており、
// 到達しうる不整合は「リモートには登録済みだがローカルに記録がない」のみ。
// この状態は再実行時の採用（adoption）分岐で修復される。
//
// 同一アドレスに対する並行呼び出しは排他しない。両方が「未登録」を観測して
// 登録を試みた場合、サービスノード側の一意性チェックで敗者に400が返り、
// ACCOUNT_ALREADY_REGISTEREDとして報告される。
func (s *Service) CreateDataValidatorAccount(ctx context.Context, req CreateDataValidatorRequest) (*CreateDataValidatorResult, error) {
	if req.Address == "" && req.LambdaWallet == "" {
		return nil, model.NewValidationError("lambdaWalletまたはaddressのいずれかを指定してください。")
	}

	// デフォルトアカウントの有無は、いかなる変更よりも前に1回だけ確定させる
	isFirstAccount, err := s.hasNoDefaultAccount(ctx)
	if err != nil {
		return nil, err
	}

	// lambdaウォレットが指定された場合はユーザーをメモリ上に構築する。
	// 永続化はリモート登録の成功後まで遅延させる
	var user *model.User
	if req.LambdaWallet != "" {
		existing, err := s.userRepo.FindByLambdaWallet(ctx, req.LambdaWallet)
		if err != nil {
			return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
		}
		if existing != nil {
			return nil, model.NewLambdaWalletInUseError(req.LambdaWallet)
		}

		registered, err := s.registrar.IsLambdaWalletRegistered(ctx, req.LambdaWallet)
		if err != nil {
			return nil, classifyServiceNodeError(err)
		}
		if registered {
			return nil, model.NewLambdaWalletInUseError(req.LambdaWallet)
		}

		passwordHash, err := s.hasher.Hash(req.Password)
		if err != nil {
			return nil, err
		}
		user = &model.User{
			ID:           uuid.NewString(),
			LambdaWallet: req.LambdaWallet,
			PasswordHash: passwordHash,
		}
	}

	// アドレス未指定の場合はウォレット生成サービスから新しいペアを取得する
	if req.Address == "" {
		wallet, err := s.walletGen.GenerateWallet(ctx)
		if err != nil {
			return nil, s.classifyWalletGeneratorError(err)
		}
		req.Address = wallet.Address
		req.PrivateKey = wallet.PrivateKey
	}

	status, err := s.registrar.IsAccountRegistered(ctx, req.Address)
	if err != nil {
		return nil, classifyServiceNodeError(err)
	}

	if status.Registered {
		if status.Role != string(model.RoleDataValidator) {
			return nil, model.NewAccountRoleConflictError(req.Address)
		}

		// 採用: リモートで登録済みのデータバリデータをローカルに記録する。
		// Saveはaddressをキーにしたupsertのため再実行しても重複しない
		if _, err := s.accountRepo.Save(ctx, &model.Account{
			Address:    req.Address,
			PrivateKey: req.PrivateKey,
			Default:    isFirstAccount,
		}); err != nil {
			return nil, fmt.Errorf("アカウントの保存に失敗しました: %w", err)
		}

		return &CreateDataValidatorResult{Address: req.Address}, nil
	}

	payload := servicenode.RegisterAccountPayload{
		Address:      req.Address,
		Type:         string(model.RoleDataValidator),
		LambdaWallet: req.LambdaWallet,
	}
	signature, err := s.signer.Sign(payload, req.PrivateKey)
	if err != nil {
		return nil, err
	}
	payload.Signature = signature

	if err := s.registrar.RegisterAccount(ctx, payload); err != nil {
		var statusErr *servicenode.StatusError
		if errors.As(err, &statusErr) {
			// 400はサービスノードの一意性チェックによる重複検知として再解釈する
			if statusErr.StatusCode == 400 {
				return nil, model.NewAccountAlreadyRegisteredError(req.Address)
			}
			return nil, model.NewServiceNodeStatusError(statusErr.StatusCode)
		}
		return nil, model.NewServiceNodeUnavailableError()
	}

	var userID string
	if user != nil {
		if _, err := s.userRepo.Save(ctx, user); err != nil {
			return nil, fmt.Errorf("ユーザーの保存に失敗しました: %w", err)
		}
		userID = user.ID
	}

	if _, err := s.accountRepo.Save(ctx, &model.Account{
		Address:    req.Address,
		PrivateKey: req.PrivateKey,
		Default:    isFirstAccount,
		UserID:     userID,
	}); err != nil {
		return nil, fmt.Errorf("アカウントの保存に失敗しました: %w", err)
	}

	s.metrics.RecordAccountCreated()

	result := &CreateDataValidatorResult{
		Address:      req.Address,
		LambdaWallet: req.LambdaWallet,
	}
	if user != nil {
		token, err := s.issuer.Issue(user)
		if err != nil {
			return nil, fmt.Errorf("アクセストークンの発行に失敗しました: %w", err)
		}
		result.AccessToken = token
	}

	return result, nil
}

// GetAllAccounts は全アカウントの公開表現一覧を返す。
func (s *Service) GetAllAccounts(ctx context.Context) ([]AccountInfo, error) {
	accounts, err := s.accountRepo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("アカウント一覧の取得に失敗しました: %w", err)
	}

	results := make([]AccountInfo, len(accounts))
	for i, account := range accounts {
		results[i] = toAccountInfo(account)
	}
	return results, nil
}

// GetDefaultAccount はデフォルトアカウントを返す。
// デフォルトフラグを持つアカウントが存在しない場合は、取得順の先頭の
// アカウントをデフォルトに昇格して永続化する（遅延自己修復）。
// FindAllの順序は固定のため、修復結果は再実行しても安定する。
func (s *Service) GetDefaultAccount(ctx context.Context) (*AccountInfo, error) {
	accounts, err := s.accountRepo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("アカウント一覧の取得に失敗しました: %w", err)
	}
	if len(accounts) == 0 {
		return nil, model.NewNoAccountsRegisteredError()
	}

	for _, account := range accounts {
		if account.Default {
			info := toAccountInfo(account)
			return &info, nil
		}
	}

	repaired := accounts[0]
	repaired.Default = true
	if _, err := s.accountRepo.Save(ctx, repaired); err != nil {
		return nil, fmt.Errorf("デフォルトアカウントの修復に失敗しました: %w", err)
	}

	info := toAccountInfo(repaired)
	return &info, nil
}

// SetDefaultAccount は指定アドレスのアカウントをデフォルトに設定する。
// 以前のデフォルトアカウントのフラグはリポジトリ側で同一トランザクション内に
// 解除されるため、デフォルトは常に高々1件に保たれる。
func (s *Service) SetDefaultAccount(ctx context.Context, address string) (*AccountInfo, error) {
	account, err := s.accountRepo.SetDefault(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("デフォルトアカウントの設定に失敗しました: %w", err)
	}
	if account == nil {
		return nil, model.NewAccountNotFoundError(address)
	}

	info := toAccountInfo(account)
	return &info, nil
}

// GetCurrentAccount は認証済みユーザーのアカウント情報を返す。
func (s *Service) GetCurrentAccount(ctx context.Context, user *model.User) (*CurrentAccountInfo, error) {
	accounts, err := s.accountRepo.FindByUserID(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("アカウントの取得に失敗しました: %w", err)
	}
	if len(accounts) == 0 {
		return nil, model.NewUserNotFoundError()
	}

	return &CurrentAccountInfo{
		LambdaAddress:   user.LambdaWallet,
		EthereumAddress: accounts[0].Address,
	}, nil
}

// GetBalanceOfAccount は指定アドレスの残高をサービスノードから取得する。
func (s *Service) GetBalanceOfAccount(ctx context.Context, address string) (float64, error) {
	balance, err := s.registrar.GetBalanceOfAccount(ctx, address)
	if err != nil {
		return 0, classifyServiceNodeError(err)
	}
	return balance, nil
}

// GetBalanceOfCurrentAccount は認証済みユーザーのlambdaウォレット残高を取得する。
func (s *Service) GetBalanceOfCurrentAccount(ctx context.Context, user *model.User) (float64, error) {
	balance, err := s.registrar.GetBalanceOfLambdaWallet(ctx, user.LambdaWallet)
	if err != nil {
		return 0, classifyServiceNodeError(err)
	}
	return balance, nil
}

// GetBalancesOfAllAccounts は全ローカルアカウントの残高を並行に取得し、
// アドレスから残高へのマップで返す。いずれかの取得が失敗した場合は
// 集約全体を失敗させ、部分的なマップは返さない。
func (s *Service) GetBalancesOfAllAccounts(ctx context.Context) (map[string]float64, error) {
	accounts, err := s.accountRepo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("アカウント一覧の取得に失敗しました: %w", err)
	}

	balances := make(map[string]float64, len(accounts))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	for _, account := range accounts {
		g.Go(func() error {
			balance, err := s.registrar.GetBalanceOfAccount(ctx, account.Address)
			if err != nil {
				return classifyServiceNodeError(err)
			}
			mu.Lock()
			balances[account.Address] = balance
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return balances, nil
}

// WithdrawFunds は認証済みユーザーのアカウントから出金する。
// 出金前にリモート台帳の残高を確認し、不足している場合はサービスノードを
// 呼び出さずに失敗させる。残高確認は資金を予約しないため、並行する出金とは
// 競合しうる。最終的な正当性はサービスノード側の検証に委ねる。
func (s *Service) WithdrawFunds(ctx context.Context, req WithdrawFundsRequest, user *model.User) error {
	if req.Amount <= 0 {
		return model.NewValidationError("出金額は正の数で指定してください。")
	}

	accounts, err := s.accountRepo.FindByUserID(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("アカウントの取得に失敗しました: %w", err)
	}
	if len(accounts) == 0 {
		return model.NewUserNotFoundError()
	}
	account := accounts[0]

	balance, err := s.registrar.GetBalanceOfAccount(ctx, account.Address)
	if err != nil {
		return classifyServiceNodeError(err)
	}
	if req.Amount > balance {
		return model.NewInsufficientBalanceError()
	}

	if err := s.registrar.WithdrawFunds(ctx, account.Address, req.Amount); err != nil {
		// 残高確認後の拒否は想定外のため内部エラー、到達失敗は一時障害として区別する
		var statusErr *servicenode.StatusError
		if errors.As(err, &statusErr) {
			return model.NewServiceNodeStatusError(statusErr.StatusCode)
		}
		return model.NewServiceNodeUnavailableError()
	}

	s.metrics.RecordWithdrawal()
	return nil
}

// hasNoDefaultAccount はデフォルトフラグを持つアカウントが存在しないかを返す。
func (s *Service) hasNoDefaultAccount(ctx context.Context) (bool, error) {
	accounts, err := s.accountRepo.FindAll(ctx)
	if err != nil {
		return false, fmt.Errorf("アカウント一覧の取得に失敗しました: %w", err)
	}
	for _, account := range accounts {
		if account.Default {
			return false, nil
		}
	}
	return true, nil
}

// classifyWalletGeneratorError はウォレット生成サービスの失敗を分類する。
func (s *Service) classifyWalletGeneratorError(err error) error {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		return err
	}
	return model.NewWalletGeneratorUnavailableError()
}

// classifyServiceNodeError はサービスノード呼び出しの失敗を分類する。
// 分類済みのAPIErrorはそのまま通過させる。エラーステータスの応答は
// SERVICE_NODE_ERROR、トランスポート障害はSERVICE_NODE_UNAVAILABLEになる。
func classifyServiceNodeError(err error) error {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		return err
	}
	var statusErr *servicenode.StatusError
	if errors.As(err, &statusErr) {
		return model.NewServiceNodeStatusError(statusErr.StatusCode)
	}
	return model.NewServiceNodeUnavailableError()
}

// toAccountInfo はアカウントを公開表現に変換する。秘密鍵は含めない。
func toAccountInfo(account *model.Account) AccountInfo {
	return AccountInfo{
		Address: account.Address,
		Default: account.Default,
	}
}
