package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// ハンドラー層でHTTPステータスにマッピングされる。
// Messageに秘密鍵やリモートのレスポンスボディを含めてはならない。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: validation, account, funds, remote, auth, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeValidation                 = "VALIDATION_ERROR"
	ErrCodeLambdaWalletInUse          = "LAMBDA_WALLET_IN_USE"
	ErrCodeAccountRoleConflict        = "ACCOUNT_ROLE_CONFLICT"
	ErrCodeAccountNotFound            = "ACCOUNT_NOT_FOUND"
	ErrCodeUserNotFound               = "USER_NOT_FOUND"
	ErrCodeNoAccountsRegistered       = "NO_ACCOUNTS_REGISTERED"
	ErrCodeInsufficientBalance        = "INSUFFICIENT_BALANCE"
	ErrCodeAccountAlreadyRegistered   = "ACCOUNT_ALREADY_REGISTERED"
	ErrCodeServiceNodeError           = "SERVICE_NODE_ERROR"
	ErrCodeServiceNodeUnavailable     = "SERVICE_NODE_UNAVAILABLE"
	ErrCodeWalletGeneratorUnavailable = "WALLET_GENERATOR_UNAVAILABLE"
	ErrCodeUnauthorized               = "UNAUTHORIZED"
)

// NewValidationError はリクエスト不備のエラーを生成する。
func NewValidationError(message string) *APIError {
	return &APIError{
		Code:     ErrCodeValidation,
		Message:  message,
		Category: "validation",
		Action:   "リクエスト内容を確認してください。",
	}
}

// NewLambdaWalletInUseError はlambdaウォレットの重複エラーを生成する。
func NewLambdaWalletInUseError(wallet string) *APIError {
	return &APIError{
		Code:     ErrCodeLambdaWalletInUse,
		Message:  fmt.Sprintf("lambdaウォレット %s は既に使用されています。", wallet),
		Category: "account",
		Action:   "別のlambdaウォレットを指定してください。",
	}
}

// NewAccountRoleConflictError はデータバリデータ以外のロールで登録済みの
// アドレスに対するエラーを生成する。
func NewAccountRoleConflictError(address string) *APIError {
	return &APIError{
		Code:     ErrCodeAccountRoleConflict,
		Message:  fmt.Sprintf("アドレス %s は既に別のロールで登録されているため、データバリデータとして登録できません。", address),
		Category: "account",
		Action:   "別のアドレスを指定してください。",
	}
}

// NewAccountNotFoundError はアカウント未検出エラーを生成する。
func NewAccountNotFoundError(address string) *APIError {
	return &APIError{
		Code:     ErrCodeAccountNotFound,
		Message:  fmt.Sprintf("アドレス %s のアカウントが見つかりません。", address),
		Category: "account",
		Action:   "アドレスを確認してください。",
	}
}

// NewUserNotFoundError は現在のユーザーに対応するアカウントが存在しない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーに紐付くアカウントが見つかりません。",
		Category: "account",
		Action:   "アカウント登録を先に行ってください。",
	}
}

// NewNoAccountsRegisteredError は登録済みアカウントが1件もない場合のエラーを生成する。
func NewNoAccountsRegisteredError() *APIError {
	return &APIError{
		Code:     ErrCodeNoAccountsRegistered,
		Message:  "このノードには登録済みのアカウントがありません。",
		Category: "account",
		Action:   "先にデータバリデータアカウントを作成してください。",
	}
}

// NewInsufficientBalanceError は残高不足エラーを生成する。
func NewInsufficientBalanceError() *APIError {
	return &APIError{
		Code:     ErrCodeInsufficientBalance,
		Message:  "残高が不足しているため出金できません。",
		Category: "funds",
		Action:   "出金額を残高以下に設定してください。",
	}
}

// NewAccountAlreadyRegisteredError はサービスノードが重複登録として拒否した場合の
// エラーを生成する。サービスノードの400レスポンスの再解釈。
func NewAccountAlreadyRegisteredError(address string) *APIError {
	return &APIError{
		Code:     ErrCodeAccountAlreadyRegistered,
		Message:  fmt.Sprintf("アドレス %s は既に登録されています。", address),
		Category: "remote",
		Action:   "アドレスを確認してください。",
	}
}

// NewServiceNodeStatusError はサービスノードがエラーステータスを返した場合の
// エラーを生成する。400以外の確定的な失敗を表す。
func NewServiceNodeStatusError(statusCode int) *APIError {
	return &APIError{
		Code:     ErrCodeServiceNodeError,
		Message:  fmt.Sprintf("サービスノードがステータス %d を返しました。", statusCode),
		Category: "remote",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewServiceNodeUnavailableError はサービスノードへの到達失敗エラーを生成する。
func NewServiceNodeUnavailableError() *APIError {
	return &APIError{
		Code:     ErrCodeServiceNodeUnavailable,
		Message:  "サービスノードに接続できません。",
		Category: "remote",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewWalletGeneratorUnavailableError はウォレット生成サービスへの到達失敗エラーを生成する。
func NewWalletGeneratorUnavailableError() *APIError {
	return &APIError{
		Code:     ErrCodeWalletGeneratorUnavailable,
		Message:  "ウォレット生成サービスに接続できません。",
		Category: "remote",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewUnauthorizedError は認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}
