package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/prom-io/data-validator-node/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	TokenParser middleware.TokenParser
	UserFinder  middleware.UserFinder
	RateLimiter *middleware.RateLimiter
	Logger      *slog.Logger

	// サービス
	AccountService     AccountServiceInterface
	AuthService        AuthServiceInterface
	TransactionService TransactionServiceInterface

	// Prometheusスクレイプ用ハンドラー。nilの場合は/metricsを公開しない
	MetricsHandler http.Handler
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RecoveryMiddleware → LoggingMiddleware → RateLimitMiddleware(General)
//
// 認証が必要なルートはその内側でAuthMiddlewareを追加する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	r.Use(deps.RateLimiter.GeneralMiddleware())

	accountHandler := NewAccountHandler(deps.AccountService)
	authHandler := NewAuthHandler(deps.AuthService)
	txHandler := NewTransactionHandler(deps.TransactionService)
	statusHandler := NewStatusHandler()

	authMiddleware := middleware.NewAuthMiddleware(deps.TokenParser, deps.UserFinder)

	r.Route("/api/v3", func(r chi.Router) {
		r.Get("/status", statusHandler.GetStatus)

		r.Post("/auth/login", authHandler.Login)

		r.Route("/accounts", func(r chi.Router) {
			r.Post("/", accountHandler.CreateAccount)
			r.Get("/", accountHandler.ListAccounts)
			r.Get("/balances", accountHandler.GetBalances)
			r.Get("/default", accountHandler.GetDefaultAccount)

			// 認証が必要なルート
			r.Group(func(r chi.Router) {
				r.Use(authMiddleware)
				r.Get("/current", accountHandler.GetCurrentAccount)
				r.Get("/current/balance", accountHandler.GetCurrentAccountBalance)

				// POST /api/v3/accounts/withdraw - 出金（専用レート制限を追加）
				r.With(deps.RateLimiter.WithdrawMiddleware()).Post("/withdraw", accountHandler.Withdraw)
			})

			r.Route("/{address}", func(r chi.Router) {
				r.Get("/balance", accountHandler.GetBalance)
				r.Post("/default", accountHandler.SetDefaultAccount)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Get("/transactions", txHandler.ListTransactions)
		})
	})

	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	return r
}
