package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dukerupert/kidbank/internal/handler"
	"github.com/dukerupert/kidbank/internal/ledger"
	"github.com/dukerupert/kidbank/internal/middleware"
	"github.com/dukerupert/kidbank/internal/push"
	"github.com/dukerupert/kidbank/internal/store"
	ws "github.com/dukerupert/kidbank/internal/websocket"
)

// Deps are the collaborators the HTTP surface is built from. Push, Checkouts
// and Webhooks are optional; their routes are left out when nil.
type Deps struct {
	DB          *sql.DB
	Ledger      *ledger.Service
	Hub         *ws.Hub
	Push        *push.Service
	Checkouts   handler.Checkouts
	Webhooks    handler.EventVerifier
	RateLimiter *middleware.RateLimiter
	Logger      *slog.Logger
}

type Server struct {
	db            *sql.DB
	hub           *ws.Hub
	familyH       *handler.FamilyHandler
	choreH        *handler.ChoreHandler
	goalH         *handler.GoalHandler
	walletH       *handler.WalletHandler
	notificationH *handler.NotificationHandler
	pushH         *handler.PushHandler
	webhookH      *handler.WebhookHandler
	rateLimiter   *middleware.RateLimiter
	logger        *slog.Logger
}

func New(d Deps) *Server {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		db:            d.DB,
		hub:           d.Hub,
		familyH:       handler.NewFamilyHandler(d.Ledger, logger.With("component", "family")),
		choreH:        handler.NewChoreHandler(d.Ledger, logger.With("component", "chore")),
		goalH:         handler.NewGoalHandler(d.Ledger, logger.With("component", "goal")),
		walletH:       handler.NewWalletHandler(d.Ledger, d.Checkouts, logger.With("component", "wallet")),
		notificationH: handler.NewNotificationHandler(store.NewNotificationStore(d.DB), logger.With("component", "notification")),
		rateLimiter:   d.RateLimiter,
		logger:        logger,
	}
	if d.Push != nil && d.Push.Configured() {
		s.pushH = handler.NewPushHandler(store.NewPushStore(d.DB), d.Push, logger.With("component", "push_handler"))
	}
	if d.Webhooks != nil {
		s.webhookH = handler.NewWebhookHandler(d.Webhooks, d.Ledger, logger.With("component", "webhook"))
	}
	return s
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes
	outerMux.HandleFunc("GET /health", s.healthHandler)
	outerMux.HandleFunc("POST /api/parents", s.familyH.CreateParent)
	if s.webhookH != nil {
		outerMux.HandleFunc("POST /webhooks/stripe", s.webhookH.HandleStripe)
	}

	// Routes that need an actor from the gateway
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	var protected http.Handler = protectedMux
	if s.rateLimiter != nil {
		protected = middleware.RateLimit(s.rateLimiter, middleware.ActorOrIP)(protected)
	}
	outerMux.Handle("/", middleware.RequireActor(protected))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	status, code := "ok", http.StatusOK
	if err := s.db.PingContext(r.Context()); err != nil {
		status, code = "degraded", http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"status": status})
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	parentOnly := func(h http.HandlerFunc) http.Handler { return middleware.RequireParent(h) }

	// Family
	mux.Handle("POST /api/children", parentOnly(s.familyH.AddChild))
	mux.Handle("GET /api/children", parentOnly(s.familyH.ListChildren))
	mux.Handle("PUT /api/children/{id}/savings-rate", parentOnly(s.familyH.SetSavingsRate))
	mux.HandleFunc("GET /api/children/{id}/earnings", s.walletH.Earnings)
	mux.Handle("GET /api/settings", parentOnly(s.familyH.GetSettings))
	mux.Handle("PUT /api/settings", parentOnly(s.familyH.UpdateSettings))

	// Chores
	mux.HandleFunc("POST /api/chores", s.choreH.Create)
	mux.HandleFunc("GET /api/chores", s.choreH.List)
	mux.HandleFunc("GET /api/chores/{id}", s.choreH.Get)
	mux.HandleFunc("POST /api/chores/{id}/complete", s.choreH.Complete)
	mux.HandleFunc("POST /api/chores/{id}/approve", s.choreH.Approve)
	mux.HandleFunc("POST /api/chores/{id}/redeem", s.choreH.Redeem)

	// Goals
	mux.HandleFunc("POST /api/goals", s.goalH.Create)
	mux.HandleFunc("GET /api/goals", s.goalH.List)
	mux.HandleFunc("GET /api/goals/summary", s.goalH.Summary)
	mux.HandleFunc("POST /api/goals/evaluate", s.goalH.Evaluate)
	mux.HandleFunc("POST /api/goals/{id}/contribute", s.goalH.Contribute)

	// Wallets
	mux.HandleFunc("GET /api/wallet", s.walletH.Get)
	mux.HandleFunc("POST /api/wallet/fund", s.walletH.Fund)
	mux.HandleFunc("POST /api/wallet/fund/checkout", s.walletH.FundCheckout)
	mux.HandleFunc("POST /api/wallet/fund/external", s.walletH.FundExternal)
	mux.HandleFunc("POST /api/wallet/pin", s.walletH.SetPIN)
	mux.HandleFunc("POST /api/wallet/pin/verify", s.walletH.VerifyPIN)
	mux.HandleFunc("DELETE /api/wallet/pin", s.walletH.ClearPIN)
	mux.HandleFunc("POST /api/wallet/allowance", s.walletH.Allowance)
	mux.HandleFunc("GET /api/wallet/transactions", s.walletH.Transactions)
	mux.HandleFunc("POST /api/wallet/transactions/{id}/cancel", s.walletH.CancelTransaction)
	mux.HandleFunc("GET /api/wallet/dashboard", s.walletH.Dashboard)
	mux.HandleFunc("POST /api/child-wallet/spend", s.walletH.Spend)

	// Notifications
	mux.HandleFunc("GET /api/notifications", s.notificationH.List)
	mux.HandleFunc("POST /api/notifications/{id}/read", s.notificationH.MarkRead)

	if s.pushH != nil {
		mux.HandleFunc("POST /api/push/subscribe", s.pushH.Subscribe)
		mux.HandleFunc("DELETE /api/push/subscribe", s.pushH.Unsubscribe)
		mux.HandleFunc("GET /api/push/vapid-key", s.pushH.VAPIDKey)
	}

	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.logger.With("component", "websocket")))
}

// RunRateLimitCleanup evicts expired rate limit windows until ctx is done.
func (s *Server) RunRateLimitCleanup(ctx context.Context) {
	if s.rateLimiter != nil {
		s.rateLimiter.Run(ctx)
	}
}
