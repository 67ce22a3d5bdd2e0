package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pepinilloalsofrito-cell/gemini-financial/internal/auth"
	"github.com/pepinilloalsofrito-cell/gemini-financial/internal/journal"
	"github.com/pepinilloalsofrito-cell/gemini-financial/internal/ledger"
	"github.com/pepinilloalsofrito-cell/gemini-financial/internal/rate"
	"github.com/pepinilloalsofrito-cell/gemini-financial/internal/service"
	"github.com/pepinilloalsofrito-cell/gemini-financial/internal/session"
)

// Bank is the slice of the service layer the HTTP surface needs.
type Bank interface {
	Login(ctx context.Context, name string) (*session.Session, error)
	Logout(ctx context.Context, sessionID uuid.UUID) error
	Portfolio(ctx context.Context, sessionID uuid.UUID) (*service.Portfolio, error)
	Transactions(ctx context.Context, sessionID uuid.UUID, limit int) ([]journal.Transaction, error)
	Rates() ledger.RateTable
	Prices() ledger.PriceTable
	Exchange(ctx context.Context, sessionID uuid.UUID, from, to ledger.Currency, amount decimal.Decimal) (*session.Session, *journal.Transaction, error)
	TradeCrypto(ctx context.Context, sessionID uuid.UUID, symbol ledger.CryptoSymbol, side ledger.Side, amountUSD decimal.Decimal) (*session.Session, *journal.Transaction, error)
}

type Handler struct {
	Bank       Bank
	Logger     *slog.Logger
	JWTSecret  []byte
	JWTIssuer  string
	SessionTTL time.Duration
	Limiter    *rate.Limiter
}

type loginRequest struct {
	Name string `json:"name"`
}

type loginResponse struct {
	Token     string         `json:"token"`
	SessionID uuid.UUID      `json:"session_id"`
	Owner     string         `json:"owner"`
	ExpiresIn int64          `json:"expires_in"`
	Ledger    *ledger.Ledger `json:"ledger"`
}

type exchangeRequest struct {
	FromCurrency string `json:"from_currency"`
	ToCurrency   string `json:"to_currency"`
	Amount       string `json:"amount"`
}

type tradeRequest struct {
	Symbol    string `json:"symbol"`
	Side      string `json:"side"`
	AmountUSD string `json:"amount_usd"`
}

type operationResponse struct {
	Ledger      *ledger.Ledger       `json:"ledger"`
	Transaction *journal.Transaction `json:"transaction"`
}

type transactionsResponse struct {
	Transactions []journal.Transaction `json:"transactions"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func New(bank Bank, logger *slog.Logger, jwtSecret []byte, jwtIssuer string, sessionTTL time.Duration, limiter *rate.Limiter) *Handler {
	return &Handler{
		Bank:       bank,
		Logger:     logger,
		JWTSecret:  jwtSecret,
		JWTIssuer:  jwtIssuer,
		SessionTTL: sessionTTL,
		Limiter:    limiter,
	}
}

func (h *Handler) Register(r *gin.Engine) {
	r.POST("/auth/login", h.Login)

	authGroup := r.Group("/", auth.Middleware(h.JWTSecret))
	authGroup.POST("/auth/logout", h.Logout)
	authGroup.GET("/portfolio", h.Portfolio)
	authGroup.GET("/transactions", h.Transactions)
	authGroup.GET("/rates", h.Rates)
	authGroup.GET("/prices", h.Prices)
	authGroup.POST("/exchange", h.Exchange)
	authGroup.POST("/trades", h.TradeCrypto)
}

func (h *Handler) Login(c *gin.Context) {
	// limit first so malformed payloads count against the window too
	if h.Limiter != nil && !h.Limiter.Allow(c.ClientIP(), time.Now()) {
		c.JSON(http.StatusTooManyRequests, errorResponse{Code: "RATE_LIMITED", Message: "too many requests"})
		return
	}

	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Code: "INVALID_REQUEST", Message: "invalid payload"})
		return
	}

	sess, err := h.Bank.Login(c.Request.Context(), req.Name)
	if err != nil {
		h.Logger.Error("login failed", "error", err)
		c.JSON(http.StatusInternalServerError, errorResponse{Code: "INTERNAL_ERROR", Message: "internal error"})
		return
	}

	token, err := auth.NewSessionToken(h.JWTSecret, h.JWTIssuer, sess.ID, sess.Owner, h.SessionTTL)
	if err != nil {
		h.Logger.Error("token issue failed", "error", err)
		c.JSON(http.StatusInternalServerError, errorResponse{Code: "INTERNAL_ERROR", Message: "internal error"})
		return
	}

	c.JSON(http.StatusOK, loginResponse{
		Token:     token,
		SessionID: sess.ID,
		Owner:     sess.Owner,
		ExpiresIn: int64(h.SessionTTL.Seconds()),
		Ledger:    sess.Ledger,
	})
}

func (h *Handler) Logout(c *gin.Context) {
	sessionID, ok := auth.SessionIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse{Code: "UNAUTHORIZED", Message: "missing session"})
		return
	}

	if err := h.Bank.Logout(c.Request.Context(), sessionID); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "logged_out"})
}

func (h *Handler) Portfolio(c *gin.Context) {
	sessionID, ok := auth.SessionIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse{Code: "UNAUTHORIZED", Message: "missing session"})
		return
	}

	portfolio, err := h.Bank.Portfolio(c.Request.Context(), sessionID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, portfolio)
}

func (h *Handler) Transactions(c *gin.Context) {
	sessionID, ok := auth.SessionIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse{Code: "UNAUTHORIZED", Message: "missing session"})
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse{Code: "INVALID_REQUEST", Message: "invalid limit"})
			return
		}
		limit = parsed
	}

	transactions, err := h.Bank.Transactions(c.Request.Context(), sessionID, limit)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if transactions == nil {
		transactions = []journal.Transaction{}
	}
	c.JSON(http.StatusOK, transactionsResponse{Transactions: transactions})
}

func (h *Handler) Rates(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"base": ledger.BaseCurrency, "rates": h.Bank.Rates()})
}

func (h *Handler) Prices(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"currency": ledger.BaseCurrency, "prices": h.Bank.Prices()})
}

func (h *Handler) Exchange(c *gin.Context) {
	sessionID, ok := auth.SessionIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse{Code: "UNAUTHORIZED", Message: "missing session"})
		return
	}

	var req exchangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Code: "INVALID_REQUEST", Message: "invalid payload"})
		return
	}

	from, err := ledger.ParseCurrency(req.FromCurrency)
	if err != nil {
		h.writeError(c, err)
		return
	}
	to, err := ledger.ParseCurrency(req.ToCurrency)
	if err != nil {
		h.writeError(c, err)
		return
	}
	amount, ok := parseAmount(req.Amount)
	if !ok {
		c.JSON(http.StatusBadRequest, errorResponse{Code: "INVALID_AMOUNT", Message: "amount must be a positive decimal"})
		return
	}

	sess, tx, err := h.Bank.Exchange(c.Request.Context(), sessionID, from, to, amount)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, operationResponse{Ledger: sess.Ledger, Transaction: tx})
}

func (h *Handler) TradeCrypto(c *gin.Context) {
	sessionID, ok := auth.SessionIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse{Code: "UNAUTHORIZED", Message: "missing session"})
		return
	}

	var req tradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Code: "INVALID_REQUEST", Message: "invalid payload"})
		return
	}

	symbol, err := ledger.ParseCryptoSymbol(req.Symbol)
	if err != nil {
		h.writeError(c, err)
		return
	}
	side, err := ledger.ParseSide(req.Side)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Code: "INVALID_REQUEST", Message: "side must be buy or sell"})
		return
	}
	amount, ok := parseAmount(req.AmountUSD)
	if !ok {
		c.JSON(http.StatusBadRequest, errorResponse{Code: "INVALID_AMOUNT", Message: "amount_usd must be a positive decimal"})
		return
	}

	sess, tx, err := h.Bank.TradeCrypto(c.Request.Context(), sessionID, symbol, side, amount)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, operationResponse{Ledger: sess.Ledger, Transaction: tx})
}

// parseAmount accepts a decimal string; anything unparseable (including NaN
// and infinities, which decimal rejects) reads as an invalid amount.
func parseAmount(raw string) (decimal.Decimal, bool) {
	if raw == "" {
		return decimal.Zero, false
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false
	}
	return amount, true
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ledger.ErrInvalidAmount):
		c.JSON(http.StatusBadRequest, errorResponse{Code: "INVALID_AMOUNT", Message: "amount must be a positive decimal"})
	case errors.Is(err, ledger.ErrUnknownCurrency):
		c.JSON(http.StatusBadRequest, errorResponse{Code: "UNKNOWN_CURRENCY", Message: "unsupported currency"})
	case errors.Is(err, ledger.ErrUnknownSymbol):
		c.JSON(http.StatusBadRequest, errorResponse{Code: "UNKNOWN_SYMBOL", Message: "unsupported crypto symbol"})
	case errors.Is(err, ledger.ErrInsufficientFunds):
		c.JSON(http.StatusUnprocessableEntity, errorResponse{Code: "INSUFFICIENT_FUNDS", Message: "insufficient funds"})
	case errors.Is(err, ledger.ErrInsufficientCryptoBalance):
		c.JSON(http.StatusUnprocessableEntity, errorResponse{Code: "INSUFFICIENT_CRYPTO_BALANCE", Message: "insufficient crypto balance"})
	case errors.Is(err, ledger.ErrPriceUnavailable):
		c.JSON(http.StatusServiceUnavailable, errorResponse{Code: "PRICE_UNAVAILABLE", Message: "price unavailable, try again"})
	case errors.Is(err, service.ErrSessionNotFound):
		c.JSON(http.StatusUnauthorized, errorResponse{Code: "UNAUTHORIZED", Message: "session not found"})
	default:
		h.Logger.Error("request failed", "error", err)
		c.JSON(http.StatusInternalServerError, errorResponse{Code: "INTERNAL_ERROR", Message: "internal error"})
	}
}
