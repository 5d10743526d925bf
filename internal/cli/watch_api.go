package cli

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mrz1836/pocket/internal/output"
	"github.com/mrz1836/pocket/internal/provider"
	"github.com/mrz1836/pocket/internal/service/balance"
	"github.com/mrz1836/pocket/internal/service/history"
	pocketerr "github.com/mrz1836/pocket/pkg/errors"
)

// maxSendBody bounds the JSON body of POST /send.
const maxSendBody = 4 << 10

// watchAPI exposes the session of a running pocket watch over HTTP.
type watchAPI struct {
	cc      *CommandContext
	timeout time.Duration

	// mu serializes actions that drive the wallet.
	mu sync.Mutex
}

type sendRequest struct {
	To     string `json:"to"`
	Amount string `json:"amount"`
}

func newWatchRouter(cc *CommandContext, timeout time.Duration) http.Handler {
	api := &watchAPI{cc: cc, timeout: timeout}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeAPIJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", cc.Metrics.Handler())

	r.Route("/session", func(sr chi.Router) {
		sr.Get("/", api.getSession)
		sr.Post("/connect", api.connect)
		sr.Post("/disconnect", api.disconnect)
		sr.Post("/switch", api.switchChain)
	})
	r.Get("/tokens", api.getPortfolio)
	r.Get("/tokens/{token}", api.getToken)
	r.Get("/history", api.getHistory)
	r.Post("/send", api.send)
	return r
}

func (a *watchAPI) context(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, a.timeout)
}

func (a *watchAPI) sessionView() sessionView {
	return newSessionView(a.cc.Session.Store().Snapshot(), a.cc.Session.Target())
}

func (a *watchAPI) getSession(w http.ResponseWriter, _ *http.Request) {
	writeAPIJSON(w, http.StatusOK, a.sessionView())
}

func (a *watchAPI) connect(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()

	ctx, cancel := a.context(r.Context())
	defer cancel()

	res, err := a.cc.Session.Connect(ctx)
	if err != nil {
		writeAPIError(w, err)
		return
	}
	writeAPIJSON(w, http.StatusOK, connectView{ConnectResult: res, Session: a.sessionView()})
}

func (a *watchAPI) disconnect(w http.ResponseWriter, _ *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.cc.Session.Disconnect()
	writeAPIJSON(w, http.StatusOK, a.sessionView())
}

func (a *watchAPI) switchChain(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()

	ctx, cancel := a.context(r.Context())
	defer cancel()

	if err := a.cc.Session.SwitchToTarget(ctx); err != nil {
		writeAPIError(w, err)
		return
	}
	writeAPIJSON(w, http.StatusOK, a.sessionView())
}

func (a *watchAPI) getPortfolio(w http.ResponseWriter, r *http.Request) {
	if !a.connected(w) {
		return
	}
	ctx, cancel := a.context(r.Context())
	defer cancel()

	writeAPIJSON(w, http.StatusOK, tokenBalancesView{
		Address: a.cc.Session.Store().Snapshot().Address,
		Tokens:  lookupTokens(ctx, a.cc),
	})
}

func (a *watchAPI) getToken(w http.ResponseWriter, r *http.Request) {
	tok, err := resolveToken(strings.TrimSpace(chi.URLParam(r, "token")))
	if err != nil {
		writeAPIError(w, err)
		return
	}
	if !a.connected(w) {
		return
	}
	ctx, cancel := a.context(r.Context())
	defer cancel()

	res := a.cc.Balance.GetTokenBalance(ctx, tok.Address, balance.ERC20ABI)
	res.Symbol = tok.Symbol
	writeAPIJSON(w, http.StatusOK, res)
}

func (a *watchAPI) getHistory(w http.ResponseWriter, r *http.Request) {
	limit := a.cc.Cfg.GetHistoryLimit()
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeAPIError(w, pocketerr.WithDetails(pocketerr.ErrInvalidInput, map[string]string{"limit": raw}))
			return
		}
		limit = n
	}
	if limit <= 0 {
		limit = history.DefaultLimit
	}
	if !a.connected(w) {
		return
	}
	ctx, cancel := a.context(r.Context())
	defer cancel()

	writeAPIJSON(w, http.StatusOK, historyView{
		Address: a.cc.Session.Store().Snapshot().Address,
		Records: a.cc.History.GetHistory(ctx, limit),
	})
}

func (a *watchAPI) send(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSendBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeAPIError(w, pocketerr.Wrap(pocketerr.ErrInvalidInput, "decoding request: %v", err))
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	ctx, cancel := a.context(r.Context())
	defer cancel()

	amount := sanitizeAmount(req.Amount)
	res, err := a.cc.Sender.SendNative(ctx, strings.TrimSpace(req.To), amount)
	if err != nil {
		writeAPIError(w, err)
		return
	}
	target := a.cc.Session.Target()
	writeAPIJSON(w, http.StatusOK, sendView{
		SendResult:  res,
		To:          req.To,
		Amount:      amount,
		Symbol:      target.NativeCurrency.Symbol,
		ExplorerURL: target.ExplorerTxURL(res.Hash),
	})
}

// connected writes a 409 and returns false when there is no session.
func (a *watchAPI) connected(w http.ResponseWriter) bool {
	if a.cc.Session.Store().Snapshot().Connected {
		return true
	}
	writeAPIError(w, pocketerr.ErrNotConnected)
	return false
}

func writeAPIJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = writeJSON(w, v)
}

func writeAPIError(w http.ResponseWriter, err error) {
	writeAPIJSON(w, apiStatus(err), output.ErrorOutput{Error: output.Describe(err)})
}

// apiStatus maps an error to an HTTP status.
func apiStatus(err error) int {
	switch {
	case errors.Is(err, pocketerr.ErrNotConnected):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}

	switch provider.CodeOf(err) {
	case provider.CodeUserRejected, provider.CodeUnauthorized:
		return http.StatusForbidden
	case provider.CodeInvalidParams:
		return http.StatusBadRequest
	}

	switch pocketerr.ExitCode(err) {
	case pocketerr.ExitInput:
		return http.StatusBadRequest
	case pocketerr.ExitAuth:
		return http.StatusForbidden
	case pocketerr.ExitNotFound:
		return http.StatusNotFound
	case pocketerr.ExitPermission:
		return http.StatusUnprocessableEntity
	}
	return http.StatusBadGateway
}
