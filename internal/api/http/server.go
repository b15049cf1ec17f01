package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/radieske/battle-monads/internal/client"
	"github.com/radieske/battle-monads/internal/feed"
	"github.com/radieske/battle-monads/internal/gateway"
	"github.com/radieske/battle-monads/internal/identity"
	"github.com/radieske/battle-monads/internal/pricefeed"
	"github.com/radieske/battle-monads/internal/shared/chain"
)

// Backend é o núcleo do battle-client consumido pela API
type Backend interface {
	Watch(battleID int64) (*client.Arena, error)
	Unwatch(battleID int64) bool
	Watching() []int64
	Snapshot(battleID int64) (client.Snapshot, error)
	Prices() pricefeed.Prices
	Constants() gateway.Constants
	Wallet() common.Address
	Session() *identity.Session
	SetSession(ctx context.Context, s *identity.Session)

	PlaceBet(ctx context.Context, battleID int64, side gateway.Side, amount string) (*types.Transaction, error)
	Comment(ctx context.Context, battleID int64, content string, target *gateway.Side) (*types.Transaction, error)
	ClaimReward(ctx context.Context, battleID int64) (*types.Transaction, error)
	EndBattle(ctx context.Context, battleID int64) (*types.Transaction, error)
	CreateBattle(ctx context.Context) (*types.Transaction, error)
}

// SessionVerifier valida o access token devolvido pelo login OAuth
type SessionVerifier interface {
	User(ctx context.Context, accessToken string) (*identity.Session, error)
}

// API expõe o estado das batalhas e as escritas do usuário
type API struct {
	Log      *zap.Logger
	Backend  Backend
	Tracker  *gateway.TxTracker
	Network  func() chain.NetworkStatus
	Verifier SessionVerifier
	WS       http.HandlerFunc
}

// Router retorna o roteador HTTP com os endpoints REST
func (a *API) Router() http.Handler {
	if a.Log == nil {
		a.Log = zap.NewNop()
	}
	r := chi.NewRouter()

	r.Get("/v1/battles", a.listWatching)
	r.Post("/v1/battles", a.createBattle)         // createBattle
	r.Get("/v1/battles/{id}", a.getBattle)        // abre a arena na primeira leitura
	r.Post("/v1/battles/{id}/watch", a.watch)     // mount
	r.Delete("/v1/battles/{id}/watch", a.unwatch) // unmount
	r.Get("/v1/battles/{id}/monsters", a.getMonsters)
	r.Get("/v1/battles/{id}/comments", a.getComments)
	r.Post("/v1/battles/{id}/comments", a.postComment) // comentário ou ataque
	r.Get("/v1/battles/{id}/bets", a.getUserBets)
	r.Post("/v1/battles/{id}/bets", a.placeBet)
	r.Post("/v1/battles/{id}/claim", a.claim)
	r.Post("/v1/battles/{id}/end", a.end)
	r.Get("/v1/prices", a.getPrices)
	r.Get("/v1/constants", a.getConstants)
	r.Get("/v1/network", a.getNetwork)
	r.Get("/v1/wallet", a.getWallet)
	r.Get("/v1/tx/{op}", a.getTx)

	r.Get("/auth/login", a.login)
	r.Get("/auth/callback", a.authCallback)
	r.Post("/auth/logout", a.logout)

	if a.WS != nil {
		r.Get("/ws", a.WS)
	}
	return r
}

// writeJSON serializa a resposta em JSON e define o status HTTP
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func battleID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid battle id"})
		return 0, false
	}
	return id, true
}

// snapshot garante a arena aberta e devolve o estado atual
func (a *API) snapshot(w http.ResponseWriter, r *http.Request) (client.Snapshot, bool) {
	id, ok := battleID(w, r)
	if !ok {
		return client.Snapshot{}, false
	}
	if _, err := a.Backend.Watch(id); err != nil {
		writeError(w, err)
		return client.Snapshot{}, false
	}
	s, err := a.Backend.Snapshot(id)
	if err != nil {
		writeError(w, err)
		return client.Snapshot{}, false
	}
	return s, true
}

func (a *API) listWatching(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"watching": a.Backend.Watching()})
}

func (a *API) getBattle(w http.ResponseWriter, r *http.Request) {
	if s, ok := a.snapshot(w, r); ok {
		writeJSON(w, http.StatusOK, s)
	}
}

func (a *API) watch(w http.ResponseWriter, r *http.Request) {
	id, ok := battleID(w, r)
	if !ok {
		return
	}
	if _, err := a.Backend.Watch(id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"battle_id": id, "watching": true})
}

func (a *API) unwatch(w http.ResponseWriter, r *http.Request) {
	id, ok := battleID(w, r)
	if !ok {
		return
	}
	if !a.Backend.Unwatch(id) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not watching"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) getMonsters(w http.ResponseWriter, r *http.Request) {
	if s, ok := a.snapshot(w, r); ok {
		writeJSON(w, http.StatusOK, map[string]any{"eth": s.ETHMonster, "btc": s.BTCMonster})
	}
}

func (a *API) getComments(w http.ResponseWriter, r *http.Request) {
	if s, ok := a.snapshot(w, r); ok {
		writeJSON(w, http.StatusOK, map[string]any{"comments": s.Comments, "gate": s.Gate})
	}
}

func (a *API) getUserBets(w http.ResponseWriter, r *http.Request) {
	if s, ok := a.snapshot(w, r); ok {
		writeJSON(w, http.StatusOK, map[string]any{
			"bets":        s.UserBets,
			"stake":       s.View.UserStake,
			"provisional": s.View.StakeProvisional,
		})
	}
}

func (a *API) getPrices(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.Backend.Prices())
}

func (a *API) getConstants(w http.ResponseWriter, r *http.Request) {
	c := a.Backend.Constants()
	writeJSON(w, http.StatusOK, map[string]any{
		"battle_duration_seconds": int64(c.BattleDuration.Seconds()),
		"default_hp":              c.DefaultHP,
		"min_bet":                 gateway.FromWei(gateway.MinBetWei),
		"max_bet":                 gateway.FromWei(gateway.MaxBetWei),
	})
}

func (a *API) getNetwork(w http.ResponseWriter, r *http.Request) {
	if a.Network == nil {
		writeJSON(w, http.StatusOK, map[string]any{"want": chain.MonadTestnetID, "ok": true})
		return
	}
	writeJSON(w, http.StatusOK, a.Network())
}

func (a *API) getWallet(w http.ResponseWriter, r *http.Request) {
	out := map[string]any{"connected": false}
	if addr := a.Backend.Wallet(); addr != (common.Address{}) {
		out["connected"] = true
		out["address"] = addr.Hex()
		out["explorer"] = chain.MonadExplorerURL + "/address/" + addr.Hex()
	}
	if s := a.Backend.Session(); s != nil {
		out["session"] = map[string]string{"id": s.UserID, "display_name": s.DisplayName(), "avatar_url": s.AvatarURL}
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) getTx(w http.ResponseWriter, r *http.Request) {
	if a.Tracker == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no transactions"})
		return
	}
	rec, ok := a.Tracker.Last(chi.URLParam(r, "op"))
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no transaction for op"})
		return
	}
	if rec.State == gateway.TxPending {
		if st, block, err := a.Tracker.Status(r.Context(), rec.Hash); err == nil {
			rec.State, rec.BlockNumber = st, block
		}
	}
	writeJSON(w, http.StatusOK, rec)
}

// ──────────────────────────────────────────────
//  Escritas
// ──────────────────────────────────────────────

type betRequest struct {
	Side   string `json:"side"`   // "ETH" | "BTC"
	Amount string `json:"amount"` // MON, ex.: "0.05"
}

type commentRequest struct {
	Content string `json:"content"`
	Target  string `json:"target,omitempty"` // alvo do ataque
}

func (a *API) placeBet(w http.ResponseWriter, r *http.Request) {
	id, ok := battleID(w, r)
	if !ok {
		return
	}
	var req betRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}
	side, ok := gateway.ParseSide(req.Side)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "side must be ETH or BTC"})
		return
	}
	tx, err := a.Backend.PlaceBet(r.Context(), id, side, req.Amount)
	a.writeTx(w, gateway.OpBet, tx, err)
}

func (a *API) postComment(w http.ResponseWriter, r *http.Request) {
	id, ok := battleID(w, r)
	if !ok {
		return
	}
	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}
	var target *gateway.Side
	if req.Target != "" {
		s, ok := gateway.ParseSide(req.Target)
		if !ok {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "target must be ETH or BTC"})
			return
		}
		target = &s
	}
	tx, err := a.Backend.Comment(r.Context(), id, req.Content, target)
	a.writeTx(w, gateway.OpComment, tx, err)
}

func (a *API) claim(w http.ResponseWriter, r *http.Request) {
	if id, ok := battleID(w, r); ok {
		tx, err := a.Backend.ClaimReward(r.Context(), id)
		a.writeTx(w, gateway.OpClaim, tx, err)
	}
}

func (a *API) end(w http.ResponseWriter, r *http.Request) {
	if id, ok := battleID(w, r); ok {
		tx, err := a.Backend.EndBattle(r.Context(), id)
		a.writeTx(w, gateway.OpEndBattle, tx, err)
	}
}

func (a *API) createBattle(w http.ResponseWriter, r *http.Request) {
	tx, err := a.Backend.CreateBattle(r.Context())
	a.writeTx(w, gateway.OpCreateBattle, tx, err)
}

func (a *API) writeTx(w http.ResponseWriter, op string, tx *types.Transaction, err error) {
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{
		"op":       op,
		"tx_hash":  tx.Hash().Hex(),
		"state":    string(gateway.TxPending),
		"explorer": chain.MonadExplorerURL + "/tx/" + tx.Hash().Hex(),
	})
}

// writeError converte os erros do domínio em status HTTP
func writeError(w http.ResponseWriter, err error) {
	var (
		we      *gateway.WriteError
		blocked *client.BlockedError
	)
	switch {
	case errors.As(err, &blocked):
		writeJSON(w, http.StatusForbidden, map[string]any{"error": err.Error(), "gate": blocked.Gate})
	case errors.As(err, &we):
		status := http.StatusBadGateway
		switch we.Kind {
		case gateway.KindRejected:
			status = http.StatusForbidden
		case gateway.KindReverted:
			status = http.StatusUnprocessableEntity
		case gateway.KindWrongNetwork:
			status = http.StatusConflict
		}
		writeJSON(w, status, map[string]string{"error": we.Err.Error(), "kind": string(we.Kind), "op": we.Op})
	case errors.Is(err, gateway.ErrBetOutOfRange), errors.Is(err, gateway.ErrInvalidAmount),
		errors.Is(err, gateway.ErrEmptyComment), errors.Is(err, gateway.ErrInvalidBattle),
		errors.Is(err, feed.ErrAttackNeedsTarget):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, client.ErrNotWatching):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}
