// Package rpc exposes the sale and exchange engines over HTTP. The engines
// share one catalog registry and one token bank, so every request is
// serialized behind a single server mutex; handlers see the same
// single-writer discipline the engines assume.
package rpc

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"math/big"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/Alium-Finance/alium-collectible/core/types"
	"github.com/Alium-Finance/alium-collectible/native/catalog"
	"github.com/Alium-Finance/alium-collectible/native/common"
	"github.com/Alium-Finance/alium-collectible/native/exchange"
	"github.com/Alium-Finance/alium-collectible/native/sale"
	"github.com/Alium-Finance/alium-collectible/native/token"
)

// Config wires a Server. Registry and Bank expose the funding and approval
// surface buyers need before the engines can pull payment; Checkpoint, when
// set, runs after every mutating request so the daemon can persist
// collaborator state alongside the engine buckets.
type Config struct {
	Logger     *slog.Logger
	Metrics    *Metrics
	RateLimit  RateLimit
	Public     *sale.PublicEngine
	Strategic  *sale.StrategicEngine
	Exchanger  *exchange.Engine
	Registry   *catalog.Registry
	Bank       *token.Bank
	Checkpoint func() error
}

// Server routes HTTP requests to the engines.
type Server struct {
	logger     *slog.Logger
	metrics    *Metrics
	limiter    *RateLimiter
	public     *sale.PublicEngine
	strategic  *sale.StrategicEngine
	exchanger  *exchange.Engine
	registry   *catalog.Registry
	bank       *token.Bank
	checkpoint func() error

	mu sync.Mutex

	router chi.Router
}

func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = NewMetrics("saled")
	}
	s := &Server{
		logger:     logger,
		metrics:    metrics,
		limiter:    NewRateLimiter(cfg.RateLimit),
		public:     cfg.Public,
		strategic:  cfg.Strategic,
		exchanger:  cfg.Exchanger,
		registry:   cfg.Registry,
		bank:       cfg.Bank,
		checkpoint: cfg.Checkpoint,
	}
	s.router = s.routes()
	return s
}

func (s *Server) Handler() http.Handler { return s.router }

// MetricsHandler serves the prometheus registry backing the request metrics.
func (s *Server) MetricsHandler() http.Handler { return s.metrics.Handler() }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestLogger(s.logger))
	r.Use(s.metrics.Middleware)
	r.Use(s.limiter.Middleware)
	r.Use(s.serialize)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/sale/buy", s.handleBuy)
		r.Post("/sale/buy-batch", s.handleBuyBatch)
		r.Get("/sale/collections/{account}", s.handleCollection)
		r.Post("/exchange/charge", s.handleCharge)
		r.Post("/exchange/charge-batch", s.handleChargeBatch)
		r.Get("/exchange/rewards/{typeId}", s.handleRewardGet)
		r.Post("/token/approve", s.handleTokenApprove)
		r.Get("/token/balance/{asset}/{account}", s.handleTokenBalance)
		r.Post("/collectible/approve", s.handleItemApprove)
		r.Post("/collectible/approve-all", s.handleApproveAll)

		r.Route("/admin", func(r chi.Router) {
			r.Post("/sale/types", s.handleAddType)
			r.Post("/sale/types/remove", s.handleRemoveType)
			r.Post("/sale/stablecoins", s.handleAddStablecoin)
			r.Post("/sale/stablecoins/remove", s.handleRemoveStablecoin)
			r.Post("/sale/members", s.handleAddMembers)
			r.Post("/sale/founder", s.handleChangeFounder)
			r.Post("/sale/repair", s.handleRepairToken)
			r.Post("/exchange/rewards", s.handleRewardSet)
			r.Post("/token/mint", s.handleTokenMint)
		})
	})
	return r
}

// serialize holds the server mutex for the whole request. The engines share
// one registry and one bank, so even reads need the lock. Mutating requests
// trigger the checkpoint before the lock is released.
func (s *Server) serialize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		next.ServeHTTP(w, r)
		if r.Method != http.MethodGet && s.checkpoint != nil {
			if err := s.checkpoint(); err != nil {
				s.logger.Error("checkpoint", "error", err)
			}
		}
	})
}

const (
	marketPublic    = "public"
	marketStrategic = "strategic"
)

type buyRequest struct {
	Market string `json:"market"`
	Buyer  string `json:"buyer"`
	Asset  string `json:"asset"`
	TypeID uint64 `json:"typeId"`
	Amount string `json:"amount"`
	Count  uint64 `json:"count"`
}

type receiptResponse struct {
	ID      string   `json:"id"`
	Buyer   string   `json:"buyer"`
	Asset   string   `json:"asset"`
	NFTType uint64   `json:"nftType"`
	Units   uint64   `json:"units"`
	Paid    string   `json:"paid"`
	Items   []uint64 `json:"items"`
	At      int64    `json:"at"`
}

func newReceiptResponse(rcpt *sale.Receipt) receiptResponse {
	items := make([]uint64, len(rcpt.Items))
	for i, item := range rcpt.Items {
		items[i] = uint64(item)
	}
	return receiptResponse{
		ID:      "0x" + hex.EncodeToString(rcpt.ID[:]),
		Buyer:   rcpt.Buyer.Hex(),
		Asset:   rcpt.Asset.Hex(),
		NFTType: uint64(rcpt.NFTType),
		Units:   rcpt.Units,
		Paid:    rcpt.Paid.String(),
		Items:   items,
		At:      rcpt.At,
	}
}

func (s *Server) handleBuy(w http.ResponseWriter, r *http.Request) {
	var req buyRequest
	if !s.decode(w, r, &req) {
		return
	}
	buyer, asset, offered, ok := s.parsePurchase(w, &req)
	if !ok {
		return
	}
	var (
		rcpt *sale.Receipt
		err  error
	)
	switch req.Market {
	case marketStrategic:
		rcpt, err = s.strategic.Buy(buyer, asset, catalog.TypeID(req.TypeID), offered)
	case marketPublic, "":
		rcpt, err = s.public.Buy(buyer, asset, catalog.TypeID(req.TypeID), offered)
	default:
		s.writeBadRequest(w, "unknown market")
		return
	}
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newReceiptResponse(rcpt))
}

func (s *Server) handleBuyBatch(w http.ResponseWriter, r *http.Request) {
	var req buyRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Market != "" && req.Market != marketPublic {
		s.writeBadRequest(w, "batch purchases are public sale only")
		return
	}
	buyer, asset, offered, ok := s.parsePurchase(w, &req)
	if !ok {
		return
	}
	rcpt, err := s.public.BuyBatch(buyer, asset, catalog.TypeID(req.TypeID), offered, req.Count)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newReceiptResponse(rcpt))
}

func (s *Server) handleCollection(w http.ResponseWriter, r *http.Request) {
	account, err := types.ParseAddress(chi.URLParam(r, "account"))
	if err != nil {
		s.writeBadRequest(w, "malformed account address")
		return
	}
	length, err := s.public.CollectionLength(account)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	items := make([]uint64, 0, length)
	for i := uint64(0); i < length; i++ {
		item, ok, err := s.public.CollectionItem(account, i)
		if err != nil {
			s.writeEngineError(w, err)
			return
		}
		if ok {
			items = append(items, uint64(item))
		}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"account": account.Hex(),
		"items":   items,
	})
}

type chargeRequest struct {
	Caller string   `json:"caller"`
	Item   uint64   `json:"item"`
	Items  []uint64 `json:"items"`
	TypeID uint64   `json:"typeId"`
}

type chargeResponse struct {
	Account      string   `json:"account"`
	NFTType      uint64   `json:"nftType"`
	Burned       []uint64 `json:"burned"`
	Achievements []uint64 `json:"achievements"`
	Reward       string   `json:"reward"`
}

func newChargeResponse(res *exchange.ChargeResult) chargeResponse {
	itemIDs := func(items []catalog.ItemID) []uint64 {
		out := make([]uint64, len(items))
		for i, item := range items {
			out[i] = uint64(item)
		}
		return out
	}
	return chargeResponse{
		Account:      res.Account.Hex(),
		NFTType:      uint64(res.NFTType),
		Burned:       itemIDs(res.Burned),
		Achievements: itemIDs(res.Achievements),
		Reward:       res.Reward.String(),
	}
}

func (s *Server) handleCharge(w http.ResponseWriter, r *http.Request) {
	var req chargeRequest
	if !s.decode(w, r, &req) {
		return
	}
	caller, err := types.ParseAddress(req.Caller)
	if err != nil {
		s.writeBadRequest(w, "malformed caller address")
		return
	}
	res, err := s.exchanger.Charge(caller, catalog.ItemID(req.Item))
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newChargeResponse(res))
}

func (s *Server) handleChargeBatch(w http.ResponseWriter, r *http.Request) {
	var req chargeRequest
	if !s.decode(w, r, &req) {
		return
	}
	caller, err := types.ParseAddress(req.Caller)
	if err != nil {
		s.writeBadRequest(w, "malformed caller address")
		return
	}
	items := make([]catalog.ItemID, len(req.Items))
	for i, item := range req.Items {
		items[i] = catalog.ItemID(item)
	}
	res, err := s.exchanger.ChargeBatch(caller, items, catalog.TypeID(req.TypeID))
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newChargeResponse(res))
}

func (s *Server) handleRewardGet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "typeId"), 10, 64)
	if err != nil {
		s.writeBadRequest(w, "malformed type id")
		return
	}
	reward, err := s.exchanger.TypeReward(catalog.TypeID(id))
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"typeId": id,
		"reward": reward.String(),
	})
}

type adminRequest struct {
	Caller   string   `json:"caller"`
	TypeID   uint64   `json:"typeId"`
	BuyLimit uint64   `json:"buyLimit"`
	Asset    string   `json:"asset"`
	Accounts []string `json:"accounts"`
	Founder  string   `json:"founder"`
	Market   string   `json:"market"`
	Amount   string   `json:"amount"`
}

func (s *Server) handleAddType(w http.ResponseWriter, r *http.Request) {
	s.adminCall(w, r, func(req *adminRequest, caller types.Address) error {
		return s.public.AddType(caller, catalog.TypeID(req.TypeID), req.BuyLimit)
	})
}

func (s *Server) handleRemoveType(w http.ResponseWriter, r *http.Request) {
	s.adminCall(w, r, func(req *adminRequest, caller types.Address) error {
		return s.public.RemoveType(caller, catalog.TypeID(req.TypeID))
	})
}

func (s *Server) handleAddStablecoin(w http.ResponseWriter, r *http.Request) {
	s.adminCall(w, r, func(req *adminRequest, caller types.Address) error {
		asset, err := types.ParseAddress(req.Asset)
		if err != nil {
			return errMalformedField
		}
		return s.public.AddStablecoin(caller, asset)
	})
}

func (s *Server) handleRemoveStablecoin(w http.ResponseWriter, r *http.Request) {
	s.adminCall(w, r, func(req *adminRequest, caller types.Address) error {
		asset, err := types.ParseAddress(req.Asset)
		if err != nil {
			return errMalformedField
		}
		return s.public.RemoveStablecoin(caller, asset)
	})
}

func (s *Server) handleAddMembers(w http.ResponseWriter, r *http.Request) {
	s.adminCall(w, r, func(req *adminRequest, caller types.Address) error {
		accounts := make([]types.Address, len(req.Accounts))
		for i, raw := range req.Accounts {
			addr, err := types.ParseAddress(raw)
			if err != nil {
				return errMalformedField
			}
			accounts[i] = addr
		}
		return s.public.AddMembers(caller, accounts...)
	})
}

func (s *Server) handleChangeFounder(w http.ResponseWriter, r *http.Request) {
	s.adminCall(w, r, func(req *adminRequest, caller types.Address) error {
		founder, err := types.ParseAddress(req.Founder)
		if err != nil {
			return errMalformedField
		}
		switch req.Market {
		case marketStrategic:
			return s.strategic.ChangeFounder(caller, founder)
		case marketPublic, "":
			return s.public.ChangeFounder(caller, founder)
		default:
			return errMalformedField
		}
	})
}

func (s *Server) handleRepairToken(w http.ResponseWriter, r *http.Request) {
	var req adminRequest
	if !s.decode(w, r, &req) {
		return
	}
	caller, err := types.ParseAddress(req.Caller)
	if err != nil {
		s.writeBadRequest(w, "malformed caller address")
		return
	}
	asset, err := types.ParseAddress(req.Asset)
	if err != nil {
		s.writeBadRequest(w, "malformed request field")
		return
	}
	var swept *big.Int
	switch req.Market {
	case marketStrategic:
		swept, err = s.strategic.RepairToken(caller, asset)
	case marketPublic, "":
		swept, err = s.public.RepairToken(caller, asset)
	default:
		s.writeBadRequest(w, "unknown market")
		return
	}
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"swept": swept.String()})
}

func (s *Server) handleRewardSet(w http.ResponseWriter, r *http.Request) {
	s.adminCall(w, r, func(req *adminRequest, caller types.Address) error {
		amount, ok := new(big.Int).SetString(req.Amount, 10)
		if !ok {
			return errMalformedField
		}
		return s.exchanger.SetTypeReward(caller, catalog.TypeID(req.TypeID), amount)
	})
}

var errMalformedField = errors.New("malformed request field")

func (s *Server) adminCall(w http.ResponseWriter, r *http.Request, fn func(*adminRequest, types.Address) error) {
	var req adminRequest
	if !s.decode(w, r, &req) {
		return
	}
	caller, err := types.ParseAddress(req.Caller)
	if err != nil {
		s.writeBadRequest(w, "malformed caller address")
		return
	}
	if err := fn(&req, caller); err != nil {
		if errors.Is(err, errMalformedField) {
			s.writeBadRequest(w, err.Error())
			return
		}
		s.writeEngineError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) parsePurchase(w http.ResponseWriter, req *buyRequest) (buyer, asset types.Address, offered *big.Int, ok bool) {
	buyer, err := types.ParseAddress(req.Buyer)
	if err != nil {
		s.writeBadRequest(w, "malformed buyer address")
		return types.Address{}, types.Address{}, nil, false
	}
	asset, err = types.ParseAddress(req.Asset)
	if err != nil {
		s.writeBadRequest(w, "malformed asset address")
		return types.Address{}, types.Address{}, nil, false
	}
	offered, valid := new(big.Int).SetString(req.Amount, 10)
	if !valid {
		s.writeBadRequest(w, "malformed payment amount")
		return types.Address{}, types.Address{}, nil, false
	}
	return buyer, asset, offered, true
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.writeBadRequest(w, "malformed request body")
		return false
	}
	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", "error", err)
	}
}

func (s *Server) writeBadRequest(w http.ResponseWriter, msg string) {
	s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
}

func (s *Server) writeEngineError(w http.ResponseWriter, err error) {
	s.writeJSON(w, statusFor(err), map[string]string{"error": err.Error()})
}

// statusFor maps engine sentinel errors onto HTTP statuses. Unknown errors
// surface as 500 so operational faults are not mistaken for caller mistakes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, sale.ErrTypeNotInitialized),
		errors.Is(err, sale.ErrStrategicTypeNotInitialized),
		errors.Is(err, exchange.ErrTypeNotResolved),
		errors.Is(err, catalog.ErrUnknownType),
		errors.Is(err, catalog.ErrUnknownItem),
		errors.Is(err, token.ErrUnknownAsset):
		return http.StatusNotFound
	case errors.Is(err, common.ErrNotOwner),
		errors.Is(err, sale.ErrNotFromWhiteList),
		errors.Is(err, sale.ErrNotFromPrivateList),
		errors.Is(err, catalog.ErrNotItemOwner),
		errors.Is(err, catalog.ErrNotApproved):
		return http.StatusForbidden
	case errors.Is(err, sale.ErrTokenResolved),
		errors.Is(err, sale.ErrTypeResolved),
		errors.Is(err, sale.ErrAllTokensBought),
		errors.Is(err, sale.ErrPurchaseLimitReached),
		errors.Is(err, sale.ErrTokensLimitExceeded),
		errors.Is(err, sale.ErrAttemptsExhausted),
		errors.Is(err, sale.ErrStrategicAllTokensBought),
		errors.Is(err, catalog.ErrAllMinted),
		errors.Is(err, exchange.ErrCharged),
		errors.Is(err, exchange.ErrFoundCharged),
		errors.Is(err, exchange.ErrWrongTypeFound):
		return http.StatusConflict
	case errors.Is(err, token.ErrInsufficientBalance),
		errors.Is(err, token.ErrInsufficientAllowance):
		return http.StatusPaymentRequired
	case errors.Is(err, sale.ErrWrongAmount),
		errors.Is(err, sale.ErrStrategicWrongAmount),
		errors.Is(err, sale.ErrStablecoinNotAccepted),
		errors.Is(err, sale.ErrNFTNotAccepted),
		errors.Is(err, sale.ErrStrategicStablecoinRejected),
		errors.Is(err, sale.ErrStrategicNFTRejected),
		errors.Is(err, sale.ErrEmptyBatch),
		errors.Is(err, exchange.ErrEmptyBatch),
		errors.Is(err, exchange.ErrInvalidReward),
		errors.Is(err, token.ErrInvalidAmount):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
