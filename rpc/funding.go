package rpc

import (
	"math/big"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Alium-Finance/alium-collectible/core/types"
	"github.com/Alium-Finance/alium-collectible/native/catalog"
	"github.com/Alium-Finance/alium-collectible/native/common"
)

// Funding and approval surface. Buyers hold stablecoin balances inside the
// daemon's bank, so crediting an account and granting the engines spend
// allowances happens over these routes rather than on an external chain.

type tokenRequest struct {
	Caller  string `json:"caller"`
	Asset   string `json:"asset"`
	Owner   string `json:"owner"`
	Spender string `json:"spender"`
	To      string `json:"to"`
	Amount  string `json:"amount"`
}

func (s *Server) handleTokenApprove(w http.ResponseWriter, r *http.Request) {
	if !s.requireBank(w) {
		return
	}
	var req tokenRequest
	if !s.decode(w, r, &req) {
		return
	}
	owner, err := types.ParseAddress(req.Owner)
	if err != nil {
		s.writeBadRequest(w, "malformed owner address")
		return
	}
	spender, err := types.ParseAddress(req.Spender)
	if err != nil {
		s.writeBadRequest(w, "malformed spender address")
		return
	}
	asset, err := types.ParseAddress(req.Asset)
	if err != nil {
		s.writeBadRequest(w, "malformed asset address")
		return
	}
	amount, ok := new(big.Int).SetString(req.Amount, 10)
	if !ok || amount.Sign() < 0 {
		s.writeBadRequest(w, "malformed approval amount")
		return
	}
	if err := s.bank.Approve(asset, owner, spender, amount); err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleTokenBalance(w http.ResponseWriter, r *http.Request) {
	if !s.requireBank(w) {
		return
	}
	asset, err := types.ParseAddress(chi.URLParam(r, "asset"))
	if err != nil {
		s.writeBadRequest(w, "malformed asset address")
		return
	}
	account, err := types.ParseAddress(chi.URLParam(r, "account"))
	if err != nil {
		s.writeBadRequest(w, "malformed account address")
		return
	}
	balance, err := s.bank.BalanceOf(asset, account)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"asset":   asset.Hex(),
		"account": account.Hex(),
		"balance": balance.String(),
	})
}

// handleTokenMint credits stablecoin balance to an account. Only the registry
// owner may call it.
func (s *Server) handleTokenMint(w http.ResponseWriter, r *http.Request) {
	if !s.requireBank(w) || !s.requireRegistry(w) {
		return
	}
	var req tokenRequest
	if !s.decode(w, r, &req) {
		return
	}
	caller, err := types.ParseAddress(req.Caller)
	if err != nil {
		s.writeBadRequest(w, "malformed caller address")
		return
	}
	to, err := types.ParseAddress(req.To)
	if err != nil {
		s.writeBadRequest(w, "malformed recipient address")
		return
	}
	asset, err := types.ParseAddress(req.Asset)
	if err != nil {
		s.writeBadRequest(w, "malformed asset address")
		return
	}
	amount, ok := new(big.Int).SetString(req.Amount, 10)
	if !ok {
		s.writeBadRequest(w, "malformed mint amount")
		return
	}
	if types.Address(s.registry.Owner()) != caller {
		s.writeEngineError(w, common.ErrNotOwner)
		return
	}
	if err := s.bank.Mint(asset, to, amount); err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

type itemApproveRequest struct {
	Caller   string `json:"caller"`
	Operator string `json:"operator"`
	Item     uint64 `json:"item"`
	Approved *bool  `json:"approved"`
}

func (s *Server) handleItemApprove(w http.ResponseWriter, r *http.Request) {
	if !s.requireRegistry(w) {
		return
	}
	var req itemApproveRequest
	if !s.decode(w, r, &req) {
		return
	}
	caller, operator, ok := s.parseApproval(w, &req)
	if !ok {
		return
	}
	if err := s.registry.Approve(caller, operator, catalog.ItemID(req.Item)); err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// handleApproveAll grants or revokes an operator over every item the caller
// holds. The exchanger burns items through this grant.
func (s *Server) handleApproveAll(w http.ResponseWriter, r *http.Request) {
	if !s.requireRegistry(w) {
		return
	}
	var req itemApproveRequest
	if !s.decode(w, r, &req) {
		return
	}
	caller, operator, ok := s.parseApproval(w, &req)
	if !ok {
		return
	}
	approved := true
	if req.Approved != nil {
		approved = *req.Approved
	}
	s.registry.SetApprovalForAll(caller, operator, approved)
	s.writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) parseApproval(w http.ResponseWriter, req *itemApproveRequest) (caller, operator types.Address, ok bool) {
	caller, err := types.ParseAddress(req.Caller)
	if err != nil {
		s.writeBadRequest(w, "malformed caller address")
		return types.Address{}, types.Address{}, false
	}
	operator, err = types.ParseAddress(req.Operator)
	if err != nil {
		s.writeBadRequest(w, "malformed operator address")
		return types.Address{}, types.Address{}, false
	}
	return caller, operator, true
}

func (s *Server) requireBank(w http.ResponseWriter) bool {
	if s.bank == nil {
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "token bank not configured"})
		return false
	}
	return true
}

func (s *Server) requireRegistry(w http.ResponseWriter) bool {
	if s.registry == nil {
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "collectible registry not configured"})
		return false
	}
	return true
}
