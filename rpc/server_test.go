package rpc

import (
	"bytes"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Alium-Finance/alium-collectible/core/types"
	"github.com/Alium-Finance/alium-collectible/native/catalog"
	"github.com/Alium-Finance/alium-collectible/native/exchange"
	"github.com/Alium-Finance/alium-collectible/native/sale"
	"github.com/Alium-Finance/alium-collectible/native/token"
	"github.com/Alium-Finance/alium-collectible/native/vesting"
	"github.com/Alium-Finance/alium-collectible/storage/salestore"
)

var (
	tOwner      = types.Address{0x01}
	tFounder    = types.Address{0x02}
	tBuyer      = types.Address{0x04}
	tMember     = types.Address{0x05}
	tOutsider   = types.Address{0x06}
	tPublicSelf = types.Address{0x07}
	tStratSelf  = types.Address{0x08}
	tExchSelf   = types.Address{0x09}
	tDai        = types.Address{0xd1}
)

const tNominal = 100_000

func tPrice(units int64) *big.Int {
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(token.DefaultDecimals)), nil)
	return new(big.Int).Mul(big.NewInt(tNominal*units), scale)
}

type fixture struct {
	server   *Server
	registry *catalog.Registry
}

func newFixture(t *testing.T, limit RateLimit) *fixture {
	t.Helper()

	registry := catalog.NewRegistry(tOwner)
	_, err := registry.CreateType(tOwner, tNominal, 10, "genesis")
	require.NoError(t, err)
	require.NoError(t, registry.AddMinter(tOwner, tPublicSelf))
	require.NoError(t, registry.AddMinter(tOwner, tStratSelf))

	achievements := catalog.NewRegistry(tOwner)
	_, err = achievements.CreateType(tOwner, 0, 100, "badge")
	require.NoError(t, err)
	require.NoError(t, achievements.AddMinter(tOwner, tOwner))
	for i := 0; i < 5; i++ {
		_, err = achievements.Mint(tOwner, tExchSelf, 1)
		require.NoError(t, err)
	}

	bank := token.NewBank()
	dai := token.NewLedger("Dai Stablecoin", "DAI", token.DefaultDecimals)
	bank.Register(tDai, dai)
	funding := tPrice(100)
	for _, account := range []types.Address{tBuyer, tMember, tOutsider} {
		require.NoError(t, dai.Mint(account, funding))
		dai.Approve(account, tPublicSelf, funding)
		dai.Approve(account, tStratSelf, funding)
	}

	store, err := salestore.Open(filepath.Join(t.TempDir(), "sale.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	public, err := sale.NewPublicEngine(sale.PublicConfig{
		Owner:       tOwner,
		Founder:     tFounder,
		Self:        tPublicSelf,
		Collectible: registry,
		Stables:     bank,
		State:       store.WithScope("public"),
		Types:       []sale.TypeSeed{{ID: 1, BuyLimit: 5}},
		Stablecoins: []types.Address{tDai},
	})
	require.NoError(t, err)

	strategic, err := sale.NewStrategicEngine(sale.StrategicConfig{
		Owner:       tOwner,
		Founder:     tFounder,
		Self:        tStratSelf,
		Collectible: registry,
		Stables:     bank,
		State:       store.WithScope("strategic"),
		Types:       []catalog.TypeID{1},
		Stablecoins: []types.Address{tDai},
		WhiteList:   []types.Address{tMember},
	})
	require.NoError(t, err)

	exchanger, err := exchange.NewEngine(exchange.Config{
		Owner:        tOwner,
		Self:         tExchSelf,
		Collectible:  registry,
		Achievements: achievements,
		Freezer:      vesting.NewFreezer(),
		State:        store,
		Types:        []catalog.TypeID{1},
	})
	require.NoError(t, err)

	server := NewServer(Config{
		RateLimit: limit,
		Public:    public,
		Strategic: strategic,
		Exchanger: exchanger,
		Registry:  registry,
		Bank:      bank,
	})
	return &fixture{server: server, registry: registry}
}

func (f *fixture) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	decoded := map[string]any{}
	if rec.Body.Len() > 0 && rec.Body.Bytes()[0] == '{' {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	}
	return rec, decoded
}

func TestBuyEndpoint(t *testing.T) {
	f := newFixture(t, RateLimit{})

	rec, body := f.do(t, http.MethodPost, "/v1/sale/buy", map[string]any{
		"buyer":  tBuyer.Hex(),
		"asset":  tDai.Hex(),
		"typeId": 1,
		"amount": tPrice(1).String(),
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, tBuyer.Hex(), body["buyer"])
	require.Equal(t, float64(1), body["units"])
	require.Equal(t, tPrice(1).String(), body["paid"])
	require.Len(t, body["items"], 1)

	rec, body = f.do(t, http.MethodGet, "/v1/sale/collections/"+tBuyer.Hex(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, body["items"], 1)
}

func TestBuyBatchEndpoint(t *testing.T) {
	f := newFixture(t, RateLimit{})

	rec, body := f.do(t, http.MethodPost, "/v1/sale/buy-batch", map[string]any{
		"buyer":  tBuyer.Hex(),
		"asset":  tDai.Hex(),
		"typeId": 1,
		"amount": tPrice(3).String(),
		"count":  3,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, float64(3), body["units"])
	require.Len(t, body["items"], 3)
	require.Equal(t, uint64(3), f.registry.BalanceOf(tBuyer))
}

func TestBuyEndpointErrors(t *testing.T) {
	f := newFixture(t, RateLimit{})

	rec, body := f.do(t, http.MethodPost, "/v1/sale/buy", map[string]any{
		"buyer":  tBuyer.Hex(),
		"asset":  tDai.Hex(),
		"typeId": 1,
		"amount": tPrice(2).String(),
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, sale.ErrWrongAmount.Error(), body["error"])

	rec, body = f.do(t, http.MethodPost, "/v1/sale/buy", map[string]any{
		"buyer":  tBuyer.Hex(),
		"asset":  types.Address{0xee}.Hex(),
		"typeId": 1,
		"amount": tPrice(1).String(),
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, sale.ErrStablecoinNotAccepted.Error(), body["error"])

	rec, _ = f.do(t, http.MethodPost, "/v1/sale/buy", map[string]any{
		"buyer":  "not-an-address",
		"asset":  tDai.Hex(),
		"typeId": 1,
		"amount": "1",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/v1/sale/buy", bytes.NewBufferString("{"))
	rec = httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStrategicBuyEndpoint(t *testing.T) {
	f := newFixture(t, RateLimit{})

	buy := func(buyer types.Address) (*httptest.ResponseRecorder, map[string]any) {
		return f.do(t, http.MethodPost, "/v1/sale/buy", map[string]any{
			"market": "strategic",
			"buyer":  buyer.Hex(),
			"asset":  tDai.Hex(),
			"typeId": 1,
			"amount": tPrice(1).String(),
		})
	}

	rec, _ := buy(tOutsider)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec, body := buy(tMember)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, float64(1), body["units"])

	rec, body = buy(tMember)
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, sale.ErrAttemptsExhausted.Error(), body["error"])
}

func TestChargeEndpoint(t *testing.T) {
	f := newFixture(t, RateLimit{})

	rec, body := f.do(t, http.MethodPost, "/v1/sale/buy", map[string]any{
		"buyer":  tBuyer.Hex(),
		"asset":  tDai.Hex(),
		"typeId": 1,
		"amount": tPrice(1).String(),
	})
	require.Equal(t, http.StatusOK, rec.Code)
	item := uint64(body["items"].([]any)[0].(float64))
	require.NoError(t, f.registry.Approve(tBuyer, tExchSelf, catalog.ItemID(item)))

	rec, _ = f.do(t, http.MethodPost, "/v1/admin/exchange/rewards", map[string]any{
		"caller": tOwner.Hex(),
		"typeId": 1,
		"amount": "250000000000000000000",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, body = f.do(t, http.MethodGet, "/v1/exchange/rewards/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "250000000000000000000", body["reward"])

	rec, body = f.do(t, http.MethodPost, "/v1/exchange/charge", map[string]any{
		"caller": tBuyer.Hex(),
		"item":   item,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, tBuyer.Hex(), body["account"])
	require.Len(t, body["burned"], 1)
	require.Len(t, body["achievements"], 1)
	require.Equal(t, "250000000000000000000", body["reward"])

	rec, body = f.do(t, http.MethodPost, "/v1/exchange/charge", map[string]any{
		"caller": tBuyer.Hex(),
		"item":   item,
	})
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, exchange.ErrCharged.Error(), body["error"])
}

func TestAdminEndpointsGuarded(t *testing.T) {
	f := newFixture(t, RateLimit{})

	rec, _ := f.do(t, http.MethodPost, "/v1/admin/sale/types", map[string]any{
		"caller":   tOutsider.Hex(),
		"typeId":   1,
		"buyLimit": 3,
	})
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec, body := f.do(t, http.MethodPost, "/v1/admin/sale/stablecoins", map[string]any{
		"caller": tOwner.Hex(),
		"asset":  tDai.Hex(),
	})
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, sale.ErrTokenResolved.Error(), body["error"])

	rec, _ = f.do(t, http.MethodPost, "/v1/admin/sale/founder", map[string]any{
		"caller":  tOwner.Hex(),
		"founder": types.Address{0x0a}.Hex(),
	})
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimiting(t *testing.T) {
	f := newFixture(t, RateLimit{RequestsPerMinute: 1, Burst: 1})

	path := "/v1/sale/collections/" + tBuyer.Hex()
	rec, _ := f.do(t, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec, _ = f.do(t, http.MethodGet, path, nil)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestRateLimitDisabledWhenUnset(t *testing.T) {
	f := newFixture(t, RateLimit{})

	path := "/v1/sale/collections/" + tBuyer.Hex()
	for i := 0; i < 5; i++ {
		rec, _ := f.do(t, http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestFundingAndApprovalEndpoints(t *testing.T) {
	f := newFixture(t, RateLimit{})
	fresh := types.Address{0x0b}

	rec, body := f.do(t, http.MethodGet, "/v1/token/balance/"+tDai.Hex()+"/"+fresh.Hex(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "0", body["balance"])

	rec, _ = f.do(t, http.MethodPost, "/v1/admin/token/mint", map[string]any{
		"caller": tOutsider.Hex(),
		"asset":  tDai.Hex(),
		"to":     fresh.Hex(),
		"amount": tPrice(2).String(),
	})
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = f.do(t, http.MethodPost, "/v1/admin/token/mint", map[string]any{
		"caller": tOwner.Hex(),
		"asset":  tDai.Hex(),
		"to":     fresh.Hex(),
		"amount": tPrice(2).String(),
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, body = f.do(t, http.MethodGet, "/v1/token/balance/"+tDai.Hex()+"/"+fresh.Hex(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, tPrice(2).String(), body["balance"])

	rec, _ = f.do(t, http.MethodPost, "/v1/token/approve", map[string]any{
		"owner":   fresh.Hex(),
		"spender": tPublicSelf.Hex(),
		"asset":   tDai.Hex(),
		"amount":  tPrice(2).String(),
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, body = f.do(t, http.MethodPost, "/v1/sale/buy", map[string]any{
		"buyer":  fresh.Hex(),
		"asset":  tDai.Hex(),
		"typeId": 1,
		"amount": tPrice(1).String(),
	})
	require.Equal(t, http.StatusOK, rec.Code)
	item := uint64(body["items"].([]any)[0].(float64))

	rec, _ = f.do(t, http.MethodPost, "/v1/collectible/approve", map[string]any{
		"caller":   fresh.Hex(),
		"operator": tExchSelf.Hex(),
		"item":     item,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = f.do(t, http.MethodPost, "/v1/admin/exchange/rewards", map[string]any{
		"caller": tOwner.Hex(),
		"typeId": 1,
		"amount": "1000",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, body = f.do(t, http.MethodPost, "/v1/exchange/charge", map[string]any{
		"caller": fresh.Hex(),
		"item":   item,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, body["burned"], 1)
}

func TestApproveAllEndpoint(t *testing.T) {
	f := newFixture(t, RateLimit{})

	rec, body := f.do(t, http.MethodPost, "/v1/sale/buy", map[string]any{
		"buyer":  tBuyer.Hex(),
		"asset":  tDai.Hex(),
		"typeId": 1,
		"amount": tPrice(1).String(),
	})
	require.Equal(t, http.StatusOK, rec.Code)
	item := catalog.ItemID(uint64(body["items"].([]any)[0].(float64)))

	require.False(t, f.registry.Approved(tExchSelf, item))
	rec, _ = f.do(t, http.MethodPost, "/v1/collectible/approve-all", map[string]any{
		"caller":   tBuyer.Hex(),
		"operator": tExchSelf.Hex(),
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, f.registry.Approved(tExchSelf, item))

	rec, _ = f.do(t, http.MethodPost, "/v1/collectible/approve-all", map[string]any{
		"caller":   tBuyer.Hex(),
		"operator": tExchSelf.Hex(),
		"approved": false,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.False(t, f.registry.Approved(tExchSelf, item))
}
