package salestore

import (
	"math/big"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Alium-Finance/alium-collectible/core/types"
	"github.com/Alium-Finance/alium-collectible/native/sale"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "sale.db"))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, store.Close()) })
	return store
}

func TestSaleTypeRoundtrip(t *testing.T) {
	store := openTestStore(t)

	_, ok, err := store.SaleTypeGet(1)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, store.SaleTypePut(&sale.TypeConfig{ID: 1, Active: true, BuyLimit: 3}))
	cfg, ok, err := store.SaleTypeGet(1)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(3), cfg.BuyLimit)
	require.True(t, cfg.Active)

	cfg.Active = false
	require.NoError(t, store.SaleTypePut(cfg))
	cfg, ok, err = store.SaleTypeGet(1)
	require.NoError(t, err)
	require.True(t, ok)
	require.False(t, cfg.Active)
}

func TestStablecoinSet(t *testing.T) {
	store := openTestStore(t)
	dai := types.Address{0xD1}
	usdc := types.Address{0xD2}

	require.NoError(t, store.StablecoinPut(dai, true))
	accepted, err := store.StablecoinAccepted(dai)
	require.NoError(t, err)
	require.True(t, accepted)

	// tolerant delete of an asset that was never accepted
	require.NoError(t, store.StablecoinPut(usdc, false))
	accepted, err = store.StablecoinAccepted(usdc)
	require.NoError(t, err)
	require.False(t, accepted)

	require.NoError(t, store.StablecoinPut(dai, false))
	accepted, err = store.StablecoinAccepted(dai)
	require.NoError(t, err)
	require.False(t, accepted)
}

func TestStablecoinScopesAreIndependent(t *testing.T) {
	store := openTestStore(t)
	dai := types.Address{0xD1}
	public := store.WithScope("public")
	strategic := store.WithScope("strategic")

	require.NoError(t, public.StablecoinPut(dai, true))
	accepted, err := public.StablecoinAccepted(dai)
	require.NoError(t, err)
	require.True(t, accepted)

	accepted, err = strategic.StablecoinAccepted(dai)
	require.NoError(t, err)
	require.False(t, accepted)

	require.NoError(t, strategic.StablecoinPut(dai, true))
	require.NoError(t, public.StablecoinPut(dai, false))
	accepted, err = strategic.StablecoinAccepted(dai)
	require.NoError(t, err)
	require.True(t, accepted)
}

func TestPurchaseCounters(t *testing.T) {
	store := openTestStore(t)
	account := types.Address{0x10}

	count, err := store.PurchasedCount(account, 1)
	require.NoError(t, err)
	require.Zero(t, count)

	require.NoError(t, store.SetPurchasedCount(account, 1, 2))
	count, err = store.PurchasedCount(account, 1)
	require.NoError(t, err)
	require.Equal(t, uint64(2), count)

	// distinct per type
	count, err = store.PurchasedCount(account, 2)
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestCollectionsOrdered(t *testing.T) {
	store := openTestStore(t)
	account := types.Address{0x11}

	length, err := store.CollectionLen(account)
	require.NoError(t, err)
	require.Zero(t, length)

	require.NoError(t, store.CollectionAppend(account, 7))
	require.NoError(t, store.CollectionAppend(account, 9))

	length, err = store.CollectionLen(account)
	require.NoError(t, err)
	require.Equal(t, uint64(2), length)

	item, ok, err := store.CollectionAt(account, 0)
	require.NoError(t, err)
	require.True(t, ok)
	require.EqualValues(t, 7, item)

	item, ok, err = store.CollectionAt(account, 1)
	require.NoError(t, err)
	require.True(t, ok)
	require.EqualValues(t, 9, item)

	_, ok, err = store.CollectionAt(account, 2)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestOneShotFlags(t *testing.T) {
	store := openTestStore(t)
	account := types.Address{0x12}

	bought, err := store.HasPurchased(account)
	require.NoError(t, err)
	require.False(t, bought)
	require.NoError(t, store.SetPurchased(account))
	bought, err = store.HasPurchased(account)
	require.NoError(t, err)
	require.True(t, bought)

	charged, err := store.Charged(42)
	require.NoError(t, err)
	require.False(t, charged)
	require.NoError(t, store.SetCharged(42))
	charged, err = store.Charged(42)
	require.NoError(t, err)
	require.True(t, charged)
}

func TestRewardTable(t *testing.T) {
	store := openTestStore(t)

	reward, err := store.RewardGet(1)
	require.NoError(t, err)
	require.Nil(t, reward)

	amount, _ := new(big.Int).SetString("1000000000000000000000000", 10)
	require.NoError(t, store.RewardSet(1, amount))
	reward, err = store.RewardGet(1)
	require.NoError(t, err)
	require.Zero(t, reward.Cmp(amount))

	// overwrite keeps only the latest value
	require.NoError(t, store.RewardSet(1, big.NewInt(5)))
	reward, err = store.RewardGet(1)
	require.NoError(t, err)
	require.Zero(t, reward.Cmp(big.NewInt(5)))
}
