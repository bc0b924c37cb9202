package exchange

import (
	"errors"
	"math/big"
	"testing"

	"github.com/Alium-Finance/alium-collectible/core/events"
	"github.com/Alium-Finance/alium-collectible/core/types"
	"github.com/Alium-Finance/alium-collectible/native/catalog"
	"github.com/Alium-Finance/alium-collectible/native/common"
	"github.com/Alium-Finance/alium-collectible/native/vesting"
)

var (
	admin        = types.Address{0x01}
	buyer        = types.Address{0x02}
	stranger     = types.Address{0x03}
	exchangerKey = types.Address{0x04}
)

type memState struct {
	charged map[catalog.ItemID]bool
	rewards map[catalog.TypeID]*big.Int
}

func newMemState() *memState {
	return &memState{
		charged: make(map[catalog.ItemID]bool),
		rewards: make(map[catalog.TypeID]*big.Int),
	}
}

func (m *memState) Charged(item catalog.ItemID) (bool, error) { return m.charged[item], nil }

func (m *memState) SetCharged(item catalog.ItemID) error {
	m.charged[item] = true
	return nil
}

func (m *memState) RewardGet(id catalog.TypeID) (*big.Int, error) { return m.rewards[id], nil }

func (m *memState) RewardSet(id catalog.TypeID, amount *big.Int) error {
	m.rewards[id] = new(big.Int).Set(amount)
	return nil
}

type fixture struct {
	collectible  *catalog.Registry
	achievements *catalog.Registry
	freezer      *vesting.Freezer
	state        *memState
	engine       *Engine
}

// rewardWei scales a nominal reward by 18 decimals.
func rewardWei(nominal int64) *big.Int {
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	return new(big.Int).Mul(big.NewInt(nominal), scale)
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	collectible := catalog.NewRegistry(admin)
	supplies := []uint64{11, 10, 40, 50}
	for _, supply := range supplies {
		if _, err := collectible.CreateType(admin, 100_000, supply, "test type collection"); err != nil {
			t.Fatalf("create type: %v", err)
		}
	}
	achievements := catalog.NewRegistry(admin)
	if _, err := achievements.CreateType(admin, 0, 1000, "achievements"); err != nil {
		t.Fatalf("create achievement type: %v", err)
	}
	f := &fixture{
		collectible:  collectible,
		achievements: achievements,
		freezer:      vesting.NewFreezer(),
		state:        newMemState(),
	}
	engine, err := NewEngine(Config{
		Owner:        admin,
		Self:         exchangerKey,
		Collectible:  collectible,
		Achievements: achievements,
		Freezer:      f.freezer,
		State:        f.state,
		Types:        []catalog.TypeID{1, 2, 3},
	})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	f.engine = engine
	return f
}

// fundAchievements mints n achievement items to the exchanger.
func (f *fixture) fundAchievements(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if _, err := f.achievements.Mint(admin, exchangerKey, 1); err != nil {
			t.Fatalf("mint achievement: %v", err)
		}
	}
}

// mintToBuyer mints an item of the given type to the buyer and approves the
// exchanger to move it.
func (f *fixture) mintToBuyer(t *testing.T, id catalog.TypeID) catalog.ItemID {
	t.Helper()
	item, err := f.collectible.Mint(admin, buyer, id)
	if err != nil {
		t.Fatalf("mint collectible: %v", err)
	}
	f.collectible.SetApprovalForAll(buyer, exchangerKey, true)
	return item
}

func TestChargeSingle(t *testing.T) {
	f := newFixture(t)
	rec := &events.Recorder{}
	f.engine.SetEmitter(rec)

	reward := rewardWei(1_000_000)
	if err := f.engine.SetTypeReward(admin, 1, reward); err != nil {
		t.Fatalf("set reward: %v", err)
	}
	f.fundAchievements(t, 1)
	item := f.mintToBuyer(t, 1)

	result, err := f.engine.Charge(buyer, item)
	if err != nil {
		t.Fatalf("charge: %v", err)
	}
	if result.Reward.Cmp(reward) != 0 {
		t.Fatalf("reward = %s", result.Reward)
	}
	holder, err := f.collectible.OwnerOf(item)
	if err != nil || holder != types.BurnAddress {
		t.Fatalf("item not burned: %v (%v)", holder, err)
	}
	archOwner, err := f.achievements.OwnerOf(result.Achievements[0])
	if err != nil || archOwner != buyer {
		t.Fatalf("achievement not delivered: %v (%v)", archOwner, err)
	}
	records := f.freezer.Records()
	if len(records) != 1 {
		t.Fatalf("freeze records = %d", len(records))
	}
	if records[0].Account != buyer || records[0].Amount.Cmp(reward) != 0 || records[0].NFTType != 1 {
		t.Fatalf("frozen = %+v", records[0])
	}
	if len(rec.Events) == 0 || rec.Events[len(rec.Events)-1].EventType() != EventTypeCharged {
		t.Fatalf("charged event missing")
	}
}

func TestChargeBatch(t *testing.T) {
	f := newFixture(t)

	reward := rewardWei(1_000_000)
	if err := f.engine.SetTypeReward(admin, 1, reward); err != nil {
		t.Fatalf("set reward: %v", err)
	}
	f.fundAchievements(t, 2)
	first := f.mintToBuyer(t, 1)
	second := f.mintToBuyer(t, 1)

	result, err := f.engine.ChargeBatch(buyer, []catalog.ItemID{first, second}, 1)
	if err != nil {
		t.Fatalf("charge batch: %v", err)
	}
	expected := new(big.Int).Mul(reward, big.NewInt(2))
	if result.Reward.Cmp(expected) != 0 {
		t.Fatalf("reward = %s", result.Reward)
	}
	for _, item := range []catalog.ItemID{first, second} {
		holder, err := f.collectible.OwnerOf(item)
		if err != nil || holder != types.BurnAddress {
			t.Fatalf("item %d not burned", item)
		}
	}
	// achievements handed out first-in-first-assigned
	if len(result.Achievements) != 2 || result.Achievements[0] != 1 || result.Achievements[1] != 2 {
		t.Fatalf("achievements = %v", result.Achievements)
	}
	// one freeze instruction for the whole batch
	records := f.freezer.Records()
	if len(records) != 1 {
		t.Fatalf("freeze records = %d", len(records))
	}
	if records[0].Amount.Cmp(expected) != 0 || records[0].NFTType != 1 {
		t.Fatalf("frozen = %+v", records[0])
	}
}

func TestChargeFailures(t *testing.T) {
	f := newFixture(t)
	if err := f.engine.SetTypeReward(admin, 1, rewardWei(1_000_000)); err != nil {
		t.Fatalf("set reward: %v", err)
	}
	// later set overwrites the first
	if err := f.engine.SetTypeReward(admin, 1, rewardWei(400_000)); err != nil {
		t.Fatalf("overwrite reward: %v", err)
	}
	f.fundAchievements(t, 3)

	typeOne := f.mintToBuyer(t, 1)
	typeTwo := f.mintToBuyer(t, 2)
	typeFour := f.mintToBuyer(t, 4)

	if _, err := f.engine.ChargeBatch(buyer, []catalog.ItemID{typeOne, typeTwo}, 1); !errors.Is(err, ErrWrongTypeFound) {
		t.Fatalf("heterogeneous batch: %v", err)
	}
	// a failed batch leaves every item untouched
	holder, err := f.collectible.OwnerOf(typeOne)
	if err != nil || holder != buyer {
		t.Fatalf("item burned by failed batch: %v", holder)
	}
	if charged, _ := f.state.Charged(typeOne); charged {
		t.Fatalf("charge marker flipped by failed batch")
	}

	if _, err := f.engine.ChargeBatch(buyer, []catalog.ItemID{typeFour}, 4); !errors.Is(err, ErrTypeNotResolved) {
		t.Fatalf("uneligible batch type: %v", err)
	}
	if _, err := f.engine.Charge(buyer, typeFour); !errors.Is(err, ErrTypeNotResolved) {
		t.Fatalf("uneligible single type: %v", err)
	}

	if _, err := f.engine.ChargeBatch(buyer, []catalog.ItemID{typeOne}, 1); err != nil {
		t.Fatalf("charge batch: %v", err)
	}
	if _, err := f.engine.ChargeBatch(buyer, []catalog.ItemID{typeOne}, 1); !errors.Is(err, ErrFoundCharged) {
		t.Fatalf("recharged batch: %v", err)
	}
	if _, err := f.engine.Charge(buyer, typeOne); !errors.Is(err, ErrCharged) {
		t.Fatalf("recharged single: %v", err)
	}
}

func TestChargeCustodyAndFunding(t *testing.T) {
	f := newFixture(t)
	item := f.mintToBuyer(t, 1)

	// no achievements funded yet
	if _, err := f.engine.Charge(buyer, item); !errors.Is(err, catalog.ErrNothingHeld) {
		t.Fatalf("unfunded exchanger: %v", err)
	}
	f.fundAchievements(t, 1)

	if _, err := f.engine.Charge(stranger, item); !errors.Is(err, catalog.ErrNotItemOwner) {
		t.Fatalf("charge of other's item: %v", err)
	}

	unapproved, err := f.collectible.Mint(admin, stranger, 1)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := f.engine.Charge(stranger, unapproved); !errors.Is(err, catalog.ErrNotApproved) {
		t.Fatalf("unapproved charge: %v", err)
	}

	duplicates := []catalog.ItemID{item, item}
	if _, err := f.engine.ChargeBatch(buyer, duplicates, 1); !errors.Is(err, ErrFoundCharged) {
		t.Fatalf("duplicate batch: %v", err)
	}
	if _, err := f.engine.ChargeBatch(buyer, nil, 1); !errors.Is(err, ErrEmptyBatch) {
		t.Fatalf("empty batch: %v", err)
	}

	// charging with no reward configured freezes zero
	result, err := f.engine.Charge(buyer, item)
	if err != nil {
		t.Fatalf("charge: %v", err)
	}
	if result.Reward.Sign() != 0 {
		t.Fatalf("reward = %s", result.Reward)
	}
}

func TestSetTypeRewardGuards(t *testing.T) {
	f := newFixture(t)
	if err := f.engine.SetTypeReward(stranger, 1, rewardWei(1)); !errors.Is(err, common.ErrNotOwner) {
		t.Fatalf("stranger set reward: %v", err)
	}
	if err := f.engine.SetTypeReward(admin, 9, rewardWei(1)); !errors.Is(err, ErrTypeNotResolved) {
		t.Fatalf("uneligible reward type: %v", err)
	}
	if err := f.engine.SetTypeReward(admin, 1, big.NewInt(-1)); !errors.Is(err, ErrInvalidReward) {
		t.Fatalf("negative reward: %v", err)
	}
	if !f.engine.EligibleType(2) || f.engine.EligibleType(9) {
		t.Fatalf("eligibility wrong")
	}
}

func TestTransferOwnership(t *testing.T) {
	f := newFixture(t)
	if err := f.engine.TransferOwnership(stranger, stranger); !errors.Is(err, common.ErrNotOwner) {
		t.Fatalf("stranger takeover: %v", err)
	}
	if err := f.engine.TransferOwnership(admin, stranger); err != nil {
		t.Fatalf("transfer ownership: %v", err)
	}
	if err := f.engine.SetTypeReward(admin, 1, rewardWei(1)); !errors.Is(err, common.ErrNotOwner) {
		t.Fatalf("old owner still admin: %v", err)
	}
	if err := f.engine.SetTypeReward(stranger, 1, rewardWei(1)); err != nil {
		t.Fatalf("new owner set reward: %v", err)
	}
}
