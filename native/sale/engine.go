package sale

import (
	"encoding/binary"
	"errors"
	"math/big"
	"time"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/Alium-Finance/alium-collectible/core/events"
	"github.com/Alium-Finance/alium-collectible/core/types"
	"github.com/Alium-Finance/alium-collectible/native/catalog"
	"github.com/Alium-Finance/alium-collectible/native/common"
)

var (
	errNilCollectible = errors.New("sale engine: collectible gateway not configured")
	errNilStables     = errors.New("sale engine: stablecoin gateway not configured")
	errNilState       = errors.New("sale engine: state not configured")
	errNoFounder      = errors.New("sale engine: founder not configured")
)

// engine carries the plumbing shared by the public and strategic variants:
// identities, collaborator gateways, event emission and payment mechanics.
type engine struct {
	owner       types.Address
	founder     types.Address
	self        types.Address
	collectible Collectible
	stables     Stablecoins
	emitter     events.Emitter
	nowFn       func() int64
}

func newEngine(owner, founder, self types.Address, collectible Collectible, stables Stablecoins) (engine, error) {
	if collectible == nil {
		return engine{}, errNilCollectible
	}
	if stables == nil {
		return engine{}, errNilStables
	}
	if founder.IsZero() {
		return engine{}, errNoFounder
	}
	return engine{
		owner:       owner,
		founder:     founder,
		self:        self,
		collectible: collectible,
		stables:     stables,
		emitter:     events.NoopEmitter{},
		nowFn:       func() int64 { return time.Now().Unix() },
	}, nil
}

// Owner returns the engine administrator.
func (e *engine) Owner() [20]byte { return e.owner }

// FounderDetails returns the address receiving sale proceeds.
func (e *engine) FounderDetails() types.Address { return e.founder }

// SelfAddress returns the engine's own account, the identity it mints and
// sweeps with.
func (e *engine) SelfAddress() types.Address { return e.self }

// SetEmitter configures the event emitter. Passing nil resets it to a no-op.
func (e *engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the time source for deterministic tests.
func (e *engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

func (e *engine) emit(evt *types.Event) {
	if e == nil || e.emitter == nil || evt == nil {
		return
	}
	e.emitter.Emit(WrapEvent(evt))
}

func (e *engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

// TransferOwnership hands the administrator capability to a new address.
func (e *engine) TransferOwnership(caller types.Address, newOwner types.Address) error {
	if err := common.RequireOwner(e, caller); err != nil {
		return err
	}
	e.owner = newOwner
	return nil
}

// ChangeFounder redirects future sale proceeds.
func (e *engine) ChangeFounder(caller types.Address, newFounder types.Address) error {
	if err := common.RequireOwner(e, caller); err != nil {
		return err
	}
	if newFounder.IsZero() {
		return errNoFounder
	}
	previous := e.founder
	e.founder = newFounder
	e.emit(founderChangedEvent(previous, newFounder))
	return nil
}

// RepairToken sweeps the engine's stray balance in the given fungible asset
// to the founder and returns the swept amount. Buyers occasionally transfer
// directly to the engine account instead of approving it.
func (e *engine) RepairToken(caller types.Address, asset types.Address) (*big.Int, error) {
	if err := common.RequireOwner(e, caller); err != nil {
		return nil, err
	}
	balance, err := e.stables.BalanceOf(asset, e.self)
	if err != nil {
		return nil, err
	}
	if balance.Sign() == 0 {
		return big.NewInt(0), nil
	}
	if err := e.stables.Transfer(asset, e.self, e.founder, balance); err != nil {
		return nil, err
	}
	return balance, nil
}

// requiredPayment computes the exact amount due: nominal fiat price scaled by
// the asset's decimal precision and the unit count.
func requiredPayment(nominalPrice uint64, units uint64, decimals uint8) *big.Int {
	price := new(big.Int).SetUint64(nominalPrice)
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	total := new(big.Int).Mul(price, scale)
	return total.Mul(total, new(big.Int).SetUint64(units))
}

// receiptID derives the deterministic purchase id from the buyer, the type
// and the first minted item of the turn.
func receiptID(buyer types.Address, id catalog.TypeID, firstItem catalog.ItemID) [32]byte {
	var suffix [16]byte
	binary.BigEndian.PutUint64(suffix[:8], uint64(id))
	binary.BigEndian.PutUint64(suffix[8:], uint64(firstItem))
	digest := ethcrypto.Keccak256(buyer[:], suffix[:])
	var out [32]byte
	copy(out[:], digest)
	return out
}

// settle commits a validated purchase: pulls the exact payment from the
// buyer to the founder, mints the items and assembles the receipt. All
// validations have already run; callers guarantee units > 0. The mint
// preconditions are re-checked before payment moves, so the refund path below
// only backstops a collaborator breaking its own check.
func (e *engine) settle(buyer, asset types.Address, id catalog.TypeID, units uint64, offered *big.Int) (*Receipt, error) {
	if err := e.collectible.MintCheck(e.self, id); err != nil {
		return nil, err
	}
	amount := new(big.Int).Set(offered)
	if err := e.stables.TransferFrom(asset, e.self, buyer, e.founder, amount); err != nil {
		return nil, err
	}
	items := make([]catalog.ItemID, 0, units)
	for i := uint64(0); i < units; i++ {
		item, err := e.collectible.Mint(e.self, buyer, id)
		if err != nil {
			// the founder was already paid; hand the payment back before
			// surfacing the mint failure
			if refundErr := e.stables.Transfer(asset, e.founder, buyer, amount); refundErr != nil {
				return nil, errors.Join(err, refundErr)
			}
			return nil, err
		}
		items = append(items, item)
	}
	receipt := &Receipt{
		Buyer:   buyer,
		Asset:   asset,
		NFTType: id,
		Units:   units,
		Paid:    amount,
		Items:   items,
		At:      e.now(),
	}
	receipt.ID = receiptID(buyer, id, items[0])
	return receipt, nil
}
