package sale

import (
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/Alium-Finance/alium-collectible/core/events"
	"github.com/Alium-Finance/alium-collectible/core/types"
	"github.com/Alium-Finance/alium-collectible/native/catalog"
)

const (
	// EventTypePurchase is emitted once per successful buy or batch buy.
	EventTypePurchase = "sale.purchase"
	// EventTypeTypeAdded is emitted when a collectible type is activated.
	EventTypeTypeAdded = "sale.type.added"
	// EventTypeTypeRemoved is emitted when a collectible type is deactivated.
	EventTypeTypeRemoved = "sale.type.removed"
	// EventTypeStablecoinAdded is emitted when a payment asset is accepted.
	EventTypeStablecoinAdded = "sale.stablecoin.added"
	// EventTypeStablecoinRemoved is emitted when a payment asset is dropped.
	EventTypeStablecoinRemoved = "sale.stablecoin.removed"
	// EventTypeFounderChanged is emitted when sale proceeds are redirected.
	EventTypeFounderChanged = "sale.founder.changed"
)

type eventEnvelope struct {
	evt *types.Event
}

func (e eventEnvelope) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e eventEnvelope) Event() *types.Event { return e.evt }

// WrapEvent converts a raw event payload into the emitter-friendly envelope.
func WrapEvent(evt *types.Event) events.Event { return eventEnvelope{evt: evt} }

func purchaseEvent(receipt *Receipt) *types.Event {
	items := make([]string, len(receipt.Items))
	for i, item := range receipt.Items {
		items[i] = strconv.FormatUint(uint64(item), 10)
	}
	return &types.Event{
		Type: EventTypePurchase,
		Attributes: map[string]string{
			"receipt": "0x" + hex.EncodeToString(receipt.ID[:]),
			"buyer":   receipt.Buyer.Hex(),
			"asset":   receipt.Asset.Hex(),
			"type":    strconv.FormatUint(uint64(receipt.NFTType), 10),
			"units":   strconv.FormatUint(receipt.Units, 10),
			"paid":    receipt.Paid.String(),
			"items":   strings.Join(items, ","),
		},
	}
}

func typeAddedEvent(cfg *TypeConfig) *types.Event {
	return &types.Event{
		Type: EventTypeTypeAdded,
		Attributes: map[string]string{
			"type":     strconv.FormatUint(uint64(cfg.ID), 10),
			"buyLimit": strconv.FormatUint(cfg.BuyLimit, 10),
		},
	}
}

func typeRemovedEvent(id catalog.TypeID) *types.Event {
	return &types.Event{
		Type: EventTypeTypeRemoved,
		Attributes: map[string]string{
			"type": strconv.FormatUint(uint64(id), 10),
		},
	}
}

func stablecoinAddedEvent(asset types.Address) *types.Event {
	return &types.Event{
		Type:       EventTypeStablecoinAdded,
		Attributes: map[string]string{"asset": asset.Hex()},
	}
}

func stablecoinRemovedEvent(asset types.Address) *types.Event {
	return &types.Event{
		Type:       EventTypeStablecoinRemoved,
		Attributes: map[string]string{"asset": asset.Hex()},
	}
}

func founderChangedEvent(previous, next types.Address) *types.Event {
	return &types.Event{
		Type: EventTypeFounderChanged,
		Attributes: map[string]string{
			"previous": previous.Hex(),
			"next":     next.Hex(),
		},
	}
}
