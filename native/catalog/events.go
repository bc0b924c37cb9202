package catalog

import (
	"strconv"

	"github.com/Alium-Finance/alium-collectible/core/events"
	"github.com/Alium-Finance/alium-collectible/core/types"
)

const (
	// EventTypeTypeCreated is emitted when a new collectible type is registered.
	EventTypeTypeCreated = "collectible.type.created"
	// EventTypeMinted is emitted when an item is minted.
	EventTypeMinted = "collectible.minted"
	// EventTypeTransferred is emitted when an item changes owner, including
	// transfers to the burn address.
	EventTypeTransferred = "collectible.transferred"
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

func typeCreatedEvent(info *TypeInfo) *types.Event {
	return &types.Event{
		Type: EventTypeTypeCreated,
		Attributes: map[string]string{
			"type":   strconv.FormatUint(uint64(info.ID), 10),
			"price":  strconv.FormatUint(info.NominalPrice, 10),
			"supply": strconv.FormatUint(info.InitialSupply, 10),
			"info":   info.Info,
		},
	}
}

func mintedEvent(item ItemID, typeID TypeID, to types.Address) *types.Event {
	return &types.Event{
		Type: EventTypeMinted,
		Attributes: map[string]string{
			"item": strconv.FormatUint(uint64(item), 10),
			"type": strconv.FormatUint(uint64(typeID), 10),
			"to":   to.Hex(),
		},
	}
}

func transferredEvent(item ItemID, from, to types.Address) *types.Event {
	return &types.Event{
		Type: EventTypeTransferred,
		Attributes: map[string]string{
			"item": strconv.FormatUint(uint64(item), 10),
			"from": from.Hex(),
			"to":   to.Hex(),
		},
	}
}
