package exchange

import (
	"strconv"
	"strings"

	"github.com/Alium-Finance/alium-collectible/core/events"
	"github.com/Alium-Finance/alium-collectible/core/types"
	"github.com/Alium-Finance/alium-collectible/native/catalog"
)

const (
	// EventTypeCharged is emitted once per charge or batch charge.
	EventTypeCharged = "exchange.charged"
	// EventTypeRewardSet is emitted when a type's per-unit reward changes.
	EventTypeRewardSet = "exchange.reward.set"
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

func chargedEvent(result *ChargeResult) *types.Event {
	burned := make([]string, len(result.Burned))
	for i, item := range result.Burned {
		burned[i] = strconv.FormatUint(uint64(item), 10)
	}
	delivered := make([]string, len(result.Achievements))
	for i, item := range result.Achievements {
		delivered[i] = strconv.FormatUint(uint64(item), 10)
	}
	return &types.Event{
		Type: EventTypeCharged,
		Attributes: map[string]string{
			"account":      result.Account.Hex(),
			"type":         strconv.FormatUint(uint64(result.NFTType), 10),
			"burned":       strings.Join(burned, ","),
			"achievements": strings.Join(delivered, ","),
			"reward":       result.Reward.String(),
		},
	}
}

func rewardSetEvent(id catalog.TypeID, amount string) *types.Event {
	return &types.Event{
		Type: EventTypeRewardSet,
		Attributes: map[string]string{
			"type":   strconv.FormatUint(uint64(id), 10),
			"amount": amount,
		},
	}
}
