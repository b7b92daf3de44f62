package session

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/udisondev/gearcfg/internal/equip"
)

// Handler dispatches client commands to one Engine. One per connection.
type Handler struct {
	engine *equip.Engine
}

// NewHandler creates a command handler bound to engine.
func NewHandler(engine *equip.Engine) *Handler {
	return &Handler{engine: engine}
}

// Handle executes cmd and builds the response frame.
// Failures are reported inside the frame; the connection stays open.
func (h *Handler) Handle(ctx context.Context, cmd Command) Response {
	resp := Response{Op: cmd.Op}
	var err error

	switch cmd.Op {
	case OpSelect:
		_, err = h.engine.Select(cmd.Item)
	case OpActivate:
		var outcome equip.Outcome
		outcome, _, err = h.engine.ActivateSlot(ctx, cmd.Slot)
		if err == nil {
			resp.Outcome = outcome.String()
			resp.Slot = cmd.Slot
		}
	case OpEquip:
		_, err = h.engine.Equip(ctx, cmd.Slot)
	case OpUnequip:
		_, err = h.engine.Unequip(ctx, cmd.Slot)
	case OpDrop:
		_, err = h.engine.DropOnSlot(ctx, cmd.Slot, cmd.Item)
	case OpQuick:
		resp.Slot, _, err = h.engine.QuickEquip(ctx, cmd.Item)
	case OpReset:
		h.engine.Reset(ctx)
	case OpState:
	default:
		slog.Warn("unknown session command", "op", cmd.Op)
		err = fmt.Errorf("unknown op %q", cmd.Op)
	}

	if err != nil {
		resp.Error = errorBody(err)
	}
	resp.OK = err == nil
	h.fill(&resp)
	return resp
}

// Snapshot builds a state frame without running a command.
func (h *Handler) Snapshot() Response {
	resp := Response{OK: true, Op: OpState}
	h.fill(&resp)
	return resp
}

func (h *Handler) fill(resp *Response) {
	resp.State = h.engine.State()
	resp.Highlight = h.engine.HighlightSlots()
	if resp.Highlight == nil {
		resp.Highlight = []string{}
	}
	resp.Complete = h.engine.Complete()
	resp.Required.Filled, resp.Required.Total = h.engine.RequiredProgress()
}
