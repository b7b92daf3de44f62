package session

import (
	"errors"
	"fmt"

	"github.com/udisondev/gearcfg/internal/equip"
)

// Client command opcodes.
const (
	OpSelect   = "select"
	OpActivate = "activate"
	OpEquip    = "equip"
	OpUnequip  = "unequip"
	OpDrop     = "drop"
	OpQuick    = "quick"
	OpReset    = "reset"
	OpState    = "state"
)

// Error codes sent to the client.
const (
	CodeIncompatible    = "incompatible"
	CodeSlotFull        = "slot_full"
	CodeNoAvailableSlot = "no_available_slot"
	CodeNoSelection     = "no_selection"
	CodeUnknownItem     = "unknown_item"
	CodeUnknownSlot     = "unknown_slot"
	CodeNotLoaded       = "catalog_not_loaded"
	CodeBadRequest      = "bad_request"
)

// Command is a client frame.
type Command struct {
	Op   string `json:"op"`
	Slot string `json:"slot,omitempty"`
	Item string `json:"item,omitempty"`
}

// Progress is the M/N counter of filled required slots.
type Progress struct {
	Filled int `json:"filled"`
	Total  int `json:"total"`
}

// ErrorBody describes a failed command. Message is ready to show in a toast.
type ErrorBody struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	MaxCount int    `json:"maxCount,omitempty"`
}

// Response is a server frame. Every frame carries the full state after the command.
type Response struct {
	OK        bool        `json:"ok"`
	Op        string      `json:"op"`
	Error     *ErrorBody  `json:"error,omitempty"`
	Outcome   string      `json:"outcome,omitempty"`
	Slot      string      `json:"slot,omitempty"`
	State     equip.State `json:"state"`
	Highlight []string    `json:"highlight"`
	Complete  bool        `json:"complete"`
	Required  Progress    `json:"required"`
}

// errorBody maps an engine failure onto its wire code.
func errorBody(err error) *ErrorBody {
	body := &ErrorBody{Code: CodeBadRequest, Message: err.Error()}

	var full *equip.SlotFullError
	switch {
	case errors.As(err, &full):
		body.Code = CodeSlotFull
		body.MaxCount = full.MaxCount
	case errors.Is(err, equip.ErrIncompatible):
		body.Code = CodeIncompatible
	case errors.Is(err, equip.ErrNoAvailableSlot):
		body.Code = CodeNoAvailableSlot
	case errors.Is(err, equip.ErrNoSelection):
		body.Code = CodeNoSelection
	case errors.Is(err, equip.ErrUnknownItem):
		body.Code = CodeUnknownItem
	case errors.Is(err, equip.ErrUnknownSlot):
		body.Code = CodeUnknownSlot
	case errors.Is(err, equip.ErrCatalogNotLoaded):
		body.Code = CodeNotLoaded
	}

	switch body.Code {
	case CodeSlotFull:
		body.Message = fmt.Sprintf("该槽位已满（最多%d件）", body.MaxCount)
	case CodeIncompatible:
		body.Message = "此装备无法装配到该槽位"
	}
	return body
}
