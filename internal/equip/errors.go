package equip

import (
	"errors"
	"fmt"
)

// Failure kinds returned by Engine operations. Every failure leaves the state unchanged.
var (
	ErrCatalogNotLoaded = errors.New("equip: catalog not loaded")
	ErrUnknownItem      = errors.New("equip: unknown item")
	ErrUnknownSlot      = errors.New("equip: unknown slot")
	ErrNoSelection      = errors.New("equip: no item selected")
	ErrIncompatible     = errors.New("equip: item is not compatible with slot")
	ErrSlotFull         = errors.New("equip: slot is full")
	ErrNoAvailableSlot  = errors.New("equip: no available slot")
)

// SlotFullError reports an equip attempt against a saturated slot.
// errors.Is(err, ErrSlotFull) holds for it.
type SlotFullError struct {
	SlotID   string
	MaxCount int
}

func (e *SlotFullError) Error() string {
	return fmt.Sprintf("equip: slot %q is full (max %d)", e.SlotID, e.MaxCount)
}

func (e *SlotFullError) Is(target error) bool {
	return target == ErrSlotFull
}
