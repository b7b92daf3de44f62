package equip

import (
	"context"
	"log/slog"
	"sync"

	"github.com/udisondev/gearcfg/internal/model"
)

// Persister is the durable side of the engine. Implementations never fail
// from the caller's point of view.
type Persister interface {
	Save(ctx context.Context, equipped model.Equipped)
	Load(ctx context.Context, validItemIDs map[string]struct{}) model.Equipped
	Clear(ctx context.Context)
}

// State — снимок ApplicationState. Engine всегда отдаёт глубокую копию.
type State struct {
	// SelectedItemID is empty when nothing is selected.
	SelectedItemID string         `json:"selectedItemId"`
	Equipped       model.Equipped `json:"equipped"`
}

// HasSelection reports whether an item is selected.
func (s State) HasSelection() bool {
	return s.SelectedItemID != ""
}

// Outcome tells which branch ActivateSlot took.
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeEquipped
	OutcomeUnequipped
)

func (o Outcome) String() string {
	switch o {
	case OutcomeEquipped:
		return "equipped"
	case OutcomeUnequipped:
		return "unequipped"
	default:
		return "none"
	}
}

// Engine — конечный автомат экипировки для одной UI-сессии.
//
// Все операции атомарны: промежуточное состояние снаружи не наблюдаемо.
// Ветвление по режиму активации слота определяется только наличием выбора.
// Каждое успешное изменение сразу передаётся в Persister.
type Engine struct {
	store Persister

	mu       sync.Mutex
	catalog  *model.Catalog
	selected string
	equipped model.Equipped
}

// New creates an Engine without a catalog. Every operation except Reset
// fails with ErrCatalogNotLoaded until Attach is called.
func New(store Persister) *Engine {
	return &Engine{
		store:    store,
		equipped: model.Equipped{},
	}
}

// Attach installs the catalog and restores the equipped mapping from the store.
// Restored entries that violate compatibility or capacity are dropped.
func (e *Engine) Attach(ctx context.Context, cat *model.Catalog) State {
	restored := e.store.Load(ctx, cat.ValidItemIDs())

	e.mu.Lock()
	defer e.mu.Unlock()

	e.catalog = cat
	e.selected = ""
	e.equipped = sanitize(cat, restored)

	return e.snapshotLocked()
}

// sanitize оставляет только записи, которые engine мог бы получить сам:
// известный слот, совместимый предмет, не больше MaxCount.
func sanitize(cat *model.Catalog, restored model.Equipped) model.Equipped {
	out := make(model.Equipped, len(restored))
	dropped := 0

	for i := range cat.Slots {
		slot := &cat.Slots[i]
		for _, itemID := range restored[slot.ID] {
			item := cat.Item(itemID)
			if !model.IsCompatible(item, slot) || out.Count(slot.ID) >= slot.MaxCount {
				dropped++
				continue
			}
			out.Push(slot.ID, itemID)
		}
	}
	for slotID, ids := range restored {
		if cat.Slot(slotID) == nil {
			dropped += len(ids)
		}
	}

	if dropped > 0 {
		slog.Warn("dropped restored items violating slot rules", "count", dropped)
	}
	return out
}

// Catalog returns the attached catalog, or nil.
func (e *Engine) Catalog() *model.Catalog {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.catalog
}

// State returns a snapshot of the current state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *Engine) snapshotLocked() State {
	return State{SelectedItemID: e.selected, Equipped: e.equipped.Clone()}
}

// Select toggles the selection: selecting the selected item clears it,
// selecting any other item replaces the previous selection.
func (e *Engine) Select(itemID string) (State, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.catalog == nil {
		return e.snapshotLocked(), ErrCatalogNotLoaded
	}
	if e.catalog.Item(itemID) == nil {
		return e.snapshotLocked(), ErrUnknownItem
	}

	if e.selected == itemID {
		e.selected = ""
	} else {
		e.selected = itemID
	}
	return e.snapshotLocked(), nil
}

// ActivateSlot equips the selected item into the slot when something is
// selected, otherwise unequips the slot's last item.
func (e *Engine) ActivateSlot(ctx context.Context, slotID string) (Outcome, State, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	slot, err := e.slotLocked(slotID)
	if err != nil {
		return OutcomeNone, e.snapshotLocked(), err
	}

	if e.selected != "" {
		if err := e.equipLocked(ctx, slot, e.catalog.Item(e.selected)); err != nil {
			return OutcomeNone, e.snapshotLocked(), err
		}
		return OutcomeEquipped, e.snapshotLocked(), nil
	}

	if !e.unequipLocked(ctx, slot) {
		return OutcomeNone, e.snapshotLocked(), nil
	}
	return OutcomeUnequipped, e.snapshotLocked(), nil
}

// Equip puts the selected item into the slot.
// On failure the selection is preserved so another slot can be tried.
func (e *Engine) Equip(ctx context.Context, slotID string) (State, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	slot, err := e.slotLocked(slotID)
	if err != nil {
		return e.snapshotLocked(), err
	}
	if e.selected == "" {
		return e.snapshotLocked(), ErrNoSelection
	}

	err = e.equipLocked(ctx, slot, e.catalog.Item(e.selected))
	return e.snapshotLocked(), err
}

// DropOnSlot equips itemID directly, regardless of the current selection.
// On success the selection is cleared.
func (e *Engine) DropOnSlot(ctx context.Context, slotID, itemID string) (State, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	slot, err := e.slotLocked(slotID)
	if err != nil {
		return e.snapshotLocked(), err
	}
	item := e.catalog.Item(itemID)
	if item == nil {
		return e.snapshotLocked(), ErrUnknownItem
	}

	err = e.equipLocked(ctx, slot, item)
	return e.snapshotLocked(), err
}

// Unequip removes the most recently equipped item from the slot.
// An empty slot is a no-op.
func (e *Engine) Unequip(ctx context.Context, slotID string) (State, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	slot, err := e.slotLocked(slotID)
	if err != nil {
		return e.snapshotLocked(), err
	}
	e.unequipLocked(ctx, slot)
	return e.snapshotLocked(), nil
}

// QuickEquip equips itemID into the first compatible slot (catalog order)
// that still has capacity. Returns the chosen slot ID.
func (e *Engine) QuickEquip(ctx context.Context, itemID string) (string, State, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.catalog == nil {
		return "", e.snapshotLocked(), ErrCatalogNotLoaded
	}
	item := e.catalog.Item(itemID)
	if item == nil {
		return "", e.snapshotLocked(), ErrUnknownItem
	}

	for _, candidate := range model.CompatibleSlots(item, e.catalog.Slots) {
		if e.equipped.Count(candidate.ID) >= candidate.MaxCount {
			continue
		}
		slot := e.catalog.Slot(candidate.ID)
		if err := e.equipLocked(ctx, slot, item); err != nil {
			return "", e.snapshotLocked(), err
		}
		return slot.ID, e.snapshotLocked(), nil
	}

	return "", e.snapshotLocked(), ErrNoAvailableSlot
}

// Reset clears the selection and every slot, then removes the durable record.
func (e *Engine) Reset(ctx context.Context) State {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.selected = ""
	e.equipped = model.Equipped{}
	e.store.Clear(ctx)

	slog.Debug("equipment reset")
	return e.snapshotLocked()
}

// Occupancy returns how many items the slot currently holds.
func (e *Engine) Occupancy(slotID string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.equipped.Count(slotID)
}

// Complete reports whether every required slot holds at least one item.
// Always false before a catalog is attached.
func (e *Engine) Complete() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.catalog == nil {
		return false
	}
	filled, total := e.progressLocked()
	return filled == total
}

// RequiredProgress returns how many required slots are filled out of the total.
func (e *Engine) RequiredProgress() (filled, total int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.catalog == nil {
		return 0, 0
	}
	return e.progressLocked()
}

func (e *Engine) progressLocked() (filled, total int) {
	for _, slot := range e.catalog.RequiredSlots() {
		total++
		if e.equipped.Count(slot.ID) > 0 {
			filled++
		}
	}
	return filled, total
}

// HighlightSlots returns the IDs of the slots compatible with the current selection.
func (e *Engine) HighlightSlots() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.catalog == nil || e.selected == "" {
		return nil
	}
	slots := model.CompatibleSlots(e.catalog.Item(e.selected), e.catalog.Slots)
	ids := make([]string, len(slots))
	for i, s := range slots {
		ids[i] = s.ID
	}
	return ids
}

func (e *Engine) slotLocked(slotID string) (*model.SlotConfig, error) {
	if e.catalog == nil {
		return nil, ErrCatalogNotLoaded
	}
	slot := e.catalog.Slot(slotID)
	if slot == nil {
		return nil, ErrUnknownSlot
	}
	return slot, nil
}

func (e *Engine) equipLocked(ctx context.Context, slot *model.SlotConfig, item *model.EquipmentItem) error {
	if !model.IsCompatible(item, slot) {
		return ErrIncompatible
	}
	if e.equipped.Count(slot.ID) >= slot.MaxCount {
		return &SlotFullError{SlotID: slot.ID, MaxCount: slot.MaxCount}
	}

	e.equipped.Push(slot.ID, item.ID)
	e.selected = ""
	e.store.Save(ctx, e.equipped.Clone())

	slog.Debug("item equipped", "slot", slot.ID, "item", item.ID)
	return nil
}

func (e *Engine) unequipLocked(ctx context.Context, slot *model.SlotConfig) bool {
	itemID, ok := e.equipped.Pop(slot.ID)
	if !ok {
		return false
	}
	e.store.Save(ctx, e.equipped.Clone())

	slog.Debug("item unequipped", "slot", slot.ID, "item", itemID)
	return true
}
