package equip

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/gearcfg/internal/model"
	"github.com/udisondev/gearcfg/internal/storage"
	"github.com/udisondev/gearcfg/internal/testutil"
)

var fx = testutil.Fixtures

func newEngine(t *testing.T) (*Engine, *testutil.RecordingPersister) {
	t.Helper()

	p := &testutil.RecordingPersister{}
	e := New(p)
	e.Attach(context.Background(), testutil.Catalog())
	return e, p
}

func TestEngine_SelectThenActivateEquips(t *testing.T) {
	ctx := context.Background()
	e, p := newEngine(t)

	st, err := e.Select(fx.Helmet)
	require.NoError(t, err)
	assert.Equal(t, fx.Helmet, st.SelectedItemID)

	outcome, st, err := e.ActivateSlot(ctx, fx.HelmetSlot)
	require.NoError(t, err)

	assert.Equal(t, OutcomeEquipped, outcome)
	assert.False(t, st.HasSelection())
	assert.Equal(t, model.Equipped{fx.HelmetSlot: {fx.Helmet}}, st.Equipped)
	assert.Equal(t, model.Equipped{fx.HelmetSlot: {fx.Helmet}}, p.LastSave())
}

func TestEngine_IncompatibleKeepsSelection(t *testing.T) {
	ctx := context.Background()
	e, p := newEngine(t)

	_, err := e.Select(fx.Helmet)
	require.NoError(t, err)

	st, err := e.Equip(ctx, fx.GlovesSlot)

	assert.ErrorIs(t, err, ErrIncompatible)
	assert.Equal(t, fx.Helmet, st.SelectedItemID)
	assert.Empty(t, st.Equipped)
	assert.Empty(t, p.Saves())
}

func TestEngine_SlotFullReportsMaxCount(t *testing.T) {
	ctx := context.Background()
	e, _ := newEngine(t)

	_, err := e.DropOnSlot(ctx, fx.AccessorySlot, fx.Accessory)
	require.NoError(t, err)
	_, err = e.DropOnSlot(ctx, fx.AccessorySlot, fx.Accessory2)
	require.NoError(t, err)

	_, err = e.Select(fx.Accessory3)
	require.NoError(t, err)
	st, err := e.Equip(ctx, fx.AccessorySlot)

	require.ErrorIs(t, err, ErrSlotFull)
	var full *SlotFullError
	require.ErrorAs(t, err, &full)
	assert.Equal(t, 2, full.MaxCount)
	assert.Equal(t, fx.AccessorySlot, full.SlotID)
	assert.Equal(t, fx.Accessory3, st.SelectedItemID)
	assert.Equal(t, []string{fx.Accessory, fx.Accessory2}, st.Equipped[fx.AccessorySlot])
}

func TestEngine_QuickEquipWithoutSelection(t *testing.T) {
	ctx := context.Background()
	e, p := newEngine(t)

	slotID, st, err := e.QuickEquip(ctx, fx.Helmet)
	require.NoError(t, err)

	assert.Equal(t, fx.HelmetSlot, slotID)
	assert.Equal(t, model.Equipped{fx.HelmetSlot: {fx.Helmet}}, st.Equipped)
	assert.Len(t, p.Saves(), 1)
}

func TestEngine_QuickEquipFallsThroughToNextSlot(t *testing.T) {
	ctx := context.Background()
	e, _ := newEngine(t)

	ids := []string{fx.Accessory, fx.Accessory2, fx.Accessory3}
	slots := make([]string, 0, len(ids))
	for _, id := range ids {
		slotID, _, err := e.QuickEquip(ctx, id)
		require.NoError(t, err)
		slots = append(slots, slotID)
	}

	assert.Equal(t, []string{fx.AccessorySlot, fx.AccessorySlot, fx.AccessorySlot2}, slots)

	_, st, err := e.QuickEquip(ctx, fx.PinnedAccess)
	assert.ErrorIs(t, err, ErrNoAvailableSlot)
	assert.Len(t, st.Equipped[fx.AccessorySlot2], 1)
}

func TestEngine_QuickEquipRespectsAllowedSlots(t *testing.T) {
	ctx := context.Background()
	e, _ := newEngine(t)

	slotID, _, err := e.QuickEquip(ctx, fx.PinnedAccess)
	require.NoError(t, err)
	assert.Equal(t, fx.AccessorySlot2, slotID)
}

func TestEngine_ActivateWithoutSelectionUnequipsLast(t *testing.T) {
	ctx := context.Background()
	e, p := newEngine(t)

	_, err := e.DropOnSlot(ctx, fx.AccessorySlot, fx.Accessory)
	require.NoError(t, err)
	_, err = e.DropOnSlot(ctx, fx.AccessorySlot, fx.Accessory2)
	require.NoError(t, err)

	outcome, st, err := e.ActivateSlot(ctx, fx.AccessorySlot)
	require.NoError(t, err)
	assert.Equal(t, OutcomeUnequipped, outcome)
	assert.Equal(t, []string{fx.Accessory}, st.Equipped[fx.AccessorySlot])

	outcome, st, err = e.ActivateSlot(ctx, fx.AccessorySlot)
	require.NoError(t, err)
	assert.Equal(t, OutcomeUnequipped, outcome)
	_, present := st.Equipped[fx.AccessorySlot]
	assert.False(t, present, "emptied slot must be removed")

	saves := len(p.Saves())
	outcome, _, err = e.ActivateSlot(ctx, fx.AccessorySlot)
	require.NoError(t, err)
	assert.Equal(t, OutcomeNone, outcome)
	assert.Len(t, p.Saves(), saves, "no-op must not persist")
}

func TestEngine_SelectToggles(t *testing.T) {
	e, _ := newEngine(t)

	st, err := e.Select(fx.Helmet)
	require.NoError(t, err)
	assert.Equal(t, fx.Helmet, st.SelectedItemID)

	st, err = e.Select(fx.Gloves)
	require.NoError(t, err)
	assert.Equal(t, fx.Gloves, st.SelectedItemID)

	st, err = e.Select(fx.Gloves)
	require.NoError(t, err)
	assert.False(t, st.HasSelection())
}

func TestEngine_DropOnSlot(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		slot    string
		item    string
		wantErr error
	}{
		{name: "compatible", slot: fx.GlovesSlot, item: fx.Gloves},
		{name: "incompatible", slot: fx.GlovesSlot, item: fx.Helmet, wantErr: ErrIncompatible},
		{name: "not in allowedSlots", slot: fx.AccessorySlot, item: fx.PinnedAccess, wantErr: ErrIncompatible},
		{name: "unknown item", slot: fx.GlovesSlot, item: "ghost", wantErr: ErrUnknownItem},
		{name: "unknown slot", slot: "cockpit", item: fx.Gloves, wantErr: ErrUnknownSlot},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := newEngine(t)
			_, err := e.Select(fx.Rib)
			require.NoError(t, err)

			st, err := e.DropOnSlot(ctx, tt.slot, tt.item)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, st.Equipped)
				assert.Equal(t, fx.Rib, st.SelectedItemID, "failed drop keeps selection")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, []string{tt.item}, st.Equipped[tt.slot])
			assert.False(t, st.HasSelection(), "successful drop clears selection")
		})
	}
}

func TestEngine_Reset(t *testing.T) {
	ctx := context.Background()
	e, p := newEngine(t)

	_, _, err := e.QuickEquip(ctx, fx.Helmet)
	require.NoError(t, err)
	_, err = e.Select(fx.Gloves)
	require.NoError(t, err)

	first := e.Reset(ctx)
	second := e.Reset(ctx)

	assert.Equal(t, first, second)
	assert.False(t, first.HasSelection())
	assert.Empty(t, first.Equipped)
	assert.Equal(t, 2, p.Clears())
}

func TestEngine_RequiresCatalog(t *testing.T) {
	ctx := context.Background()
	e := New(&testutil.RecordingPersister{})

	_, err := e.Select(fx.Helmet)
	assert.ErrorIs(t, err, ErrCatalogNotLoaded)

	_, _, err = e.ActivateSlot(ctx, fx.HelmetSlot)
	assert.ErrorIs(t, err, ErrCatalogNotLoaded)

	_, err = e.Equip(ctx, fx.HelmetSlot)
	assert.ErrorIs(t, err, ErrCatalogNotLoaded)

	_, err = e.DropOnSlot(ctx, fx.HelmetSlot, fx.Helmet)
	assert.ErrorIs(t, err, ErrCatalogNotLoaded)

	_, err = e.Unequip(ctx, fx.HelmetSlot)
	assert.ErrorIs(t, err, ErrCatalogNotLoaded)

	_, _, err = e.QuickEquip(ctx, fx.Helmet)
	assert.ErrorIs(t, err, ErrCatalogNotLoaded)

	assert.False(t, e.Complete())
	assert.Nil(t, e.HighlightSlots())
}

func TestEngine_EquipWithoutSelection(t *testing.T) {
	e, _ := newEngine(t)

	_, err := e.Equip(context.Background(), fx.HelmetSlot)
	assert.ErrorIs(t, err, ErrNoSelection)
}

func TestEngine_CompleteAndProgress(t *testing.T) {
	ctx := context.Background()
	e, _ := newEngine(t)

	filled, total := e.RequiredProgress()
	assert.Equal(t, 0, filled)
	assert.Equal(t, 2, total)
	assert.False(t, e.Complete())

	_, _, err := e.QuickEquip(ctx, fx.Helmet)
	require.NoError(t, err)
	filled, _ = e.RequiredProgress()
	assert.Equal(t, 1, filled)
	assert.False(t, e.Complete())

	_, _, err = e.QuickEquip(ctx, fx.Rib)
	require.NoError(t, err)
	assert.True(t, e.Complete())

	_, err = e.Unequip(ctx, fx.RibSlot)
	require.NoError(t, err)
	assert.False(t, e.Complete())
}

// Complete не должен видеть «каталог есть, прогресс посчитан без каталога».
func TestEngine_CompleteRacingAttach(t *testing.T) {
	ctx := context.Background()
	cat := testutil.Catalog()

	for i := 0; i < 200; i++ {
		e := New(&testutil.RecordingPersister{})

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			e.Attach(ctx, cat)
		}()

		for j := 0; j < 10; j++ {
			require.False(t, e.Complete(), "empty equipment cannot complete required slots")
		}
		wg.Wait()
		require.False(t, e.Complete())
	}
}

func TestEngine_HighlightSlots(t *testing.T) {
	e, _ := newEngine(t)

	assert.Nil(t, e.HighlightSlots())

	_, err := e.Select(fx.Accessory)
	require.NoError(t, err)
	assert.Equal(t, []string{fx.AccessorySlot, fx.AccessorySlot2}, e.HighlightSlots())

	_, err = e.Select(fx.PinnedAccess)
	require.NoError(t, err)
	assert.Equal(t, []string{fx.AccessorySlot2}, e.HighlightSlots())
}

func TestEngine_AttachSanitizesRestoredState(t *testing.T) {
	p := &testutil.RecordingPersister{Seed: model.Equipped{
		fx.HelmetSlot:     {fx.Helmet, fx.Helmet2},
		fx.GlovesSlot:     {fx.Helmet},
		fx.AccessorySlot:  {fx.PinnedAccess, fx.Accessory},
		fx.AccessorySlot2: {fx.PinnedAccess},
		"cockpit":         {fx.Gloves},
	}}
	e := New(p)

	st := e.Attach(context.Background(), testutil.Catalog())

	assert.Equal(t, model.Equipped{
		fx.HelmetSlot:     {fx.Helmet},
		fx.AccessorySlot:  {fx.Accessory},
		fx.AccessorySlot2: {fx.PinnedAccess},
	}, st.Equipped)
	assert.False(t, st.HasSelection())
	assert.Empty(t, p.Saves(), "attach must not write")
}

func TestEngine_StateIsSnapshot(t *testing.T) {
	ctx := context.Background()
	e, _ := newEngine(t)

	_, st, err := e.QuickEquip(ctx, fx.Helmet)
	require.NoError(t, err)
	st.Equipped[fx.HelmetSlot][0] = "mutated"

	assert.Equal(t, []string{fx.Helmet}, e.State().Equipped[fx.HelmetSlot])
}

func TestEngine_CapacityHoldsUnderConcurrency(t *testing.T) {
	ctx := context.Background()
	e, _ := newEngine(t)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			item := []string{fx.Accessory, fx.Accessory2, fx.Accessory3}[i%3]
			_, _ = e.DropOnSlot(ctx, fx.AccessorySlot, item)
			if i%4 == 0 {
				_, _ = e.Unequip(ctx, fx.AccessorySlot)
			}
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, e.Occupancy(fx.AccessorySlot), 2)
}

// Полный цикл через настоящий Store: состояние переживает новый Engine.
func TestEngine_PersistsAcrossSessions(t *testing.T) {
	ctx := context.Background()
	store := storage.NewStore(storage.NewMemoryMedium())

	first := New(store)
	first.Attach(ctx, testutil.Catalog())
	_, _, err := first.QuickEquip(ctx, fx.Helmet)
	require.NoError(t, err)
	_, _, err = first.QuickEquip(ctx, fx.Accessory)
	require.NoError(t, err)

	second := New(store)
	st := second.Attach(ctx, testutil.Catalog())
	assert.Equal(t, model.Equipped{
		fx.HelmetSlot:    {fx.Helmet},
		fx.AccessorySlot: {fx.Accessory},
	}, st.Equipped)

	second.Reset(ctx)
	third := New(store)
	assert.Empty(t, third.Attach(ctx, testutil.Catalog()).Equipped)
}
