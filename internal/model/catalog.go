package model

// Character describes the figure the slots are placed on.
type Character struct {
	Image string `json:"image" jsonschema:"required,minLength=1"`
	Name  string `json:"name,omitempty"`
}

// UIConfig holds the catalog-provided title and label texts.
type UIConfig struct {
	Title  string            `json:"title"`
	Labels map[string]string `json:"labels"`
}

// Catalog — проверенный каталог слотов и предметов.
// Создаётся через NewCatalog после валидации и дальше только читается.
type Catalog struct {
	Character Character       `json:"character" jsonschema:"required"`
	Slots     []SlotConfig    `json:"slots" jsonschema:"required,minItems=10,maxItems=10"`
	Items     []EquipmentItem `json:"items"`
	UI        UIConfig        `json:"ui" jsonschema:"required"`

	slotIndex map[string]int
	itemIndex map[string]int
}

// NewCatalog строит индексы по ID. При повторяющихся ID побеждает первое вхождение.
func NewCatalog(character Character, slots []SlotConfig, items []EquipmentItem, ui UIConfig) *Catalog {
	c := &Catalog{
		Character: character,
		Slots:     slots,
		Items:     items,
		UI:        ui,
		slotIndex: make(map[string]int, len(slots)),
		itemIndex: make(map[string]int, len(items)),
	}
	for i := range slots {
		if _, dup := c.slotIndex[slots[i].ID]; !dup {
			c.slotIndex[slots[i].ID] = i
		}
	}
	for i := range items {
		if _, dup := c.itemIndex[items[i].ID]; !dup {
			c.itemIndex[items[i].ID] = i
		}
	}
	return c
}

// Slot returns the slot with the given ID, or nil.
func (c *Catalog) Slot(id string) *SlotConfig {
	i, ok := c.slotIndex[id]
	if !ok {
		return nil
	}
	return &c.Slots[i]
}

// Item returns the item with the given ID, or nil.
func (c *Catalog) Item(id string) *EquipmentItem {
	i, ok := c.itemIndex[id]
	if !ok {
		return nil
	}
	return &c.Items[i]
}

// ValidItemIDs returns the set of item IDs present in the catalog.
func (c *Catalog) ValidItemIDs() map[string]struct{} {
	ids := make(map[string]struct{}, len(c.Items))
	for i := range c.Items {
		ids[c.Items[i].ID] = struct{}{}
	}
	return ids
}

// RequiredSlots returns the slots marked as required, in catalog order.
func (c *Catalog) RequiredSlots() []SlotConfig {
	var required []SlotConfig
	for _, s := range c.Slots {
		if s.Required {
			required = append(required, s)
		}
	}
	return required
}
