package model

// EquipmentItem — предмет каталога, который можно надеть в один или несколько слотов.
//
// AllowedSlots после загрузки всегда non-nil: пустой slice означает
// «без ограничений» (совместимость решается только по типу).
type EquipmentItem struct {
	ID          string `json:"id" jsonschema:"required,minLength=1"`
	Type        string `json:"type" jsonschema:"required,minLength=1"`
	Brand       string `json:"brand" jsonschema:"required,minLength=1"`
	Model       string `json:"model" jsonschema:"required,minLength=1"`
	DisplayName string `json:"displayName" jsonschema:"required,minLength=1"`
	Icon        string `json:"icon" jsonschema:"required,minLength=1"`
	Image       string `json:"image" jsonschema:"required,minLength=1"`
	Summary     string `json:"summary" jsonschema:"required,minLength=1"`

	Specs        *ItemSpecs `json:"specs,omitempty"`
	Tags         []string   `json:"tags,omitempty"`
	Aliases      []string   `json:"aliases,omitempty"`
	AllowedSlots []string   `json:"allowedSlots"`

	// Detail card fields, all optional.
	CertComparison      string   `json:"certComparison,omitempty"`
	Advantages          []string `json:"advantages,omitempty"`
	Disadvantages       []string `json:"disadvantages,omitempty"`
	ApplicableScenarios string   `json:"applicableScenarios,omitempty"`
}

// ItemSpecs holds optional technical specifications.
type ItemSpecs struct {
	WeightG *float64 `json:"weight_g,omitempty"`
	Vents   *float64 `json:"vents,omitempty"`
	Certs   []string `json:"certs,omitempty"`
}

// RequiredItemFields lists the item fields that must be non-empty strings.
var RequiredItemFields = []string{"id", "type", "brand", "model", "displayName", "icon", "image", "summary"}

// IsUnrestricted reports whether the item may go to any slot accepting its type.
func (it *EquipmentItem) IsUnrestricted() bool {
	return len(it.AllowedSlots) == 0
}

// AllowsSlot reports whether slotID passes the item's own slot restriction.
func (it *EquipmentItem) AllowsSlot(slotID string) bool {
	if it.IsUnrestricted() {
		return true
	}
	for _, id := range it.AllowedSlots {
		if id == slotID {
			return true
		}
	}
	return false
}
