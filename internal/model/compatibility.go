package model

// IsCompatible reports whether item may occupy slot.
//
// Both conditions must hold:
//   - item.AllowedSlots is empty, or contains slot.ID
//   - slot.AllowedTypes is non-empty and contains item.Type
//
// A slot with empty AllowedTypes never accepts anything.
func IsCompatible(item *EquipmentItem, slot *SlotConfig) bool {
	if item == nil || slot == nil {
		return false
	}
	if !item.AllowsSlot(slot.ID) {
		return false
	}
	return len(slot.AllowedTypes) > 0 && slot.AcceptsType(item.Type)
}

// CompatibleSlots возвращает слоты, совместимые с item, в исходном порядке.
// Дубликаты во входе оцениваются независимо.
func CompatibleSlots(item *EquipmentItem, slots []SlotConfig) []SlotConfig {
	result := make([]SlotConfig, 0, len(slots))
	for i := range slots {
		if IsCompatible(item, &slots[i]) {
			result = append(result, slots[i])
		}
	}
	return result
}
