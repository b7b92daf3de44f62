package model

// Equipped maps a slot ID to the ordered IDs of the items occupying it.
// A slot with no items has no key; an empty sequence is never stored.
type Equipped map[string][]string

// Count возвращает количество предметов в слоте.
func (e Equipped) Count(slotID string) int {
	return len(e[slotID])
}

// Clone returns a deep copy. Empty sequences are dropped from the copy.
func (e Equipped) Clone() Equipped {
	out := make(Equipped, len(e))
	for slotID, ids := range e {
		if len(ids) == 0 {
			continue
		}
		out[slotID] = append([]string(nil), ids...)
	}
	return out
}

// Push appends itemID to the slot.
func (e Equipped) Push(slotID, itemID string) {
	e[slotID] = append(e[slotID], itemID)
}

// Pop removes the most recently added item from the slot and returns it.
// The slot key is deleted when its last item is removed.
func (e Equipped) Pop(slotID string) (string, bool) {
	ids := e[slotID]
	if len(ids) == 0 {
		return "", false
	}
	last := ids[len(ids)-1]
	if len(ids) == 1 {
		delete(e, slotID)
	} else {
		e[slotID] = ids[:len(ids)-1]
	}
	return last, true
}
