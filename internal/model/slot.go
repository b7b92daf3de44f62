package model

// SlotCount — число слотов на персонаже. Каталог с другим количеством отклоняется загрузчиком.
const SlotCount = 10

// SlotConfig — фиксированное место на персонаже, куда надевается экипировка.
// Создаётся загрузчиком каталога и не меняется в течение сессии.
type SlotConfig struct {
	ID          string `json:"id" jsonschema:"required,minLength=1"`
	Type        string `json:"type,omitempty"`
	DisplayName string `json:"displayName,omitempty"`

	// Position и Size относятся к вёрстке и передаются UI как есть.
	Position SlotPosition `json:"position"`
	Size     SlotSize     `json:"size"`

	Required     bool     `json:"required"`
	MaxCount     int      `json:"maxCount" jsonschema:"required,minimum=1"`
	AllowedTypes []string `json:"allowedTypes" jsonschema:"required,minItems=1"`
}

// SlotPosition is a percentage-based offset relative to the character image.
type SlotPosition struct {
	Top  string `json:"top"`
	Left string `json:"left"`
}

// SlotSize is a percentage-based size relative to the character image width.
type SlotSize struct {
	Width  string `json:"width"`
	Height string `json:"height"`
}

// AcceptsType reports whether itemType is listed in AllowedTypes.
func (s *SlotConfig) AcceptsType(itemType string) bool {
	for _, t := range s.AllowedTypes {
		if t == itemType {
			return true
		}
	}
	return false
}
