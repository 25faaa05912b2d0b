package models

// HotkeySettings maps study-session actions to keyboard keys. Stored
// per learner so hotkeys follow the account across devices.
type HotkeySettings struct {
	Reveal   string `json:"reveal" validate:"required,max=16"`
	Quality0 string `json:"quality0" validate:"required,max=16"`
	Quality1 string `json:"quality1" validate:"required,max=16"`
	Quality2 string `json:"quality2" validate:"required,max=16"`
	Quality3 string `json:"quality3" validate:"required,max=16"`
	Next     string `json:"next" validate:"required,max=16"`
	Undo     string `json:"undo" validate:"required,max=16"`
}

// DefaultHotkeys mirrors the bindings the study UI ships with.
func DefaultHotkeys() HotkeySettings {
	return HotkeySettings{
		Reveal:   " ",
		Quality0: "1",
		Quality1: "2",
		Quality2: "3",
		Quality3: "4",
		Next:     " ",
		Undo:     "u",
	}
}
