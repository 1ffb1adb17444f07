package prompt

import (
	_ "embed"
	"strings"
)

var (
	//go:embed template/consultant.txt
	consultantRaw string

	//go:embed template/first_turn_menu.txt
	firstTurnMenuRaw string
)

// PromptSet holds the fixed system instruction texts. Consultant is the
// base policy; FirstTurnMenu is appended only on a session's first turn.
type PromptSet struct {
	Consultant    string
	FirstTurnMenu string
}

// LoadPromptSet returns the embedded prompts, trimmed. Safe to call
// concurrently; the embed is compile-time.
func LoadPromptSet() PromptSet {
	return PromptSet{
		Consultant:    strings.TrimSpace(consultantRaw),
		FirstTurnMenu: strings.TrimSpace(firstTurnMenuRaw),
	}
}
