package llm

import "strings"

// Family groups models by how they accept images.
type Family string

const (
	// FamilyCheapVision takes image bytes directly alongside the prompt.
	FamilyCheapVision Family = "cheap_vision"
	// FamilyExpensiveVision only ever receives text; images are described
	// by the cheap family first.
	FamilyExpensiveVision Family = "expensive_vision"
)

const claudePrefix = "claude"

// FamilyForModel picks the family from the model identifier. Anything that is
// not a Claude model is served by the cheap vision family.
func FamilyForModel(model string) Family {
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(model)), claudePrefix) {
		return FamilyExpensiveVision
	}
	return FamilyCheapVision
}

// AcceptsImages reports whether requests for this family may carry raw images.
func (f Family) AcceptsImages() bool {
	return f == FamilyCheapVision
}
