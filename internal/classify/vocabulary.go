package classify

import "fmt"

// Vocabulary is the ordered phrase list scenes are scored against,
// with an explicit set of indices marking the action phrases. Every
// remaining index is a context phrase.
type Vocabulary struct {
	Phrases       []string
	ActionIndices []int
}

// NewVocabulary validates the phrase list and action index set. The
// action set must be non-empty, in range, free of duplicates, and must
// leave at least one context phrase.
func NewVocabulary(phrases []string, actionIndices []int) (*Vocabulary, error) {
	if len(phrases) == 0 {
		return nil, fmt.Errorf("vocabulary has no phrases")
	}
	if len(actionIndices) == 0 {
		return nil, fmt.Errorf("vocabulary has no action phrases")
	}

	seen := make(map[int]bool, len(actionIndices))
	for _, idx := range actionIndices {
		if idx < 0 || idx >= len(phrases) {
			return nil, fmt.Errorf("action index %d out of range for %d phrases", idx, len(phrases))
		}
		if seen[idx] {
			return nil, fmt.Errorf("duplicate action index %d", idx)
		}
		seen[idx] = true
	}
	if len(seen) == len(phrases) {
		return nil, fmt.Errorf("vocabulary has no context phrases")
	}

	return &Vocabulary{Phrases: phrases, ActionIndices: actionIndices}, nil
}

// FromPartition builds a vocabulary from separate action and context
// phrase lists. Action phrases come first, so the action indices are
// [0, len(action)).
func FromPartition(action, context []string) (*Vocabulary, error) {
	phrases := make([]string, 0, len(action)+len(context))
	phrases = append(phrases, action...)
	phrases = append(phrases, context...)

	indices := make([]int, len(action))
	for i := range indices {
		indices[i] = i
	}
	return NewVocabulary(phrases, indices)
}

// ContextIndices returns the complement of the action index set, ascending.
func (v *Vocabulary) ContextIndices() []int {
	action := make(map[int]bool, len(v.ActionIndices))
	for _, idx := range v.ActionIndices {
		action[idx] = true
	}

	out := make([]int, 0, len(v.Phrases)-len(v.ActionIndices))
	for i := range v.Phrases {
		if !action[i] {
			out = append(out, i)
		}
	}
	return out
}

// Len returns the number of phrases
func (v *Vocabulary) Len() int {
	return len(v.Phrases)
}
