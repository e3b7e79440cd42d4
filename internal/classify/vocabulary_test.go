package classify

import "testing"

func TestNewVocabulary(t *testing.T) {
	vocab, err := NewVocabulary([]string{"a", "b", "c"}, []int{0, 2})
	if err != nil {
		t.Fatalf("valid vocabulary rejected: %v", err)
	}
	if vocab.Len() != 3 {
		t.Errorf("Len() = %d, want 3", vocab.Len())
	}

	ctx := vocab.ContextIndices()
	if len(ctx) != 1 || ctx[0] != 1 {
		t.Errorf("ContextIndices() = %v, want [1]", ctx)
	}
}

func TestNewVocabularyValidation(t *testing.T) {
	tests := []struct {
		name    string
		phrases []string
		action  []int
	}{
		{"no phrases", nil, []int{0}},
		{"no action indices", []string{"a", "b"}, nil},
		{"index out of range", []string{"a", "b"}, []int{2}},
		{"negative index", []string{"a", "b"}, []int{-1}},
		{"duplicate index", []string{"a", "b", "c"}, []int{1, 1}},
		{"no context left", []string{"a", "b"}, []int{0, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewVocabulary(tt.phrases, tt.action); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestFromPartition(t *testing.T) {
	vocab, err := FromPartition([]string{"run", "jump"}, []string{"sit", "sleep", "read"})
	if err != nil {
		t.Fatalf("FromPartition failed: %v", err)
	}
	if vocab.Len() != 5 {
		t.Fatalf("Len() = %d, want 5", vocab.Len())
	}
	if vocab.Phrases[0] != "run" || vocab.Phrases[2] != "sit" {
		t.Errorf("action phrases must come first, got %v", vocab.Phrases)
	}
	if len(vocab.ActionIndices) != 2 || vocab.ActionIndices[0] != 0 || vocab.ActionIndices[1] != 1 {
		t.Errorf("ActionIndices = %v, want [0 1]", vocab.ActionIndices)
	}

	ctx := vocab.ContextIndices()
	if len(ctx) != 3 || ctx[0] != 2 || ctx[2] != 4 {
		t.Errorf("ContextIndices() = %v, want [2 3 4]", ctx)
	}
}

func TestFromPartitionEmptySides(t *testing.T) {
	if _, err := FromPartition(nil, []string{"sit"}); err == nil {
		t.Error("expected error for empty action list")
	}
	if _, err := FromPartition([]string{"run"}, nil); err == nil {
		t.Error("expected error for empty context list")
	}
}
