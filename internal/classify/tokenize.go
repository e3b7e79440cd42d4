package classify

import (
	"fmt"

	"github.com/sugarme/tokenizer/pretrained"
)

// contextLength is CLIP's fixed text sequence length
const contextLength = 77

const endOfTextToken = "<|endoftext|>"

// phraseBatch holds the tokenized vocabulary as flat row-major
// [phrases * contextLength] id and attention mask slices.
type phraseBatch struct {
	ids  []int64
	mask []int64
}

// tokenizePhrases encodes every phrase into a fixed-length row of
// token ids plus an attention mask, padded with the end-of-text token.
// Phrases longer than the context window are truncated with the final
// token forced back to end-of-text.
func tokenizePhrases(tokenizerPath string, phrases []string) (*phraseBatch, error) {
	tk, err := pretrained.FromFile(tokenizerPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load tokenizer %s: %w", tokenizerPath, err)
	}

	padID, ok := tk.TokenToId(endOfTextToken)
	if !ok {
		return nil, fmt.Errorf("tokenizer has no %s token", endOfTextToken)
	}

	batch := &phraseBatch{
		ids:  make([]int64, 0, len(phrases)*contextLength),
		mask: make([]int64, 0, len(phrases)*contextLength),
	}

	for _, phrase := range phrases {
		enc, err := tk.EncodeSingle(phrase, true)
		if err != nil {
			return nil, fmt.Errorf("failed to tokenize %q: %w", phrase, err)
		}

		ids := enc.Ids
		if len(ids) > contextLength {
			ids = append([]int{}, ids[:contextLength]...)
			ids[contextLength-1] = padID
		}

		for i := 0; i < contextLength; i++ {
			if i < len(ids) {
				batch.ids = append(batch.ids, int64(ids[i]))
				batch.mask = append(batch.mask, 1)
			} else {
				batch.ids = append(batch.ids, int64(padID))
				batch.mask = append(batch.mask, 0)
			}
		}
	}

	return batch, nil
}
