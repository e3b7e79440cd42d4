package classify

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/keagan/sceneforge/internal/scenes"
	"github.com/rs/zerolog"
)

// Classifier assigns a category to each scene by scoring its frames
// against the vocabulary and averaging the per-frame distributions.
type Classifier struct {
	logger  zerolog.Logger
	encoder Encoder
	vocab   *Vocabulary
}

// New creates a classifier around an encoder and a vocabulary. The
// encoder is owned by the caller; its lifecycle is not managed here.
func New(logger zerolog.Logger, encoder Encoder, vocab *Vocabulary) *Classifier {
	return &Classifier{
		logger:  logger.With().Str("component", "classify").Logger(),
		encoder: encoder,
		vocab:   vocab,
	}
}

// frameFailure records one frame that could not be scored
type frameFailure struct {
	frame int
	err   error
}

// ClassifyScenes scores every bundle and returns classification records
// keyed by scene index. Scenes without a valid first frame, and scenes
// where no frame could be scored, are absent from the result.
func (c *Classifier) ClassifyScenes(ctx context.Context, bundles map[int]*scenes.Bundle) (map[int]*scenes.Classification, error) {
	indices := make([]int, 0, len(bundles))
	for i := range bundles {
		indices = append(indices, i)
	}
	sort.Ints(indices)

	results := make(map[int]*scenes.Classification, len(bundles))

	for _, i := range indices {
		record, err := c.classifyBundle(ctx, bundles[i])
		if err != nil {
			return nil, err
		}
		if record != nil {
			results[i] = record
		}
	}

	c.logger.Info().
		Int("scenes", len(bundles)).
		Int("classified", len(results)).
		Msg("scene classification complete")

	return results, nil
}

// classifyBundle converts one bundle into a classification record. A
// nil record without error means the scene was skipped.
func (c *Classifier) classifyBundle(ctx context.Context, bundle *scenes.Bundle) (*scenes.Classification, error) {
	log := c.logger.With().Int("scene", bundle.Index).Logger()

	if bundle.FirstFrame == nil || !bundle.FirstFrame.Valid() {
		log.Warn().Msg("scene has no valid first frame, skipping")
		return nil, nil
	}

	scored, failures, err := c.scoreFrames(ctx, bundle)
	if err != nil {
		return nil, err
	}
	for _, f := range failures {
		log.Warn().Err(f.err).Int("frame", f.frame).Msg("frame scoring failed, frame skipped")
	}
	if len(scored) == 0 {
		log.Warn().Int("frames", len(bundle.Frames)).Msg("no frame could be scored, skipping scene")
		return nil, nil
	}

	mean := make([]float64, c.vocab.Len())
	for _, probs := range scored {
		for j, p := range probs {
			mean[j] += p
		}
	}
	for j := range mean {
		mean[j] /= float64(len(scored))
	}

	actionConf := meanAt(mean, c.vocab.ActionIndices)
	contextConf := meanAt(mean, c.vocab.ContextIndices())

	// Exact equality lands on the context category.
	category := scenes.CategoryContext
	confidence := contextConf
	if actionConf > contextConf {
		category = scenes.CategoryAction
		confidence = actionConf
	}

	record := &scenes.Classification{
		Category:        category,
		Confidence:      confidence,
		StartTime:       bundle.Interval.Start.String(),
		EndTime:         bundle.Interval.End.String(),
		Duration:        bundle.Interval.Duration(),
		BestDescription: c.vocab.Phrases[argmax(mean)],
		FirstFrame:      bundle.FirstFrame,
	}

	log.Info().
		Str("category", record.Category).
		Float64("confidence", record.Confidence).
		Str("best", record.BestDescription).
		Int("frames_scored", len(scored)).
		Int("frames_failed", len(failures)).
		Msg("scene classified")

	return record, nil
}

// scoreFrames runs the encoder over every frame in the bundle and
// partitions the outcomes into softmax distributions and failures.
// Only context cancellation aborts the scene.
func (c *Classifier) scoreFrames(ctx context.Context, bundle *scenes.Bundle) ([][]float64, []frameFailure, error) {
	scored := make([][]float64, 0, len(bundle.Frames))
	var failures []frameFailure

	for i, frame := range bundle.Frames {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		logits, err := c.encoder.ScoreFrame(ctx, frame)
		if err != nil {
			if ctx.Err() != nil {
				return nil, nil, ctx.Err()
			}
			failures = append(failures, frameFailure{frame: i, err: err})
			continue
		}
		if len(logits) != c.vocab.Len() {
			failures = append(failures, frameFailure{
				frame: i,
				err:   fmt.Errorf("got %d logits for %d phrases", len(logits), c.vocab.Len()),
			})
			continue
		}

		scored = append(scored, softmax(logits))
	}

	return scored, failures, nil
}

// softmax converts raw similarity logits into a probability
// distribution. The max logit is subtracted first so large logits
// cannot overflow the exponential.
func softmax(logits []float32) []float64 {
	maxLogit := float64(logits[0])
	for _, l := range logits[1:] {
		if float64(l) > maxLogit {
			maxLogit = float64(l)
		}
	}

	probs := make([]float64, len(logits))
	var sum float64
	for i, l := range logits {
		e := math.Exp(float64(l) - maxLogit)
		probs[i] = e
		sum += e
	}
	for i := range probs {
		probs[i] /= sum
	}
	return probs
}

// meanAt averages the score entries at the given indices
func meanAt(scores []float64, indices []int) float64 {
	if len(indices) == 0 {
		return 0
	}
	var sum float64
	for _, i := range indices {
		sum += scores[i]
	}
	return sum / float64(len(indices))
}

// argmax returns the index of the highest score, first index on ties
func argmax(scores []float64) int {
	best := 0
	for i, s := range scores {
		if s > scores[best] {
			best = i
		}
	}
	return best
}
