package classify

import (
	"context"
	"fmt"
	"os"

	"github.com/keagan/sceneforge/internal/scenes"
	"github.com/nfnt/resize"
	"github.com/rs/zerolog"
	ort "github.com/yalue/onnxruntime_go"
)

// Encoder scores one frame against the vocabulary, returning a raw
// similarity logit per phrase.
type Encoder interface {
	ScoreFrame(ctx context.Context, frame *scenes.Frame) ([]float32, error)
	Close() error
}

const clipImageSize = 224

// CLIP preprocessing constants
var (
	clipMean = [3]float32{0.48145466, 0.4578275, 0.40821073}
	clipStd  = [3]float32{0.26862954, 0.26130258, 0.27577711}
)

// ClipEncoder runs the sayantan47/clip-vit-b32-onnx export of CLIP
// ViT-B/32. The vocabulary is tokenized once at construction and the
// text tensors are reused for every frame.
type ClipEncoder struct {
	logger      zerolog.Logger
	modelPath   string
	session     *ort.DynamicAdvancedSession
	inputIDs    *ort.Tensor[int64]
	attnMask    *ort.Tensor[int64]
	pixelShape  ort.Shape
	phraseCount int
}

// NewClipEncoder loads the CLIP model and tokenizes the vocabulary phrases.
func NewClipEncoder(logger zerolog.Logger, modelPath, tokenizerPath string, vocab *Vocabulary) (*ClipEncoder, error) {
	if _, err := os.Stat(modelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("model file not found: %s", modelPath)
	}
	if _, err := os.Stat(tokenizerPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("tokenizer file not found: %s", tokenizerPath)
	}

	if err := ort.InitializeEnvironment(); err != nil {
		return nil, fmt.Errorf("failed to initialize ONNX runtime: %w", err)
	}

	batch, err := tokenizePhrases(tokenizerPath, vocab.Phrases)
	if err != nil {
		return nil, err
	}

	m := vocab.Len()
	textShape := ort.NewShape(int64(m), contextLength)

	inputIDs, err := ort.NewTensor(textShape, batch.ids)
	if err != nil {
		return nil, fmt.Errorf("failed to create input_ids tensor: %w", err)
	}

	attnMask, err := ort.NewTensor(textShape, batch.mask)
	if err != nil {
		inputIDs.Destroy()
		return nil, fmt.Errorf("failed to create attention_mask tensor: %w", err)
	}

	inputNames := []string{"input_ids", "attention_mask", "pixel_values"}
	outputNames := []string{"logits_per_image"}

	sess, err := ort.NewDynamicAdvancedSession(modelPath, inputNames, outputNames, nil)
	if err != nil {
		inputIDs.Destroy()
		attnMask.Destroy()
		return nil, fmt.Errorf("failed to create CLIP session: %w", err)
	}

	logger.Info().
		Str("model", modelPath).
		Int("phrases", m).
		Strs("inputs", inputNames).
		Strs("outputs", outputNames).
		Msg("CLIP model loaded")

	return &ClipEncoder{
		logger:      logger.With().Str("component", "clip").Logger(),
		modelPath:   modelPath,
		session:     sess,
		inputIDs:    inputIDs,
		attnMask:    attnMask,
		pixelShape:  ort.NewShape(1, 3, clipImageSize, clipImageSize),
		phraseCount: m,
	}, nil
}

// ScoreFrame runs CLIP on one frame and returns logits_per_image, one
// entry per vocabulary phrase.
func (c *ClipEncoder) ScoreFrame(ctx context.Context, frame *scenes.Frame) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !frame.Valid() {
		return nil, fmt.Errorf("frame is not a valid decoded image")
	}

	pixelTensor, err := c.preprocessFrame(frame)
	if err != nil {
		return nil, fmt.Errorf("frame preprocessing failed: %w", err)
	}
	defer pixelTensor.Destroy()

	logitsTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(c.phraseCount)))
	if err != nil {
		return nil, fmt.Errorf("failed to create logits_per_image tensor: %w", err)
	}
	defer logitsTensor.Destroy()

	// Order of inputs/outputs must match the names given to the session.
	inputs := []ort.ArbitraryTensor{c.inputIDs, c.attnMask, pixelTensor}
	outputs := []ort.ArbitraryTensor{logitsTensor}
	if err := c.session.Run(inputs, outputs); err != nil {
		return nil, fmt.Errorf("CLIP inference failed: %w", err)
	}

	data := logitsTensor.GetData()
	if len(data) != c.phraseCount {
		return nil, fmt.Errorf("unexpected logits_per_image length %d, want %d", len(data), c.phraseCount)
	}

	logits := make([]float32, c.phraseCount)
	copy(logits, data)
	return logits, nil
}

// preprocessFrame -> pixel_values (float32[1,3,224,224]) with CLIP normalization.
func (c *ClipEncoder) preprocessFrame(frame *scenes.Frame) (*ort.Tensor[float32], error) {
	resized := resize.Resize(clipImageSize, clipImageSize, frame.RGBA(), resize.Bilinear)

	data := make([]float32, 3*clipImageSize*clipImageSize)
	bounds := resized.Bounds()
	idx := 0

	for ch := 0; ch < 3; ch++ {
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				r, g, b, _ := resized.At(x, y).RGBA()
				var v float32
				switch ch {
				case 0:
					v = float32(r>>8) / 255.0
				case 1:
					v = float32(g>>8) / 255.0
				case 2:
					v = float32(b>>8) / 255.0
				}
				data[idx] = (v - clipMean[ch]) / clipStd[ch]
				idx++
			}
		}
	}

	return ort.NewTensor(c.pixelShape, data)
}

// Close releases the phrase tensors, the session, and the ONNX environment.
func (c *ClipEncoder) Close() error {
	c.logger.Info().Msg("closing CLIP model session")
	if c.inputIDs != nil {
		if err := c.inputIDs.Destroy(); err != nil {
			return err
		}
		c.inputIDs = nil
	}
	if c.attnMask != nil {
		if err := c.attnMask.Destroy(); err != nil {
			return err
		}
		c.attnMask = nil
	}
	if c.session != nil {
		if err := c.session.Destroy(); err != nil {
			return err
		}
		c.session = nil
	}
	return ort.DestroyEnvironment()
}
