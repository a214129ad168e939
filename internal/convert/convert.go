// Package convert implements the modality conversions: text and images in,
// text, images, video, and audio out. Every conversion resolves its models
// through the registry cache, so models load lazily on first use and stay
// resident afterwards.
package convert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"

	"github.com/example/crossmodal/internal/config"
	"github.com/example/crossmodal/internal/hub"
	"github.com/example/crossmodal/internal/registry"
	"github.com/example/crossmodal/internal/symbols"
	"github.com/example/crossmodal/internal/tensor"
	"github.com/example/crossmodal/internal/text"
	"github.com/example/crossmodal/internal/tokenizer"
)

// ErrBadOutputShape is returned when a model produces an output that is
// missing or does not have the shape the conversion expects.
var ErrBadOutputShape = errors.New("unexpected model output")

// ErrBadInput is returned when a conversion input is missing or malformed.
var ErrBadInput = errors.New("invalid conversion input")

// DefaultSampleRate is assumed for generated audio when the vocoder bundle
// does not declare a sample rate.
const DefaultSampleRate = 16000

// Graph tensor names the model bundles are expected to declare.
const (
	tensorWordIDs    = "input_word_ids"
	tensorInputMask  = "input_mask"
	tensorTypeIDs    = "input_type_ids"
	tensorEmbeddings = "embeddings"

	tensorNoise     = "noise"
	tensorCondition = "condition"
	tensorImageOut  = "image"
	tensorFrame     = "frame"

	tensorSymbolIDs    = "input_ids"
	tensorInputLengths = "input_lengths"
	tensorSpeakerIDs   = "speaker_ids"
	tensorMel          = "mel"
	tensorAudio        = "audio"

	tensorImageIn = "image"
	tensorLogits  = "logits"

	tensorContent  = "content"
	tensorStyle    = "style"
	tensorStylized = "stylized"
)

// Audio is a generated waveform together with its sample rate.
type Audio struct {
	// Samples has shape [1, N] where N is the configured sample count.
	Samples    *tensor.Tensor
	SampleRate int
}

// Converter runs the modality conversions against a model cache.
// Safe for concurrent use.
type Converter struct {
	models      *registry.Cache
	framing     config.FramingConfig
	placeholder bool
	log         *slog.Logger

	translit *text.Transliterator
	encoder  *symbols.Encoder
	noise    func(n int) []float32

	mu     sync.Mutex
	tok    tokenizer.Tokenizer
	labels map[string][]string
}

// Option customizes a Converter.
type Option func(*Converter)

// WithLogger sets the logger conversions report through.
func WithLogger(log *slog.Logger) Option {
	return func(c *Converter) {
		if log != nil {
			c.log = log
		}
	}
}

// WithTokenizer overrides the tokenizer instead of loading the SentencePiece
// model from the text-encoder bundle.
func WithTokenizer(tok tokenizer.Tokenizer) Option {
	return func(c *Converter) { c.tok = tok }
}

// WithNoiseSource overrides the latent noise source of the image generator.
// Used by tests; the default draws from a standard normal distribution.
func WithNoiseSource(noise func(n int) []float32) Option {
	return func(c *Converter) {
		if noise != nil {
			c.noise = noise
		}
	}
}

// New builds a Converter over the given model cache.
func New(models *registry.Cache, cfg config.Config, opts ...Option) *Converter {
	c := &Converter{
		models:      models,
		framing:     cfg.Framing,
		placeholder: cfg.Convert.PlaceholderOnError,
		log:         slog.Default(),
		translit:    text.NewTransliterator(),
		encoder:     symbols.NewEncoder(),
		noise:       gaussianNoise,
		labels:      make(map[string][]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func gaussianNoise(n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(rand.NormFloat64())
	}
	return out
}

// runModel resolves a model through the cache, runs it, and returns the named
// output. A missing output is reported as ErrBadOutputShape.
func (c *Converter) runModel(ctx context.Context, modelID string, inputs map[string]*tensor.Tensor, output string) (*registry.Model, *tensor.Tensor, error) {
	m, err := c.models.Model(ctx, modelID)
	if err != nil {
		return nil, nil, err
	}

	outputs, err := m.Run(ctx, inputs)
	if err != nil {
		return nil, nil, fmt.Errorf("run %s: %w", modelID, err)
	}

	out, ok := outputs[output]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s produced no output %q", ErrBadOutputShape, modelID, output)
	}

	return m, out, nil
}

func expectShape(modelID string, t *tensor.Tensor, shape []int64) error {
	if !t.SameShape(shape) {
		return fmt.Errorf("%w: %s output shape %v, want %v", ErrBadOutputShape, modelID, t.Shape(), shape)
	}
	return nil
}

// tokenize returns subword token IDs for the text-encoder family of models,
// loading the SentencePiece model from the text-encoder bundle on first use.
func (c *Converter) tokenize(ctx context.Context, s string) ([]int64, error) {
	tok, err := c.tokenizerFor(ctx)
	if err != nil {
		return nil, err
	}

	ids, err := tok.Encode(s)
	if err != nil {
		return nil, fmt.Errorf("tokenize: %w", err)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: text produced no tokens", ErrBadInput)
	}

	return ids, nil
}

func (c *Converter) tokenizerFor(ctx context.Context) (tokenizer.Tokenizer, error) {
	c.mu.Lock()
	tok := c.tok
	c.mu.Unlock()
	if tok != nil {
		return tok, nil
	}

	m, err := c.models.Model(ctx, hub.TextEncoder)
	if err != nil {
		return nil, err
	}

	path := m.Bundle.TokenizerPath()
	if path == "" {
		return nil, fmt.Errorf("model %s: bundle declares no tokenizer", m.ID)
	}

	loaded, err := tokenizer.NewSentencePieceTokenizer(path)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tok == nil {
		c.tok = loaded
	}
	return c.tok, nil
}

// labelsFor returns the model's label table, cached per model ID. A model
// without a label table yields nil.
func (c *Converter) labelsFor(m *registry.Model) ([]string, error) {
	c.mu.Lock()
	cached, ok := c.labels[m.ID]
	c.mu.Unlock()
	if ok {
		return cached, nil
	}

	labels, err := m.Bundle.LoadLabels()
	if err != nil {
		return nil, fmt.Errorf("model %s: %w", m.ID, err)
	}

	c.mu.Lock()
	c.labels[m.ID] = labels
	c.mu.Unlock()

	return labels, nil
}

// fallbackTensor implements the legacy placeholder behavior: when enabled, a
// failed conversion degrades to an all-zero tensor of the canonical output
// shape instead of an error.
func (c *Converter) fallbackTensor(op string, shape []int64, err error) (*tensor.Tensor, error) {
	if !c.placeholder {
		return nil, err
	}

	ph, zerr := tensor.Zeros(tensor.Float32, shape)
	if zerr != nil {
		return nil, err
	}

	c.log.Warn("conversion failed, returning placeholder", "op", op, "error", err)
	return ph, nil
}

func (c *Converter) fallbackText(op string, err error) (string, error) {
	if !c.placeholder {
		return "", err
	}

	c.log.Warn("conversion failed, returning placeholder", "op", op, "error", err)
	return "", nil
}

func (c *Converter) imageShape() []int64 {
	side := int64(c.framing.ImageSize)
	return []int64{1, side, side, 3}
}

func (c *Converter) videoShape() []int64 {
	side := int64(c.framing.ImageSize)
	return []int64{1, int64(c.framing.VideoFrameCount), side, side, 3}
}

func (c *Converter) audioShape() []int64 {
	return []int64{1, int64(c.framing.AudioSampleCount)}
}

// validateImage checks that an image input is a float32 tensor with a
// leading batch dimension of one.
func validateImage(img *tensor.Tensor) error {
	if img == nil {
		return fmt.Errorf("%w: image tensor is required", ErrBadInput)
	}
	if img.DType() != tensor.Float32 {
		return fmt.Errorf("%w: image dtype %s, want %s", ErrBadInput, img.DType(), tensor.Float32)
	}
	shape := img.Shape()
	if len(shape) != 4 || shape[0] != 1 {
		return fmt.Errorf("%w: image shape %v, want [1, H, W, C]", ErrBadInput, shape)
	}
	return nil
}

func formatShape(shape []int64) string {
	parts := make([]string, len(shape))
	for i, d := range shape {
		parts[i] = strconv.FormatInt(d, 10)
	}
	return strings.Join(parts, "x")
}
