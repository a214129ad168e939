package convert

import (
	"context"
	"fmt"
	"strings"

	"github.com/example/crossmodal/internal/hub"
	"github.com/example/crossmodal/internal/symbols"
	"github.com/example/crossmodal/internal/tensor"
	"github.com/example/crossmodal/internal/text"
)

// embeddingPreview caps how many embedding values the text report prints.
const embeddingPreview = 8

// vocoderTailSamples is the length of the multi-band synthesis filter tail
// the vocoder appends to every waveform. It is dropped before framing.
const vocoderTailSamples = 1024

// TextToText embeds the text with the sentence encoder and returns a
// human-readable embedding report. When detailed, the report also carries
// the mean and variance of the embedding values.
func (c *Converter) TextToText(ctx context.Context, input string, detailed bool) (string, error) {
	report, err := c.textToText(ctx, input, detailed)
	if err != nil {
		return c.fallbackText("text-to-text", err)
	}
	return report, nil
}

func (c *Converter) textToText(ctx context.Context, input string, detailed bool) (string, error) {
	normalized, err := text.Normalize(input)
	if err != nil {
		return "", err
	}

	ids, err := c.tokenize(ctx, normalized)
	if err != nil {
		return "", err
	}

	n := int64(len(ids))
	wordIDs, err := tensor.New(ids, []int64{1, n})
	if err != nil {
		return "", err
	}
	mask, err := tensor.New(ones(len(ids)), []int64{1, n})
	if err != nil {
		return "", err
	}
	typeIDs, err := tensor.New(make([]int64, len(ids)), []int64{1, n})
	if err != nil {
		return "", err
	}

	_, emb, err := c.runModel(ctx, hub.TextEncoder, map[string]*tensor.Tensor{
		tensorWordIDs:   wordIDs,
		tensorInputMask: mask,
		tensorTypeIDs:   typeIDs,
	}, tensorEmbeddings)
	if err != nil {
		return "", err
	}

	values, err := emb.Float32s()
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrBadOutputShape, hub.TextEncoder, err)
	}
	if len(values) == 0 {
		return "", fmt.Errorf("%w: %s returned empty embeddings", ErrBadOutputShape, hub.TextEncoder)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "embeddings %s [", formatShape(emb.Shape()))
	for i, v := range values {
		if i == embeddingPreview {
			b.WriteString(", ...")
			break
		}
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%.4f", v)
	}
	b.WriteString("]")

	if detailed {
		mean, variance, err := tensor.MeanVariance(emb)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, " mean=%.6f variance=%.6f", mean, variance)
	}

	return b.String(), nil
}

// TextToImage generates an image conditioned on the text. The output has
// shape [1, S, S, 3] where S is the configured image side length.
func (c *Converter) TextToImage(ctx context.Context, input string) (*tensor.Tensor, error) {
	img, err := c.textToImage(ctx, input)
	if err != nil {
		return c.fallbackTensor("text-to-image", c.imageShape(), err)
	}
	return img, nil
}

func (c *Converter) textToImage(ctx context.Context, input string) (*tensor.Tensor, error) {
	cond, err := c.textCondition(ctx, input)
	if err != nil {
		return nil, err
	}

	noise, err := tensor.New(c.noise(c.framing.NoiseDim), []int64{1, int64(c.framing.NoiseDim)})
	if err != nil {
		return nil, err
	}

	_, img, err := c.runModel(ctx, hub.ImageGenerator, map[string]*tensor.Tensor{
		tensorNoise:     noise,
		tensorCondition: cond,
	}, tensorImageOut)
	if err != nil {
		return nil, err
	}
	if err := expectShape(hub.ImageGenerator, img, c.imageShape()); err != nil {
		return nil, err
	}

	return img, nil
}

// TextToVideo generates a clip conditioned on the text, one generator run per
// frame. The output has shape [1, F, S, S, 3].
func (c *Converter) TextToVideo(ctx context.Context, input string) (*tensor.Tensor, error) {
	clip, err := c.textToVideo(ctx, input)
	if err != nil {
		return c.fallbackTensor("text-to-video", c.videoShape(), err)
	}
	return clip, nil
}

func (c *Converter) textToVideo(ctx context.Context, input string) (*tensor.Tensor, error) {
	cond, err := c.textCondition(ctx, input)
	if err != nil {
		return nil, err
	}
	return c.generateFrames(ctx, cond)
}

// textCondition tokenizes normalized text into the int64 conditioning tensor
// the generative models take.
func (c *Converter) textCondition(ctx context.Context, input string) (*tensor.Tensor, error) {
	normalized, err := text.Normalize(input)
	if err != nil {
		return nil, err
	}

	ids, err := c.tokenize(ctx, normalized)
	if err != nil {
		return nil, err
	}

	return tensor.New(ids, []int64{1, int64(len(ids))})
}

// generateFrames runs the video generator once per frame with the same
// conditioning tensor and stacks the frames on a new axis.
func (c *Converter) generateFrames(ctx context.Context, cond *tensor.Tensor) (*tensor.Tensor, error) {
	frames := make([]*tensor.Tensor, 0, c.framing.VideoFrameCount)
	for i := 0; i < c.framing.VideoFrameCount; i++ {
		_, frame, err := c.runModel(ctx, hub.VideoGenerator, map[string]*tensor.Tensor{
			tensorCondition: cond,
		}, tensorFrame)
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
		if err := expectShape(hub.VideoGenerator, frame, c.imageShape()); err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
		frames = append(frames, frame)
	}

	return tensor.Stack(frames)
}

// TextToAudio speaks the text: transliterate, encode to symbol IDs, frame to
// the fixed token length, run the acoustic model to a mel spectrogram, and
// vocode it. The waveform is trimmed of the vocoder tail and framed to the
// configured sample count.
func (c *Converter) TextToAudio(ctx context.Context, input string) (Audio, error) {
	out, err := c.textToAudio(ctx, input)
	if err != nil {
		ph, perr := c.fallbackTensor("text-to-audio", c.audioShape(), err)
		if perr != nil {
			return Audio{}, perr
		}
		return Audio{Samples: ph, SampleRate: DefaultSampleRate}, nil
	}
	return out, nil
}

func (c *Converter) textToAudio(ctx context.Context, input string) (Audio, error) {
	normalized, err := text.Normalize(input)
	if err != nil {
		return Audio{}, err
	}
	spoken := c.translit.Transliterate(normalized)

	frameLen := c.framing.TokenFrameLength
	ids := symbols.Frame(c.encoder.Encode(spoken), frameLen)

	symbolIDs, err := tensor.New(ids, []int64{1, int64(frameLen)})
	if err != nil {
		return Audio{}, err
	}
	lengths, err := tensor.New([]int64{int64(frameLen)}, []int64{1})
	if err != nil {
		return Audio{}, err
	}
	speakers, err := tensor.New([]int64{0}, []int64{1})
	if err != nil {
		return Audio{}, err
	}

	_, mel, err := c.runModel(ctx, hub.AcousticDE, map[string]*tensor.Tensor{
		tensorSymbolIDs:    symbolIDs,
		tensorInputLengths: lengths,
		tensorSpeakerIDs:   speakers,
	}, tensorMel)
	if err != nil {
		return Audio{}, err
	}
	if melShape := mel.Shape(); len(melShape) != 3 || melShape[0] != 1 {
		return Audio{}, fmt.Errorf("%w: %s output shape %v, want [1, T, D]", ErrBadOutputShape, hub.AcousticDE, melShape)
	}

	vocoder, wave, err := c.runModel(ctx, hub.VocoderDE, map[string]*tensor.Tensor{
		tensorMel: mel,
	}, tensorAudio)
	if err != nil {
		return Audio{}, err
	}

	samples, err := wave.Float32s()
	if err != nil {
		return Audio{}, fmt.Errorf("%w: %s: %v", ErrBadOutputShape, hub.VocoderDE, err)
	}
	if len(samples) > vocoderTailSamples {
		samples = samples[:len(samples)-vocoderTailSamples]
	}
	samples = tensor.FitLength(samples, c.framing.AudioSampleCount)

	out, err := tensor.New(samples, c.audioShape())
	if err != nil {
		return Audio{}, err
	}

	rate := vocoder.Bundle.SampleRate
	if rate == 0 {
		rate = DefaultSampleRate
	}

	return Audio{Samples: out, SampleRate: rate}, nil
}

func ones(n int) []int64 {
	out := make([]int64, n)
	for i := range out {
		out[i] = 1
	}
	return out
}
