package convert

import (
	"context"
	"fmt"
	"strconv"

	"github.com/example/crossmodal/internal/hub"
	"github.com/example/crossmodal/internal/tensor"
)

// ImageToText classifies the image and returns the top-1 label. When the
// classifier bundle carries no label table, the class index is returned as a
// decimal string.
func (c *Converter) ImageToText(ctx context.Context, image *tensor.Tensor) (string, error) {
	label, err := c.imageToText(ctx, image)
	if err != nil {
		return c.fallbackText("image-to-text", err)
	}
	return label, nil
}

func (c *Converter) imageToText(ctx context.Context, image *tensor.Tensor) (string, error) {
	if err := validateImage(image); err != nil {
		return "", err
	}

	m, logits, err := c.runModel(ctx, hub.ImageClassifier, map[string]*tensor.Tensor{
		tensorImageIn: image,
	}, tensorLogits)
	if err != nil {
		return "", err
	}

	top, err := tensor.ArgMax(logits)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrBadOutputShape, hub.ImageClassifier, err)
	}

	labels, err := c.labelsFor(m)
	if err != nil {
		return "", err
	}
	if top < len(labels) {
		return labels[top], nil
	}
	return strconv.Itoa(top), nil
}

// ImageToImage restyles the image. The content and style inputs are the same
// tensor, so the model re-renders the image in its own learned style. The
// output keeps the input's shape.
func (c *Converter) ImageToImage(ctx context.Context, image *tensor.Tensor) (*tensor.Tensor, error) {
	out, err := c.imageToImage(ctx, image)
	if err != nil {
		shape := c.imageShape()
		if image != nil && validateImage(image) == nil {
			shape = image.Shape()
		}
		return c.fallbackTensor("image-to-image", shape, err)
	}
	return out, nil
}

func (c *Converter) imageToImage(ctx context.Context, image *tensor.Tensor) (*tensor.Tensor, error) {
	if err := validateImage(image); err != nil {
		return nil, err
	}

	_, stylized, err := c.runModel(ctx, hub.ImageStylizer, map[string]*tensor.Tensor{
		tensorContent: image,
		tensorStyle:   image,
	}, tensorStylized)
	if err != nil {
		return nil, err
	}
	if err := expectShape(hub.ImageStylizer, stylized, image.Shape()); err != nil {
		return nil, err
	}

	return stylized, nil
}

// ImageToVideo animates the image: the generator runs once per frame with the
// image as conditioning, and the frames are stacked into [1, F, S, S, 3].
func (c *Converter) ImageToVideo(ctx context.Context, image *tensor.Tensor) (*tensor.Tensor, error) {
	clip, err := c.imageToVideo(ctx, image)
	if err != nil {
		return c.fallbackTensor("image-to-video", c.videoShape(), err)
	}
	return clip, nil
}

func (c *Converter) imageToVideo(ctx context.Context, image *tensor.Tensor) (*tensor.Tensor, error) {
	if err := validateImage(image); err != nil {
		return nil, err
	}
	return c.generateFrames(ctx, image)
}

// ImageToAudio speaks a caption of the image: classify first, then feed the
// label through the text-to-audio pipeline.
func (c *Converter) ImageToAudio(ctx context.Context, image *tensor.Tensor) (Audio, error) {
	out, err := c.imageToAudio(ctx, image)
	if err != nil {
		ph, perr := c.fallbackTensor("image-to-audio", c.audioShape(), err)
		if perr != nil {
			return Audio{}, perr
		}
		return Audio{Samples: ph, SampleRate: DefaultSampleRate}, nil
	}
	return out, nil
}

func (c *Converter) imageToAudio(ctx context.Context, image *tensor.Tensor) (Audio, error) {
	caption, err := c.imageToText(ctx, image)
	if err != nil {
		return Audio{}, err
	}
	return c.textToAudio(ctx, caption)
}
