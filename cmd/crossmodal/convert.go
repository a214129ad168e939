package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/crossmodal/internal/audio"
	"github.com/example/crossmodal/internal/convert"
	"github.com/example/crossmodal/internal/tensor"
)

// conversionOps lists the supported operation names in help order.
var conversionOps = []string{
	"text-to-text",
	"text-to-image",
	"text-to-video",
	"text-to-audio",
	"image-to-text",
	"image-to-image",
	"image-to-video",
	"image-to-audio",
}

func newConvertCmd() *cobra.Command {
	var textFlag string
	var inputPath string
	var out string
	var detailed bool

	cmd := &cobra.Command{
		Use:   "convert <operation>",
		Short: "Run a single modality conversion",
		Long: "Run a single modality conversion. Operations:\n  " +
			strings.Join(conversionOps, "\n  ") +
			"\n\nText operations take --text (or stdin); image operations take --input,\n" +
			"a JSON tensor file with \"shape\" and \"data\" fields.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			conv, cache := newService(cfg)
			defer cache.Close()

			return runConversion(cmd.Context(), conv, conversionOptions{
				Op:        args[0],
				Text:      textFlag,
				InputPath: inputPath,
				Out:       out,
				Detailed:  detailed,
				Stdin:     os.Stdin,
				Stdout:    os.Stdout,
			})
		},
	}

	cmd.Flags().StringVar(&textFlag, "text", "", "Input text (if empty, read from stdin)")
	cmd.Flags().StringVar(&inputPath, "input", "", "Input image tensor JSON file ('-' for stdin)")
	cmd.Flags().StringVar(&out, "out", "-", "Output path ('-' for stdout); WAV for audio, JSON for tensors")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "Include embedding statistics in text-to-text output")

	return cmd
}

type conversionOptions struct {
	Op        string
	Text      string
	InputPath string
	Out       string
	Detailed  bool
	Stdin     io.Reader
	Stdout    io.Writer
}

// tensorFile is the JSON form of a float32 tensor used for CLI input and
// output.
type tensorFile struct {
	Shape []int64   `json:"shape"`
	Data  []float32 `json:"data"`
}

func runConversion(ctx context.Context, conv *convert.Converter, opts conversionOptions) error {
	switch opts.Op {
	case "text-to-text":
		input, err := readTextInput(opts.Text, opts.Stdin)
		if err != nil {
			return err
		}
		report, err := conv.TextToText(ctx, input, opts.Detailed)
		if err != nil {
			return err
		}
		return writeOutput(opts.Out, []byte(report+"\n"), opts.Stdout)
	case "text-to-image":
		input, err := readTextInput(opts.Text, opts.Stdin)
		if err != nil {
			return err
		}
		img, err := conv.TextToImage(ctx, input)
		if err != nil {
			return err
		}
		return writeTensorOutput(opts.Out, img, opts.Stdout)
	case "text-to-video":
		input, err := readTextInput(opts.Text, opts.Stdin)
		if err != nil {
			return err
		}
		clip, err := conv.TextToVideo(ctx, input)
		if err != nil {
			return err
		}
		return writeTensorOutput(opts.Out, clip, opts.Stdout)
	case "text-to-audio":
		input, err := readTextInput(opts.Text, opts.Stdin)
		if err != nil {
			return err
		}
		out, err := conv.TextToAudio(ctx, input)
		if err != nil {
			return err
		}
		return writeAudioOutput(opts.Out, out, opts.Stdout)
	case "image-to-text":
		img, err := readImageInput(opts.InputPath, opts.Stdin)
		if err != nil {
			return err
		}
		label, err := conv.ImageToText(ctx, img)
		if err != nil {
			return err
		}
		return writeOutput(opts.Out, []byte(label+"\n"), opts.Stdout)
	case "image-to-image":
		img, err := readImageInput(opts.InputPath, opts.Stdin)
		if err != nil {
			return err
		}
		styled, err := conv.ImageToImage(ctx, img)
		if err != nil {
			return err
		}
		return writeTensorOutput(opts.Out, styled, opts.Stdout)
	case "image-to-video":
		img, err := readImageInput(opts.InputPath, opts.Stdin)
		if err != nil {
			return err
		}
		clip, err := conv.ImageToVideo(ctx, img)
		if err != nil {
			return err
		}
		return writeTensorOutput(opts.Out, clip, opts.Stdout)
	case "image-to-audio":
		img, err := readImageInput(opts.InputPath, opts.Stdin)
		if err != nil {
			return err
		}
		out, err := conv.ImageToAudio(ctx, img)
		if err != nil {
			return err
		}
		return writeAudioOutput(opts.Out, out, opts.Stdout)
	default:
		return fmt.Errorf("unknown conversion %q (want one of: %s)", opts.Op, strings.Join(conversionOps, ", "))
	}
}

func readTextInput(text string, stdin io.Reader) (string, error) {
	if strings.TrimSpace(text) != "" {
		return text, nil
	}

	b, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	input := strings.TrimSpace(string(b))
	if input == "" {
		return "", fmt.Errorf("either provide --text or pipe text on stdin")
	}
	return input, nil
}

func readImageInput(path string, stdin io.Reader) (*tensor.Tensor, error) {
	if path == "" {
		return nil, fmt.Errorf("--input is required for image conversions")
	}

	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read image input: %w", err)
	}

	var tf tensorFile
	if err := json.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("decode image tensor JSON: %w", err)
	}

	t, err := tensor.New(tf.Data, tf.Shape)
	if err != nil {
		return nil, fmt.Errorf("image tensor: %w", err)
	}
	return t, nil
}

func writeTensorOutput(outPath string, t *tensor.Tensor, stdout io.Writer) error {
	data, err := t.Float32s()
	if err != nil {
		return err
	}

	encoded, err := json.Marshal(tensorFile{Shape: t.Shape(), Data: data})
	if err != nil {
		return fmt.Errorf("encode tensor JSON: %w", err)
	}
	return writeOutput(outPath, append(encoded, '\n'), stdout)
}

func writeAudioOutput(outPath string, out convert.Audio, stdout io.Writer) error {
	samples, err := out.Samples.Float32s()
	if err != nil {
		return err
	}
	wav, err := audio.EncodeWAV(samples, out.SampleRate)
	if err != nil {
		return fmt.Errorf("encode WAV: %w", err)
	}
	return writeOutput(outPath, wav, stdout)
}

func writeOutput(outPath string, data []byte, stdout io.Writer) error {
	if outPath == "-" || outPath == "" {
		if stdout == nil {
			return fmt.Errorf("stdout writer is nil")
		}
		_, err := stdout.Write(data)
		return err
	}
	return os.WriteFile(outPath, data, 0o644)
}
