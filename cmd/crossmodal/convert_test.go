package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/example/crossmodal/internal/config"
	"github.com/example/crossmodal/internal/convert"
	"github.com/example/crossmodal/internal/hub"
	"github.com/example/crossmodal/internal/registry"
	"github.com/example/crossmodal/internal/tensor"
	"github.com/example/crossmodal/internal/testutil"
)

// fakeRunner scripts one model's outputs.
type fakeRunner struct {
	outputs func(inputs map[string]*tensor.Tensor) (map[string]*tensor.Tensor, error)
}

func (f *fakeRunner) Run(_ context.Context, inputs map[string]*tensor.Tensor) (map[string]*tensor.Tensor, error) {
	return f.outputs(inputs)
}

func (f *fakeRunner) Close() {}

func mustTensor[T ~int64 | ~float32](t *testing.T, data []T, shape []int64) *tensor.Tensor {
	t.Helper()
	out, err := tensor.New(data, shape)
	if err != nil {
		t.Fatalf("tensor.New: %v", err)
	}
	return out
}

// speechConverter builds a converter whose acoustic and vocoder models are
// scripted, with small framing so outputs stay compact.
func speechConverter(t *testing.T) *convert.Converter {
	t.Helper()

	acoustic := &fakeRunner{outputs: func(map[string]*tensor.Tensor) (map[string]*tensor.Tensor, error) {
		return map[string]*tensor.Tensor{"mel": mustTensor(t, make([]float32, 6), []int64{1, 2, 3})}, nil
	}}
	vocoder := &fakeRunner{outputs: func(map[string]*tensor.Tensor) (map[string]*tensor.Tensor, error) {
		wave := make([]float32, 32)
		for i := range wave {
			wave[i] = 0.25
		}
		return map[string]*tensor.Tensor{"audio": mustTensor(t, wave, []int64{1, 32})}, nil
	}}

	models := map[string]*registry.Model{
		hub.AcousticDE: registry.NewModel(hub.AcousticDE, hub.Bundle{}, acoustic),
		hub.VocoderDE:  registry.NewModel(hub.VocoderDE, hub.Bundle{SampleRate: 16000}, vocoder),
	}
	cache := registry.NewCache(func(_ context.Context, id string) (*registry.Model, error) {
		m, ok := models[id]
		if !ok {
			return nil, fmt.Errorf("unknown model %s", id)
		}
		return m, nil
	})

	cfg := config.DefaultConfig()
	cfg.Framing.TokenFrameLength = 9
	cfg.Framing.AudioSampleCount = 32

	return convert.New(cache, cfg)
}

func TestRunConversion_TextToAudioWritesWAV(t *testing.T) {
	outPath := filepath.Join(t.TempDir(), "out.wav")

	err := runConversion(context.Background(), speechConverter(t), conversionOptions{
		Op:     "text-to-audio",
		Text:   "Hallo Welt",
		Out:    outPath,
		Stdout: os.Stdout,
	})
	if err != nil {
		t.Fatalf("runConversion: %v", err)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	testutil.AssertValidWAV(t, data, 16000)
}

func TestRunConversion_TextFromStdin(t *testing.T) {
	var out bytes.Buffer

	err := runConversion(context.Background(), speechConverter(t), conversionOptions{
		Op:     "text-to-audio",
		Stdin:  strings.NewReader("Hallo Welt\n"),
		Out:    "-",
		Stdout: &out,
	})
	if err != nil {
		t.Fatalf("runConversion: %v", err)
	}
	testutil.AssertValidWAV(t, out.Bytes(), 16000)
}

func TestRunConversion_UnknownOperation(t *testing.T) {
	err := runConversion(context.Background(), speechConverter(t), conversionOptions{
		Op:     "audio-to-text",
		Text:   "hi",
		Stdout: os.Stdout,
	})
	if err == nil {
		t.Fatal("want error for unknown operation")
	}
	if !strings.Contains(err.Error(), "unknown conversion") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestRunConversion_ImageOpRequiresInput(t *testing.T) {
	err := runConversion(context.Background(), speechConverter(t), conversionOptions{
		Op:     "image-to-text",
		Stdout: os.Stdout,
	})
	if err == nil {
		t.Fatal("want error when --input is missing")
	}
	if !strings.Contains(err.Error(), "--input is required") {
		t.Errorf("unexpected error: %v", err)
	}
}

// --- input helpers ---

func TestReadTextInput(t *testing.T) {
	got, err := readTextInput("direct", strings.NewReader("ignored"))
	if err != nil {
		t.Fatalf("readTextInput: %v", err)
	}
	if got != "direct" {
		t.Errorf("got %q, want %q", got, "direct")
	}

	got, err = readTextInput("", strings.NewReader("  from stdin \n"))
	if err != nil {
		t.Fatalf("readTextInput: %v", err)
	}
	if got != "from stdin" {
		t.Errorf("got %q, want %q", got, "from stdin")
	}

	if _, err := readTextInput("", strings.NewReader("   ")); err == nil {
		t.Error("want error for empty stdin")
	}
}

func TestReadImageInput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "image.json")
	content := `{"shape":[1,2,2,3],"data":[1,2,3,4,5,6,7,8,9,10,11,12]}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}

	img, err := readImageInput(path, nil)
	if err != nil {
		t.Fatalf("readImageInput: %v", err)
	}
	if fmt.Sprint(img.Shape()) != "[1 2 2 3]" {
		t.Errorf("unexpected shape %v", img.Shape())
	}

	// From stdin.
	img, err = readImageInput("-", strings.NewReader(content))
	if err != nil {
		t.Fatalf("readImageInput from stdin: %v", err)
	}
	if img.Len() != 12 {
		t.Errorf("want 12 elements, got %d", img.Len())
	}

	// Shape and data disagree.
	bad := `{"shape":[1,2],"data":[1]}`
	if _, err := readImageInput("-", strings.NewReader(bad)); err == nil {
		t.Error("want error for mismatched shape")
	}

	// Invalid JSON.
	if _, err := readImageInput("-", strings.NewReader("{")); err == nil {
		t.Error("want error for invalid JSON")
	}
}

func TestWriteOutput(t *testing.T) {
	var buf bytes.Buffer
	if err := writeOutput("-", []byte("hello"), &buf); err != nil {
		t.Fatalf("writeOutput stdout: %v", err)
	}
	if buf.String() != "hello" {
		t.Errorf("stdout got %q", buf.String())
	}

	path := filepath.Join(t.TempDir(), "out.bin")
	if err := writeOutput(path, []byte("file"), nil); err != nil {
		t.Fatalf("writeOutput file: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "file" {
		t.Errorf("file got %q", data)
	}
}
