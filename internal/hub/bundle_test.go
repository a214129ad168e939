package hub

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeBundle(t *testing.T, dir, descriptor string, extra map[string]string) {
	t.Helper()

	if err := os.WriteFile(filepath.Join(dir, "bundle.yaml"), []byte(descriptor), 0o644); err != nil {
		t.Fatalf("write bundle.yaml: %v", err)
	}
	for name, content := range extra {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
}

const acousticDescriptor = `model: acoustic-de
graph: model.onnx
sample_rate: 22050
inputs:
  - name: input_ids
    dtype: int64
    shape: [1, 9]
  - name: input_lengths
    dtype: int64
    shape: [1]
outputs:
  - name: mel
    dtype: float32
    shape: [1, -1, 80]
`

func TestLoadBundle(t *testing.T) {
	dir := t.TempDir()
	writeBundle(t, dir, acousticDescriptor, map[string]string{"model.onnx": "fake"})

	b, err := LoadBundle(dir)
	if err != nil {
		t.Fatalf("LoadBundle: %v", err)
	}

	if b.Model != "acoustic-de" {
		t.Errorf("Model = %q, want acoustic-de", b.Model)
	}
	if b.SampleRate != 22050 {
		t.Errorf("SampleRate = %d, want 22050", b.SampleRate)
	}
	if b.GraphPath() != filepath.Join(dir, "model.onnx") {
		t.Errorf("GraphPath = %q", b.GraphPath())
	}

	in, ok := b.Input("input_ids")
	if !ok {
		t.Fatal("missing input_ids spec")
	}
	if !reflect.DeepEqual(in.Shape, []int64{1, 9}) {
		t.Errorf("input_ids shape = %v, want [1 9]", in.Shape)
	}

	out, ok := b.Output("mel")
	if !ok {
		t.Fatal("missing mel spec")
	}
	if out.DType != "float32" {
		t.Errorf("mel dtype = %q", out.DType)
	}
}

func TestLoadBundle_MissingGraphFile(t *testing.T) {
	dir := t.TempDir()
	writeBundle(t, dir, acousticDescriptor, nil)

	if _, err := LoadBundle(dir); err == nil {
		t.Fatal("expected error for missing graph file")
	}
}

func TestLoadBundle_BadDType(t *testing.T) {
	dir := t.TempDir()
	descriptor := `model: x
graph: model.onnx
inputs:
  - name: a
    dtype: complex128
    shape: [1]
outputs:
  - name: b
    dtype: float32
    shape: [1]
`
	writeBundle(t, dir, descriptor, map[string]string{"model.onnx": "fake"})

	if _, err := LoadBundle(dir); err == nil {
		t.Fatal("expected error for unsupported dtype")
	}
}

func TestLoadBundle_MissingDescriptor(t *testing.T) {
	if _, err := LoadBundle(t.TempDir()); err == nil {
		t.Fatal("expected error when bundle.yaml is absent")
	}
}

func TestLoadLabels(t *testing.T) {
	dir := t.TempDir()
	descriptor := `model: image-classifier
graph: model.onnx
labels: labels.txt
inputs:
  - name: image
    dtype: float32
    shape: [1, 299, 299, 3]
outputs:
  - name: logits
    dtype: float32
    shape: [1, 1001]
`
	writeBundle(t, dir, descriptor, map[string]string{
		"model.onnx": "fake",
		"labels.txt": "background\ntench\ngoldfish\n",
	})

	b, err := LoadBundle(dir)
	if err != nil {
		t.Fatalf("LoadBundle: %v", err)
	}

	labels, err := b.LoadLabels()
	if err != nil {
		t.Fatalf("LoadLabels: %v", err)
	}
	want := []string{"background", "tench", "goldfish"}
	if !reflect.DeepEqual(labels, want) {
		t.Errorf("labels = %v, want %v", labels, want)
	}
}

func TestLoadLabels_NoneDeclared(t *testing.T) {
	dir := t.TempDir()
	writeBundle(t, dir, acousticDescriptor, map[string]string{"model.onnx": "fake"})

	b, err := LoadBundle(dir)
	if err != nil {
		t.Fatalf("LoadBundle: %v", err)
	}

	labels, err := b.LoadLabels()
	if err != nil {
		t.Fatalf("LoadLabels: %v", err)
	}
	if labels != nil {
		t.Errorf("labels = %v, want nil", labels)
	}
}
