package hub

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/example/crossmodal/internal/tensor"
)

// TensorSpec declares one named graph input or output.
// A shape dimension of -1 means the dimension is dynamic.
type TensorSpec struct {
	Name  string  `yaml:"name"`
	DType string  `yaml:"dtype"`
	Shape []int64 `yaml:"shape"`
}

// Bundle is the descriptor shipped with every model as bundle.yaml. It names
// the graph file and its I/O signature, plus model-kind extras (sample rate
// for audio models, label table for classifiers, tokenizer for text
// encoders).
type Bundle struct {
	Model      string       `yaml:"model"`
	Graph      string       `yaml:"graph"`
	SampleRate int          `yaml:"sample_rate,omitempty"`
	Inputs     []TensorSpec `yaml:"inputs"`
	Outputs    []TensorSpec `yaml:"outputs"`
	Labels     string       `yaml:"labels,omitempty"`
	Tokenizer  string       `yaml:"tokenizer,omitempty"`

	dir string
}

// LoadBundle reads and validates dir/bundle.yaml.
func LoadBundle(dir string) (Bundle, error) {
	path := filepath.Join(dir, "bundle.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		return Bundle{}, fmt.Errorf("read bundle descriptor: %w", err)
	}

	var b Bundle
	if err := yaml.Unmarshal(data, &b); err != nil {
		return Bundle{}, fmt.Errorf("decode bundle descriptor %s: %w", path, err)
	}
	b.dir = dir

	if err := b.validate(); err != nil {
		return Bundle{}, fmt.Errorf("bundle %s: %w", path, err)
	}

	return b, nil
}

func (b Bundle) validate() error {
	if b.Model == "" {
		return fmt.Errorf("model is empty")
	}
	if b.Graph == "" {
		return fmt.Errorf("graph is empty")
	}
	if _, err := os.Stat(b.GraphPath()); err != nil {
		return fmt.Errorf("graph file: %w", err)
	}
	if len(b.Inputs) == 0 {
		return fmt.Errorf("no inputs declared")
	}
	if len(b.Outputs) == 0 {
		return fmt.Errorf("no outputs declared")
	}
	for _, spec := range append(append([]TensorSpec(nil), b.Inputs...), b.Outputs...) {
		if spec.Name == "" {
			return fmt.Errorf("tensor spec with empty name")
		}
		if _, err := tensor.CanonicalDType(spec.DType); err != nil {
			return fmt.Errorf("tensor %q: %w", spec.Name, err)
		}
	}
	return nil
}

// Dir returns the directory the bundle was loaded from.
func (b Bundle) Dir() string {
	return b.dir
}

// GraphPath returns the absolute path of the ONNX graph file.
func (b Bundle) GraphPath() string {
	return filepath.Join(b.dir, filepath.FromSlash(b.Graph))
}

// TokenizerPath returns the path of the bundled tokenizer model, or "" when
// the bundle does not carry one.
func (b Bundle) TokenizerPath() string {
	if b.Tokenizer == "" {
		return ""
	}
	return filepath.Join(b.dir, filepath.FromSlash(b.Tokenizer))
}

// Output returns the declared output spec with the given name.
func (b Bundle) Output(name string) (TensorSpec, bool) {
	for _, spec := range b.Outputs {
		if spec.Name == name {
			return spec, true
		}
	}
	return TensorSpec{}, false
}

// Input returns the declared input spec with the given name.
func (b Bundle) Input(name string) (TensorSpec, bool) {
	for _, spec := range b.Inputs {
		if spec.Name == name {
			return spec, true
		}
	}
	return TensorSpec{}, false
}

// LoadLabels reads the bundled label table, one label per line. Returns nil
// when the bundle declares no label file.
func (b Bundle) LoadLabels() ([]string, error) {
	if b.Labels == "" {
		return nil, nil
	}

	path := filepath.Join(b.dir, filepath.FromSlash(b.Labels))
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open label table: %w", err)
	}
	defer f.Close()

	var labels []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		labels = append(labels, strings.TrimSpace(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read label table: %w", err)
	}

	return labels, nil
}
