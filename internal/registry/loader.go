package registry

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/example/crossmodal/internal/hub"
	"github.com/example/crossmodal/internal/onnx"
)

// LoaderConfig holds what the hub loader needs to materialize a model.
type LoaderConfig struct {
	CacheDir      string
	ORTLibrary    string
	ORTAPIVersion uint32
}

// NewHubLoader returns the production LoadFunc: it reads the model's bundle
// descriptor from the local cache and creates an ONNX runner for its graph.
// Models must have been downloaded beforehand (crossmodal model download);
// the loader never touches the network.
func NewHubLoader(cfg LoaderConfig) LoadFunc {
	return func(_ context.Context, modelID string) (*Model, error) {
		if _, err := hub.PinnedManifest(modelID); err != nil {
			return nil, err
		}

		dir := hub.ModelDir(cfg.CacheDir, modelID)
		bundle, err := hub.LoadBundle(dir)
		if err != nil {
			return nil, fmt.Errorf("load bundle for %s: %w", modelID, err)
		}

		runner, err := onnx.NewRunner(modelID, bundle.GraphPath(), onnx.RunnerConfig{
			LibraryPath: cfg.ORTLibrary,
			APIVersion:  cfg.ORTAPIVersion,
		})
		if err != nil {
			return nil, fmt.Errorf("create runner for %s: %w", modelID, err)
		}

		slog.Info("loaded model",
			"model", modelID,
			"graph", bundle.GraphPath(),
			"sample_rate", bundle.SampleRate,
		)

		return NewModel(modelID, bundle, runner), nil
	}
}
