// Package hub acquires pre-trained model bundles from the model hub and
// verifies the local cache. Every model the conversion layer can run is
// pinned here by repo, file revision, and checksum; nothing is fetched that
// is not listed in a pinned manifest.
package hub

import "fmt"

// Model IDs. These are the only identities the registry will load.
const (
	TextEncoder     = "text-encoder"
	ImageGenerator  = "image-generator"
	VideoGenerator  = "video-generator"
	AcousticDE      = "acoustic-de"
	VocoderDE       = "vocoder-de"
	ImageClassifier = "image-classifier"
	ImageStylizer   = "image-stylizer"
)

// ModelIDs lists all known model IDs in a stable order.
func ModelIDs() []string {
	return []string{
		TextEncoder,
		ImageGenerator,
		VideoGenerator,
		AcousticDE,
		VocoderDE,
		ImageClassifier,
		ImageStylizer,
	}
}

type Manifest struct {
	ModelID string      `json:"model_id"`
	Repo    string      `json:"repo"`
	Files   []ModelFile `json:"files"`
}

type ModelFile struct {
	Filename string `json:"filename"`
	Revision string `json:"revision"`
	SHA256   string `json:"sha256"`
}

// PinnedManifest returns the pinned file manifest for a model ID.
// Files with an empty SHA256 have their checksum resolved from hub metadata
// at download time and persisted into the local lock manifest.
func PinnedManifest(modelID string) (Manifest, error) {
	switch modelID {
	case TextEncoder:
		return Manifest{
			ModelID: modelID,
			Repo:    "crossmodal/use-cmlm-en-base-onnx",
			Files: []ModelFile{
				{Filename: "model.onnx", Revision: "6c1f8904a7f2dd33a1cf0f8eed2e4336c24c1e3a", SHA256: ""},
				{Filename: "tokenizer.model", Revision: "6c1f8904a7f2dd33a1cf0f8eed2e4336c24c1e3a", SHA256: ""},
				{Filename: "bundle.yaml", Revision: "6c1f8904a7f2dd33a1cf0f8eed2e4336c24c1e3a", SHA256: ""},
			},
		}, nil
	case ImageGenerator:
		return Manifest{
			ModelID: modelID,
			Repo:    "crossmodal/biggan-256-onnx",
			Files: []ModelFile{
				{Filename: "model.onnx", Revision: "f3de1c4f0af21da97a04f4be26fca01c36a4e57b", SHA256: ""},
				{Filename: "bundle.yaml", Revision: "f3de1c4f0af21da97a04f4be26fca01c36a4e57b", SHA256: ""},
			},
		}, nil
	case VideoGenerator:
		return Manifest{
			ModelID: modelID,
			Repo:    "crossmodal/video-transformer-onnx",
			Files: []ModelFile{
				{Filename: "model.onnx", Revision: "9a50b7c2e41cf0d6b2ad4c8f13aa6d0be7f2c915", SHA256: ""},
				{Filename: "bundle.yaml", Revision: "9a50b7c2e41cf0d6b2ad4c8f13aa6d0be7f2c915", SHA256: ""},
			},
		}, nil
	case AcousticDE:
		return Manifest{
			ModelID: modelID,
			Repo:    "crossmodal/german-tacotron2-onnx",
			Files: []ModelFile{
				{Filename: "model.onnx", Revision: "0b8de2c7aa41f3f96d1f5a0c2f8f4f7be21c9d63", SHA256: ""},
				{Filename: "bundle.yaml", Revision: "0b8de2c7aa41f3f96d1f5a0c2f8f4f7be21c9d63", SHA256: ""},
			},
		}, nil
	case VocoderDE:
		return Manifest{
			ModelID: modelID,
			Repo:    "crossmodal/german-multiband-melgan-onnx",
			Files: []ModelFile{
				{Filename: "model.onnx", Revision: "4e7a91d5c0b3f82fa6d91e2470cc5b1e8d30af27", SHA256: ""},
				{Filename: "bundle.yaml", Revision: "4e7a91d5c0b3f82fa6d91e2470cc5b1e8d30af27", SHA256: ""},
			},
		}, nil
	case ImageClassifier:
		return Manifest{
			ModelID: modelID,
			Repo:    "crossmodal/inception-v3-onnx",
			Files: []ModelFile{
				{Filename: "model.onnx", Revision: "1d2f60c9be5a74f2fc0d3a8eb94071d6ea4c2b58", SHA256: ""},
				{Filename: "labels.txt", Revision: "1d2f60c9be5a74f2fc0d3a8eb94071d6ea4c2b58", SHA256: ""},
				{Filename: "bundle.yaml", Revision: "1d2f60c9be5a74f2fc0d3a8eb94071d6ea4c2b58", SHA256: ""},
			},
		}, nil
	case ImageStylizer:
		return Manifest{
			ModelID: modelID,
			Repo:    "crossmodal/arbitrary-image-stylization-256-onnx",
			Files: []ModelFile{
				{Filename: "model.onnx", Revision: "7c3b2e91da405f8bb6e02c4d19fa8e5304d6cf12", SHA256: ""},
				{Filename: "bundle.yaml", Revision: "7c3b2e91da405f8bb6e02c4d19fa8e5304d6cf12", SHA256: ""},
			},
		}, nil
	default:
		return Manifest{}, fmt.Errorf("no pinned manifest for model %q", modelID)
	}
}
