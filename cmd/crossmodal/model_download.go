package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/crossmodal/internal/hub"
)

// resolveModelIDs expands the --model flag value into concrete model IDs.
func resolveModelIDs(selector string) ([]string, error) {
	if selector == "" || selector == "all" {
		return hub.ModelIDs(), nil
	}
	if _, err := hub.PinnedManifest(selector); err != nil {
		return nil, err
	}
	return []string{selector}, nil
}

func newModelListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the known model IDs",
		RunE: func(_ *cobra.Command, _ []string) error {
			for _, id := range hub.ModelIDs() {
				if _, err := fmt.Fprintln(os.Stdout, id); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func newModelDownloadCmd() *cobra.Command {
	var model string
	var hfToken string

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download model bundles from the hub into the local cache",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			if hfToken == "" {
				hfToken = os.Getenv("HF_TOKEN")
			}

			ids, err := resolveModelIDs(model)
			if err != nil {
				return err
			}

			for _, id := range ids {
				_, _ = fmt.Fprintf(os.Stdout, "downloading %s\n", id)

				err := hub.Download(hub.DownloadOptions{
					ModelID:  id,
					CacheDir: cfg.Paths.CacheDir,
					Token:    hfToken,
					Stdout:   os.Stdout,
					Stderr:   os.Stderr,
				})
				if err != nil {
					return downloadErr(id, err)
				}
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&model, "model", "all", "Model ID to download, or 'all'")
	cmd.Flags().StringVar(&hfToken, "hf-token", "", "Hub access token (falls back to HF_TOKEN env var)")

	return cmd
}

// downloadErr wraps a download failure, adding a token hint when the hub
// rejected the request.
func downloadErr(id string, err error) error {
	var denied *hub.ErrAccessDenied
	if errors.As(err, &denied) {
		return fmt.Errorf("download %s: %w (set --hf-token or HF_TOKEN)", id, err)
	}
	return fmt.Errorf("download %s: %w", id, err)
}
