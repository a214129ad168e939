package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/crossmodal/internal/hub"
)

func newModelVerifyCmd() *cobra.Command {
	var model string

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify checksums of downloaded model bundles",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			ids, err := resolveModelIDs(model)
			if err != nil {
				return err
			}

			failed := 0
			for _, id := range ids {
				if err := hub.Verify(id, cfg.Paths.CacheDir, os.Stdout); err != nil {
					failed++
					_, _ = fmt.Fprintf(os.Stderr, "FAIL: %s: %v\n", id, err)
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d models failed verification", failed, len(ids))
			}

			_, _ = fmt.Fprintln(os.Stdout, "all models verified")
			return nil
		},
	}

	cmd.Flags().StringVar(&model, "model", "all", "Model ID to verify, or 'all'")

	return cmd
}
