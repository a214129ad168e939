package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/crossmodal/internal/doctor"
	"github.com/example/crossmodal/internal/hub"
)

func newDoctorCmd() *cobra.Command {
	var skipVerify bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Run local runtime and model checks",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			dcfg := doctor.Config{
				ORTLibraryPath: cfg.Runtime.ORTLibraryPath,
				CacheDir:       cfg.Paths.CacheDir,
			}
			if !skipVerify {
				dcfg.Verify = func(modelID string, w io.Writer) error {
					return hub.Verify(modelID, cfg.Paths.CacheDir, w)
				}
			}

			result := doctor.Run(dcfg, os.Stdout)

			if result.Failed() {
				for _, f := range result.Failures() {
					_, _ = fmt.Fprintf(os.Stderr, "FAIL: %s\n", f)
				}

				return errors.New("doctor checks failed")
			}

			_, _ = fmt.Fprintln(os.Stdout, "doctor checks passed")

			return nil
		},
	}

	cmd.Flags().BoolVar(&skipVerify, "skip-verify", false, "Skip model checksum verification")

	return cmd
}
