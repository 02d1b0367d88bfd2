package main

import (
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/menta2k/smartcrop/internal/utils"
)

func newBatchCmd(a *app) *cobra.Command {
	var input string
	var jobs int
	var failFast bool
	flags := &cropFlags{}

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Crop every image under a directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			flags.apply(cmd, a.cfg)
			targets, err := flags.resolveTargets()
			if err != nil {
				return err
			}
			if jobs < 1 {
				return fmt.Errorf("--jobs must be at least 1")
			}

			if !utils.DirExists(input) {
				return fmt.Errorf("%s is not a directory", input)
			}
			files, err := utils.ListImageFiles(input)
			if err != nil {
				return fmt.Errorf("failed to list images: %w", err)
			}
			if len(files) == 0 {
				return fmt.Errorf("no images found in %s", input)
			}

			sc, err := newSmartCrop(a, a.cfg)
			if err != nil {
				return err
			}

			bar := progressbar.NewOptions(len(files),
				progressbar.OptionSetDescription("cropping"),
				progressbar.OptionSetWriter(cmd.ErrOrStderr()),
				progressbar.OptionShowCount(),
			)

			var mu sync.Mutex
			var failures []error
			written := 0

			g, ctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(jobs)
			for _, file := range files {
				g.Go(func() error {
					paths, err := cropFile(ctx, sc, a.cfg.Output, file, targets, flags.debugDir)

					mu.Lock()
					defer mu.Unlock()
					written += len(paths)
					bar.Add(1)
					if err != nil {
						if failFast || ctx.Err() != nil {
							return err
						}
						a.log.Printf("skipping %s: %v", file, err)
						failures = append(failures, err)
					}
					return nil
				})
			}
			err = g.Wait()
			bar.Finish()
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "\nwrote %d crops from %d images (%d failed)\n",
				written, len(files)-len(failures), len(failures))
			if len(failures) > 0 {
				return fmt.Errorf("%d images failed: %w", len(failures), errors.Join(failures...))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "input directory")
	cmd.Flags().IntVarP(&jobs, "jobs", "j", runtime.NumCPU(), "images cropped in parallel")
	cmd.Flags().BoolVar(&failFast, "fail-fast", false, "stop at the first failing image")
	flags.register(cmd.Flags())
	cmd.MarkFlagRequired("input")
	return cmd
}
