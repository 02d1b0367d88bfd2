package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/menta2k/smartcrop/pkg/processing"
)

// newTestVisionCmd checks that the configured model actually receives the
// image: it asks for a plain description and, with --detect, runs the subject
// prompt and prints the parsed result
func newTestVisionCmd(a *app) *cobra.Command {
	var input string
	var detect bool
	flags := &cropFlags{}

	cmd := &cobra.Command{
		Use:   "test-vision",
		Short: "Ask the vision model to describe an image",
		RunE: func(cmd *cobra.Command, args []string) error {
			flags.apply(cmd, a.cfg)
			vision := a.cfg.Boost.Vision
			if vision.Backend == "" {
				vision.Backend = "ollama"
			}
			if vision.Model == "" {
				return fmt.Errorf("a vision model is required (--model)")
			}

			detector, err := newDetector(vision)
			if err != nil {
				return err
			}

			img, err := processing.NewProcessor().Open(input)
			if err != nil {
				return err
			}
			encoded, err := processing.NewProcessor().PrepareImageForModel(img, "jpg", detector.MaxDim, detector.Quality)
			if err != nil {
				return fmt.Errorf("failed to encode image for model: %w", err)
			}

			a.log.Printf("asking %s (%s) about %s", vision.Model, vision.Backend, input)
			reply, err := detector.TestVision(cmd.Context(), encoded)
			if err != nil {
				return fmt.Errorf("vision test failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), reply)

			if !detect {
				return nil
			}
			subject, err := detector.DetectSubject(cmd.Context(), encoded)
			if err != nil {
				return fmt.Errorf("subject detection failed: %w", err)
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(subject)
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "input image path or URL (jpg/png/webp)")
	cmd.Flags().BoolVar(&detect, "detect", false, "also run subject detection and print the result")
	fs := cmd.Flags()
	fs.StringVar(&flags.backend, "vision-backend", "", "vision model backend: ollama or llamacpp")
	fs.StringVar(&flags.visionURL, "vision-url", "", "vision model server URL")
	fs.StringVar(&flags.model, "model", "", "vision model name")
	fs.StringVar(&flags.prompt, "prompt", "", "subject detection prompt, @file reads it from a file")
	cmd.MarkFlagRequired("input")
	return cmd
}
