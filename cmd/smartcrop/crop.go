package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/menta2k/smartcrop"
	"github.com/menta2k/smartcrop/internal/config"
	"github.com/menta2k/smartcrop/internal/utils"
)

// cropFlags are the flags shared by crop and batch. They override the
// configuration file only when set on the command line.
type cropFlags struct {
	output      string
	targets     string
	width       int
	height      int
	aspect      float64
	format      string
	quality     int
	faceCascade string
	backend     string
	visionURL   string
	model       string
	prompt      string
	debugDir    string
}

func (f *cropFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.output, "output", "o", "", "output directory (default from config)")
	fs.StringVarP(&f.targets, "targets", "t", "", "comma separated presets, W:H ratios or WxH sizes")
	fs.IntVar(&f.width, "width", 0, "crop width, requires --height")
	fs.IntVar(&f.height, "height", 0, "crop height, requires --width")
	fs.Float64Var(&f.aspect, "aspect", 0, "crop aspect ratio (width / height)")
	fs.StringVar(&f.format, "format", "", "output format: jpg|png|webp")
	fs.IntVar(&f.quality, "quality", 0, "JPEG/WebP output quality (1-100)")
	fs.StringVar(&f.faceCascade, "face-cascade", "", "pigo face cascade file, enables face boosts")
	fs.StringVar(&f.backend, "vision-backend", "", "vision model backend: ollama or llamacpp")
	fs.StringVar(&f.visionURL, "vision-url", "", "vision model server URL")
	fs.StringVar(&f.model, "model", "", "vision model name")
	fs.StringVar(&f.prompt, "prompt", "", "subject detection prompt, @file reads it from a file")
	fs.StringVar(&f.debugDir, "debug-dir", "", "write crop overlays to this directory")
}

// apply copies the flags set on cmd into cfg
func (f *cropFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	fs := cmd.Flags()
	if fs.Changed("output") {
		cfg.Output.Dir = f.output
	}
	if fs.Changed("format") {
		cfg.Output.Format = f.format
	}
	if fs.Changed("quality") {
		cfg.Output.Quality = f.quality
	}
	if fs.Changed("face-cascade") {
		cfg.Boost.FaceCascade = f.faceCascade
	}
	if fs.Changed("vision-backend") {
		cfg.Boost.Vision.Backend = f.backend
	}
	if fs.Changed("vision-url") {
		cfg.Boost.Vision.URL = f.visionURL
	}
	if fs.Changed("model") {
		cfg.Boost.Vision.Model = f.model
	}
	if fs.Changed("prompt") {
		cfg.Boost.Vision.Prompt = f.prompt
	}
}

// resolveTargets turns --width/--height, --aspect and --targets into targets
func (f *cropFlags) resolveTargets() ([]smartcrop.Target, error) {
	switch {
	case f.width > 0 || f.height > 0:
		if f.width <= 0 || f.height <= 0 {
			return nil, fmt.Errorf("--width and --height must be set together")
		}
		return []smartcrop.Target{smartcrop.SizeTarget(f.width, f.height)}, nil
	case f.aspect > 0:
		return []smartcrop.Target{{Name: fmt.Sprintf("aspect-%g", f.aspect), Aspect: f.aspect}}, nil
	case f.aspect < 0:
		return nil, fmt.Errorf("--aspect must be positive")
	}
	return parseTargets(f.targets)
}

func newCropCmd(a *app) *cobra.Command {
	var input string
	flags := &cropFlags{}

	cmd := &cobra.Command{
		Use:   "crop",
		Short: "Crop one image (file or URL) to every target",
		RunE: func(cmd *cobra.Command, args []string) error {
			flags.apply(cmd, a.cfg)
			targets, err := flags.resolveTargets()
			if err != nil {
				return err
			}

			sc, err := newSmartCrop(a, a.cfg)
			if err != nil {
				return err
			}

			written, err := cropFile(cmd.Context(), sc, a.cfg.Output, input, targets, flags.debugDir)
			for _, path := range written {
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%s)\n", path, utils.FileSize(path))
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "input image path or URL (jpg/png/webp)")
	flags.register(cmd.Flags())
	cmd.MarkFlagRequired("input")
	return cmd
}
