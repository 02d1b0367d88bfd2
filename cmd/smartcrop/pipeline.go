package main

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/menta2k/smartcrop"
	"github.com/menta2k/smartcrop/internal/config"
	"github.com/menta2k/smartcrop/internal/logging"
	"github.com/menta2k/smartcrop/internal/utils"
	"github.com/menta2k/smartcrop/pkg/client"
	"github.com/menta2k/smartcrop/pkg/cropper"
	"github.com/menta2k/smartcrop/pkg/detection"
	"github.com/menta2k/smartcrop/pkg/facedetect"
	"github.com/menta2k/smartcrop/pkg/llamacpp"
	"github.com/menta2k/smartcrop/pkg/ollama"
	"github.com/menta2k/smartcrop/pkg/processing"
)

// Default target sizes for cropping
var defaultTargetSizes = [][2]int{
	{1200, 675},
	{1200, 800},
	{400, 250},
	{600, 400},
	{1200, 630},
}

func defaultTargets() []smartcrop.Target {
	targets := make([]smartcrop.Target, 0, len(defaultTargetSizes))
	for _, sz := range defaultTargetSizes {
		targets = append(targets, smartcrop.SizeTarget(sz[0], sz[1]))
	}
	return targets
}

// parseTargets reads a comma separated list of presets (square), ratios (16:9)
// and sizes (1200x630). An empty list yields the default sizes.
func parseTargets(list string) ([]smartcrop.Target, error) {
	if strings.TrimSpace(list) == "" {
		return defaultTargets(), nil
	}

	var targets []smartcrop.Target
	for _, item := range strings.Split(list, ",") {
		item = strings.ToLower(strings.TrimSpace(item))
		if item == "" {
			continue
		}

		if ratio, ok := cropper.LookupAspectRatio(item); ok {
			targets = append(targets, smartcrop.RatioTarget(ratio))
			continue
		}
		if w, h, ok := splitPair(item, ":"); ok {
			targets = append(targets, smartcrop.RatioTarget(cropper.AspectRatio{Width: w, Height: h, Name: fmt.Sprintf("%d-%d", w, h)}))
			continue
		}
		if w, h, ok := splitPair(item, "x"); ok {
			targets = append(targets, smartcrop.SizeTarget(w, h))
			continue
		}
		return nil, fmt.Errorf("unknown crop target %q (use a preset, W:H or WxH)", item)
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("no crop targets in %q", list)
	}
	return targets, nil
}

func splitPair(s, sep string) (int, int, bool) {
	a, b, found := strings.Cut(s, sep)
	if !found {
		return 0, 0, false
	}
	w, err1 := strconv.Atoi(a)
	h, err2 := strconv.Atoi(b)
	if err1 != nil || err2 != nil || w <= 0 || h <= 0 {
		return 0, 0, false
	}
	return w, h, true
}

// newSmartCrop builds the crop pipeline and its boost sources from cfg
func newSmartCrop(a *app, cfg *config.Config) (*smartcrop.SmartCrop, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	sc := smartcrop.NewWithConfig(cfg.Crop, processing.NewImagingOperations())
	sc.SetLogger(logging.Debug(a.log, cfg.Log.Verbose))
	sc.SetOutput(cfg.Output.Format, cfg.Output.Quality, cfg.Output.Lossless)

	if cfg.Boost.FaceCascade != "" {
		faces, err := facedetect.LoadFaceDetector(cfg.Boost.FaceCascade, cfg.Boost.Face)
		if err != nil {
			return nil, err
		}
		sc.AddBoostSource(faces)
	}

	if cfg.Boost.Vision.Backend != "" {
		detector, err := newDetector(cfg.Boost.Vision)
		if err != nil {
			return nil, err
		}
		sc.AddBoostSource(detector)
	}

	return sc, nil
}

// newDetector builds the subject detector for the configured vision backend
func newDetector(cfg config.VisionConfig) (*detection.Detector, error) {
	vc, err := newVisionClient(cfg)
	if err != nil {
		return nil, err
	}
	detector := detection.NewDetector(vc, cfg.Model)
	if cfg.MaxDim > 0 {
		detector.MaxDim = cfg.MaxDim
	}
	if cfg.Quality > 0 {
		detector.Quality = cfg.Quality
	}
	detector.Weight = cfg.Weight

	if cfg.Prompt != "" {
		prompt, err := readPrompt(cfg.Prompt)
		if err != nil {
			return nil, err
		}
		detector.SetPrompt(prompt)
	}
	return detector, nil
}

// readPrompt returns prompt as is, or the contents of the file it names
// with a leading @
func readPrompt(prompt string) (string, error) {
	path, ok := strings.CutPrefix(prompt, "@")
	if !ok {
		return prompt, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read prompt file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func newVisionClient(cfg config.VisionConfig) (client.VisionClient, error) {
	switch cfg.Backend {
	case "ollama":
		url := cfg.URL
		if url == "" {
			url = "http://localhost:11434"
		}
		c, err := ollama.NewClient(url)
		if err != nil {
			return nil, fmt.Errorf("failed to create Ollama client: %w", err)
		}
		return c, nil
	case "llamacpp":
		c, err := llamacpp.NewClient(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to create llama.cpp client: %w", err)
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown backend: %s (use 'ollama' or 'llamacpp')", cfg.Backend)
	}
}

// cropFile crops one input for every target and writes the crops, plus debug
// overlays when debugDir is set. It returns the written crop paths.
func cropFile(ctx context.Context, sc *smartcrop.SmartCrop, out config.OutputConfig, input string, targets []smartcrop.Target, debugDir string) ([]string, error) {
	img, err := sc.LoadImage(input)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", input, err)
	}

	results, err := sc.CropAll(ctx, img, targets)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", input, err)
	}

	if err := utils.EnsureDir(out.Dir); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	var written []string
	for _, r := range results {
		path := utils.GenerateOutputFilename(input, out.Dir, out.Prefix, out.Suffix+"_"+r.Name, out.Format)
		if err := sc.SaveImage(r.Image, path); err != nil {
			return written, fmt.Errorf("save %s failed: %w", path, err)
		}
		written = append(written, path)

		if debugDir != "" {
			if err := writeOverlay(sc, img, r, input, debugDir); err != nil {
				return written, err
			}
		}
	}
	return written, nil
}

func writeOverlay(sc *smartcrop.SmartCrop, img image.Image, r *smartcrop.CropResult, input, debugDir string) error {
	if err := utils.EnsureDir(debugDir); err != nil {
		return err
	}
	overlay := processing.NewProcessor().CreateDebugOverlay(img, r.Rect, r.Boosts)
	path := filepath.Join(debugDir, fmt.Sprintf("%s_%s_debug.png", utils.SanitizeFilename(utils.BaseName(input)), r.Name))
	if err := sc.SaveImage(overlay, path); err != nil {
		return fmt.Errorf("debug overlay save failed: %w", err)
	}
	return nil
}
