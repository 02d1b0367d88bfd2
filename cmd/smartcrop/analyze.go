package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/menta2k/smartcrop"
	"github.com/menta2k/smartcrop/internal/utils"
	"github.com/menta2k/smartcrop/pkg/processing"
)

// analysisReport is printed by the analyze command
type analysisReport struct {
	Input   string                  `json:"input"`
	Width   int                     `json:"width"`
	Height  int                     `json:"height"`
	Results []*smartcrop.CropResult `json:"results"`
}

func newAnalyzeCmd(a *app) *cobra.Command {
	var input string
	flags := &cropFlags{}

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Print the best crops of an image as JSON without writing crops",
		RunE: func(cmd *cobra.Command, args []string) error {
			flags.apply(cmd, a.cfg)
			targets, err := flags.resolveTargets()
			if err != nil {
				return err
			}
			a.cfg.Crop.Debug = flags.debugDir != ""

			sc, err := newSmartCrop(a, a.cfg)
			if err != nil {
				return err
			}

			img, err := sc.LoadImage(input)
			if err != nil {
				return err
			}
			results, err := sc.CropAll(cmd.Context(), img, targets)
			if err != nil {
				return err
			}

			if flags.debugDir != "" {
				for _, r := range results {
					if err := writeOverlay(sc, img, r, input, flags.debugDir); err != nil {
						return err
					}
					if err := writeAnalysisMaps(sc, r, input, flags.debugDir); err != nil {
						return err
					}
				}
			}

			b := img.Bounds()
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(analysisReport{Input: input, Width: b.Dx(), Height: b.Dy(), Results: results})
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "input image path or URL (jpg/png/webp)")
	flags.register(cmd.Flags())
	cmd.MarkFlagRequired("input")
	return cmd
}

// writeAnalysisMaps renders the detector output, the importance map of the
// top crop and the boost plane, all at analysis scale
func writeAnalysisMaps(sc *smartcrop.SmartCrop, r *smartcrop.CropResult, input, debugDir string) error {
	if r.Analysis == nil || r.Analysis.Scratch == nil || r.Analysis.Options == nil {
		return nil
	}
	base := filepath.Join(debugDir, fmt.Sprintf("%s_%s", utils.SanitizeFilename(utils.BaseName(input)), r.Name))

	scratch := processing.RenderScratch(r.Analysis.Scratch)
	if err := sc.SaveImage(scratch, base+"_scratch.png"); err != nil {
		return err
	}
	importance := processing.RenderImportance(*r.Analysis.Options, scratch, r.Analysis.TopCrop)
	if err := sc.SaveImage(importance, base+"_importance.png"); err != nil {
		return err
	}
	return sc.SaveImage(processing.RenderBoosts(r.Analysis.Scratch), base+"_boosts.png")
}
