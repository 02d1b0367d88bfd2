package analyzer

import (
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/menta2k/smartcrop/pkg/cropper"
	"github.com/menta2k/smartcrop/pkg/types"
	"github.com/menta2k/smartcrop/pkg/vision"
)

var (
	// ErrNoCandidates is returned when no crop of the requested size fits the image
	ErrNoCandidates = errors.New("no crop candidates fit the image")
	// ErrInvalidBuffer is returned when the pixel buffer is malformed
	ErrInvalidBuffer = types.ErrInvalidBuffer
	// ErrInvalidOptions is returned when options fail validation
	ErrInvalidOptions = types.ErrInvalidOptions
)

// Stage identifies a step of a single analysis run
type Stage int

const (
	StageDetecting Stage = iota
	StageBoosting
	StageDownsampling
	StageGeneratingCandidates
	StageScoring
	StageDone
)

func (s Stage) String() string {
	switch s {
	case StageDetecting:
		return "detecting"
	case StageBoosting:
		return "boosting"
	case StageDownsampling:
		return "downsampling"
	case StageGeneratingCandidates:
		return "generating-candidates"
	case StageScoring:
		return "scoring"
	case StageDone:
		return "done"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// StageHook is called after each stage completes with the time it took
type StageHook func(stage Stage, elapsed time.Duration)

// Analyzer scores crop candidates of a raw RGBA buffer
type Analyzer struct {
	opts types.Options
	log  *log.Logger
	hook StageHook
}

// New creates an Analyzer with default options
func New() *Analyzer {
	return NewWithConfig(types.DefaultOptions())
}

// NewWithConfig creates an Analyzer with custom options. Options are
// validated when Analyze runs.
func NewWithConfig(opts types.Options) *Analyzer {
	return &Analyzer{
		opts: opts,
		log:  log.New(io.Discard, "", 0),
	}
}

// Options returns a copy of the analyzer options
func (a *Analyzer) Options() types.Options {
	return a.opts
}

// SetLogger sets the logger used for per-stage timing. nil disables logging.
func (a *Analyzer) SetLogger(l *log.Logger) {
	if l == nil {
		l = log.New(io.Discard, "", 0)
	}
	a.log = l
}

// SetStageHook registers a callback invoked after every stage
func (a *Analyzer) SetStageHook(hook StageHook) {
	a.hook = hook
}

// Analyze runs the full pipeline over buf. Options are copied at entry so
// the caller may reuse them.
func (a *Analyzer) Analyze(buf *types.PixelBuffer, boosts []types.BoostRegion) (*types.AnalysisResult, error) {
	opts := a.opts
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if err := buf.Validate(); err != nil {
		return nil, err
	}

	run := &run{analyzer: a, last: time.Now()}

	output := types.NewScratchBuffer(buf.Width, buf.Height)
	vision.EdgeDetect(buf, output)
	vision.SkinDetect(opts, buf, output)
	vision.SaturationDetect(opts, buf, output)
	run.finish(StageDetecting)

	vision.ApplyBoosts(output, boosts)
	run.finish(StageBoosting)

	scoreOutput := vision.Downsample(output, opts.ScoreDownSample)
	run.finish(StageDownsampling)

	candidates := cropper.GenerateCandidates(opts, buf.Width, buf.Height)
	run.finish(StageGeneratingCandidates)
	a.log.Printf("candidates: %d for %dx%d", len(candidates), buf.Width, buf.Height)
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: image %dx%d, crop %dx%d", ErrNoCandidates,
			buf.Width, buf.Height, opts.CropWidth, opts.CropHeight)
	}

	topIndex := 0
	for i := range candidates {
		candidates[i].Score = cropper.Score(opts, scoreOutput, candidates[i])
		if candidates[i].Score.Total > candidates[topIndex].Score.Total {
			topIndex = i
		}
	}
	run.finish(StageScoring)

	result := &types.AnalysisResult{TopCrop: candidates[topIndex]}
	if opts.Debug {
		result.Crops = candidates
		result.Scratch = output
		result.Options = &opts
	}

	run.finish(StageDone)
	a.log.Printf("top crop: %s total %f", result.TopCrop, result.TopCrop.Score.Total)
	return result, nil
}

// Analyze is a convenience wrapper for a one-off analysis
func Analyze(buf *types.PixelBuffer, opts types.Options, boosts []types.BoostRegion) (*types.AnalysisResult, error) {
	return NewWithConfig(opts).Analyze(buf, boosts)
}

type run struct {
	analyzer *Analyzer
	last     time.Time
}

func (r *run) finish(stage Stage) {
	now := time.Now()
	elapsed := now.Sub(r.last)
	r.last = now

	r.analyzer.log.Printf("stage %s: %s", stage, elapsed)
	if r.analyzer.hook != nil {
		r.analyzer.hook(stage, elapsed)
	}
}
