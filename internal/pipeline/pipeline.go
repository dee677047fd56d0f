// Package pipeline drives the eight processing stages over one shared media
// collection and aggregates their results into a run summary.
package pipeline

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"git.tls.tupangiu.ro/cosmin/takeout-ng/pkg/logger"
)

// Step is one pipeline stage.
type Step interface {
	Name() string
	ShouldSkip(ctx *Context) bool
	Execute(ctx *Context) StepResult
}

// StepResult is the outcome of one stage execution.
type StepResult struct {
	Success  bool
	Duration time.Duration
	Message  string
	Data     map[string]any
	Err      error
}

func SuccessResult(message string) StepResult {
	return StepResult{Success: true, Message: message, Data: map[string]any{}}
}

func FailureResult(message string, err error) StepResult {
	return StepResult{Success: false, Message: message, Err: err, Data: map[string]any{}}
}

// Stage names. The ones listed in criticalSteps abort the whole run when they
// fail.
const (
	StepFixExtensions     = "fix-extensions"
	StepDiscoverMedia     = "discover-media"
	StepRemoveDuplicates  = "remove-duplicates"
	StepExtractDates      = "extract-dates"
	StepConsolidateAlbums = "consolidate-albums"
	StepMoveFiles         = "move-files"
	StepWriteExif         = "write-exif"
	StepUpdateTimestamps  = "update-timestamps"
)

var criticalSteps = map[string]struct{}{
	StepDiscoverMedia: {},
	StepMoveFiles:     {},
}

// DataHalt is set by a stage that wants the pipeline to stop after it
// completes successfully (extension fixing in solo mode).
const DataHalt = "halt"

// ProcessingResult is the aggregated outcome of one run.
type ProcessingResult struct {
	RunID    uuid.UUID
	Success  bool
	Duration time.Duration

	StepsSucceeded int
	StepsFailed    int
	StepsSkipped   int

	DuplicatesRemoved    int
	ExtrasSkipped        int
	ExtensionsFixed      int
	FilesMoved           int
	FilesCopied          int
	ShortcutsCreated     int
	CoordinatesWritten   int
	DateTimesWritten     int
	CreationTimesUpdated int

	ExtractionHistogram map[string]int

	StepResults map[string]StepResult
}

// Pipeline runs the stages sequentially against one context.
type Pipeline struct {
	steps []Step
	debug *logger.DebugLogger
}

func New(steps ...Step) *Pipeline {
	return &Pipeline{
		steps: steps,
		debug: logger.NewDebugLogger("pipeline"),
	}
}

// Run executes the stages in order. A skipped stage reports success with
// data.skipped = true and zero duration. A failed critical stage aborts the
// run; other failures are logged and processing continues.
func (p *Pipeline) Run(ctx *Context) *ProcessingResult {
	result := &ProcessingResult{
		RunID:               uuid.New(),
		Success:             true,
		ExtractionHistogram: make(map[string]int),
		StepResults:         make(map[string]StepResult, len(p.steps)),
	}

	tracer := p.debug.StartOperation("run_pipeline").
		WithString("run_id", result.RunID.String()).
		WithInt("steps", len(p.steps)).
		Build()

	start := time.Now()

	for _, step := range p.steps {
		if step.ShouldSkip(ctx) {
			skipped := SuccessResult("skipped")
			skipped.Data["skipped"] = true
			result.StepResults[step.Name()] = skipped
			result.StepsSkipped++
			zap.S().Debugw("step skipped", "step", step.Name())
			continue
		}

		tracer.Step(step.Name()).Log()

		stepStart := time.Now()
		stepResult := step.Execute(ctx)
		stepResult.Duration = time.Since(stepStart)
		result.StepResults[step.Name()] = stepResult

		if stepResult.Success {
			result.StepsSucceeded++
			zap.S().Infow("step completed", "step", step.Name(), "duration", stepResult.Duration, "message", stepResult.Message)
		} else {
			result.StepsFailed++
			zap.S().Warnw("step failed", "step", step.Name(), "duration", stepResult.Duration, "error", stepResult.Err)

			if _, critical := criticalSteps[step.Name()]; critical {
				result.Success = false
				zap.S().Errorw("critical step failed, aborting pipeline", "step", step.Name(), "error", stepResult.Err)
				break
			}
		}

		if halt, _ := stepResult.Data[DataHalt].(bool); halt {
			zap.S().Infow("pipeline halted by step", "step", step.Name())
			break
		}
	}

	result.Duration = time.Since(start)
	p.aggregate(result)

	tracer.Success().
		WithBool("success", result.Success).
		WithInt("steps_succeeded", result.StepsSucceeded).
		WithInt("steps_failed", result.StepsFailed).
		WithInt("steps_skipped", result.StepsSkipped).
		Log()

	return result
}

// aggregate lifts the well-known data keys out of the per-step results.
func (p *Pipeline) aggregate(result *ProcessingResult) {
	for _, stepResult := range result.StepResults {
		for key, value := range stepResult.Data {
			count, isInt := value.(int)
			switch key {
			case "duplicates_removed":
				if isInt {
					result.DuplicatesRemoved += count
				}
			case "extras_skipped":
				if isInt {
					result.ExtrasSkipped += count
				}
			case "extensions_fixed":
				if isInt {
					result.ExtensionsFixed += count
				}
			case "files_moved":
				if isInt {
					result.FilesMoved += count
				}
			case "files_copied":
				if isInt {
					result.FilesCopied += count
				}
			case "shortcuts_created":
				if isInt {
					result.ShortcutsCreated += count
				}
			case "coordinates_written":
				if isInt {
					result.CoordinatesWritten += count
				}
			case "datetimes_written":
				if isInt {
					result.DateTimesWritten += count
				}
			case "creation_times_updated":
				if isInt {
					result.CreationTimesUpdated += count
				}
			case "extraction_histogram":
				if histogram, ok := value.(map[string]int); ok {
					for method, n := range histogram {
						result.ExtractionHistogram[method] += n
					}
				}
			}
		}
	}
}
