// Package job orchestrates the stitching pipeline: load, optional
// scroll-boundary cropping, grouping, and per-group stitching, with
// progress reporting and fail-soft error accumulation.
package job

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"imagestitcher/internal/boundary"
	"imagestitcher/internal/cache"
	"imagestitcher/internal/feature"
	"imagestitcher/internal/group"
	"imagestitcher/internal/imageio"
	"imagestitcher/internal/report"
	"imagestitcher/internal/stitch"

	"gocv.io/x/gocv"
)

// State tracks the job through its pipeline stages.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateBoundaryDetect
	StateGrouping
	StateStitching
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateBoundaryDetect:
		return "boundary-detect"
	case StateGrouping:
		return "grouping"
	case StateStitching:
		return "stitching"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ErrCancelled is returned when the job observes a cancellation request
// between pipeline stages.
var ErrCancelled = errors.New("job cancelled")

// Progress is an advisory (current, total, message) milestone. Total 0
// marks phase-level, non-enumerable progress.
type Progress struct {
	Current int
	Total   int
	Message string
}

// Output is one written composite and the source images that composed it.
type Output struct {
	Sources []string
	Path    string
}

// Result is the outcome of a job. A job succeeds when at least one group
// produced a composite; per-group failures are accumulated, not fatal.
type Result struct {
	Outputs     []Output
	Discarded   []string
	GroupErrors []error
}

// Outcome pairs a Result with its terminal error for async delivery.
type Outcome struct {
	Result Result
	Err    error
}

// Job executes one stitching pipeline. Create with New, run with Run or Go.
type Job struct {
	opts Options

	mu       sync.Mutex
	state    State
	progress chan Progress
	cancel   atomic.Bool
}

// New creates a job for the given options.
func New(opts Options) *Job {
	return &Job{
		opts:     opts,
		state:    StateIdle,
		progress: make(chan Progress, 64),
	}
}

// Progress returns the channel of advisory progress milestones. Delivery is
// best-effort; the pipeline never blocks on a slow consumer.
func (j *Job) Progress() <-chan Progress {
	return j.progress
}

// State returns the current pipeline state.
func (j *Job) State() State {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state
}

// Cancel requests a best-effort early return. The flag is checked between
// pipeline stages and between groups; a stitch call already in flight runs
// to completion.
func (j *Job) Cancel() {
	j.cancel.Store(true)
}

// Go runs the job on its own goroutine so a responsive caller is never
// blocked, delivering the outcome on the returned channel.
func (j *Job) Go() <-chan Outcome {
	ch := make(chan Outcome, 1)
	go func() {
		res, err := j.Run()
		ch <- Outcome{Result: res, Err: err}
	}()
	return ch
}

// Run executes the full pipeline synchronously. No failure escapes as a
// panic: allocation exhaustion and unexpected panics are funneled into
// categorized errors at this boundary.
func (j *Job) Run() (res Result, err error) {
	defer close(j.progress)
	defer func() {
		if r := recover(); r != nil {
			log.Printf("job panic: %v\n%s", r, debug.Stack())
			msg := fmt.Sprint(r)
			cat := CategoryInternal
			if strings.Contains(msg, "out of memory") || strings.Contains(msg, "cannot allocate") {
				cat = CategoryResource
			}
			err = errf(cat, "stitch job aborted: %v", r)
			j.setState(StateFailed)
		}
	}()

	res, err = j.run()
	if err != nil {
		j.setState(StateFailed)
	} else {
		j.setState(StateDone)
	}
	return res, err
}

func (j *Job) run() (Result, error) {
	var res Result

	if len(j.opts.Paths) == 0 {
		return res, errf(CategoryInput, "no input images")
	}

	// Loading
	j.setState(StateLoading)
	j.emit(0, 0, "loading images")
	frames, skipped := imageio.LoadBatch(j.opts.Paths, func(cur, total int, path string) {
		j.emit(cur, total, fmt.Sprintf("loading %s", path))
	})
	defer imageio.CloseFrames(frames)
	res.Discarded = append(res.Discarded, skipped...)

	if len(frames) < 2 {
		return res, errf(CategoryInput, "need at least 2 decodable images, got %d of %d",
			len(frames), len(j.opts.Paths))
	}
	if err := j.checkCancel(); err != nil {
		return res, err
	}

	// Boundary detection and cropping
	if j.opts.DetectBoundaries {
		j.setState(StateBoundaryDetect)
		j.emit(0, 0, "detecting scroll boundaries")

		mats := frameMats(frames)
		bounds, err := boundary.Detect(mats, j.opts.Boundary)
		if err != nil {
			return res, wrap(CategoryInput, err)
		}
		if !bounds.IsZero() {
			if j.opts.Debug {
				fmt.Printf("[Job] crop bounds top=%d bottom=%d left=%d right=%d\n",
					bounds.Top, bounds.Bottom, bounds.Left, bounds.Right)
			}
			for i := range frames {
				cropped := boundary.Crop(frames[i].Mat, bounds)
				frames[i].Mat.Close()
				frames[i].Mat = cropped
			}
		}
		if err := j.checkCancel(); err != nil {
			return res, err
		}
	}

	// Grouping
	j.setState(StateGrouping)
	j.emit(0, 0, "grouping images")

	grouping := j.group(frames)
	res.Discarded = append(res.Discarded, grouping.Discarded...)

	if err := j.checkCancel(); err != nil {
		return res, err
	}
	if len(grouping.Groups) == 0 {
		return res, errf(CategoryMatch,
			"no stitchable groups: no image pair shares enough overlap; capture with more overlap between shots")
	}

	// Release frames that belong to no group before stitching starts.
	byPath := make(map[string]*imageio.Frame, len(frames))
	for i := range frames {
		byPath[frames[i].Path] = &frames[i]
	}
	for _, path := range grouping.Discarded {
		if f, ok := byPath[path]; ok {
			f.Close()
		}
	}

	// Stitching, one group at a time
	j.setState(StateStitching)
	stitcher := j.stitcher()
	started := time.Now()

	for gi, members := range grouping.Groups {
		if err := j.checkCancel(); err != nil {
			return res, err
		}
		j.emit(gi+1, len(grouping.Groups), fmt.Sprintf("stitching group %d/%d (%d images)",
			gi+1, len(grouping.Groups), len(members)))

		mats := make([]gocv.Mat, 0, len(members))
		for _, path := range members {
			if f, ok := byPath[path]; ok {
				mats = append(mats, f.Mat)
			}
		}

		output, err := j.stitchGroup(stitcher, mats, members, started, gi, len(grouping.Groups))
		if err != nil {
			log.Printf("group %d failed: %v", gi+1, err)
			res.GroupErrors = append(res.GroupErrors, err)
		} else {
			res.Outputs = append(res.Outputs, output)
		}

		// Composites of large batches dominate memory; release each
		// group's sources as soon as it is finished.
		for _, path := range members {
			if f, ok := byPath[path]; ok {
				f.Close()
			}
		}
	}

	if len(res.Outputs) == 0 {
		return res, errf(CategoryStitch, "all %d groups failed to stitch", len(grouping.Groups))
	}

	if j.opts.Report {
		if err := j.writeReport(res); err != nil {
			log.Printf("report: %v", err)
		}
	}
	return res, nil
}

// writeReport drops a JSON manifest of the run next to the composites.
func (j *Job) writeReport(res Result) error {
	outDir := j.opts.OutputDir
	if outDir == "" {
		outDir = "."
	}
	path := filepath.Join(outDir, "stitch-report.json")

	m := report.New(j.opts.Mode.String())
	m.Detector = j.opts.Feature.Detector.String()
	m.Settings = report.Settings{
		MinGoodMatches:   j.opts.Grouping.MinGoodMatches,
		BoundaryDetect:   j.opts.DetectBoundaries,
		AlphaMask:        j.opts.AlphaMask,
		VerticalPairwise: j.opts.Pairwise.Vertical,
	}
	for _, in := range j.opts.Paths {
		m.AddInput(path, in)
	}
	for _, out := range res.Outputs {
		m.AddOutput(path, out.Path, out.Sources)
	}
	m.Discarded = append(m.Discarded, res.Discarded...)
	for _, gerr := range res.GroupErrors {
		m.Errors = append(m.Errors, gerr.Error())
	}
	return m.Save(path)
}

// group runs the pairwise match graph construction, consulting the match
// cache when one is configured.
func (j *Job) group(frames []imageio.Frame) group.Result {
	matcher := feature.NewMatcher(j.opts.Feature)
	defer matcher.Close()

	var store *cache.Store
	if j.opts.CachePath != "" {
		var err error
		store, err = cache.Open(j.opts.CachePath)
		if err != nil {
			log.Printf("match cache unavailable: %v", err)
			store = nil
		} else {
			defer store.Close()
		}
	}

	hashes := make([]string, len(frames))
	hashOf := func(i int) string {
		if hashes[i] == "" {
			hashes[i] = cache.HashMat(frames[i].Mat)
		}
		return hashes[i]
	}
	detector := j.opts.Feature.Detector.String()

	score := func(a, b int) int {
		if store != nil {
			if count, ok := store.Lookup(hashOf(a), hashOf(b), detector); ok {
				return count
			}
		}
		count := matcher.GoodMatchCount(frames[a].Mat, frames[b].Mat)
		if store != nil {
			if err := store.Insert(hashOf(a), hashOf(b), detector, count); err != nil {
				log.Printf("match cache: %v", err)
			}
		}
		return count
	}

	opts := j.opts.Grouping
	opts.Debug = opts.Debug || j.opts.Debug
	opts.Progress = func(cur, total int) {
		j.emit(cur, total, fmt.Sprintf("matching pair %d/%d", cur, total))
	}

	ids := make([]string, len(frames))
	for i := range frames {
		ids[i] = frames[i].Path
	}
	return group.New(opts).Group(ids, score)
}

func (j *Job) stitcher() stitch.Stitcher {
	opts := j.opts.Pairwise
	opts.Matcher = j.opts.Feature
	opts.Debug = opts.Debug || j.opts.Debug
	return stitch.ForMode(j.opts.Mode, opts)
}

func (j *Job) stitchGroup(stitcher stitch.Stitcher, mats []gocv.Mat, members []string,
	started time.Time, seq, total int) (Output, error) {

	if len(mats) == 0 {
		return Output{}, errf(CategoryStitch, "group %d has no loaded images", seq+1)
	}

	composite, err := stitcher.Stitch(mats)
	if err != nil {
		return Output{}, wrap(CategoryStitch, err)
	}
	defer composite.Close()

	final := composite
	if j.opts.AlphaMask && j.opts.Encode.Format != imageio.FormatJPEG {
		masked := imageio.ApplyAlphaMask(composite)
		defer masked.Close()
		final = masked
	}

	outDir := j.opts.OutputDir
	if outDir == "" {
		outDir = "."
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return Output{}, wrap(CategoryIO, err)
	}

	path := imageio.OutputName(outDir, started, seq, total, j.opts.Encode.Format)
	if err := imageio.Save(final, path, j.opts.Encode); err != nil {
		return Output{}, wrap(CategoryIO, err)
	}

	return Output{Sources: members, Path: path}, nil
}

func (j *Job) setState(s State) {
	j.mu.Lock()
	j.state = s
	j.mu.Unlock()
}

func (j *Job) checkCancel() error {
	if j.cancel.Load() {
		return ErrCancelled
	}
	return nil
}

// emit delivers a progress milestone without ever blocking the pipeline.
func (j *Job) emit(current, total int, message string) {
	select {
	case j.progress <- Progress{Current: current, Total: total, Message: message}:
	default:
	}
}

func frameMats(frames []imageio.Frame) []gocv.Mat {
	mats := make([]gocv.Mat, len(frames))
	for i := range frames {
		mats[i] = frames[i].Mat
	}
	return mats
}
