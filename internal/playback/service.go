package playback

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"interaction-timeline/internal/interaction"
	"interaction-timeline/internal/script"

	"golang.org/x/sync/errgroup"
)

const (
	// DefaultFPS is used when a request does not name a frame rate.
	DefaultFPS = 30
	// DefaultWorkers bounds concurrent frame evaluation in RenderRange.
	DefaultWorkers = 4
	// DefaultMaxFrames caps the frames one RenderRange call may produce.
	DefaultMaxFrames = 1800
)

// ErrRangeTooLarge is returned when a range holds more frames than the
// service renders at once.
var ErrRangeTooLarge = errors.New("frame range too large")

// Options tunes a Service. Zero fields take the package defaults.
type Options struct {
	DefaultFPS int
	Workers    int
	MaxFrames  int
}

// Service registers sequences and evaluates them, delegating storage to a
// Repository.
type Service struct {
	repo Repository
	opts Options
	now  func() time.Time
}

// NewService returns a Service over repo.
func NewService(repo Repository, opts Options) *Service {
	if opts.DefaultFPS <= 0 {
		opts.DefaultFPS = DefaultFPS
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.MaxFrames <= 0 {
		opts.MaxFrames = DefaultMaxFrames
	}
	return &Service{repo: repo, opts: opts, now: time.Now}
}

// FPS returns fps, or the service default when fps is not positive.
func (s *Service) FPS(fps int) int {
	if fps <= 0 {
		return s.opts.DefaultFPS
	}
	return fps
}

// Register compiles source and stores it under id. created is false when an
// existing sequence was replaced.
func (s *Service) Register(id SequenceID, source []byte) (Summary, bool, error) {
	c, created, err := s.repo.Save(Record{ID: id, Source: source, CreatedAt: s.now().UTC()})
	if err != nil {
		return Summary{}, false, err
	}
	return summarize(c), created, nil
}

// Preload registers every document under its name, in name order. It keeps
// going past failures and returns them joined.
func (s *Service) Preload(docs map[string]*script.Document) ([]Summary, error) {
	names := make([]string, 0, len(docs))
	for name := range docs {
		names = append(names, name)
	}
	slices.Sort(names)

	var (
		out  []Summary
		errs []error
	)
	for _, name := range names {
		src, err := docs[name].Marshal()
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		sum, _, err := s.Register(SequenceID(name), src)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		out = append(out, sum)
	}
	return out, errors.Join(errs...)
}

// Describe returns the summary of id.
func (s *Service) Describe(id SequenceID) (Summary, error) {
	c, err := s.repo.Get(id)
	if err != nil {
		return Summary{}, err
	}
	return summarize(c), nil
}

// List returns the registered ids in ascending order.
func (s *Service) List() ([]SequenceID, error) {
	return s.repo.IDs()
}

// Delete removes id.
func (s *Service) Delete(id SequenceID) error {
	return s.repo.Delete(id)
}

// Snapshot evaluates id at frame.
func (s *Service) Snapshot(id SequenceID, frame, fps int) (interaction.Snapshot, error) {
	c, err := s.repo.Get(id)
	if err != nil {
		return interaction.Snapshot{}, err
	}
	return c.Engine.Evaluate(frame, s.FPS(fps)), nil
}

// SnapshotAt evaluates id at the frame on screen seconds into playback.
func (s *Service) SnapshotAt(id SequenceID, seconds float64, fps int) (interaction.Snapshot, error) {
	fps = s.FPS(fps)
	frame, err := FrameAt(seconds, fps)
	if err != nil {
		return interaction.Snapshot{}, err
	}
	return s.Snapshot(id, frame, fps)
}

// RenderRange evaluates id at every frame of r, spreading the work over the
// configured number of workers. Snapshots are returned in frame order.
func (s *Service) RenderRange(ctx context.Context, id SequenceID, r FrameRange, fps int) ([]interaction.Snapshot, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if n := r.Len(); n > s.opts.MaxFrames {
		return nil, fmt.Errorf("%w: %d frames, limit %d", ErrRangeTooLarge, n, s.opts.MaxFrames)
	}
	c, err := s.repo.Get(id)
	if err != nil {
		return nil, err
	}
	fps = s.FPS(fps)

	frames := r.Frames()
	out := make([]interaction.Snapshot, len(frames))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)
	for i, f := range frames {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out[i] = c.Engine.Evaluate(f, fps)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Range returns r with To filled in from the sequence duration when to is nil.
func (s *Service) Range(id SequenceID, from int, to *int, step int) (FrameRange, error) {
	r := FrameRange{From: from, Step: step}
	if to != nil {
		r.To = *to
		return r, nil
	}
	c, err := s.repo.Get(id)
	if err != nil {
		return FrameRange{}, err
	}
	r.To = c.Engine.Duration() - 1
	return r, nil
}
