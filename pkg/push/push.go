package push

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"math"
	"time"

	"github.com/aretw0/lookahead"
	"github.com/aretw0/lookahead/internal/logging"
	"github.com/aretw0/lookahead/pkg/domain"
)

// DefaultConsistLimit is pushed when no limit applies under the consist.
const DefaultConsistLimit = 200.0

// GradeScale converts a grade in percent to the device's per-mille items.
const GradeScale = 10.0

// UnknownLength marks a grade item whose extent is not known.
const UnknownLength = -1.0

// SpeedItem is an upcoming speed limit.
type SpeedItem struct {
	Span  float64 `json:"span"`
	Limit float64 `json:"limit"`
}

// GradeItem is an upcoming grade change. Grade is in per mille.
type GradeItem struct {
	Span   float64 `json:"span"`
	Grade  float64 `json:"grade"`
	Length float64 `json:"length"`
}

// JunctionItem is an upcoming junction with its current routing.
type JunctionItem struct {
	Span        float64 `json:"span"`
	Junction    string  `json:"junction"`
	Selected    int     `json:"selected"`
	Description string  `json:"description"`
}

// Device is the receiving end of a push.
type Device interface {
	SetTrackSpeedItems(ctx context.Context, items []SpeedItem) error
	SetTrackGradeItems(ctx context.Context, items []GradeItem) error
	SetJunctionItems(ctx context.Context, items []JunctionItem) error
	SetSpeedLimit(ctx context.Context, limit float64) error
}

// Source produces display events. *lookahead.Engine implements it.
type Source interface {
	Upcoming(ctx context.Context, q lookahead.Query) (iter.Seq[domain.Event], error)
	DescribeJunction(j *domain.Junction) domain.JunctionDescription
}

// Pusher maps display events onto a Device.
type Pusher struct {
	source Source
	device Device
	logger *slog.Logger
}

// Option configures a Pusher.
type Option func(*Pusher)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pusher) {
		p.logger = logger
	}
}

// New creates a Pusher.
func New(source Source, device Device, opts ...Option) *Pusher {
	p := &Pusher{
		source: source,
		device: device,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// PushUpcoming sends the speed, grade and junction items of q to the device.
func (p *Pusher) PushUpcoming(ctx context.Context, q lookahead.Query) error {
	seq, err := p.source.Upcoming(ctx, q)
	if err != nil {
		return err
	}

	c := &collector{describe: p.source.DescribeJunction}
	for ev := range seq {
		ev.Accept(c)
	}

	if err := p.device.SetTrackSpeedItems(ctx, c.speeds); err != nil {
		return fmt.Errorf("failed to push speed items: %w", err)
	}
	if err := p.device.SetTrackGradeItems(ctx, c.grades); err != nil {
		return fmt.Errorf("failed to push grade items: %w", err)
	}
	if err := p.device.SetJunctionItems(ctx, c.junctions); err != nil {
		return fmt.Errorf("failed to push junction items: %w", err)
	}
	p.logger.Debug("pushed upcoming events",
		"segment", q.Segment,
		"speeds", len(c.speeds),
		"grades", len(c.grades),
		"junctions", len(c.junctions),
	)
	return nil
}

// ConsistLimit returns the lowest speed limit posted within trainLength ahead of q's start,
// or DefaultConsistLimit when there is none. An unresolved dual limit counts with its lower value.
func (p *Pusher) ConsistLimit(ctx context.Context, q lookahead.Query, trainLength float64) (float64, error) {
	if trainLength <= 0 || math.IsNaN(trainLength) {
		return DefaultConsistLimit, nil
	}
	q.MaxSpan = trainLength

	seq, err := p.source.Upcoming(ctx, q)
	if err != nil {
		return 0, err
	}

	limit := math.Inf(1)
	for ev := range seq {
		if ev.Pos().Span >= trainLength {
			break
		}
		switch sl := ev.(type) {
		case domain.SpeedLimit:
			limit = min(limit, sl.Value)
		case domain.DualSpeedLimit:
			// The junction that decides it usually lies beyond the train.
			limit = min(limit, lowerLimit(sl))
		}
	}
	if math.IsInf(limit, 1) {
		return DefaultConsistLimit, nil
	}
	return limit, nil
}

// PushConsistLimit sends ConsistLimit to the device.
func (p *Pusher) PushConsistLimit(ctx context.Context, q lookahead.Query, trainLength float64) error {
	limit, err := p.ConsistLimit(ctx, q, trainLength)
	if err != nil {
		return err
	}
	if err := p.device.SetSpeedLimit(ctx, limit); err != nil {
		return fmt.Errorf("failed to push speed limit: %w", err)
	}
	return nil
}

// Position tells the push loop where the train currently is.
type Position func(ctx context.Context) (q lookahead.Query, trainLength float64, err error)

// Run alternates PushUpcoming and PushConsistLimit on every tick until ctx is done.
// Failed pushes are logged and retried on the next tick.
func (p *Pusher) Run(ctx context.Context, interval time.Duration, position Position) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	actions := []func(context.Context, lookahead.Query, float64) error{
		func(ctx context.Context, q lookahead.Query, _ float64) error { return p.PushUpcoming(ctx, q) },
		p.PushConsistLimit,
	}
	next := 0

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			q, length, err := position(ctx)
			if err != nil {
				p.logger.Warn("position unavailable", "err", err)
				continue
			}
			if err := actions[next](ctx, q, length); err != nil {
				p.logger.Warn("push failed", "err", err)
			}
			next = (next + 1) % len(actions)
		}
	}
}

func lowerLimit(d domain.DualSpeedLimit) float64 {
	return min(d.Left, d.Right)
}

type collector struct {
	describe  func(*domain.Junction) domain.JunctionDescription
	speeds    []SpeedItem
	grades    []GradeItem
	junctions []JunctionItem
}

func (c *collector) VisitSegmentEntered(domain.SegmentEntered) {}

// The device has no notion of a dual limit, so it gets the lower one.
func (c *collector) VisitDualSpeedLimit(e domain.DualSpeedLimit) {
	c.speeds = append(c.speeds, SpeedItem{Span: e.Span, Limit: lowerLimit(e)})
}

func (c *collector) VisitSpeedLimit(e domain.SpeedLimit) {
	c.speeds = append(c.speeds, SpeedItem{Span: e.Span, Limit: e.Value})
}

func (c *collector) VisitGrade(e domain.Grade) {
	c.grades = append(c.grades, GradeItem{Span: e.Span, Grade: e.Value * GradeScale, Length: UnknownLength})
}

func (c *collector) VisitJunctionReached(e domain.JunctionReached) {
	d := c.describe(e.Junction)
	c.junctions = append(c.junctions, JunctionItem{
		Span:        e.Span,
		Junction:    d.Junction,
		Selected:    d.Selected,
		Description: d.String(),
	})
}
