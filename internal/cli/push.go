package cli

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/aretw0/lookahead"
	"github.com/aretw0/lookahead/pkg/push"
)

// JSONDevice is a push.Device that writes every update as one JSON line.
type JSONDevice struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewJSONDevice writes updates to w.
func NewJSONDevice(w io.Writer) *JSONDevice {
	return &JSONDevice{enc: json.NewEncoder(w)}
}

type deviceUpdate struct {
	Kind  string `json:"kind"`
	Items any    `json:"items"`
}

func (d *JSONDevice) write(kind string, items any) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.enc.Encode(deviceUpdate{Kind: kind, Items: items})
}

func (d *JSONDevice) SetTrackSpeedItems(_ context.Context, items []push.SpeedItem) error {
	return d.write("speed", items)
}

func (d *JSONDevice) SetTrackGradeItems(_ context.Context, items []push.GradeItem) error {
	return d.write("grade", items)
}

func (d *JSONDevice) SetJunctionItems(_ context.Context, items []push.JunctionItem) error {
	return d.write("junction", items)
}

func (d *JSONDevice) SetSpeedLimit(_ context.Context, limit float64) error {
	return d.write("consist_limit", limit)
}

// RunPush feeds a device from a fixed position on every tick until ctx is done.
func RunPush(ctx context.Context, env *Environment, device push.Device, pos Position, trainLength float64, interval time.Duration) error {
	pusher := push.New(env.Engine, device, push.WithLogger(env.Logger))
	q := env.Query(pos.Segment, pos.Offset, pos.Backward)

	// A bad position fails here once.
	if err := pusher.PushUpcoming(ctx, q); err != nil {
		return err
	}

	err := pusher.Run(ctx, interval, func(context.Context) (lookahead.Query, float64, error) {
		return q, trainLength, nil
	})
	if ctx.Err() != nil {
		return nil
	}
	return err
}
