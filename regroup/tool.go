package regroup

import (
	"context"
	"log/slog"

	"github.com/paulmach/orb"
	"github.com/royalcat/pointsregroup/featurestore"
)

type State int

const (
	StateIdle State = iota
	StateDragging
	StateReleased
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDragging:
		return "dragging"
	case StateReleased:
		return "released"
	}
	return "unknown"
}

// Tool turns a press, move, release pointer gesture into a rectangle
// selection followed by a regroup run. It is not safe for concurrent use.
type Tool struct {
	regrouper *Regrouper
	store     featurestore.Store
	log       *slog.Logger

	state      State
	start, end orb.Point
}

func NewTool(r *Regrouper, store featurestore.Store) *Tool {
	return &Tool{
		regrouper: r,
		store:     store,
		log:       r.log.With("component", "tool"),
	}
}

func (t *Tool) State() State {
	return t.state
}

func (t *Tool) Press(p orb.Point) {
	t.start, t.end = p, p
	t.state = StateDragging
}

func (t *Tool) Move(p orb.Point) {
	if t.state != StateDragging {
		return
	}
	t.end = p
}

// Rect is the rubber band rectangle of the current gesture. It is absent
// while idle and when the drag has zero width or height.
func (t *Tool) Rect() (orb.Bound, bool) {
	if t.state != StateDragging {
		return orb.Bound{}, false
	}
	if t.start.X() == t.end.X() || t.start.Y() == t.end.Y() {
		return orb.Bound{}, false
	}
	return orb.MultiPoint{t.start, t.end}.Bound(), true
}

// Release finishes the gesture: the selection is rebuilt from the rectangle
// and points are regrouped. Rejections are logged as warnings and returned;
// the tool is idle again afterwards either way.
func (t *Tool) Release(ctx context.Context, p orb.Point) (Result, error) {
	t.Move(p)
	rect, ok := t.Rect()

	for _, l := range t.store.Layers() {
		l.ClearSelection()
	}
	if ok {
		SelectInBound(t.store, rect)
	}

	t.state = StateReleased
	defer t.Reset()

	res, err := t.regrouper.Generate(ctx, t.store)
	if err != nil {
		t.log.WarnContext(ctx, "regrouping rejected", "error", err.Error())
		return Result{}, err
	}
	return res, nil
}

func (t *Tool) Reset() {
	t.start, t.end = orb.Point{}, orb.Point{}
	t.state = StateIdle
}
