package game

import "context"

// FireTimer runs whatever the room's schedule slot holds, as if it went off.
func (e *Engine) FireTimer(roomID string) timerKind {
	var kind timerKind
	e.do(context.Background(), roomID, func(ctx context.Context, a *roomActor) error {
		kind = a.timerKind
		if a.fire != nil {
			a.fire()
		}
		return nil
	})
	return kind
}

func (e *Engine) ArmedTimer(roomID string) timerKind {
	var kind timerKind
	e.do(context.Background(), roomID, func(ctx context.Context, a *roomActor) error {
		kind = a.timerKind
		return nil
	})
	return kind
}
