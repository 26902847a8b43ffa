package graph

import (
	"context"
	"errors"
)

// RecipeEvents streams recipe changes until the subscription ends.
func (r *Resolver) RecipeEvents(ctx context.Context) (<-chan *RecipeEvent, error) {
	if r.hub == nil {
		return nil, errors.New("recipe events are not available")
	}

	out := make(chan *RecipeEvent)
	events := r.hub.Subscribe(ctx)
	go func() {
		defer close(out)
		for {
			select {
			case ev, ok := <-events:
				if !ok {
					return
				}
				select {
				case out <- eventToGraphQL(ev):
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
