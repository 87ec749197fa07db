package model

import (
	"context"

	"github.com/google/uuid"
)

// Viewer identifies the browser session making a request.
type Viewer struct {
	SessionID uuid.UUID
	Admin     bool
}

type viewerKey struct{}

// WithViewer stores the viewer on the context.
func WithViewer(ctx context.Context, v Viewer) context.Context {
	return context.WithValue(ctx, viewerKey{}, v)
}

// ViewerFrom returns the viewer stored on ctx, or the zero Viewer.
func ViewerFrom(ctx context.Context) Viewer {
	v, _ := ctx.Value(viewerKey{}).(Viewer)
	return v
}
