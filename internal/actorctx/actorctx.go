// Package actorctx carries per-request identity through context.Context so
// code below the HTTP layer (logging, the service) can see it.
package actorctx

import "context"

type ctxKey string

const (
	keyRequestID ctxKey = "request_id"
	keySubject   ctxKey = "subject"
)

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, keyRequestID, id)
}

func RequestIDFrom(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(keyRequestID).(string)

	return v, ok && v != ""
}

// WithSubject stores the authenticated token subject (the user's email).
func WithSubject(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, keySubject, subject)
}

func SubjectFrom(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(keySubject).(string)

	return v, ok && v != ""
}
