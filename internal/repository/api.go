package repository

import (
	"context"
)

// apiCaller is the subset of apiclient.Client the repositories depend on.
type apiCaller interface {
	Get(ctx context.Context, token, path string, out interface{}) error
	Post(ctx context.Context, token, path string, body, out interface{}) error
	Patch(ctx context.Context, token, path string, body, out interface{}) error
	Delete(ctx context.Context, token, path string, out interface{}) error
}
