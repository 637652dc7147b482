package chat

import (
	"context"
	"sort"

	"jan-server/services/assistant-api/internal/domain/user"
	"jan-server/services/assistant-api/internal/utils/platformerrors"
)

// Next continues the middleware chain.
type Next func(ctx context.Context, chatCtx *ChatContext) error

// Middleware is one step of a chat turn. Lower orders run first.
type Middleware interface {
	Order() int
	Invoke(ctx context.Context, chatCtx *ChatContext, next Next) error
}

// MiddlewareSource provides the extension middlewares of a configuration.
type MiddlewareSource interface {
	Middlewares(ctx context.Context, u *user.User, configurationID uint) ([]Middleware, error)
}

// Pipeline runs middlewares sorted by ascending order. Equal orders keep their
// registration order.
type Pipeline struct {
	middlewares []Middleware
}

func NewPipeline(middlewares ...Middleware) *Pipeline {
	sorted := append([]Middleware{}, middlewares...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Order() < sorted[j].Order()
	})
	return &Pipeline{middlewares: sorted}
}

// Run invokes the chain. Reaching the end of the chain means no middleware
// produced an answer, which happens when the configuration has no model.
func (p *Pipeline) Run(ctx context.Context, chatCtx *ChatContext) error {
	var step func(i int) Next
	step = func(i int) Next {
		return func(ctx context.Context, chatCtx *ChatContext) error {
			if i >= len(p.middlewares) {
				return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
					"No model configured.", nil, "31d3c1d0-e2b0-4b38-b921-fb7fdca4e07f")
			}
			return p.middlewares[i].Invoke(ctx, chatCtx, step(i+1))
		}
	}
	return step(0)(ctx, chatCtx)
}
