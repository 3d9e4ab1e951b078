package app

import (
	"github.com/km-arc/go-resolver/framework/container"
)

// FrameworkNamespace is the resolver holding the application's own services.
// It is added to the pool before any provider resolver, so consumers and
// implementations can inject them through fallback:
//
//	type StatusController struct {
//	    cfg  *config.Config  `inject:""`
//	    pool *container.Pool `inject:""`
//	}
//
// Bound contracts:
//   - *config.Config
//   - *zap.Logger
//   - *container.Pool
//   - *metrics.Collector
//   - *routing.Router
const FrameworkNamespace = "framework"

// frameworkResolver binds the application's services as pre-built singletons.
func (a *Application) frameworkResolver(opts ...container.Option) (*container.Resolver, error) {
	r, err := container.NewResolver(FrameworkNamespace, opts...)
	if err != nil {
		return nil, err
	}
	for _, instance := range []any{a.Config, a.Logger, a.Pool, a.Metrics, a.Router} {
		desc := container.DescribeInstance(instance)
		if _, err := r.Bind(desc.Type, desc, false); err != nil {
			return nil, err
		}
	}
	return r, nil
}
