/*
Package observability binds the engine's lifecycle hooks to Prometheus metrics and structured logs.

	m := observability.NewMetrics(prometheus.DefaultRegisterer)
	hooks := observability.Combine(m.Hooks(), observability.LogHooks(logger))
	eng, err := lookahead.New(net, lookahead.WithLifecycleHooks(hooks))
*/
package observability
