/*
Package observability provides lifecycle hooks for monitoring the Stepwise engine.

Metrics records Prometheus counters for runs, steps, decisions and delivery
failures. LoggingHooks writes one slog record per lifecycle event. Chain combines
several hook sets so both can be installed with a single WithLifecycleHooks.

	metrics := observability.NewMetrics()
	engine, _ := stepwise.New(stepwise.WithLifecycleHooks(
		observability.Chain(metrics.Hooks(), observability.LoggingHooks(logger)),
	))
	http.Handle("/metrics", metrics.Handler())
*/
package observability
