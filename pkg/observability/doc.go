/*
Package observability exposes dockwise conversations to Prometheus.

Metrics turns lifecycle hooks into counters and histograms; Serve publishes
them over HTTP together with a health probe and any extra routes.

	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)
	eng, err := dockwise.New(resolver, reg, dockwise.WithLifecycleHooks(metrics.Hooks()))

	srv := observability.NewServer(":2112", prometheus.DefaultGatherer)
	go observability.Serve(ctx, srv, logger)
*/
package observability
