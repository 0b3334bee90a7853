// Package oteladapters connects the venuestore observability interfaces to OpenTelemetry.
//
// The partition stores and the fan-out engine only know the small interfaces declared in
// package venuestore. This package provides ready-made implementations backed by an
// OpenTelemetry meter, tracer, and logger so that a deployment can plug in its exporters
// without writing adapters itself:
//
//	meter := otel.Meter("venuectl")
//	tracer := otel.Tracer("venuectl")
//
//	store, err := postgresengine.NewStoreFromPGXPool(pool,
//		postgresengine.WithMetrics(oteladapters.NewMetricsCollector(meter)),
//		postgresengine.WithTracing(oteladapters.NewTracingCollector(tracer)),
//		postgresengine.WithContextualLogger(oteladapters.NewSlogBridgeLogger("venuestore")),
//	)
package oteladapters
