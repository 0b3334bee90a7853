// Package shell holds the infrastructure shared by all feature slices: the handler contracts,
// retry with exponential backoff for transient storage conflicts, the HandlerResult that carries
// retry metadata, and the logging/metrics/tracing helpers used by the observable wrappers.
//
// Feature handlers stay free of observability. They are wrapped with observable.CommandWrapper
// or observable.QueryWrapper by whoever assembles the application, e.g. cmd/venuectl.
package shell
