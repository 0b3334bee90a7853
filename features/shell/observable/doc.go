// Package observable decorates feature handlers with metrics, tracing, and logging.
//
// The wrappers implement the same Handle signature as the handler they wrap, so callers
// do not notice the difference:
//
//	core, err := createbooking.NewCommandHandler(resolver)
//	handler, err := observable.NewCommandWrapper[createbooking.Command, createbooking.Result](core,
//		observable.WithCommandMetrics[createbooking.Command, createbooking.Result](collector),
//	)
package observable
