// Package source feeds dispatch requests into the engine.
//
// A Source hands out requests one at a time; ChanSource and SliceSource are
// in-process sources, and pkg/redis provides a RequestQueue backed by a Redis
// list. Pump reads a source and submits each request to a Submitter, usually
// a *dispatch.Engine, with bounded concurrency:
//
//	pump, err := source.NewPump(queue, engine,
//		source.WithConcurrency(engine.MaxConcurrency()),
//		source.WithPumpLogger(log),
//	)
//	if err != nil {
//		return err
//	}
//	return pump.Run(ctx)
//
// When every slot is busy the pump stops calling Next, so backpressure reaches
// the source instead of piling requests up in memory.
package source
