// Package catcher provides a trapping boundary that runs a callback and turns
// any panic it raises into a returned error instead of letting it unwind the
// caller's goroutine.
//
// The zero-option form is a plain function:
//
//	res := catcher.Catch(func() {
//	    doWork()
//	})
//	if !res.OK() {
//	    return fmt.Errorf("doing work: %w", res.Err())
//	}
//
// The out-parameter form mirrors APIs that report failure through an error slot:
//
//	var err error
//	if !catcher.Run(doWork, &err) {
//	    return err
//	}
//
// A configured Catcher adds opt-in logging, stack capture limits, observers and
// span marking:
//
//	c := catcher.New(
//	    catcher.WithLogger(logger),
//	    catcher.WithObserver(metrics),
//	    catcher.WithPassthrough(catcher.RuntimeErrors),
//	)
//	res := c.CatchContext(ctx, doWork)
//
// Without options nothing is logged, measured or traced. The boundary adds no
// state of its own; side effects made by the callback before it panicked are
// kept.
package catcher
