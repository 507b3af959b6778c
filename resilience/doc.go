// Package resilience caps how much remote work runs at once.
//
// A Bulkhead bounds the number of open remote sessions. Callers wait for
// a free slot, optionally for at most MaxWait, and give up when their
// context ends:
//
//	bh := resilience.NewBulkhead(resilience.DefaultBulkheadConfig("sessions"))
//	err := bh.Execute(ctx, func() error {
//	    return runMachine(ctx)
//	})
package resilience
