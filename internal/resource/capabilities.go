package resource

// Capabilities declares what a dataset implementation supports. The
// declaration is authoritative: the contract layer enforces limits from it
// and never probes the backend to discover them.
type Capabilities struct {
	// SupportsCheckpoint marks providers that honor incremental reads.
	// When false, a caller-staged checkpoint is hidden from the provider
	// and left unconsumed.
	SupportsCheckpoint bool

	// MaxInputRows is the declared per-call input capacity. Zero means
	// unbounded. Oversized input fails before the backend is touched;
	// batches are never split.
	MaxInputRows int

	// Operations lists the methods the provider serves. Methods outside
	// the list fail with the dedicated not-supported kind before the
	// backend is touched. An empty list declares no restriction.
	Operations []Method
}

// Supports reports whether the method is served. An empty operation list
// supports everything.
func (c Capabilities) Supports(m Method) bool {
	if len(c.Operations) == 0 {
		return true
	}
	for _, op := range c.Operations {
		if op == m {
			return true
		}
	}
	return false
}
