package protocol

// Limits applied while decoding untrusted input.
const (
	// MaxVNodeDepth limits the nesting depth of node payloads.
	MaxVNodeDepth = 256

	// MaxPatches limits the number of patches in one list.
	MaxPatches = 10000

	// MaxPathLength limits the number of segments of a patch path.
	MaxPathLength = MaxVNodeDepth
)

// Limits allows configuring custom decode limits.
// Use DefaultLimits() for sensible defaults.
type Limits struct {
	// VNodeDepth is the maximum node payload depth.
	VNodeDepth int

	// Patches is the maximum number of patches per list.
	Patches int

	// PathLength is the maximum number of path segments.
	PathLength int
}

// DefaultLimits returns the default decode limits.
func DefaultLimits() Limits {
	return Limits{
		VNodeDepth: MaxVNodeDepth,
		Patches:    MaxPatches,
		PathLength: MaxPathLength,
	}
}

func (l Limits) withDefaults() Limits {
	d := DefaultLimits()
	if l.VNodeDepth <= 0 {
		l.VNodeDepth = d.VNodeDepth
	}
	if l.Patches <= 0 {
		l.Patches = d.Patches
	}
	if l.PathLength <= 0 {
		l.PathLength = d.PathLength
	}
	return l
}

// depthContext tracks the current decoding depth for recursive structures.
type depthContext struct {
	current int
	max     int
}

// newDepthContext creates a new depth context with the given maximum.
func newDepthContext(max int) *depthContext {
	return &depthContext{current: 0, max: max}
}

// enter increments the depth and returns an error if the limit would be exceeded.
// The depth is only incremented on success.
func (dc *depthContext) enter() error {
	if dc.current >= dc.max {
		return ErrMaxDepthExceeded
	}
	dc.current++
	return nil
}

// leave decrements the depth.
func (dc *depthContext) leave() {
	dc.current--
}
