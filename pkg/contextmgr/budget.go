package contextmgr

// ModelDescriptor is the opaque record the Budget Oracle consumes. A zero or
// missing ContextWindow means "unknown model."
type ModelDescriptor struct {
	ContextWindow int
}

// Equal reports whether two (possibly nil) descriptors are structurally equal.
func (d *ModelDescriptor) Equal(o *ModelDescriptor) bool {
	if d == nil || o == nil {
		return d == o
	}
	return d.ContextWindow == o.ContextWindow
}

// Budget is the Budget Oracle's output: the model's context window and the
// number of tokens the manager should actually try to fill.
type Budget struct {
	Window       int
	EffectiveMax int
}

const (
	defaultContextWindow = 128000

	buffer64k  = 27000
	buffer128k = 30000
	buffer200k = 40000

	minEffectiveMax        = 1000
	otherWindowMinReduction = 40000
	otherWindowReductionPct = 0.20
)

// ComputeBudget maps a model descriptor to a (window, effective_max) pair
// under a fixed policy:
//
//	absent/zero window -> treated as 128000, same rule as the 128000 row
//	64000              -> window - 27000
//	128000             -> window - 30000
//	200000             -> window - 40000
//	other W            -> W - max(0.20*W, 40000), clamped to max(result, W/2, 1000)
//
// The clamp on the "other" branch guarantees a strictly positive
// effective_max for any window >= 2000.
func ComputeBudget(desc *ModelDescriptor) Budget {
	window := defaultContextWindow
	if desc != nil && desc.ContextWindow > 0 {
		window = desc.ContextWindow
	}

	switch window {
	case 64000:
		return Budget{Window: window, EffectiveMax: window - buffer64k}
	case 128000:
		return Budget{Window: window, EffectiveMax: window - buffer128k}
	case 200000:
		return Budget{Window: window, EffectiveMax: window - buffer200k}
	default:
		reduction := otherWindowReductionPct * float64(window)
		if reduction < otherWindowMinReduction {
			reduction = otherWindowMinReduction
		}
		effectiveMax := window - int(reduction)

		if half := window / 2; effectiveMax < half {
			effectiveMax = half
		}
		if effectiveMax < minEffectiveMax {
			effectiveMax = minEffectiveMax
		}
		return Budget{Window: window, EffectiveMax: effectiveMax}
	}
}
