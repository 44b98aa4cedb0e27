package config

import "testing"

func TestKnownModelsCoverEveryBudgetBucket(t *testing.T) {
	seen := map[int]bool{}
	for _, info := range KnownModels {
		seen[info.ContextWindow] = true
	}

	for _, window := range []int{64000, 128000, 200000} {
		if !seen[window] {
			t.Errorf("expected at least one known model with ContextWindow %d", window)
		}
	}

	hasOther := false
	for w := range seen {
		if w != 64000 && w != 128000 && w != 200000 {
			hasOther = true
		}
	}
	if !hasOther {
		t.Errorf("expected at least one known model outside the three named budget buckets")
	}
}

func TestRegistryDescribeUnknownModelReturnsNil(t *testing.T) {
	r := NewRegistry(nil)
	if d := r.Describe("totally-made-up-model"); d != nil {
		t.Errorf("expected nil descriptor for an unknown model, got %+v", d)
	}
}

func TestRegistryOverridesWinOverKnownModels(t *testing.T) {
	var anyKnown string
	for name := range KnownModels {
		anyKnown = name
		break
	}

	r := NewRegistry(map[string]ModelInfo{anyKnown: {ContextWindow: 999}})
	d := r.Describe(anyKnown)
	if d == nil || d.ContextWindow != 999 {
		t.Errorf("expected override to win, got %+v", d)
	}
}
