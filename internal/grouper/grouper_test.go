package grouper

import (
	"math/rand"
	"reflect"
	"slices"
	"testing"
)

func TestMergeRuns(t *testing.T) {
	tests := []struct {
		name string
		a, b Run
		want Run
	}{
		{"interleaved", Run{1, 3, 5}, Run{2, 4, 6}, Run{1, 2, 3, 4, 5, 6}},
		{"disjoint", Run{1, 2}, Run{10, 20}, Run{1, 2, 10, 20}},
		{"duplicates preserved", Run{5, 5}, Run{5}, Run{5, 5, 5}},
		{"left empty", nil, Run{1, 2}, Run{1, 2}},
		{"right empty", Run{1, 2}, nil, Run{1, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MergeRuns(tt.a, tt.b)
			if !slices.Equal(got, tt.want) {
				t.Errorf("MergeRuns(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestCollect_SortsPerKey(t *testing.T) {
	g := Collect([]Observation{
		{"a", 30}, {"b", 5}, {"a", 10}, {"a", 20}, {"b", 1},
	})

	if !slices.Equal(g["a"], Run{10, 20, 30}) {
		t.Errorf("expected a=[10 20 30], got %v", g["a"])
	}
	if !slices.Equal(g["b"], Run{1, 5}) {
		t.Errorf("expected b=[1 5], got %v", g["b"])
	}
	if g.Keys() != 2 || g.Events() != 5 {
		t.Errorf("expected 2 keys / 5 events, got %d / %d", g.Keys(), g.Events())
	}
}

func TestCombine_DoesNotModifyInputs(t *testing.T) {
	a := Collect([]Observation{{"k", 1}, {"k", 3}})
	b := Collect([]Observation{{"k", 2}})

	out := Combine(a, b)

	if !slices.Equal(out["k"], Run{1, 2, 3}) {
		t.Errorf("expected [1 2 3], got %v", out["k"])
	}
	if !slices.Equal(a["k"], Run{1, 3}) || !slices.Equal(b["k"], Run{2}) {
		t.Error("combine must not modify its inputs")
	}
}

// Any repartitioning and reordering of the same observation multiset must
// produce an identical grouped result.
func TestCombine_PartitionIndependence(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	keys := []string{"alpha", "beta", "gamma", "delta"}
	obs := make([]Observation, 3000)
	for i := range obs {
		obs[i] = Observation{
			Key:  keys[rng.Intn(len(keys))],
			Time: rng.Int63n(100000),
		}
	}

	reference := Collect(obs)

	for _, parts := range []int{2, 5, 17} {
		shuffled := slices.Clone(obs)
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})

		partials := make([]Grouped, parts)
		for i := range partials {
			partials[i] = Grouped{}
		}
		chunk := (len(shuffled) + parts - 1) / parts
		for i := 0; i < parts; i++ {
			lo := i * chunk
			hi := min(lo+chunk, len(shuffled))
			if lo < hi {
				partials[i] = Collect(shuffled[lo:hi])
			}
		}

		// Merge in reverse order to exercise commutativity too.
		got := Grouped{}
		for i := parts - 1; i >= 0; i-- {
			got = Combine(got, partials[i])
		}

		if !reflect.DeepEqual(reference, got) {
			t.Errorf("parts=%d: grouped result differs from reference", parts)
		}
	}
}
