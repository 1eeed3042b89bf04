package optimizer

import (
	"math/rand"
	"reflect"
	"testing"

	"walkforward/types"
)

func TestSamplers_Deterministic(t *testing.T) {
	space := DefaultSpace(types.DefaultStrategyParams())
	for _, kind := range []SamplerKind{SamplerRandom, SamplerEvolution} {
		t.Run(string(kind), func(t *testing.T) {
			a, b := newSampler(kind, space, 42), newSampler(kind, space, 42)
			for i := 0; i < 30; i++ {
				pa, pb := a.Propose(), b.Propose()
				if !reflect.DeepEqual(pa, pb) {
					t.Fatalf("proposal %d differs for equal seeds", i)
				}
				a.Observe(pa, float64(i%7))
				b.Observe(pb, float64(i%7))
			}
		})
	}
}

func TestEvolutionSampler_PoolKeepsBest(t *testing.T) {
	space := NewSpace(types.DefaultStrategyParams(), Parameter{Name: "stop_loss", Kind: KindFloat, Min: 0.01, Max: 0.3})
	s := NewEvolutionSampler(space, rand.New(rand.NewSource(1)))
	s.poolSize = 3

	for i, f := range []float64{5, 1, 9, 3, 7} {
		s.Observe(ParameterSet{"stop_loss": float64(i) / 100}, f)
	}
	var got []float64
	for _, e := range s.pool {
		got = append(got, e.fitness)
	}
	if want := []float64{9, 7, 5}; !reflect.DeepEqual(got, want) {
		t.Errorf("pool fitness = %v, want %v", got, want)
	}

	for i := 0; i < 100; i++ {
		v := s.Propose()["stop_loss"]
		if v < 0.01 || v > 0.3 {
			t.Fatalf("proposal %v outside range", v)
		}
	}
}
