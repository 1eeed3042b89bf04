package optimizer

import (
	"math/rand"
	"sort"
)

// Sampler proposes candidates and learns from their fitness. Fitness is
// always maximized; the optimizer flips the sign for minimizing runs. Only
// the coordinating goroutine calls a sampler.
type Sampler interface {
	Propose() ParameterSet
	Observe(values ParameterSet, fitness float64)
}

type SamplerKind string

const (
	SamplerRandom    SamplerKind = "random"
	SamplerEvolution SamplerKind = "evolution"
)

func newSampler(kind SamplerKind, space *Space, seed int64) Sampler {
	rng := rand.New(rand.NewSource(seed))
	if kind == SamplerRandom {
		return NewRandomSampler(space, rng)
	}
	return NewEvolutionSampler(space, rng)
}

// RandomSampler draws every parameter uniformly from its range.
type RandomSampler struct {
	space *Space
	rng   *rand.Rand
}

func NewRandomSampler(space *Space, rng *rand.Rand) *RandomSampler {
	return &RandomSampler{space: space, rng: rng}
}

func (s *RandomSampler) Propose() ParameterSet { return s.space.Sample(s.rng) }

func (s *RandomSampler) Observe(ParameterSet, float64) {}

type elite struct {
	values  ParameterSet
	fitness float64
}

// EvolutionSampler keeps a pool of the best candidates seen so far. Until
// the pool is full it samples at random; after that it picks a parent by
// tournament and mutates it.
type EvolutionSampler struct {
	space          *Space
	rng            *rand.Rand
	poolSize       int
	tournamentSize int
	mutationRate   float64
	mutationScale  float64
	pool           []elite
}

func NewEvolutionSampler(space *Space, rng *rand.Rand) *EvolutionSampler {
	return &EvolutionSampler{
		space:          space,
		rng:            rng,
		poolSize:       10,
		tournamentSize: 3,
		mutationRate:   0.3,
		mutationScale:  0.1,
	}
}

func (s *EvolutionSampler) Propose() ParameterSet {
	if len(s.pool) < s.poolSize || len(s.space.params) == 0 {
		return s.space.Sample(s.rng)
	}
	parent := s.tournament()
	child := parent.values.Clone()
	mutated := false
	for _, p := range s.space.params {
		if s.rng.Float64() < s.mutationRate {
			child[p.Name] = p.mutate(s.rng, child[p.Name], s.mutationScale)
			mutated = true
		}
	}
	if !mutated {
		p := s.space.params[s.rng.Intn(len(s.space.params))]
		child[p.Name] = p.mutate(s.rng, child[p.Name], s.mutationScale)
	}
	return child
}

func (s *EvolutionSampler) tournament() elite {
	best := s.pool[s.rng.Intn(len(s.pool))]
	for i := 1; i < s.tournamentSize; i++ {
		c := s.pool[s.rng.Intn(len(s.pool))]
		if c.fitness > best.fitness {
			best = c
		}
	}
	return best
}

// Observe admits values to the pool when it is not full yet or when it beats
// the worst elite.
func (s *EvolutionSampler) Observe(values ParameterSet, fitness float64) {
	if len(s.pool) >= s.poolSize && fitness <= s.pool[len(s.pool)-1].fitness {
		return
	}
	s.pool = append(s.pool, elite{values: values.Clone(), fitness: fitness})
	sort.SliceStable(s.pool, func(i, j int) bool { return s.pool[i].fitness > s.pool[j].fitness })
	if len(s.pool) > s.poolSize {
		s.pool = s.pool[:s.poolSize]
	}
}
