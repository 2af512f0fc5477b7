package profile

import (
	"fmt"
	"math/rand/v2"
)

// Provider supplies the synthetic profile for a session. It is consulted
// once, before anything is installed.
type Provider interface {
	Profile() Profile
}

// Source names a provider kind in configuration.
type Source string

const (
	SourceFixed  Source = "fixed"
	SourceRandom Source = "random"
)

// Config selects and parameterizes a provider.
type Config struct {
	Source Source `koanf:"source" validate:"required,oneof=fixed random"`
	Seed   uint64 `koanf:"seed"` // 0 picks a fresh seed on every run
}

type fixedProvider struct{}

// Fixed returns a provider that always yields the same hardcoded profile.
func Fixed() Provider {
	return fixedProvider{}
}

func (fixedProvider) Profile() Profile {
	return fixedProfile.clone()
}

// Random draws a profile from the preset pools. The same seed always yields
// the same profile, so a session identity can be reproduced.
type Random struct {
	seed    uint64
	profile Profile
}

// NewRandom builds a seeded random provider. The profile is drawn once at
// construction; every call to Profile returns a copy of it.
func NewRandom(seed uint64) *Random {
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	return &Random{
		seed:    seed,
		profile: newRandomProfile(r),
	}
}

// Seed returns the seed the profile was drawn with.
func (r *Random) Seed() uint64 {
	return r.seed
}

func (r *Random) Profile() Profile {
	return r.profile.clone()
}

// FromConfig builds the configured provider and checks that the profile it
// yields is internally consistent.
func FromConfig(cfg Config) (Provider, error) {
	var p Provider
	switch cfg.Source {
	case SourceFixed, "":
		p = Fixed()
	case SourceRandom:
		seed := cfg.Seed
		if seed == 0 {
			seed = rand.Uint64()
		}
		p = NewRandom(seed)
	default:
		return nil, fmt.Errorf("unknown profile source %q", cfg.Source)
	}

	if err := p.Profile().Validate(); err != nil {
		return nil, fmt.Errorf("profile from %q source: %w", cfg.Source, err)
	}
	return p, nil
}
