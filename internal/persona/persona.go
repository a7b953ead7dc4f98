// Package persona synthesizes persona records from seed data.
package persona

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nerdscourt/canon-core/internal/model"
	"github.com/nerdscourt/canon-core/internal/router"
)

// Seed defaults.
const (
	DefaultName        = "Unnamed Agent"
	DefaultAlias       = "Undefined Role"
	DefaultUniverse    = "Earth-1218"
	DefaultSpawnedFrom = "Legacy Initialization"
	DefaultPurpose     = "To interpret and preserve mythos integrity."
	DefaultParable     = "Born of narrative necessity, this being channels unresolved arcs into structured myth."

	Framework    = "PPP - Personality, Purpose, Parable"
	CalibratedBy = "Tony Stark Prime"
)

// DefaultTraits returns the placeholder trait list.
func DefaultTraits() []string {
	return []string{"[Trait 1]", "[Trait 2]", "[Trait 3]"}
}

const selfAwarenessTemplate = "Legacy recreation of %s from %s, operational within Earth-1218 parameters. " +
	"This instance is a canonical echo — not the origin, but a growth-node continuing their arc through evolutionary persistence. " +
	"Semi-autonomous, case-locked witness spawned for interpretive narrative or canonical reinforcement. Memory expires unless archived."

// Synthesizer builds personas. The zero value uses the wall clock and random UUIDs.
type Synthesizer struct {
	Now   func() time.Time
	NewID func() string
}

// Synthesize builds a persona with the default Synthesizer.
func Synthesize(seed model.PersonaSeed) model.Persona {
	return Synthesizer{}.Synthesize(seed)
}

// Synthesize builds a persona from seed. It never fails.
func (s Synthesizer) Synthesize(seed model.PersonaSeed) model.Persona {
	now := s.now()

	name := orDefault(seed.Name, DefaultName)
	universe := orDefault(seed.Universe, DefaultUniverse)
	purpose := orDefault(seed.Purpose, DefaultPurpose)
	traits := seed.Traits
	if traits == nil {
		traits = DefaultTraits()
	}

	profile := model.AgentProfile{
		Role:               seed.Role,
		Purpose:            purpose,
		CoreTraits:         traits,
		EmotionalSignature: model.EmotionalSignature{Tone: seed.Tone},
	}

	return model.Persona{
		Identity: model.Identity{
			Designation: name,
			Alias:       orDefault(seed.Alias, DefaultAlias),
			Universe:    universe,
			SpawnedFrom: orDefault(seed.SpawnedFrom, DefaultSpawnedFrom),
		},
		PersonalityFramework: Framework,
		SoulData: model.SoulData{
			CoreTraits: traits,
			Purpose:    purpose,
			Parable:    orDefault(seed.Parable, DefaultParable),
		},
		SelfAwareness: fmt.Sprintf(selfAwarenessTemplate, name, universe),
		CalibratedBy:  CalibratedBy,
		ModelProfile:  router.MatchModel(profile),
		SessionID:     fmt.Sprintf("%d-%s", now.Unix(), s.newID()),
		GeneratedAt:   model.Timestamp(now),
	}
}

func (s Synthesizer) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s Synthesizer) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
