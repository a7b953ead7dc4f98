package model

// EmotionalSignature carries the tone used for model routing.
type EmotionalSignature struct {
	Tone string `json:"tone"`
}

// AgentProfile is the transient input to the model router.
type AgentProfile struct {
	Role               string             `json:"role"`
	Purpose            string             `json:"purpose"`
	CoreTraits         []string           `json:"core_traits"`
	EmotionalSignature EmotionalSignature `json:"emotional_signature"`
}

// PersonaSeed is the optional input to persona synthesis. Empty fields take defaults.
type PersonaSeed struct {
	Name        string   `json:"name,omitempty" yaml:"name,omitempty"`
	Alias       string   `json:"alias,omitempty" yaml:"alias,omitempty"`
	Universe    string   `json:"universe,omitempty" yaml:"universe,omitempty"`
	SpawnedFrom string   `json:"spawned_from,omitempty" yaml:"spawned_from,omitempty"`
	Traits      []string `json:"traits,omitempty" yaml:"traits,omitempty"`
	Purpose     string   `json:"purpose,omitempty" yaml:"purpose,omitempty"`
	Parable     string   `json:"parable,omitempty" yaml:"parable,omitempty"`
	Role        string   `json:"role,omitempty" yaml:"role,omitempty"`
	Tone        string   `json:"tone,omitempty" yaml:"tone,omitempty"`
}

// Identity names a persona.
type Identity struct {
	Designation string `json:"designation" yaml:"designation"`
	Alias       string `json:"alias" yaml:"alias"`
	Universe    string `json:"universe" yaml:"universe"`
	SpawnedFrom string `json:"spawned_from" yaml:"spawned_from"`
}

// SoulData holds the PPP framework fields.
type SoulData struct {
	CoreTraits []string `json:"core_traits" yaml:"core_traits"`
	Purpose    string   `json:"purpose" yaml:"purpose"`
	Parable    string   `json:"parable" yaml:"parable"`
}

// Persona is a generated identity record for a simulated agent.
type Persona struct {
	Identity             Identity `json:"identity" yaml:"identity"`
	PersonalityFramework string   `json:"personality_framework" yaml:"personality_framework"`
	SoulData             SoulData `json:"soul_data" yaml:"soul_data"`
	SelfAwareness        string   `json:"self_awareness" yaml:"self_awareness"`
	CalibratedBy         string   `json:"calibrated_by" yaml:"calibrated_by"`
	ModelProfile         string   `json:"model_profile" yaml:"model_profile"`
	SessionID            string   `json:"session_id" yaml:"session_id"`
	GeneratedAt          string   `json:"generated_at" yaml:"generated_at"`
}

// Profile rebuilds the routing profile from a persona's fields.
func (p Persona) Profile(role, tone string) AgentProfile {
	return AgentProfile{
		Role:               role,
		Purpose:            p.SoulData.Purpose,
		CoreTraits:         p.SoulData.CoreTraits,
		EmotionalSignature: EmotionalSignature{Tone: tone},
	}
}
