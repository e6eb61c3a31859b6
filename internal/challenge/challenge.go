// Package challenge implements the single-use verification challenge
// lifecycle: issuance of randomized multi-modal prompts, one-time
// validation, and the active set that arbitrates between them.
//
// A challenge is valid for exactly one Validate call. Validation removes
// it from the active set whether it passed or failed, so a replayed id
// is indistinguishable from one that was never issued.
package challenge

import "time"

// Kind identifies the modality of a verification challenge.
type Kind string

const (
	KindVisualAudio        Kind = "visual_audio"
	KindCognitiveMotor     Kind = "cognitive_motor"
	KindEmotionalResponse  Kind = "emotional_response"
	KindEnvironmentalCheck Kind = "environmental_check"
)

// Kinds lists every challenge kind; issuance draws uniformly from it.
var Kinds = []Kind{
	KindVisualAudio,
	KindCognitiveMotor,
	KindEmotionalResponse,
	KindEnvironmentalCheck,
}

// Challenge is a single-use verification prompt. Immutable once issued.
type Challenge struct {
	ID               string    `json:"challenge_id"`
	Kind             Kind      `json:"challenge_type"`
	Instruction      string    `json:"instruction"`
	ExpectedDuration float64   `json:"expected_duration"` // seconds, advisory only
	IssuedAt         time.Time `json:"issued_at"`
}

// ReasonNotFound is returned when a validation targets an id that was
// never issued or was already consumed.
const ReasonNotFound = "not_found"

// Signals carries the simulated per-modality observations attached to a
// completed validation.
type Signals struct {
	VoiceDetected bool `json:"voice_detected"`
	FaceMovement  bool `json:"face_movement"`
	TimingNatural bool `json:"timing_natural"`
}

// Result is the outcome of a validation attempt.
type Result struct {
	Valid      bool     `json:"valid"`
	Reason     string   `json:"reason,omitempty"`
	Confidence float64  `json:"confidence"`
	Kind       Kind     `json:"challenge_type,omitempty"`
	Signals    *Signals `json:"biometric_signals,omitempty"`
	Anomalies  []string `json:"anomalies"`
}

// EventEmitter receives lifecycle notifications. Implementations must not
// block; the registry calls them synchronously.
type EventEmitter interface {
	ChallengeIssued(ch *Challenge)
	ChallengeValidated(id string, res *Result)
}
