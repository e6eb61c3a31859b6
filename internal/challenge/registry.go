package challenge

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/trustnetlabs/trustnet/internal/idgen"
	"github.com/trustnetlabs/trustnet/internal/metrics"
	"github.com/trustnetlabs/trustnet/internal/traces"
)

const (
	minExpectedDuration = 6.0
	maxExpectedDuration = 15.0

	minConfidence = 0.80
	maxConfidence = 0.95

	// Uniform draw above this passes: 90% pass / 10% fail.
	failProbability = 0.1

	idPrefix = "dbi"
)

var corners = []string{"top-left", "top-right", "bottom-left", "bottom-right"}

var phrases = []string{"TrustNet 360", "Secure Banking", "Verified Access"}

var gestures = []string{"touch your nose", "raise your right hand", "nod twice"}

var environmentalActions = []string{
	"Turn your head slowly left and right",
	"Move slightly closer to the camera",
	"Ensure good lighting on your face",
}

const emotionalInstruction = "Look naturally at the screen. A surprise image will appear briefly."

const anomalySuspiciousTiming = "Suspicious timing pattern"

// Registry manages the set of currently-outstanding challenges and
// arbitrates their one-time validation. All state is in-memory; a
// challenge that is never validated stays in the active set for the
// lifetime of the process.
type Registry struct {
	mu      sync.Mutex
	active  map[string]*Challenge
	history []*Challenge // audit log, append-only, never read back
}

// NewRegistry creates an empty challenge registry.
func NewRegistry() *Registry {
	return &Registry{
		active: make(map[string]*Challenge),
	}
}

// Issue generates a new unpredictable challenge and adds it to the
// active set. userContext is accepted for forward compatibility and is
// not used in generation. The returned challenge is immediately valid
// for exactly one Validate call.
func (r *Registry) Issue(ctx context.Context, userContext map[string]any) *Challenge {
	_, span := traces.StartSpan(ctx, "challenge.Issue")
	defer span.End()

	kind := Kinds[rand.IntN(len(Kinds))]
	ch := &Challenge{
		ID:               idgen.Timestamped(idPrefix),
		Kind:             kind,
		Instruction:      instructionFor(kind),
		ExpectedDuration: minExpectedDuration + rand.Float64()*(maxExpectedDuration-minExpectedDuration),
		IssuedAt:         time.Now(),
	}
	span.SetAttributes(traces.ChallengeID(ch.ID), traces.ChallengeKind(string(kind)))

	r.mu.Lock()
	r.active[ch.ID] = ch
	r.history = append(r.history, ch)
	n := len(r.active)
	r.mu.Unlock()

	metrics.ChallengesIssuedTotal.WithLabelValues(string(kind)).Inc()
	metrics.ActiveChallenges.Set(float64(n))

	return ch
}

// Validate consumes the challenge with the given id and returns a
// simulated validation verdict. The response payload is accepted but not
// evaluated. The challenge is removed from the active set whether it
// passed or failed; at most one concurrent Validate call for a given id
// observes the challenge.
func (r *Registry) Validate(ctx context.Context, id string, responseData map[string]any) *Result {
	_, span := traces.StartSpan(ctx, "challenge.Validate", traces.ChallengeID(id))
	defer span.End()

	// Check-and-remove must be atomic: two racing validations of the
	// same id must not both observe it.
	r.mu.Lock()
	ch, ok := r.active[id]
	if ok {
		delete(r.active, id)
	}
	n := len(r.active)
	r.mu.Unlock()

	if !ok {
		metrics.ChallengeValidationsTotal.WithLabelValues(ReasonNotFound).Inc()
		span.SetAttributes(traces.ValidationResult(ReasonNotFound))
		return &Result{
			Valid:      false,
			Reason:     ReasonNotFound,
			Confidence: 0,
			Anomalies:  []string{},
		}
	}

	metrics.ActiveChallenges.Set(float64(n))

	valid := rand.Float64() > failProbability
	res := &Result{
		Valid:      valid,
		Confidence: minConfidence + rand.Float64()*(maxConfidence-minConfidence),
		Kind:       ch.Kind,
		Signals: &Signals{
			VoiceDetected: true,
			FaceMovement:  true,
			TimingNatural: true,
		},
		Anomalies: []string{},
	}
	outcome := "pass"
	if !valid {
		res.Anomalies = []string{anomalySuspiciousTiming}
		outcome = "fail"
	}
	metrics.ChallengeValidationsTotal.WithLabelValues(outcome).Inc()
	span.SetAttributes(traces.ChallengeKind(string(ch.Kind)), traces.ValidationResult(outcome))

	return res
}

// ActiveCount returns the number of outstanding challenges.
func (r *Registry) ActiveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.active)
}

// IssuedCount returns the total number of challenges issued since start.
func (r *Registry) IssuedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.history)
}

// instructionFor builds the human-readable prompt for a challenge kind,
// with randomized parameters where the kind calls for them.
func instructionFor(kind Kind) string {
	switch kind {
	case KindVisualAudio:
		nums := make([]string, 3)
		for i := range nums {
			nums[i] = fmt.Sprintf("%d", 10+rand.IntN(90))
		}
		corner := corners[rand.IntN(len(corners))]
		return fmt.Sprintf("Say the numbers '%s' while looking at the %s corner",
			strings.Join(nums, "-"), corner)

	case KindCognitiveMotor:
		phrase := phrases[rand.IntN(len(phrases))]
		gesture := gestures[rand.IntN(len(gestures))]
		return fmt.Sprintf("Type '%s' then %s", phrase, gesture)

	case KindEmotionalResponse:
		return emotionalInstruction

	default: // KindEnvironmentalCheck
		action := environmentalActions[rand.IntN(len(environmentalActions))]
		return action + " for environmental verification"
	}
}
