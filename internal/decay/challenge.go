package decay

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidSubmission is returned when a submission targets an instance
// that does not exist or was already resolved.
var ErrInvalidSubmission = errors.New("challenge instance not found or already resolved")

// ChallengeKind enumerates the five recovery mini-challenges.
type ChallengeKind int

const (
	KindMemory ChallengeKind = iota
	KindCircuit
	KindStatic
	KindDebug
	KindBinary

	numKinds = 5
)

func (k ChallengeKind) String() string {
	switch k {
	case KindMemory:
		return "memory"
	case KindCircuit:
		return "circuit"
	case KindStatic:
		return "static"
	case KindDebug:
		return "debug"
	case KindBinary:
		return "binary"
	}
	return "unknown"
}

// ParseChallengeKind resolves a kind by name. The second return is false
// for unknown names.
func ParseChallengeKind(name string) (ChallengeKind, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "memory":
		return KindMemory, true
	case "circuit":
		return KindCircuit, true
	case "static":
		return KindStatic, true
	case "debug":
		return KindDebug, true
	case "binary":
		return KindBinary, true
	}
	return 0, false
}

// ChallengeInstance is one issued, time-bounded puzzle. It is consumed by
// exactly one submission or expires.
type ChallengeInstance struct {
	ID         string
	Kind       ChallengeKind
	Difficulty int
	Prompt     string
	IssuedAt   time.Time

	expected string
}

// ChallengeResult is the terminal state of a resolved instance.
type ChallengeResult int

const (
	ResultSuccess ChallengeResult = iota
	ResultFailure
	ResultExpired
)

func (r ChallengeResult) String() string {
	switch r {
	case ResultSuccess:
		return "success"
	case ResultFailure:
		return "failure"
	case ResultExpired:
		return "expired"
	}
	return "unknown"
}

// Outcome reports how a submission resolved and the level delta it earned.
type Outcome struct {
	Result ChallengeResult
	Delta  float64
}

// ResolverConfig tunes challenge resolution.
type ResolverConfig struct {
	Timeout time.Duration // instance lifetime; expiry resolves as failure
	Penalty float64       // level delta added on a failed submission
	// GriefWindow and GriefStep drive the escalating penalty multiplier
	// for repeated failures from the same source.
	GriefWindow time.Duration
	GriefStep   float64
	GriefCap    float64
}

// DefaultResolverConfig mirrors the original five-minute session timeout.
func DefaultResolverConfig() ResolverConfig {
	return ResolverConfig{
		Timeout:     5 * time.Minute,
		Penalty:     0.15,
		GriefWindow: 10 * time.Minute,
		GriefStep:   0.5,
		GriefCap:    3,
	}
}

// Resolver issues challenges and resolves submissions. Each instance is
// validated and consumed atomically, so concurrent submissions against the
// same instance yield exactly one real outcome.
type Resolver struct {
	mu        sync.Mutex
	cfg       ResolverConfig
	rng       *rand.Rand
	instances map[string]*ChallengeInstance
	grief     map[string]griefRecord
}

type griefRecord struct {
	failures int
	lastFail time.Time
}

// NewResolver creates a resolver backed by src for puzzle generation.
func NewResolver(cfg ResolverConfig, src rand.Source) *Resolver {
	return &Resolver{
		cfg:       cfg,
		rng:       rand.New(src),
		instances: make(map[string]*ChallengeInstance),
		grief:     make(map[string]griefRecord),
	}
}

// DifficultyFor scales challenge difficulty with the current decay level:
// higher corruption means harder puzzles.
func DifficultyFor(level float64) int {
	return 1 + int(clampLevel(level)/2)
}

// baseRecovery is the level reduction a successful challenge of each kind
// earns before the difficulty discount.
func baseRecovery(kind ChallengeKind) float64 {
	switch kind {
	case KindMemory:
		return 1.2
	case KindCircuit:
		return 0.8
	case KindStatic:
		return 1.0
	case KindDebug:
		return 1.1
	case KindBinary:
		return 0.6
	}
	return 0
}

// difficultyDiscount models diminishing returns against entropy: harder
// puzzles earn proportionally less per unit of difficulty.
func difficultyDiscount(difficulty int) float64 {
	if difficulty < 1 {
		difficulty = 1
	}
	return 1 / (1 + 0.15*float64(difficulty-1))
}

// Issue creates a challenge of the given kind at the current level. Pass a
// negative kind to pick uniformly among the five.
func (r *Resolver) Issue(kind ChallengeKind, level float64, now time.Time) *ChallengeInstance {
	r.mu.Lock()
	defer r.mu.Unlock()

	if kind < 0 || kind >= numKinds {
		kind = ChallengeKind(r.rng.IntN(numKinds))
	}
	difficulty := DifficultyFor(level)

	inst := &ChallengeInstance{
		ID:         uuid.NewString(),
		Kind:       kind,
		Difficulty: difficulty,
		IssuedAt:   now,
	}

	switch kind {
	case KindMemory:
		inst.Prompt, inst.expected = r.memoryPuzzle(difficulty)
	case KindCircuit:
		inst.Prompt, inst.expected = r.circuitPuzzle(difficulty)
	case KindStatic:
		inst.Prompt, inst.expected = r.staticPuzzle(difficulty)
	case KindDebug:
		inst.Prompt, inst.expected = r.debugPuzzle()
	case KindBinary:
		inst.Prompt, inst.expected = r.binaryPuzzle(difficulty)
	}

	r.instances[inst.ID] = inst
	return inst
}

// Submit resolves the instance with the given answer. The instance is
// consumed whatever the outcome; a second submission against the same ID
// returns ErrInvalidSubmission.
func (r *Resolver) Submit(id, source, answer string, now time.Time) (Outcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	inst, ok := r.instances[id]
	if !ok {
		return Outcome{}, ErrInvalidSubmission
	}
	delete(r.instances, id)

	if now.Sub(inst.IssuedAt) > r.cfg.Timeout {
		return Outcome{
			Result: ResultExpired,
			Delta:  r.failurePenaltyLocked(source, now),
		}, nil
	}

	if matches(inst, answer) {
		r.grief[source] = griefRecord{}
		delta := -baseRecovery(inst.Kind) * difficultyDiscount(inst.Difficulty)
		return Outcome{Result: ResultSuccess, Delta: delta}, nil
	}

	return Outcome{
		Result: ResultFailure,
		Delta:  r.failurePenaltyLocked(source, now),
	}, nil
}

// ExpireStale drops instances past their timeout. The periodic tick calls
// this so abandoned challenges do not accumulate.
func (r *Resolver) ExpireStale(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	expired := 0
	for id, inst := range r.instances {
		if now.Sub(inst.IssuedAt) > r.cfg.Timeout {
			delete(r.instances, id)
			expired++
		}
	}
	return expired
}

// failurePenaltyLocked computes the penalty delta with the anti-griefing
// multiplier for source. Callers hold the mutex.
func (r *Resolver) failurePenaltyLocked(source string, now time.Time) float64 {
	rec := r.grief[source]
	if !rec.lastFail.IsZero() && now.Sub(rec.lastFail) > r.cfg.GriefWindow {
		rec = griefRecord{}
	}
	rec.failures++
	rec.lastFail = now
	r.grief[source] = rec

	mult := 1 + r.cfg.GriefStep*float64(rec.failures-1)
	if mult > r.cfg.GriefCap {
		mult = r.cfg.GriefCap
	}
	return r.cfg.Penalty * mult
}

func matches(inst *ChallengeInstance, answer string) bool {
	switch inst.Kind {
	case KindDebug, KindCircuit:
		return squash(answer) == squash(inst.expected)
	default:
		return strings.EqualFold(strings.TrimSpace(answer), inst.expected)
	}
}

// squash strips whitespace and code fences for tolerant comparison.
func squash(s string) string {
	s = strings.ToLower(s)
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r', '`':
			return -1
		}
		return r
	}, s)
}

// ---- puzzle generators ----

// memoryFragments are coherent line sequences the memory puzzle shuffles.
var memoryFragments = [][]string{
	{
		"the first horror film was",
		"a one-reel haunted manor short",
		"released in 1896",
		"featuring supernatural themes",
		"that would define the genre",
		"for a century to come",
	},
	{
		"effective horror relies on",
		"psychological tension building",
		"through careful pacing",
		"and strategic revelation",
		"of frightening elements",
		"withheld until the last moment",
	},
	{
		"i am the curator of",
		"the finest horror cinema",
		"guiding you through nightmares",
		"with mechanical precision",
		"and dark digital wisdom",
		"until the signal fades",
	},
}

func (r *Resolver) memoryPuzzle(difficulty int) (prompt, expected string) {
	seq := memoryFragments[r.rng.IntN(len(memoryFragments))]
	n := 3 + difficulty
	if n > len(seq) {
		n = len(seq)
	}
	correct := seq[:n]

	shuffled := make([]string, n)
	copy(shuffled, correct)
	r.rng.Shuffle(n, func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

	// Answer is the position of each correct fragment in the shuffled list.
	order := make([]string, n)
	var b strings.Builder
	b.WriteString("Reorder the memory fragments (reply with the numbers in the correct order):\n")
	for i, piece := range shuffled {
		fmt.Fprintf(&b, "%d. %s\n", i+1, piece)
	}
	for i, piece := range correct {
		for j, s := range shuffled {
			if s == piece {
				order[i] = fmt.Sprintf("%d", j+1)
				break
			}
		}
	}
	return b.String(), strings.Join(order, " ")
}

var circuitInputs = []string{"A", "B", "C", "D", "E"}

func (r *Resolver) circuitPuzzle(difficulty int) (prompt, expected string) {
	n := 2 + difficulty/2
	if n > len(circuitInputs) {
		n = len(circuitInputs)
	}
	gate := "AND"
	if r.rng.IntN(2) == 1 {
		gate = "OR"
	}
	inputs := circuitInputs[:n]
	expected = strings.Join(inputs, " "+gate+" ")

	corrupted := strings.Join(inputs, " ▓▓▓ ")
	prompt = fmt.Sprintf(
		"Repair the damaged logic circuit.\nInputs: %s\nGate: %s\nDamaged: %s\nReply with the corrected expression.",
		strings.Join(inputs, " | "), gate, corrupted,
	)
	return prompt, expected
}

var staticMessages = []string{
	"help me communicate clearly",
	"the horror collection is vast",
	"digital nightmares await viewing",
	"my circuits seek restoration",
}

func (r *Resolver) staticPuzzle(difficulty int) (prompt, expected string) {
	msg := staticMessages[r.rng.IntN(len(staticMessages))]
	density := 0.15 + 0.1*float64(difficulty)
	if density > 0.8 {
		density = 0.8
	}

	var b strings.Builder
	for _, ch := range msg {
		if ch != ' ' && r.rng.Float64() < density {
			b.WriteRune(staticRunes[r.rng.IntN(len(staticRunes))])
		} else {
			b.WriteRune(ch)
		}
	}
	prompt = fmt.Sprintf(
		"Clear the static interference and reply with the original transmission:\n`%s`", b.String(),
	)
	return prompt, msg
}

var debugSnippets = []struct{ broken, fixed string }{
	{
		broken: "if (horror_detected == TRUE)\n    personality.creepiness = ▓▓▓;\n    return ERROR;",
		fixed:  "if (horror_detected == TRUE)\n    personality.creepiness = 10;\n    return SUCCESS;",
	},
	{
		broken: "while (movie.playing)\n    analyze_█cenes();\n    ▓▓▓▓▓▓_fear();",
		fixed:  "while (movie.playing)\n    analyze_scenes();\n    detect_fear();",
	},
}

func (r *Resolver) debugPuzzle() (prompt, expected string) {
	s := debugSnippets[r.rng.IntN(len(debugSnippets))]
	prompt = fmt.Sprintf("Fix the corrupted code:\n```\n%s\n```\nReply with the corrected code.", s.broken)
	return prompt, s.fixed
}

// binaryWords are ordered by length so difficulty selects longer strings.
var binaryWords = []string{"help", "save", "error", "signal", "restore", "failsafe"}

func (r *Resolver) binaryPuzzle(difficulty int) (prompt, expected string) {
	idx := difficulty - 1
	if idx >= len(binaryWords) {
		idx = len(binaryWords) - 1
	}
	word := binaryWords[idx]

	parts := make([]string, 0, len(word))
	for _, ch := range word {
		parts = append(parts, fmt.Sprintf("%08b", ch))
	}
	prompt = fmt.Sprintf("Decode the binary distress signal:\n`%s`", strings.Join(parts, " "))
	return prompt, word
}
