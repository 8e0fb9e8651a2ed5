package decay

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
)

// Character pools for the stochastic effects. Static blocks stand in for
// lost characters, glitch symbols for injected noise, combining marks stack
// on top of existing runes.
var (
	staticRunes    = []rune("█▓▒░▄▀■□")
	glitchRunes    = []rune("◆◇▲►♦♠♣♥")
	combiningMarks = []rune{'̴', '̵', '̶', '̷', '̸', '͓', '̈', '̓'}
)

// Corruptor renders text at a given decay level. The transform pipeline is
// fixed; only character-level choices draw from the rand source, so the
// bracket applied to a given (text, level) pair is always the same.
type Corruptor struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewCorruptor creates a corruptor backed by src. Pass a seeded source in
// tests for reproducible output.
func NewCorruptor(src rand.Source) *Corruptor {
	return &Corruptor{rng: rand.New(src)}
}

// Transform degrades text according to level. It never fails: empty input
// comes back empty and levels at or below zero leave the text unchanged.
// Safe for concurrent use; the rand source is guarded.
func (c *Corruptor) Transform(text string, level float64) string {
	level = clampLevel(level)
	if text == "" || level < 1 {
		return text
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	// Effect intensity grows with the level inside each bracket; the
	// pipeline below is strictly ordered so higher brackets are supersets
	// of lower ones.
	out := c.substituteChars(text, 0.02+level*0.01)
	out = c.stutterWords(out, 0.04+level*0.01)

	if level >= 3 {
		out = c.scrambleSpans(out, 0.08+level*0.02)
		out = c.injectSymbols(out, 0.05+level*0.02)
	}
	if level >= 5 {
		out = c.stackMarks(out, 0.06+level*0.03)
		out = c.truncateSentence(out, 0.08+level*0.02)
	}
	if level >= 7 {
		rate := 0.15
		if level >= 9 {
			rate = 0.35
		}
		out = c.encodeFragments(out, rate)
	}
	return out
}

// substituteChars swaps letters for static blocks at the given rate.
func (c *Corruptor) substituteChars(text string, rate float64) string {
	runes := []rune(text)
	for i, r := range runes {
		if r == ' ' || r == '\n' {
			continue
		}
		if c.rng.Float64() < rate {
			runes[i] = staticRunes[c.rng.IntN(len(staticRunes))]
		}
	}
	return string(runes)
}

// stutterWords occasionally duplicates a word, as if the speaker stalled.
func (c *Corruptor) stutterWords(text string, rate float64) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return text
	}
	out := make([]string, 0, len(words)+2)
	for _, w := range words {
		out = append(out, w)
		if c.rng.Float64() < rate {
			out = append(out, w)
		}
	}
	return strings.Join(out, " ")
}

// scrambleSpans reverses the order of short word spans.
func (c *Corruptor) scrambleSpans(text string, rate float64) string {
	words := strings.Fields(text)
	if len(words) < 3 {
		return text
	}
	for i := 0; i+2 < len(words); i++ {
		if c.rng.Float64() < rate {
			span := 2 + c.rng.IntN(2)
			if i+span > len(words) {
				span = len(words) - i
			}
			for l, r := i, i+span-1; l < r; l, r = l+1, r-1 {
				words[l], words[r] = words[r], words[l]
			}
			i += span
		}
	}
	return strings.Join(words, " ")
}

// injectSymbols drops glitch symbols between words.
func (c *Corruptor) injectSymbols(text string, rate float64) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return text
	}
	out := make([]string, 0, len(words)+2)
	for _, w := range words {
		out = append(out, w)
		if c.rng.Float64() < rate {
			n := 1 + c.rng.IntN(3)
			var b strings.Builder
			for range n {
				b.WriteRune(glitchRunes[c.rng.IntN(len(glitchRunes))])
			}
			out = append(out, b.String())
		}
	}
	return strings.Join(out, " ")
}

// stackMarks piles combining marks onto a subset of characters.
func (c *Corruptor) stackMarks(text string, rate float64) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		b.WriteRune(r)
		if r == ' ' || r == '\n' {
			continue
		}
		if c.rng.Float64() < rate {
			for range 1 + c.rng.IntN(2) {
				b.WriteRune(combiningMarks[c.rng.IntN(len(combiningMarks))])
			}
		}
	}
	return b.String()
}

// truncateSentence sometimes cuts the text short mid-thought.
func (c *Corruptor) truncateSentence(text string, rate float64) string {
	if c.rng.Float64() >= rate {
		return text
	}
	words := strings.Fields(text)
	if len(words) < 4 {
		return text
	}
	keep := len(words)/2 + c.rng.IntN(len(words)/2)
	return strings.Join(words[:keep], " ") + "—"
}

// encodeFragments rewrites short words into labeled binary or hex.
func (c *Corruptor) encodeFragments(text string, rate float64) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return text
	}
	for i, w := range words {
		if len(w) > 6 || c.rng.Float64() >= rate {
			continue
		}
		if c.rng.IntN(2) == 0 {
			parts := make([]string, 0, len(w))
			for _, r := range w {
				parts = append(parts, fmt.Sprintf("%08b", r))
			}
			words[i] = "[bin:" + strings.Join(parts, " ") + "]"
		} else {
			words[i] = fmt.Sprintf("[hex:%x]", w)
		}
	}
	return strings.Join(words, " ")
}
