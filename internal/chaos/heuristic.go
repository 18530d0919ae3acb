package chaos

import (
	"context"
	"math"
	"strings"

	"github.com/danielpatrickdp/companion-core/internal/chat"
	"github.com/danielpatrickdp/companion-core/internal/emotion"
)

// #region emotion-map
type base string

const (
	positive   base = "positive"
	negative   base = "negative"
	highEnergy base = "high_energy"
	lowEnergy  base = "low_energy"
)

var emotionMap = map[base][]string{
	positive:   {"joy", "happy", "happiness", "excited", "excitement", "love", "great", "amazing", "wonderful", "fantastic", "contentment", "well-being", "anticipation", "positive", "trust", "pride", "relief"},
	negative:   {"sad", "sadness", "angry", "anger", "hate", "terrible", "awful", "depressed", "depression", "miserable", "misery", "empty", "numb", "fear", "anxiety", "negative", "disgust", "shame", "guilt", "remorse"},
	highEnergy: {"excited", "excitement", "angry", "anger", "joy", "panic", "mania", "surprise", "fear", "anxiety"},
	lowEnergy:  {"sad", "sadness", "depressed", "depression", "bored", "boredom", "tired", "fatigue", "calm", "contentment", "relief"},
}

var (
	positiveWords = []string{"happy", "great", "amazing", "love", "excited", "wonderful", "fantastic", "joy", "good", "nice"}
	negativeWords = []string{"hate", "angry", "sad", "terrible", "awful", "depressed", "miserable", "empty", "numb", "bad", "worst"}
	negationCues  = []string{"not ", "don't ", "never "}
)

// #endregion emotion-map

// #region heuristic
// Heuristic blends topic volatility, contradictions and message-length variance.
type Heuristic struct {
	cfg Config
}

// NewHeuristic returns a heuristic-only strategy.
func NewHeuristic(cfg Config) *Heuristic {
	return &Heuristic{cfg: cfg}
}

// Score implements Strategy.
func (h *Heuristic) Score(_ context.Context, history []chat.Turn, logs []emotion.Entry) Result {
	c, ok := h.measure(history, logs)
	if !ok {
		return Result{Score: 0, Reason: InsufficientData}
	}
	return finish(blend(c, h.cfg.Heuristic, false), c)
}

// measure computes the heuristic components; ok is false when the window is too small.
func (h *Heuristic) measure(history []chat.Turn, logs []emotion.Entry) (Components, bool) {
	if len(history) < h.cfg.MinTurns {
		return Components{}, false
	}
	window := chat.Last(history, h.cfg.Window)
	users := chat.UserTurns(window)
	if len(users) < h.cfg.MinUserTurns {
		return Components{}, false
	}
	recentUsers := chat.Last(users, h.cfg.UserWindow)
	return Components{
		Topic:         topicVolatility(recentUsers, lastLogs(logs, h.cfg.LogWindow)),
		Contradiction: contradictionScore(recentUsers),
		Length:        lengthVariance(users),
	}, true
}

// #endregion heuristic

// #region topic
// topicVolatility counts mood shifts between consecutive user messages that have a matching log.
func topicVolatility(users []chat.Turn, logs []emotion.Entry) float64 {
	changes := 0
	var prev map[base]bool
	for _, msg := range users {
		entry, found := matchLog(msg.Content, logs)
		if !found {
			continue
		}
		cur := baseEmotions(entry.Tags)
		if len(prev) > 0 && len(cur) > 0 {
			flip := (prev[positive] && cur[negative]) || (prev[negative] && cur[positive])
			if !intersects(prev, cur) || flip {
				changes++
			}
		}
		if len(cur) > 0 {
			prev = cur
		}
	}
	return math.Min(100, float64(changes)/3.0*100)
}

func matchLog(text string, logs []emotion.Entry) (emotion.Entry, bool) {
	for _, l := range logs {
		if l.RawText == text {
			return l, true
		}
	}
	return emotion.Entry{}, false
}

func baseEmotions(tags []string) map[base]bool {
	out := make(map[base]bool)
	for _, tag := range tags {
		t := strings.ToLower(tag)
		for b, words := range emotionMap {
			if containsString(words, t) {
				out[b] = true
			}
		}
	}
	return out
}

func intersects(a, b map[base]bool) bool {
	for k := range a {
		if b[k] {
			return true
		}
	}
	return false
}

// #endregion topic

// #region contradiction
// contradictionScore counts sentiment flips between consecutive user messages, 40 points each.
func contradictionScore(users []chat.Turn) float64 {
	flips := 0
	var prev string
	for _, msg := range users {
		cur := sentiment(msg.Content)
		if prev != "" && cur != "" && prev != cur {
			flips++
		}
		if cur != "" {
			prev = cur
		}
	}
	return math.Min(100, float64(flips)*40)
}

// sentiment returns "positive", "negative" or "" for a message. A negation cue inverts the hit.
func sentiment(text string) string {
	t := strings.ToLower(text)
	negated := containsAny(t, negationCues)
	switch {
	case containsAny(t, positiveWords):
		if negated {
			return string(negative)
		}
		return string(positive)
	case containsAny(t, negativeWords):
		if negated {
			return string(positive)
		}
		return string(negative)
	}
	return ""
}

// #endregion contradiction

// #region length
// lengthVariance maps the population stdev of message lengths onto 0-100 (50 chars = 100).
func lengthVariance(users []chat.Turn) float64 {
	if len(users) < 2 {
		return 0
	}
	lengths := make([]float64, len(users))
	for i, u := range users {
		lengths[i] = float64(len([]rune(u.Content)))
	}
	return math.Min(100, popStdev(lengths)/50.0*100)
}

// #endregion length

// #region helpers
func blend(c Components, w Weights, withCoherence bool) float64 {
	s := c.Topic*w.Topic + c.Contradiction*w.Contradiction + c.Length*w.Length
	if withCoherence {
		s += c.Coherence * w.Coherence
	}
	return s
}

func finish(raw float64, c Components) Result {
	score := int(raw)
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return Result{Score: score, Reason: reasonFor(score), Components: c}
}

func reasonFor(score int) string {
	switch {
	case score > 70:
		return ReasonHigh
	case score > 40:
		return ReasonModerate
	}
	return ReasonStable
}

func lastLogs(logs []emotion.Entry, n int) []emotion.Entry {
	if n <= 0 || len(logs) <= n {
		return logs
	}
	return logs[len(logs)-n:]
}

// popStdev computes the population standard deviation.
func popStdev(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, v := range xs {
		sum += v
	}
	mean := sum / float64(len(xs))
	var variance float64
	for _, v := range xs {
		d := v - mean
		variance += d * d
	}
	return math.Sqrt(variance / float64(len(xs)))
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

func containsString(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

// #endregion helpers
