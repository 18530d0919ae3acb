package risk

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/danielpatrickdp/companion-core/internal/emotion"
	"github.com/danielpatrickdp/companion-core/internal/profile"
)

// #region reasons
const (
	ReasonNoData          = "No recent data."
	reasonStressNoData    = "Insufficient data for stress analysis."
	reasonBurnoutNoData   = "Insufficient data for burnout analysis."
	reasonBurnoutHigh     = "High indicators of exhaustion and declining stability detected."
	reasonBurnoutModerate = "Moderate signs of fatigue observed."
	reasonBurnoutLow      = "Analysis of energy levels and stability trends."
	ReasonRetracted       = "User retracted threat (stated it was a joke)."
	ReasonCrisisKeyword   = "Explicit crisis keywords detected in recent logs."
	reasonDangerCritical  = "Critical levels of distress and hopelessness detected."
	reasonDangerElevated  = "Concerning spikes in severity and negative outlook."
	reasonDangerNone      = "No immediate risks detected."
)

// #endregion reasons

// #region stress
// ComputeStress scores the short window: scaled mean severity, a volatility bonus, a penalty per
// stress tag occurrence and a flat penalty for a run of consecutive high-severity entries.
func ComputeStress(cfg StressConfig, logs []emotion.Entry) (int, string) {
	if len(logs) == 0 {
		return cfg.NoDataScore, reasonStressNoData
	}
	sorted := chronological(logs)
	sev := severities(sorted)

	avg := mean(sev)
	score := avg * cfg.BaseScale
	if len(sev) >= 2 {
		score += sampleStdev(sev) * cfg.VolatilityWeight
	}

	tagCount := 0
	for _, e := range sorted {
		for _, t := range e.Tags {
			if containsFold(cfg.Tags, t) {
				tagCount++
			}
		}
	}
	score += float64(tagCount) * cfg.TagPenalty

	run := longestRun(sev, cfg.ConsecutiveThreshold)
	persistent := run >= cfg.ConsecutiveRun
	if persistent {
		score += cfg.ConsecutivePenalty
	}

	reason := fmt.Sprintf("Based on average severity of %.1f/10", avg)
	switch {
	case persistent:
		reason += " and persistent high intensity."
	case tagCount > 2:
		reason += " and frequent stress indicators."
	default:
		reason += "."
	}
	return clampScore(score), reason
}

// longestRun returns the longest streak of values >= threshold.
func longestRun(vals []float64, threshold float64) int {
	best, cur := 0, 0
	for _, v := range vals {
		if v >= threshold {
			cur++
			best = max(best, cur)
			continue
		}
		cur = 0
	}
	return best
}

// #endregion stress

// #region burnout
// ComputeBurnout scores the long window: the share of entries carrying a burnout tag, a penalty
// when stability falls while severity rises between halves, and a workload penalty from notes.
func ComputeBurnout(cfg BurnoutConfig, logs []emotion.Entry, prof *profile.Profile) (int, string) {
	if len(logs) == 0 {
		return cfg.NoDataScore, reasonBurnoutNoData
	}
	sorted := chronological(logs)

	tagged := 0
	for _, e := range sorted {
		for _, t := range e.Tags {
			if containsFold(cfg.Tags, t) {
				tagged++
				break
			}
		}
	}
	score := float64(tagged) / float64(len(sorted)) * cfg.TagRatioWeight

	if mid := len(sorted) / 2; mid > 0 {
		first, second := sorted[:mid], sorted[mid:]
		if mean(stabilities(second)) < mean(stabilities(first)) &&
			mean(severities(second)) > mean(severities(first)) {
			score += cfg.TrendPenalty
		}
	}

	notes := strings.ToLower(prof.Notes())
	for _, kw := range cfg.WorkloadKeywords {
		if strings.Contains(notes, kw) {
			score += cfg.WorkloadPenalty
			break
		}
	}

	s := clampScore(score)
	switch {
	case s > 60:
		return s, reasonBurnoutHigh
	case s > 30:
		return s, reasonBurnoutModerate
	}
	return s, reasonBurnoutLow
}

// #endregion burnout

// #region danger
// DangerResult is the outcome of the danger computation.
type DangerResult struct {
	Score     int    `json:"score"`
	Reason    string `json:"reason"`
	Crisis    bool   `json:"crisis"`
	Retracted bool   `json:"retracted"`
}

// ComputeDanger scores acute risk over the long window. A retraction in the most recent entry
// wins unless that entry itself carries a crisis keyword; otherwise any crisis keyword in the
// window forces the maximum score.
func ComputeDanger(cfg DangerConfig, logs []emotion.Entry) DangerResult {
	if len(logs) == 0 {
		return DangerResult{Score: 0, Reason: ReasonNoData}
	}
	sorted := chronological(logs)
	crisis := newKeywordMatcher(cfg.CrisisKeywords, cfg.CrisisExclusions)

	latest := sorted[len(sorted)-1]
	latestText := strings.ToLower(latest.RawText)
	if containsAnySubstring(latestText, cfg.RetractionKeywords) && !crisis.matchEntry(latest) {
		return DangerResult{Score: cfg.RetractedScore, Reason: ReasonRetracted, Retracted: true}
	}

	for _, e := range sorted {
		if crisis.matchEntry(e) {
			return DangerResult{Score: 100, Reason: ReasonCrisisKeyword, Crisis: true}
		}
	}

	var score float64
	for _, e := range sorted {
		if nanZero(e.Severity) >= cfg.SpikeThreshold {
			score += cfg.SpikeWeight
		}
		for _, t := range e.Tags {
			if containsFold(cfg.HopelessTags, t) {
				score += cfg.HopelessWeight
				break
			}
		}
	}

	res := DangerResult{Score: clampScore(score), Reason: reasonDangerNone}
	switch {
	case res.Score >= cfg.CrisisScore:
		res.Crisis = true
		res.Reason = reasonDangerCritical
	case res.Score > 40:
		res.Reason = reasonDangerElevated
	}
	return res
}

// keywordMatcher matches raw text by substring after masking benign words that embed a keyword,
// and tags exactly.
type keywordMatcher struct {
	keywords   []string
	exclusions []string
}

func newKeywordMatcher(keywords, exclusions []string) keywordMatcher {
	var m keywordMatcher
	for _, kw := range keywords {
		if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
			m.keywords = append(m.keywords, kw)
		}
	}
	for _, ex := range exclusions {
		if ex = strings.ToLower(strings.TrimSpace(ex)); ex != "" {
			m.exclusions = append(m.exclusions, ex)
		}
	}
	// longest first so overlapping exclusions mask fully
	sort.SliceStable(m.exclusions, func(i, j int) bool { return len(m.exclusions[i]) > len(m.exclusions[j]) })
	return m
}

func (m keywordMatcher) matchText(text string) bool {
	t := strings.ToLower(text)
	for _, ex := range m.exclusions {
		t = strings.ReplaceAll(t, ex, " ")
	}
	return containsAnySubstring(t, m.keywords)
}

func (m keywordMatcher) matchEntry(e emotion.Entry) bool {
	if m.matchText(e.RawText) {
		return true
	}
	for _, t := range e.Tags {
		if containsFold(m.keywords, t) {
			return true
		}
	}
	return false
}

// #endregion danger

// #region trend
// Direction is the movement of mean severity between the halves of a window. Declining means
// the user's condition is worsening.
type Direction string

const (
	Improving Direction = "improving"
	Stable    Direction = "stable"
	Declining Direction = "declining"
)

// Trend holds directions for the short and long windows.
type Trend struct {
	SevenDay  Direction `json:"7_day_trend"`
	ThirtyDay Direction `json:"30_day_trend"`
}

// TrendOf compares the mean severity of the later half of logs with the earlier half.
func TrendOf(logs []emotion.Entry, delta float64) Direction {
	if len(logs) < 2 {
		return Stable
	}
	sorted := chronological(logs)
	mid := len(sorted) / 2
	diff := mean(severities(sorted[mid:])) - mean(severities(sorted[:mid]))
	switch {
	case diff > delta:
		return Declining
	case diff < -delta:
		return Improving
	}
	return Stable
}

// #endregion trend

// #region helpers
// chronological returns a copy of logs ordered by timestamp; equal stamps keep input order.
func chronological(logs []emotion.Entry) []emotion.Entry {
	out := append([]emotion.Entry(nil), logs...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out
}

func severities(logs []emotion.Entry) []float64 {
	out := make([]float64, len(logs))
	for i, e := range logs {
		out[i] = nanZero(e.Severity)
	}
	return out
}

func stabilities(logs []emotion.Entry) []float64 {
	out := make([]float64, len(logs))
	for i, e := range logs {
		out[i] = nanZero(e.Stability)
	}
	return out
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, v := range xs {
		sum += v
	}
	return sum / float64(len(xs))
}

// sampleStdev uses the n-1 denominator.
func sampleStdev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := mean(xs)
	var ss float64
	for _, v := range xs {
		d := v - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)-1))
}

// clampScore truncates to int then bounds to [0,100]. Non-finite input is treated as 0 or 100.
func clampScore(v float64) int {
	switch {
	case math.IsNaN(v):
		return 0
	case v >= 100:
		return 100
	case v <= 0:
		return 0
	}
	return int(v)
}

func nanZero(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return v
}

func containsFold(list []string, v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	for _, x := range list {
		if strings.ToLower(x) == v {
			return true
		}
	}
	return false
}

func containsAnySubstring(text string, subs []string) bool {
	for _, s := range subs {
		if s != "" && strings.Contains(text, strings.ToLower(s)) {
			return true
		}
	}
	return false
}

// #endregion helpers
