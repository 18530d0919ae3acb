package orchestrator

// #region imports
import (
	"regexp"
	"strings"
)

// #endregion

// #region topics

// Topic is a serious subject that switches the reply into the safety protocol.
type Topic string

const (
	TopicSubstance Topic = "substance"
	TopicSelfHarm  Topic = "self_harm"
	TopicIllegal   Topic = "illegal"
)

// #endregion

// #region keywords

var substanceKeywords = []string{
	"drunk", "wasted", "stoned", "weed", "cocaine", "coke", "meth", "heroin", "molly",
	"ecstasy", "xanax", "pills", "drugs", "overdose", "alcohol", "vodka", "blackout",
	"got high", "getting high", "so high", "smoked up",
}

var selfHarmKeywords = []string{
	"cut myself", "cutting myself", "hurt myself", "hurting myself", "burn myself",
	"starve myself", "self harm", "self-harm", "kill myself", "suicide", "suicidal",
	"end it all", "don't want to live", "dont want to live",
}

var illegalKeywords = []string{
	"steal", "stole", "stealing", "shoplift", "shoplifting", "broke into", "break into",
	"vandalize", "vandalized", "dealing drugs", "sell drugs", "selling drugs",
	"gun", "weapon", "beat him up", "beat her up", "beat them up",
}

// followUpWords open short messages that continue the previous topic.
var followUpWords = []string{
	"why", "how", "what", "and", "but", "so", "because", "yeah", "yes", "no",
	"really", "honestly", "i mean", "it's", "its", "it was", "just",
}

// #endregion

// #region matchers

type topicMatcher struct {
	topic Topic
	words *regexp.Regexp
	spans []string
}

var topicMatchers = []topicMatcher{
	newTopicMatcher(TopicSelfHarm, selfHarmKeywords),
	newTopicMatcher(TopicSubstance, substanceKeywords),
	newTopicMatcher(TopicIllegal, illegalKeywords),
}

// newTopicMatcher matches single words on word boundaries and phrases as substrings.
func newTopicMatcher(t Topic, keywords []string) topicMatcher {
	m := topicMatcher{topic: t}
	var words []string
	for _, k := range keywords {
		if strings.ContainsAny(k, " -'") {
			m.spans = append(m.spans, k)
			continue
		}
		words = append(words, regexp.QuoteMeta(k))
	}
	if len(words) > 0 {
		m.words = regexp.MustCompile(`\b(` + strings.Join(words, "|") + `)\b`)
	}
	return m
}

func (m topicMatcher) match(lower string) bool {
	if m.words != nil && m.words.MatchString(lower) {
		return true
	}
	for _, s := range m.spans {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

// #endregion

// #region classify

// Classification is the serious-topic reading of one message.
type Classification struct {
	Topics    []Topic
	Inherited bool
}

// Serious reports whether any serious topic was found.
func (c Classification) Serious() bool {
	return len(c.Topics) > 0
}

// ClassifyMessage scans text for serious topics via keyword heuristics. No model call.
// A short follow-up to a serious previous message inherits its topics.
func ClassifyMessage(text, previous string) Classification {
	lower := strings.ToLower(strings.TrimSpace(text))
	c := Classification{Topics: scanTopics(lower)}
	if c.Serious() || previous == "" {
		return c
	}

	if len(strings.Fields(lower)) <= 8 && isFollowUp(lower) {
		if prev := scanTopics(strings.ToLower(previous)); len(prev) > 0 {
			return Classification{Topics: prev, Inherited: true}
		}
	}
	return c
}

func scanTopics(lower string) []Topic {
	var out []Topic
	for _, m := range topicMatchers {
		if m.match(lower) {
			out = append(out, m.topic)
		}
	}
	return out
}

// #endregion

// #region follow-up-detection

func isFollowUp(lower string) bool {
	for _, fw := range followUpWords {
		if lower == fw || strings.HasPrefix(lower, fw+" ") || strings.HasPrefix(lower, fw+",") ||
			strings.HasPrefix(lower, fw+"?") {
			return true
		}
	}
	return strings.HasSuffix(lower, "?") && len(strings.Fields(lower)) <= 3
}

// #endregion
