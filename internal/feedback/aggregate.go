package feedback

// #region aggregate
// Aggregate derives preferences from history. Category and difficulty counts only
// include accepted or completed interactions; ties go to the value seen first.
func Aggregate(history []Entry) Preferences {
	p := Preferences{TotalInteractions: len(history)}
	if len(history) == 0 {
		return p
	}

	categories := newCounter()
	difficulties := newCounter()
	positive := 0
	for _, e := range history {
		if !e.Action.Positive() {
			continue
		}
		positive++
		categories.add(e.Meta.Category)
		difficulties.add(e.Meta.Difficulty)
	}

	p.PreferredCategory = categories.argmax()
	p.PreferredDifficulty = difficulties.argmax()
	p.AcceptanceRate = float64(positive) / float64(len(history))
	return p
}

// #endregion aggregate

// #region counter
type counter struct {
	order  []string
	counts map[string]int
}

func newCounter() *counter {
	return &counter{counts: make(map[string]int)}
}

func (c *counter) add(v string) {
	if v == "" {
		return
	}
	if _, ok := c.counts[v]; !ok {
		c.order = append(c.order, v)
	}
	c.counts[v]++
}

func (c *counter) argmax() string {
	best, bestN := "", 0
	for _, v := range c.order {
		if c.counts[v] > bestN {
			best, bestN = v, c.counts[v]
		}
	}
	return best
}

// #endregion counter
