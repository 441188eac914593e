package content

import (
	"sort"
)

// Listing accumulates the summaries produced by one build.
type Listing struct {
	summaries []Summary
}

// Add appends a summary.
func (l *Listing) Add(summary Summary) {
	l.summaries = append(l.summaries, summary)
}

// Len returns the number of summaries.
func (l *Listing) Len() int {
	if l == nil {
		return 0
	}
	return len(l.summaries)
}

// Sorted returns a copy ordered newest first; undated entries keep their
// discovery order after all dated ones.
func (l *Listing) Sorted() []Summary {
	if l == nil {
		return nil
	}
	out := append([]Summary(nil), l.summaries...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Date, out[j].Date
		switch {
		case a == "" || b == "":
			return a != "" && b == ""
		default:
			return a > b
		}
	})
	return out
}

// Tags returns the distinct non-empty tags in ascending order.
func (l *Listing) Tags() []string {
	return l.distinct(func(s Summary) string { return s.Tag }, false)
}

// Years returns the distinct non-empty years, newest first.
func (l *Listing) Years() []string {
	return l.distinct(func(s Summary) string { return s.Year }, true)
}

func (l *Listing) distinct(key func(Summary) string, desc bool) []string {
	if l == nil {
		return nil
	}
	seen := map[string]struct{}{}
	var out []string
	for _, summary := range l.summaries {
		value := key(summary)
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	if desc {
		sort.Sort(sort.Reverse(sort.StringSlice(out)))
	} else {
		sort.Strings(out)
	}
	return out
}
