package problemgen

import (
	"fmt"
	"strings"
)

// buildDedup formats stems the model must not repeat, keeping the first max.
// Returns "None" if there are none.
func buildDedup(stems []string, max int) string {
	seen := make(map[string]bool, len(stems))
	var kept []string
	for _, s := range stems {
		s = strings.Join(strings.Fields(s), " ")
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		kept = append(kept, s)
		if max > 0 && len(kept) == max {
			break
		}
	}
	if len(kept) == 0 {
		return "None"
	}

	var b strings.Builder
	for i, s := range kept {
		fmt.Fprintf(&b, "%d. %s\n", i+1, s)
	}
	return strings.TrimRight(b.String(), "\n")
}
