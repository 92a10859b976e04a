package axis

import (
	"sort"
	"strings"
)

// Label builds the default axis title for g from the units of its member
// signals, e.g. "Value (bar, degC)". Blank units are ignored. With no
// units it falls back to "Value (Primary)" or "Value (Secondary)".
func Label(g GroupID, units []string) string {
	seen := make(map[string]bool, len(units))
	var distinct []string
	for _, u := range units {
		u = strings.TrimSpace(u)
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		distinct = append(distinct, u)
	}
	if len(distinct) == 0 {
		if g == Secondary {
			return "Value (Secondary)"
		}
		return "Value (Primary)"
	}
	sort.Strings(distinct)
	return "Value (" + strings.Join(distinct, ", ") + ")"
}
