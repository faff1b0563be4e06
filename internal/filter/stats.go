package filter

import "github.com/vedsharma/pingforge/internal/model"

// Stats summarises a (usually filtered) capture log.
type Stats struct {
	Total            int
	UniqueIPs        int
	MethodCounts     map[string]int
	MostCommonMethod string
}

// Summarize counts requests per method and distinct addresses. Ties for the
// most common method go to the method seen first.
func Summarize(log []model.CapturedRequest) Stats {
	stats := Stats{
		Total:            len(log),
		MethodCounts:     make(map[string]int),
		MostCommonMethod: "None",
	}

	ips := make(map[string]struct{})
	var order []string
	for _, r := range log {
		ips[r.IPAddress] = struct{}{}
		if _, seen := stats.MethodCounts[r.Method]; !seen {
			order = append(order, r.Method)
		}
		stats.MethodCounts[r.Method]++
	}
	stats.UniqueIPs = len(ips)

	best := 0
	for _, method := range order {
		if n := stats.MethodCounts[method]; n > best {
			best = n
			stats.MostCommonMethod = method
		}
	}
	return stats
}
