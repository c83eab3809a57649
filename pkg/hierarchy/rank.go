package hierarchy

import (
	"fmt"
	"sort"
)

// Policy controls how the top and bottom lists share sites when there are
// fewer than twice Size sites.
type Policy string

const (
	// PolicyOverlap takes up to Size sites from each end; the lists may
	// share sites when there are fewer than 2*Size sites.
	PolicyOverlap Policy = "overlap"
	// PolicyCapHalf caps each list to floor(n/2) so the lists never share sites.
	PolicyCapHalf Policy = "cap_half"
)

// DefaultRankSize is the length of the top and bottom site lists.
const DefaultRankSize = 5

// Options configures ranking.
type Options struct {
	Policy Policy
	Size   int
}

// DefaultOptions returns the overlap policy with five sites per list.
func DefaultOptions() Options {
	return Options{Policy: PolicyOverlap, Size: DefaultRankSize}
}

// ParsePolicy validates a policy name. Empty selects PolicyOverlap.
func ParsePolicy(name string) (Policy, error) {
	switch Policy(name) {
	case "", PolicyOverlap:
		return PolicyOverlap, nil
	case PolicyCapHalf:
		return PolicyCapHalf, nil
	default:
		return "", fmt.Errorf("unknown ranking policy %q", name)
	}
}

// Rank sorts sites by descending score and returns the top list (best
// first) and the bottom list (worst first). Equal scores keep their input
// order.
func Rank(sites []Site, opts Options) (top, bottom []Site) {
	size := opts.Size
	if size <= 0 {
		size = DefaultRankSize
	}

	ranked := sortByScore(sites)
	n := len(ranked)

	k := size
	if opts.Policy == PolicyCapHalf && n/2 < k {
		k = n / 2
	}
	if n < k {
		k = n
	}

	top = make([]Site, 0, k)
	top = append(top, ranked[:k]...)

	bottom = make([]Site, 0, k)
	for i := n - 1; i >= n-k; i-- {
		bottom = append(bottom, ranked[i])
	}
	return top, bottom
}

func sortByScore(sites []Site) []Site {
	ranked := make([]Site, len(sites))
	copy(ranked, sites)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}
