package iflytek

import (
	"slices"
	"strings"
)

// Segments is the partial transcript keyed by segment sequence number.
// Later segments may replace earlier ones when the recognizer revises
// its hypothesis.
type Segments map[int]string

// Apply folds one result into the table and returns the reconstruction.
// Results without a sequence number leave the table untouched.
func (s Segments) Apply(r *Result) string {
	if r == nil || r.SN == nil {
		return s.Text()
	}

	// The range comes from the peer; walk the stored keys, not the range.
	if r.PGS == "rpl" && len(r.RG) == 2 {
		for sn := range s {
			if sn >= r.RG[0] && sn <= r.RG[1] {
				delete(s, sn)
			}
		}
	}
	s[*r.SN] = r.Text()

	return s.Text()
}

// Text concatenates the stored segments in ascending sequence order.
func (s Segments) Text() string {
	keys := make([]int, 0, len(s))
	for sn := range s {
		keys = append(keys, sn)
	}
	slices.Sort(keys)

	var b strings.Builder
	for _, sn := range keys {
		b.WriteString(s[sn])
	}
	return b.String()
}
