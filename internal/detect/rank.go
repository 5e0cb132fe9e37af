package detect

import "sort"

// Rank returns the candidates ordered by descending confidence. The sort is
// stable so equal-confidence candidates keep their input order, and the
// input slice is left untouched.
func Rank(cands []Candidate) []Candidate {
	out := make([]Candidate, len(cands))
	copy(out, cands)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Confidence > out[j].Confidence
	})
	return out
}
