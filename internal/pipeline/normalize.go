package pipeline

import (
	"shipmatch/internal/util"
)

// Normalizer memoizes util.NormalizeName for the lifetime of one run. It is
// not safe for concurrent use.
type Normalizer struct {
	cache map[string]string
	hits  int
}

func NewNormalizer() *Normalizer {
	return &Normalizer{cache: map[string]string{}}
}

func (n *Normalizer) Normalize(raw string) string {
	if v, ok := n.cache[raw]; ok {
		n.hits++
		return v
	}
	v := util.NormalizeName(raw)
	n.cache[raw] = v
	return v
}

// Stats reports distinct inputs seen and cache hits.
func (n *Normalizer) Stats() (distinct, hits int) {
	return len(n.cache), n.hits
}
