package manifest

import (
	"sort"

	"xdao.co/txkit/model"
)

// AccountSet is a deduplicated, unordered set of account addresses.
type AccountSet map[model.AccountAddress]struct{}

func (s AccountSet) Add(a model.AccountAddress) { s[a] = struct{}{} }
func (s AccountSet) Len() int                   { return len(s) }

func (s AccountSet) Has(a model.AccountAddress) bool {
	_, ok := s[a]
	return ok
}

// Sorted returns the addresses in lexical order.
func (s AccountSet) Sorted() []model.AccountAddress {
	out := make([]model.AccountAddress, 0, len(s))
	for a := range s {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
