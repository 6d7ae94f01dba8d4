package indexer

import "math/rand/v2"

// PrefixLength is the number of letters prepended to thumbnail names.
const PrefixLength = 5

const prefixAlphabet = "abcdefghijklmnopqrstuvwxyz"

// PrefixFunc returns a thumbnail name prefix.
type PrefixFunc func() string

// RandomPrefix draws PrefixLength letters uniformly, with replacement, from
// a-z.
func RandomPrefix() string {
	b := make([]byte, PrefixLength)
	for i := range b {
		b[i] = prefixAlphabet[rand.IntN(len(prefixAlphabet))]
	}
	return string(b)
}
