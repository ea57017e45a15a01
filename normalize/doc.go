// Package normalize smooths over inconsistent upstream response shapes: it
// extracts canonical identifiers, formats ambiguous stat values, narrows
// search results to in-scope players and reshapes social feed posts.
//
// Everything here is pure and never fails hard; unexpected input falls back
// to the input itself or to an empty result.
package normalize
