package model

// BreachResult is the outcome of a single oracle lookup. Sources holds
// human-readable descriptions of where the match was found; Count is the
// occurrence count for password-corpus hits (zero for domain lookups).
type BreachResult struct {
	Found   bool
	Count   int
	Sources []string
}
