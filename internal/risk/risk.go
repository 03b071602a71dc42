// Package risk holds the guard-rails the solver applies before it will fill.
package risk

// Limits bounds how much size a single intent may request. Zero means
// unlimited.
type Limits struct {
	MaxSizePerIntentE6 uint64
}

// Allow reports whether an intent of the given absolute size may proceed.
func (l Limits) Allow(sizeE6 uint64) bool {
	return l.MaxSizePerIntentE6 == 0 || sizeE6 <= l.MaxSizePerIntentE6
}
