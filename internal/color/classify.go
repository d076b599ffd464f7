package color

// Classify returns the label of the first marker, in slice order, that raw
// matches. ok is false when nothing matches.
func Classify(raw RawColor, markers []Marker) (label string, ok bool) {
	for _, m := range markers {
		if m.Matches(raw) {
			return m.Label, true
		}
	}
	return "", false
}

// Matches reports whether every channel of raw is strictly within the
// marker's tolerance.
func (m Marker) Matches(raw RawColor) bool {
	r, ref := raw.Channels(), m.Reference.Channels()
	for i := range r {
		if abs(r[i]-ref[i]) >= m.Tolerance {
			return false
		}
	}
	return true
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
