package rowsgroup

const (
	// AllRows as a page length displays the whole filtered row set on one page.
	AllRows           = -1
	MaxPageLength     = 100
	DefaultPageLength = 10
)

// IsNormalizedPageLengthMax clamps length into [1, maxLength], substituting
// DefaultPageLength for non-positive values. The boolean reports whether the
// input was already acceptable.
func IsNormalizedPageLengthMax(length int, maxLength int) (int, bool) {
	if length <= 0 {
		return DefaultPageLength, false
	} else if length > maxLength {
		return maxLength, false
	}

	return length, true
}

func NormalizePageLengthMax(length int, maxLength int) int {
	ret, _ := IsNormalizedPageLengthMax(length, maxLength)
	return ret
}

// NormalizePageLength keeps AllRows as is and clamps everything else to
// MaxPageLength.
func NormalizePageLength(length int) int {
	if length == AllRows {
		return AllRows
	}

	return NormalizePageLengthMax(length, MaxPageLength)
}
