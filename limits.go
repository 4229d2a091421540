package keyset

const (
	MaxLimit     = 100
	DefaultLimit = 10
)

// NormalizeLimitMax maps a non-positive limit to DefaultLimit and clamps it
// to maxLimit.
func NormalizeLimitMax(limit int, maxLimit int) int {
	if limit <= 0 {
		return DefaultLimit
	} else if limit > maxLimit {
		return maxLimit
	}

	return limit
}

func NormalizeLimit(limit int) int {
	return NormalizeLimitMax(limit, MaxLimit)
}
