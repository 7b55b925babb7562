package models

import (
	"errors"
	"fmt"
	"regexp"
)

const (
	FastIDPrefix = "F"
	idDigits     = 6
	idMin        = 100000
	idMax        = 999999
)

var (
	ErrInvalidWinnersCount = errors.New("winner count must be positive")
	ErrNoChannels          = errors.New("at least one channel is required")

	standardIDRegex = regexp.MustCompile(`^[0-9]{6}$`)
	fastIDRegex     = regexp.MustCompile(`^F[0-9]{6}$`)
)

// IsValidID reports whether s is a standard (######) or fast (F######) id.
func IsValidID(s string) bool {
	return standardIDRegex.MatchString(s) || fastIDRegex.MatchString(s)
}

// IsFastID reports whether s is in the fast namespace.
func IsFastID(s string) bool {
	return fastIDRegex.MatchString(s)
}

// FormatID builds an id from a number in [100000, 999999].
func FormatID(n int, fast bool) string {
	id := fmt.Sprintf("%0*d", idDigits, n)
	if fast {
		return FastIDPrefix + id
	}
	return id
}

// IDRange is the inclusive range random ids are drawn from.
func IDRange() (lo, hi int) {
	return idMin, idMax
}
