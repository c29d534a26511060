// Package numbering generates and validates human-readable project numbers
// of the form "YY-CCCNN": two-digit year, country dial code, two-digit
// 1-based sequence.
package numbering

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// MaxSeq is the business limit on projects per (year, country).
const MaxSeq = 99

var (
	// ErrOverflow is returned when the next sequence would not fit the
	// two-digit field.
	ErrOverflow = errors.New("sequence exceeds 99 projects for year/country")

	// ErrInvalidFormat is returned by Parse for malformed numbers.
	ErrInvalidFormat = errors.New("invalid project number format")

	// ErrCollision marks a candidate whose rendered form is already taken;
	// callers regenerate against a fresh snapshot.
	ErrCollision = errors.New("project number already in use")
)

// CollisionError wraps ErrCollision with the colliding number.
func CollisionError(n ProjectNumber) error {
	return fmt.Errorf("%w: %s", ErrCollision, n)
}

// A ProjectNumber is the structured form of a rendered number.
type ProjectNumber struct {
	Year    int // two-digit year, 20-50
	Country int // country dial code
	Seq     int // 1-based, rendered zero-padded to two digits
}

// String renders the canonical "YY-CCCNN" form, e.g. "25-97105". The
// country dial code is zero-padded to three digits so the rendered form is
// always eight characters.
func (n ProjectNumber) String() string {
	return fmt.Sprintf("%02d-%03d%02d", n.Year, n.Country, n.Seq)
}

// Next computes the smallest unused sequence for (country, year) over the
// supplied snapshot of existing numbers. Numbers for other (year, country)
// pairs never influence the result.
//
// The snapshot may be stale by the time the caller persists the project;
// callers must re-check with Validate and treat a collision as retryable.
func Next(country, year int, existing []ProjectNumber) (ProjectNumber, error) {
	maxSeq := 0
	for _, n := range existing {
		if n.Year != year || n.Country != country {
			continue
		}
		if n.Seq > maxSeq {
			maxSeq = n.Seq
		}
	}
	if maxSeq+1 > MaxSeq {
		return ProjectNumber{}, fmt.Errorf("%w: year %02d country %d", ErrOverflow, year, country)
	}
	return ProjectNumber{Year: year, Country: country, Seq: maxSeq + 1}, nil
}

// Validate reports whether candidate's rendered form is not already taken.
// It is the defensive re-check run immediately before a generated number is
// accepted; false means the caller must regenerate against a fresh snapshot.
func Validate(candidate ProjectNumber, existing []ProjectNumber) bool {
	rendered := candidate.String()
	for _, n := range existing {
		if n.String() == rendered {
			return false
		}
	}
	return true
}

// Parse is the exact inverse of String: positions 0-1 are the year, 3-5 the
// dial code, 6-7 the sequence.
func Parse(s string) (ProjectNumber, error) {
	if len(s) != 8 || s[2] != '-' || strings.IndexByte(s[3:], '-') != -1 {
		return ProjectNumber{}, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
	}
	year, err := strconv.Atoi(s[0:2])
	if err != nil {
		return ProjectNumber{}, fmt.Errorf("%w: year in %q", ErrInvalidFormat, s)
	}
	country, err := strconv.Atoi(s[3:6])
	if err != nil {
		return ProjectNumber{}, fmt.Errorf("%w: country in %q", ErrInvalidFormat, s)
	}
	seq, err := strconv.Atoi(s[6:8])
	if err != nil {
		return ProjectNumber{}, fmt.Errorf("%w: sequence in %q", ErrInvalidFormat, s)
	}
	if seq < 1 {
		return ProjectNumber{}, fmt.Errorf("%w: sequence must be positive in %q", ErrInvalidFormat, s)
	}
	return ProjectNumber{Year: year, Country: country, Seq: seq}, nil
}
