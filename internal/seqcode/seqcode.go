// Package seqcode generates sequential business-document codes of the
// form <TypeLetter><YY><MM><TypeMarker><NNNNN>, e.g. B2503D00013 for an
// order registered in March 2025. The suffix is a zero-padded sequence
// that is monotonically increasing per prefix and never reused.
package seqcode

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Querier is satisfied by *sqlx.DB, *sqlx.Tx and *tenant.Conn style
// wrappers: anything that can rebind placeholders and fetch one value.
type Querier interface {
	Rebind(query string) string
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

// ErrExhausted is returned when the sequence for a prefix would no longer
// fit in the configured suffix width. The code is never silently
// truncated.
var ErrExhausted = errors.New("seqcode: sequence exhausted for prefix")

// ErrCollision marks a duplicate-code insert. Two concurrent requests can
// read the same maximum and compute the same next code; the uniqueness
// constraint on the code column turns the loser into this retryable
// error.
var ErrCollision = errors.New("seqcode: duplicate code")

// DefaultWidth is the suffix width used by every document family.
const DefaultWidth = 5

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Spec names the table and column a code family lives in.
type Spec struct {
	Table  string
	Column string
	Prefix string
	Width  int
}

// Prefix composes the document-code prefix from a type letter, a date and
// a type marker: letter + 2-digit year + 2-digit month + marker. Both
// letters must be single ASCII uppercase characters; the prefix is the
// one caller-constructed value that reaches a pattern match, so it is
// validated here instead of trusted.
func Prefix(letter byte, date time.Time, marker byte) (string, error) {
	if letter < 'A' || letter > 'Z' {
		return "", fmt.Errorf("seqcode: invalid type letter %q", string(letter))
	}
	if marker < 'A' || marker > 'Z' {
		return "", fmt.Errorf("seqcode: invalid type marker %q", string(marker))
	}
	return fmt.Sprintf("%c%s%c", letter, date.Format("0601"), marker), nil
}

// Next computes the next code for spec by reading the current maximum
// code with that prefix and incrementing its numeric suffix. The prefix
// is bound as a parameter, never spliced into the SQL text. Next does not
// insert anything; use Insert for the full generate+insert cycle.
func Next(ctx context.Context, q Querier, spec Spec) (string, error) {
	if err := spec.validate(); err != nil {
		return "", err
	}
	width := spec.width()

	query := fmt.Sprintf("SELECT MAX(%s) FROM %s WHERE %s LIKE ?", spec.Column, spec.Table, spec.Column)
	var max sql.NullString
	if err := q.GetContext(ctx, &max, q.Rebind(query), spec.Prefix+"%"); err != nil {
		return "", fmt.Errorf("seqcode: scan max for %s.%s: %w", spec.Table, spec.Column, err)
	}

	seq := 1
	if max.Valid && len(max.String) >= width {
		last, err := strconv.Atoi(max.String[len(max.String)-width:])
		if err != nil {
			return "", fmt.Errorf("seqcode: malformed code %q in %s.%s: %w", max.String, spec.Table, spec.Column, err)
		}
		seq = last + 1
	}

	limit := 1
	for i := 0; i < width; i++ {
		limit *= 10
	}
	if seq >= limit {
		return "", fmt.Errorf("%w %s", ErrExhausted, spec.Prefix)
	}
	return fmt.Sprintf("%s%0*d", spec.Prefix, width, seq), nil
}

// Insert runs the generate+insert cycle: compute the next code, hand it
// to fn to persist the row, and on a duplicate-code failure re-read and
// retry under a fresh maximum. Any other failure from fn is returned
// as-is. The code column must carry a uniqueness constraint for the
// collision to be detectable.
func Insert(ctx context.Context, q Querier, spec Spec, fn func(code string) error) (string, error) {
	const attempts = 5
	var lastErr error
	for i := 0; i < attempts; i++ {
		code, err := Next(ctx, q, spec)
		if err != nil {
			return "", err
		}
		err = fn(code)
		if err == nil {
			return code, nil
		}
		if !IsCollision(err) {
			return "", err
		}
		lastErr = err
	}
	return "", fmt.Errorf("%w: gave up after %d attempts: %v", ErrCollision, attempts, lastErr)
}

// IsCollision reports whether err is a duplicate-key violation on any of
// the supported drivers.
func IsCollision(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrCollision) {
		return true
	}
	// go-mssqldb exposes the server error number without forcing a
	// driver import here. 2601: duplicate key in unique index, 2627:
	// unique constraint violation.
	var numbered interface{ SQLErrorNumber() int32 }
	if errors.As(err, &numbered) {
		n := numbered.SQLErrorNumber()
		return n == 2601 || n == 2627
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "constraint failed")
}

func (s Spec) validate() error {
	if !identPattern.MatchString(s.Table) {
		return fmt.Errorf("seqcode: invalid table name %q", s.Table)
	}
	if !identPattern.MatchString(s.Column) {
		return fmt.Errorf("seqcode: invalid column name %q", s.Column)
	}
	for i := 0; i < len(s.Prefix); i++ {
		c := s.Prefix[i]
		if (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
			return fmt.Errorf("seqcode: invalid prefix %q", s.Prefix)
		}
	}
	if s.Prefix == "" {
		return fmt.Errorf("seqcode: empty prefix")
	}
	return nil
}

func (s Spec) width() int {
	if s.Width > 0 {
		return s.Width
	}
	return DefaultWidth
}
