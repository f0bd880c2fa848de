// Package grade defines the letter grade enumeration and the threshold tables
// that map a numeric score onto it.
package grade

import (
	"errors"
	"fmt"
	"math"
)

// Grade is an ordinal letter rating. Lower values are better grades.
type Grade int

// Grades from best to worst.
const (
	APlus Grade = iota
	A
	AMinus
	BPlus
	B
	BMinus
	CPlus
	C
	CMinus
	DPlus
	D
	DMinus
	F
)

// ErrUnknownGrade is returned when parsing a letter that is not in the enumeration.
var ErrUnknownGrade = errors.New("unknown grade")

var letters = [...]string{
	APlus:  "A+",
	A:      "A",
	AMinus: "A-",
	BPlus:  "B+",
	B:      "B",
	BMinus: "B-",
	CPlus:  "C+",
	C:      "C",
	CMinus: "C-",
	DPlus:  "D+",
	D:      "D",
	DMinus: "D-",
	F:      "F",
}

// All returns every grade from best to worst.
func All() []Grade {
	out := make([]Grade, 0, len(letters))
	for g := APlus; g <= F; g++ {
		out = append(out, g)
	}
	return out
}

// Valid reports whether g is one of the 13 enumerated grades.
func (g Grade) Valid() bool {
	return g >= APlus && g <= F
}

// String returns the letter form, e.g. "B+".
func (g Grade) String() string {
	if !g.Valid() {
		return fmt.Sprintf("Grade(%d)", int(g))
	}
	return letters[g]
}

// Better reports whether g ranks strictly above other.
func (g Grade) Better(other Grade) bool {
	return g < other
}

// Parse converts a letter such as "A-" into a Grade.
func Parse(s string) (Grade, error) {
	for g, l := range letters {
		if l == s {
			return Grade(g), nil
		}
	}
	return F, fmt.Errorf("%w: %q", ErrUnknownGrade, s)
}

// MarshalText implements encoding.TextMarshaler.
func (g Grade) MarshalText() ([]byte, error) {
	if !g.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownGrade, int(g))
	}
	return []byte(letters[g]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (g *Grade) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}

// Threshold is an inclusive lower bound for a grade.
type Threshold struct {
	Min   float64
	Grade Grade
}

// Table maps scores to grades. Thresholds are checked in order; the first
// whose Min is <= score wins. Scores below every threshold get Floor.
type Table struct {
	Name       string
	Thresholds []Threshold
	Floor      Grade
}

// Classify returns the grade for score. It always returns exactly one grade.
// NaN falls through to the floor grade.
func (t Table) Classify(score float64) Grade {
	if math.IsNaN(score) {
		return t.Floor
	}
	for _, th := range t.Thresholds {
		if score >= th.Min {
			return th.Grade
		}
	}
	return t.Floor
}

// Validate checks that bounds are strictly descending and grades strictly worsen.
func (t Table) Validate() error {
	if !t.Floor.Valid() {
		return fmt.Errorf("table %s: %w: floor %d", t.Name, ErrUnknownGrade, int(t.Floor))
	}
	for i, th := range t.Thresholds {
		if !th.Grade.Valid() {
			return fmt.Errorf("table %s: %w: %d", t.Name, ErrUnknownGrade, int(th.Grade))
		}
		if math.IsNaN(th.Min) || math.IsInf(th.Min, 0) {
			return fmt.Errorf("table %s: non-finite bound for %s", t.Name, th.Grade)
		}
		if !th.Grade.Better(t.Floor) {
			return fmt.Errorf("table %s: %s is not better than floor %s", t.Name, th.Grade, t.Floor)
		}
		if i == 0 {
			continue
		}
		prev := t.Thresholds[i-1]
		if th.Min >= prev.Min {
			return fmt.Errorf("table %s: bound for %s (%.4f) must be below %s (%.4f)", t.Name, th.Grade, th.Min, prev.Grade, prev.Min)
		}
		if !prev.Grade.Better(th.Grade) {
			return fmt.Errorf("table %s: %s listed after %s", t.Name, th.Grade, prev.Grade)
		}
	}
	return nil
}
