// Package domain holds the core value types shared by the query pipeline.
package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Selection is a resolved company/ticker pair. The zero value means nothing
// has been resolved yet.
type Selection struct {
	Name   string
	Ticker string
}

// IsZero reports whether no ticker has been resolved.
func (s Selection) IsZero() bool { return s.Ticker == "" }

// DisplayName returns the name, falling back to the ticker.
func (s Selection) DisplayName() string {
	if s.Name != "" {
		return s.Name
	}
	return s.Ticker
}

// Horizon is the number of future periods to forecast.
type Horizon int

// DefaultHorizon is used until the user picks another value.
const DefaultHorizon Horizon = 30

// DefaultHorizons are the choices offered by the horizon selector.
var DefaultHorizons = []Horizon{7, 15, 30, 60, 90, 180}

func (h Horizon) String() string { return strconv.Itoa(int(h)) + "d" }

// ParseHorizon converts selector text into a Horizon. Non-numeric or
// non-positive values are a *UserInputError.
func ParseHorizon(s string) (Horizon, error) {
	s = strings.TrimSuffix(strings.TrimSpace(s), "d")
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, &UserInputError{Reason: fmt.Sprintf("horizon %q is not a number", s)}
	}
	if n <= 0 {
		return 0, &UserInputError{Reason: fmt.Sprintf("horizon must be positive, got %d", n)}
	}
	return Horizon(n), nil
}

// UserInputError reports input that is rejected locally and never sent.
type UserInputError struct {
	Reason string
}

func (e *UserInputError) Error() string { return "invalid input: " + e.Reason }
