// Package models defines data structures for scorecard
package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// NullFloat is a float64 that may be unknown. An unknown value is never
// represented by NaN: Float() maps NaN and ±Inf to null.
type NullFloat struct {
	Value float64
	Valid bool
}

// Float returns a valid NullFloat, or null when v is not finite.
func Float(v float64) NullFloat {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return NullFloat{}
	}
	return NullFloat{Value: v, Valid: true}
}

// Null returns the unknown value.
func Null() NullFloat {
	return NullFloat{}
}

// FloatPtr converts an optional pointer, treating nil as null.
func FloatPtr(v *float64) NullFloat {
	if v == nil {
		return NullFloat{}
	}
	return Float(*v)
}

// IsNull reports whether the value is unknown.
func (n NullFloat) IsNull() bool {
	return !n.Valid
}

// Round rounds a valid value to the given number of decimal places.
func (n NullFloat) Round(places int) NullFloat {
	if !n.Valid {
		return n
	}
	return Float(Round(n.Value, places))
}

// String formats the value the way it is written to history files.
// Integral values keep a trailing ".0" so float columns stay recognisable.
func (n NullFloat) String() string {
	if !n.Valid {
		return ""
	}
	s := strconv.FormatFloat(n.Value, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// MarshalCSV implements gocsv.TypeMarshaller. Null is an empty cell.
func (n NullFloat) MarshalCSV() (string, error) {
	return n.String(), nil
}

// UnmarshalCSV implements gocsv.TypeUnmarshaller.
func (n *NullFloat) UnmarshalCSV(s string) error {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "nan", "none", "null":
		*n = NullFloat{}
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid float %q: %w", s, err)
	}
	*n = Float(v)
	return nil
}

// MarshalJSON writes null for unknown values.
func (n NullFloat) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

// UnmarshalJSON accepts a number or null.
func (n *NullFloat) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*n = NullFloat{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*n = Float(v)
	return nil
}
