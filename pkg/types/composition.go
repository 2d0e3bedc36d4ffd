// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the shotgun-csp pipeline.
// Implements: prd001-structures (Composition, Lattice, Site, Structure, R1.1-R1.6);
//
//	prd002-library (Template, R2.1);
//	prd004-generation (Candidate, Provenance, R3.2);
//	prd005-screening (RankedResult, DropCounts, R4.1-R4.5);
//	prd006-selection (stage configuration).
//
// See docs/ARCHITECTURE § Pipeline Interface, § Data Structures.
package types

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// countTolerance is the absolute tolerance used when deciding whether a
// stoichiometric count is an integer.
const countTolerance = 1e-6

// maxReductionFactor bounds the search for an integral multiple when reducing
// fractional compositions (e.g. {Na:0.5, Cl:0.5} reduces at factor 2).
const maxReductionFactor = 24

// Composition is an immutable map from element symbol to a positive amount.
// Per prd001-structures R1.1: constructed only through NewComposition or
// ParseFormula, which validate symbols and counts. Accessors return copies,
// so a Composition can be shared freely across goroutines.
type Composition struct {
	counts map[string]float64
}

// NewComposition validates counts and returns a Composition.
// Every symbol must look like a chemical element symbol (capital letter,
// optional lowercase letters) and every count must be positive and finite.
// Violations return an error wrapping ErrInvalidComposition (R1.2).
func NewComposition(counts map[string]float64) (Composition, error) {
	if len(counts) == 0 {
		return Composition{}, fmt.Errorf("%w: no elements", ErrInvalidComposition)
	}
	cp := make(map[string]float64, len(counts))
	for symbol, count := range counts {
		if !validSymbol(symbol) {
			return Composition{}, fmt.Errorf("%w: malformed element symbol %q", ErrInvalidComposition, symbol)
		}
		if math.IsNaN(count) || math.IsInf(count, 0) || count <= 0 {
			return Composition{}, fmt.Errorf("%w: element %s has non-positive count %v", ErrInvalidComposition, symbol, count)
		}
		cp[symbol] = count
	}
	return Composition{counts: cp}, nil
}

// ParseFormula parses a chemical formula such as "NaCl", "SrTiO3", "Ca1F2",
// or "Mg(OH)2" into a Composition. Counts may be decimal ("Fe0.5").
func ParseFormula(formula string) (Composition, error) {
	s := strings.TrimSpace(formula)
	if s == "" {
		return Composition{}, fmt.Errorf("%w: empty formula", ErrInvalidComposition)
	}
	counts, rest, err := parseGroup(s)
	if err != nil {
		return Composition{}, err
	}
	if rest != "" {
		return Composition{}, fmt.Errorf("%w: unexpected %q in formula %q", ErrInvalidComposition, rest, formula)
	}
	return NewComposition(counts)
}

// parseGroup parses element/count pairs and parenthesized subgroups until the
// input ends or a closing parenthesis is reached. It returns the accumulated
// counts and the unconsumed remainder.
func parseGroup(s string) (map[string]float64, string, error) {
	counts := make(map[string]float64)
	for s != "" && s[0] != ')' {
		if s[0] == '(' {
			inner, rest, err := parseGroup(s[1:])
			if err != nil {
				return nil, "", err
			}
			if rest == "" || rest[0] != ')' {
				return nil, "", fmt.Errorf("%w: unbalanced parentheses", ErrInvalidComposition)
			}
			mult, rest := parseCount(rest[1:])
			for symbol, n := range inner {
				counts[symbol] += n * mult
			}
			s = rest
			continue
		}
		symbol, rest := parseSymbol(s)
		if symbol == "" {
			return nil, "", fmt.Errorf("%w: expected element symbol at %q", ErrInvalidComposition, s)
		}
		count, rest := parseCount(rest)
		counts[symbol] += count
		s = rest
	}
	return counts, s, nil
}

func parseSymbol(s string) (symbol, rest string) {
	if s == "" || s[0] < 'A' || s[0] > 'Z' {
		return "", s
	}
	end := 1
	for end < len(s) && s[end] >= 'a' && s[end] <= 'z' {
		end++
	}
	return s[:end], s[end:]
}

// parseCount reads an optional decimal count; a missing count means 1.
func parseCount(s string) (count float64, rest string) {
	end := 0
	for end < len(s) && (s[end] >= '0' && s[end] <= '9' || s[end] == '.') {
		end++
	}
	if end == 0 {
		return 1, s
	}
	v, err := strconv.ParseFloat(s[:end], 64)
	if err != nil || v <= 0 {
		return 1, s
	}
	return v, s[end:]
}

// validSymbol reports whether s is shaped like an element symbol. Whether the
// element actually exists is checked against the element table by the stages
// that need properties (R1.2).
func validSymbol(s string) bool {
	if len(s) == 0 || len(s) > 3 {
		return false
	}
	if s[0] < 'A' || s[0] > 'Z' {
		return false
	}
	for i := 1; i < len(s); i++ {
		if s[i] < 'a' || s[i] > 'z' {
			return false
		}
	}
	return true
}

// Count returns the amount of symbol, or 0 when absent.
func (c Composition) Count(symbol string) float64 {
	return c.counts[symbol]
}

// Counts returns a copy of the element → amount map.
func (c Composition) Counts() map[string]float64 {
	cp := make(map[string]float64, len(c.counts))
	for symbol, n := range c.counts {
		cp[symbol] = n
	}
	return cp
}

// Elements returns the element symbols in alphabetical order.
func (c Composition) Elements() []string {
	symbols := make([]string, 0, len(c.counts))
	for symbol := range c.counts {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	return symbols
}

// NumElements returns the number of distinct elements.
func (c Composition) NumElements() int {
	return len(c.counts)
}

// NumAtoms returns the total amount across all elements.
func (c Composition) NumAtoms() float64 {
	var total float64
	for _, n := range c.counts {
		total += n
	}
	return total
}

// IsZero reports whether c is the zero value (no elements). The zero value is
// what failed constructors return; any validated Composition has elements.
func (c Composition) IsZero() bool {
	return len(c.counts) == 0
}

// Formula returns a deterministic compact formula with elements in
// alphabetical order, e.g. "ClNa" or "O3SrTi". Counts equal to 1 are omitted;
// fractional counts are printed with %g.
func (c Composition) Formula() string {
	var b strings.Builder
	for _, symbol := range c.Elements() {
		b.WriteString(symbol)
		if n := c.counts[symbol]; math.Abs(n-1) > countTolerance {
			b.WriteString(strconv.FormatFloat(n, 'g', -1, 64))
		}
	}
	return b.String()
}

// ReducedCounts returns the smallest integer counts proportional to c, in
// alphabetical element order, together with the factor relating c to them
// (c = factor × reduced). Compositions that cannot be scaled to integers
// within maxReductionFactor return an error wrapping ErrInvalidComposition.
func (c Composition) ReducedCounts() (elements []string, reduced []int, factor float64, err error) {
	elements = c.Elements()
	raw := make([]float64, len(elements))
	for i, symbol := range elements {
		raw[i] = c.counts[symbol]
	}

	ints := make([]int, len(raw))
	found := false
	for k := 1; k <= maxReductionFactor; k++ {
		ok := true
		for i, v := range raw {
			scaled := v * float64(k)
			rounded := math.Round(scaled)
			if math.Abs(scaled-rounded) > countTolerance*float64(k) || rounded < 1 {
				ok = false
				break
			}
			ints[i] = int(rounded)
		}
		if ok {
			found = true
			break
		}
	}
	if !found {
		return nil, nil, 0, fmt.Errorf("%w: counts %v have no integral multiple up to %d", ErrInvalidComposition, raw, maxReductionFactor)
	}

	g := 0
	for _, n := range ints {
		g = gcd(g, n)
	}
	for i := range ints {
		ints[i] /= g
	}
	return elements, ints, raw[0] / float64(ints[0]), nil
}

// Reduced returns the composition with counts divided by their greatest
// common divisor, e.g. Na4Cl4 → NaCl. Non-integral compositions return an
// error wrapping ErrInvalidComposition.
func (c Composition) Reduced() (Composition, error) {
	elements, reduced, _, err := c.ReducedCounts()
	if err != nil {
		return Composition{}, err
	}
	counts := make(map[string]float64, len(elements))
	for i, symbol := range elements {
		counts[symbol] = float64(reduced[i])
	}
	return NewComposition(counts)
}

// AnonymousPattern returns the element-free stoichiometric pattern of the
// reduced composition, with slots sorted by ascending count and labeled
// A, B, C, ... — e.g. "AB" for NaCl, "AB2" for CaF2, "ABC3" for SrTiO3.
// Two compositions share a pattern exactly when they can be related by a
// one-to-one element substitution (R2.2).
func (c Composition) AnonymousPattern() (string, error) {
	_, reduced, _, err := c.ReducedCounts()
	if err != nil {
		return "", err
	}
	sort.Ints(reduced)
	var b strings.Builder
	for i, n := range reduced {
		b.WriteByte(byte('A' + i%26))
		if n != 1 {
			b.WriteString(strconv.Itoa(n))
		}
	}
	return b.String(), nil
}

// FormulaUnits returns the integer Z such that c equals Z formula units of
// target's reduced composition. The second return is false when the element
// sets differ or no integral Z exists.
func (c Composition) FormulaUnits(target Composition) (int, bool) {
	tr, err := target.Reduced()
	if err != nil {
		return 0, false
	}
	if len(c.counts) != len(tr.counts) {
		return 0, false
	}
	z := 0.0
	for symbol, want := range tr.counts {
		have, ok := c.counts[symbol]
		if !ok {
			return 0, false
		}
		ratio := have / want
		if z == 0 {
			z = ratio
		} else if math.Abs(ratio-z) > countTolerance {
			return 0, false
		}
	}
	rounded := math.Round(z)
	if rounded < 1 || math.Abs(z-rounded) > countTolerance {
		return 0, false
	}
	return int(rounded), true
}

// Equal reports whether two compositions have identical elements and counts
// within countTolerance.
func (c Composition) Equal(o Composition) bool {
	if len(c.counts) != len(o.counts) {
		return false
	}
	for symbol, n := range c.counts {
		if math.Abs(o.counts[symbol]-n) > countTolerance {
			return false
		}
	}
	return true
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
