// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package elements provides the curated element property table used across
// the pipeline: atomic number, mass, covalent radius, and electronegativity
// for H through Cm. Implements: prd001-structures (element data, R1.2);
//
//	docs/ARCHITECTURE § Element Data.
//
// Radii follow the preset used to train the surrogate models, so substitution
// gating and descriptor values stay consistent with the model's training
// features. Electronegativities are Pauling values with imputed entries for
// the noble gases.
package elements

import (
	"bytes"
	_ "embed"
	"encoding/csv"
	"fmt"
	"math"
	"strconv"
)

//go:embed elements.csv
var elementsCSV []byte

// Element holds the tabulated properties of one element.
type Element struct {
	// Number is the atomic number.
	Number int

	// Symbol is the element symbol (e.g. "Na").
	Symbol string

	// Mass is the standard atomic weight in u.
	Mass float64

	// CovalentRadius is the covalent radius in Å.
	CovalentRadius float64

	// Electronegativity is the Pauling electronegativity.
	Electronegativity float64
}

// CovalentVolume returns the volume of the covalent sphere in Å³.
func (e Element) CovalentVolume() float64 {
	r := e.CovalentRadius
	return 4.0 / 3.0 * math.Pi * r * r * r
}

var (
	bySymbol map[string]Element
	ordered  []Element // ascending atomic number
)

func init() {
	var err error
	bySymbol, ordered, err = parseTable(elementsCSV)
	if err != nil {
		panic(fmt.Sprintf("elements: embedded table is corrupt: %v", err))
	}
}

func parseTable(raw []byte) (map[string]Element, []Element, error) {
	r := csv.NewReader(bytes.NewReader(raw))
	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) < 2 {
		return nil, nil, fmt.Errorf("no data rows")
	}

	m := make(map[string]Element, len(records)-1)
	list := make([]Element, 0, len(records)-1)
	for _, rec := range records[1:] { // skip header
		if len(rec) != 5 {
			return nil, nil, fmt.Errorf("row %v: want 5 columns", rec)
		}
		number, err := strconv.Atoi(rec[0])
		if err != nil {
			return nil, nil, fmt.Errorf("row %v: %w", rec, err)
		}
		fields := [3]float64{}
		for i, col := range rec[2:] {
			fields[i], err = strconv.ParseFloat(col, 64)
			if err != nil {
				return nil, nil, fmt.Errorf("row %v: %w", rec, err)
			}
		}
		e := Element{
			Number:            number,
			Symbol:            rec[1],
			Mass:              fields[0],
			CovalentRadius:    fields[1],
			Electronegativity: fields[2],
		}
		m[e.Symbol] = e
		list = append(list, e)
	}
	return m, list, nil
}

// Lookup returns the element for symbol, or false when the symbol is not in
// the table. Symbols are case-sensitive ("Na", not "NA").
func Lookup(symbol string) (Element, bool) {
	e, ok := bySymbol[symbol]
	return e, ok
}

// Known reports whether symbol is in the table.
func Known(symbol string) bool {
	_, ok := bySymbol[symbol]
	return ok
}

// CovalentRadius returns the covalent radius of symbol in Å, or false when
// the element is unknown.
func CovalentRadius(symbol string) (float64, bool) {
	e, ok := bySymbol[symbol]
	if !ok {
		return 0, false
	}
	return e.CovalentRadius, true
}

// All returns the table in ascending atomic-number order. The returned slice
// is shared: callers must not modify it.
func All() []Element {
	return ordered
}

// PropertyNames lists the per-element numeric properties, in the order
// Properties returns them. The descriptor stage builds its feature labels
// from these names.
func PropertyNames() []string {
	return []string{"atomic_number", "atomic_mass", "covalent_radius", "electronegativity", "covalent_volume"}
}

// Properties returns the numeric property vector for symbol in
// PropertyNames order, or false when the element is unknown.
func Properties(symbol string) ([]float64, bool) {
	e, ok := bySymbol[symbol]
	if !ok {
		return nil, false
	}
	return []float64{
		float64(e.Number),
		e.Mass,
		e.CovalentRadius,
		e.Electronegativity,
		e.CovalentVolume(),
	}, true
}
