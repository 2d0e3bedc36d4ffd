// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Template is a known crystal structure used as a substitution scaffold.
// Per prd002-library R2.1: templates are read-only library entries; the
// generation stage derives candidates from them without mutating the stored
// structure.
type Template struct {
	// ID is the stable library identifier (e.g. "mp-22862" or an import slug).
	ID string `json:"id" yaml:"id"`

	// Prototype is the human label of the structure family
	// (e.g. "rock salt", "perovskite"). Optional.
	Prototype string `json:"prototype,omitempty" yaml:"prototype,omitempty"`

	// SpaceGroupNumber is the international space-group number (1-230).
	SpaceGroupNumber int `json:"space_group_number" yaml:"space_group_number"`

	// SpaceGroupSymbol is the Hermann-Mauguin symbol (e.g. "Fm-3m").
	SpaceGroupSymbol string `json:"space_group_symbol" yaml:"space_group_symbol"`

	// Structure is the prototype structure with its original species.
	Structure *Structure `json:"structure" yaml:"structure"`
}

// Pattern returns the anonymous stoichiometric pattern of the template's
// structure (e.g. "AB" for rock salt). Used to shortlist templates that are
// substitution-compatible with a target composition (R2.2).
func (t Template) Pattern() (string, error) {
	comp, err := t.Structure.Composition()
	if err != nil {
		return "", err
	}
	return comp.AnonymousPattern()
}
