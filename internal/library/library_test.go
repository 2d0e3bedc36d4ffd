package library

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pdiddy/shotgun-csp/pkg/types"
)

// --- test helpers ---

func testStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(types.LibraryConfig{
		Path:         filepath.Join(t.TempDir(), "templates.db"),
		MaxTemplates: 50,
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func rockSaltTemplate(t *testing.T, id, prototype string) types.Template {
	t.Helper()
	lattice, err := types.NewLattice([3][3]float64{{5.64, 0, 0}, {0, 5.64, 0}, {0, 0, 5.64}})
	if err != nil {
		t.Fatal(err)
	}
	var sites []types.Site
	for _, f := range [][3]float64{{0, 0, 0}, {0, 0.5, 0.5}, {0.5, 0, 0.5}, {0.5, 0.5, 0}} {
		sites = append(sites, types.Site{Species: "Na", Frac: f})
	}
	for _, f := range [][3]float64{{0.5, 0.5, 0.5}, {0.5, 0, 0}, {0, 0.5, 0}, {0, 0, 0.5}} {
		sites = append(sites, types.Site{Species: "Cl", Frac: f})
	}
	structure, err := types.NewStructure(lattice, sites)
	if err != nil {
		t.Fatal(err)
	}
	return types.Template{
		ID:               id,
		Prototype:        prototype,
		SpaceGroupNumber: 225,
		SpaceGroupSymbol: "Fm-3m",
		Structure:        structure,
	}
}

func fluoriteTemplate(t *testing.T, id string) types.Template {
	t.Helper()
	lattice, err := types.NewLattice([3][3]float64{{5.46, 0, 0}, {0, 5.46, 0}, {0, 0, 5.46}})
	if err != nil {
		t.Fatal(err)
	}
	var sites []types.Site
	for _, f := range [][3]float64{{0, 0, 0}, {0, 0.5, 0.5}, {0.5, 0, 0.5}, {0.5, 0.5, 0}} {
		sites = append(sites, types.Site{Species: "Ca", Frac: f})
	}
	for _, f := range [][3]float64{
		{0.25, 0.25, 0.25}, {0.75, 0.25, 0.25}, {0.25, 0.75, 0.25}, {0.25, 0.25, 0.75},
		{0.75, 0.75, 0.25}, {0.75, 0.25, 0.75}, {0.25, 0.75, 0.75}, {0.75, 0.75, 0.75},
	} {
		sites = append(sites, types.Site{Species: "F", Frac: f})
	}
	structure, err := types.NewStructure(lattice, sites)
	if err != nil {
		t.Fatal(err)
	}
	return types.Template{
		ID:               id,
		Prototype:        "fluorite",
		SpaceGroupNumber: 225,
		SpaceGroupSymbol: "Fm-3m",
		Structure:        structure,
	}
}

// --- store tests ---

func TestInsertAndQueryRoundTrip(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	if err := store.Insert(ctx, rockSaltTemplate(t, "tmpl-nacl", "rock salt")); err != nil {
		t.Fatal(err)
	}

	got, err := store.TemplatesByPattern(ctx, "AB", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d templates, want 1", len(got))
	}
	tmpl := got[0]
	if tmpl.ID != "tmpl-nacl" || tmpl.Prototype != "rock salt" {
		t.Errorf("template = %s/%s, want tmpl-nacl/rock salt", tmpl.ID, tmpl.Prototype)
	}
	if tmpl.SpaceGroupNumber != 225 || tmpl.SpaceGroupSymbol != "Fm-3m" {
		t.Errorf("space group = %d/%s, want 225/Fm-3m", tmpl.SpaceGroupNumber, tmpl.SpaceGroupSymbol)
	}
	if tmpl.Structure.NumSites() != 8 {
		t.Errorf("structure has %d sites, want 8", tmpl.Structure.NumSites())
	}
	if v := tmpl.Structure.Lattice.Volume(); v < 179 || v > 180 {
		t.Errorf("volume = %v, want ≈ 179.4", v)
	}
}

func TestQueryNoMatchReturnsErrNoTemplate(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	// Empty library.
	if _, err := store.TemplatesByPattern(ctx, "AB", 0); !errors.Is(err, ErrNoTemplate) {
		t.Errorf("empty library: got %v, want ErrNoTemplate", err)
	}

	// Populated library, non-matching pattern.
	if err := store.Insert(ctx, rockSaltTemplate(t, "tmpl-nacl", "rock salt")); err != nil {
		t.Fatal(err)
	}
	if _, err := store.TemplatesByPattern(ctx, "AB3C", 0); !errors.Is(err, ErrNoTemplate) {
		t.Errorf("no match: got %v, want ErrNoTemplate", err)
	}
}

func TestQueryFiltersByPattern(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	if err := store.Insert(ctx, rockSaltTemplate(t, "tmpl-nacl", "rock salt")); err != nil {
		t.Fatal(err)
	}
	if err := store.Insert(ctx, fluoriteTemplate(t, "tmpl-caf2")); err != nil {
		t.Fatal(err)
	}

	ab, err := store.TemplatesByPattern(ctx, "AB", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(ab) != 1 || ab[0].ID != "tmpl-nacl" {
		t.Errorf("AB query returned %v, want only tmpl-nacl", ab)
	}

	ab2, err := store.TemplatesByPattern(ctx, "AB2", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(ab2) != 1 || ab2[0].ID != "tmpl-caf2" {
		t.Errorf("AB2 query returned %v, want only tmpl-caf2", ab2)
	}
}

func TestQueryOrderIsStable(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	// Insert out of order; retrieval sorts by prototype then ID.
	for _, tmpl := range []types.Template{
		rockSaltTemplate(t, "tmpl-c", "rock salt"),
		rockSaltTemplate(t, "tmpl-a", "cesium chloride"),
		rockSaltTemplate(t, "tmpl-b", "rock salt"),
	} {
		if err := store.Insert(ctx, tmpl); err != nil {
			t.Fatal(err)
		}
	}

	got, err := store.TemplatesByPattern(ctx, "AB", 0)
	if err != nil {
		t.Fatal(err)
	}
	var ids []string
	for _, tmpl := range got {
		ids = append(ids, tmpl.ID)
	}
	want := []string{"tmpl-a", "tmpl-b", "tmpl-c"}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("order = %v, want %v", ids, want)
		}
	}
}

func TestInsertReplacesExistingID(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	if err := store.Insert(ctx, rockSaltTemplate(t, "tmpl-1", "rock salt")); err != nil {
		t.Fatal(err)
	}
	if err := store.Insert(ctx, rockSaltTemplate(t, "tmpl-1", "halite")); err != nil {
		t.Fatal(err)
	}

	got, err := store.TemplatesByPattern(ctx, "AB", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Prototype != "halite" {
		t.Errorf("got %v, want single template with prototype halite", got)
	}
}

func TestStats(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	if err := store.Insert(ctx, rockSaltTemplate(t, "tmpl-1", "rock salt")); err != nil {
		t.Fatal(err)
	}
	if err := store.Insert(ctx, rockSaltTemplate(t, "tmpl-2", "cesium chloride")); err != nil {
		t.Fatal(err)
	}
	if err := store.Insert(ctx, fluoriteTemplate(t, "tmpl-3")); err != nil {
		t.Fatal(err)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Templates != 3 {
		t.Errorf("Templates = %d, want 3", stats.Templates)
	}
	if stats.Patterns["AB"] != 2 || stats.Patterns["AB2"] != 1 {
		t.Errorf("Patterns = %v, want AB:2 AB2:1", stats.Patterns)
	}
}

// --- import tests ---

const validTemplateYAML = `templates:
  - id: import-nacl
    prototype: rock salt
    space_group_number: 225
    space_group_symbol: Fm-3m
    lattice: {a: 5.64, b: 5.64, c: 5.64, alpha: 90, beta: 90, gamma: 90}
    sites:
      - {species: Na, frac: [0, 0, 0], wyckoff: 4a}
      - {species: Na, frac: [0, 0.5, 0.5], wyckoff: 4a}
      - {species: Na, frac: [0.5, 0, 0.5], wyckoff: 4a}
      - {species: Na, frac: [0.5, 0.5, 0], wyckoff: 4a}
      - {species: Cl, frac: [0.5, 0.5, 0.5], wyckoff: 4b}
      - {species: Cl, frac: [0.5, 0, 0], wyckoff: 4b}
      - {species: Cl, frac: [0, 0.5, 0], wyckoff: 4b}
      - {species: Cl, frac: [0, 0, 0.5], wyckoff: 4b}
`

func TestImportDir(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	dir := t.TempDir()

	if err := os.WriteFile(filepath.Join(dir, "good.yaml"), []byte(validTemplateYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("templates: ["), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644); err != nil {
		t.Fatal(err)
	}

	var out strings.Builder
	summary, err := store.ImportDir(ctx, dir, &out)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Imported != 1 || summary.Failed != 1 || summary.Replaced != 0 {
		t.Errorf("summary = %+v, want imported 1, failed 1", summary)
	}
	if !summary.HasFailures() {
		t.Error("HasFailures = false, want true")
	}
	if !strings.Contains(out.String(), "imported import-nacl") {
		t.Errorf("output missing import line:\n%s", out.String())
	}

	got, err := store.TemplatesByPattern(ctx, "AB", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != "import-nacl" {
		t.Fatalf("imported templates = %v, want import-nacl", got)
	}
	if got[0].Structure.Wyckoff == nil {
		t.Error("wyckoff annotations were dropped on import")
	}
}

func TestImportDirReplacesByID(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	dir := t.TempDir()

	if err := os.WriteFile(filepath.Join(dir, "t.yaml"), []byte(validTemplateYAML), 0o644); err != nil {
		t.Fatal(err)
	}

	var out strings.Builder
	if _, err := store.ImportDir(ctx, dir, &out); err != nil {
		t.Fatal(err)
	}
	summary, err := store.ImportDir(ctx, dir, &out)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Replaced != 1 || summary.Imported != 0 {
		t.Errorf("second import summary = %+v, want replaced 1", summary)
	}
}

func TestParseTemplatesRejectsInvalidStructure(t *testing.T) {
	bad := `templates:
  - id: broken
    lattice: {a: -1, b: 5, c: 5, alpha: 90, beta: 90, gamma: 90}
    sites:
      - {species: Na, frac: [0, 0, 0]}
`
	if _, err := ParseTemplates([]byte(bad)); err == nil {
		t.Error("ParseTemplates accepted a negative cell length")
	}
}

// --- memory library tests ---

func TestMemoryLibrary(t *testing.T) {
	mem, err := NewMemory(
		rockSaltTemplate(t, "m-1", "rock salt"),
		fluoriteTemplate(t, "m-2"),
		rockSaltTemplate(t, "m-3", "cesium chloride"),
	)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	got, err := mem.TemplatesByPattern(ctx, "AB", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].ID != "m-1" || got[1].ID != "m-3" {
		t.Errorf("AB query = %v, want m-1, m-3 in insertion order", got)
	}

	limited, err := mem.TemplatesByPattern(ctx, "AB", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 1 || limited[0].ID != "m-1" {
		t.Errorf("limited query = %v, want only m-1", limited)
	}

	if _, err := mem.TemplatesByPattern(ctx, "ABC3", 0); !errors.Is(err, ErrNoTemplate) {
		t.Errorf("no match: got %v, want ErrNoTemplate", err)
	}
}
