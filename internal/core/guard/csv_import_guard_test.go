package guard

import (
	"context"
	"strings"
	"testing"

	"github.com/agencyhub/crm-api/internal/core/domain"
)

func TestCsvImportGuard_ScopedByAgency(t *testing.T) {
	ctx := context.Background()
	assignments := newStubAssignments("u1:c1")
	g := NewCsvImportGuard(assignments)
	r := domain.Resource{AgencyID: "A1"}

	got, err := g.CanView(ctx, agency("A1"), r)
	mustDecide(t, got, err, true, "same agency")

	got, err = g.CanView(ctx, agency("A2"), r)
	mustDecide(t, got, err, false, "other agency")

	// Imports are not client-linked: client roles have no path in.
	got, err = g.CanView(ctx, directClient("u1"), r)
	mustDecide(t, got, err, false, "direct client")

	got, err = g.CanView(ctx, endClient("u1"), r)
	mustDecide(t, got, err, false, "end client")
}

func TestCsvImportGuard_ValidateFileAccumulatesErrors(t *testing.T) {
	g := NewCsvImportGuard(newStubAssignments())

	// Oversized and wrong extension, but readable CSV content: exactly two
	// violations, not a fail-fast single one.
	res := g.ValidateFile("report.pdf", maxImportSize+1, strings.NewReader("a,b,c\n1,2,3\n"))
	if res.Valid {
		t.Fatalf("expected invalid result")
	}
	if len(res.Errors) != 2 {
		t.Fatalf("expected exactly 2 errors, got %d: %v", len(res.Errors), res.Errors)
	}
}

func TestCsvImportGuard_ValidateFileHappyPath(t *testing.T) {
	g := NewCsvImportGuard(newStubAssignments())

	res := g.ValidateFile("contacts.csv", 1024, strings.NewReader("name,email\nalice,a@example.com\n"))
	if !res.Valid {
		t.Fatalf("expected valid result, got errors: %v", res.Errors)
	}
	if len(res.Errors) != 0 {
		t.Fatalf("expected no errors, got %v", res.Errors)
	}
}

func TestCsvImportGuard_ValidateFileUnreadable(t *testing.T) {
	g := NewCsvImportGuard(newStubAssignments())

	res := g.ValidateFile("contacts.csv", 1024, nil)
	if res.Valid {
		t.Fatalf("expected invalid result for unreadable file")
	}
	found := false
	for _, e := range res.Errors {
		if strings.Contains(e, "not readable") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a readability error, got %v", res.Errors)
	}
}

func TestCsvImportGuard_SanitizeFilename(t *testing.T) {
	g := NewCsvImportGuard(newStubAssignments())

	got := g.SanitizeFilename("../étrange name (1).csv")
	if strings.ContainsAny(got, "/\\ ()") {
		t.Fatalf("sanitized name contains unsafe characters: %q", got)
	}
	if !strings.HasSuffix(got, ".csv") {
		t.Fatalf("extension must be preserved: %q", got)
	}

	// The uniqueness suffix keeps identical uploads apart.
	a := g.SanitizeFilename("contacts.csv")
	b := g.SanitizeFilename("contacts.csv")
	if a == b {
		t.Fatalf("expected distinct names for repeated uploads, got %q twice", a)
	}
}
