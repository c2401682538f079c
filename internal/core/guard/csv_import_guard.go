package guard

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/agencyhub/crm-api/internal/core/domain"
	"github.com/agencyhub/crm-api/internal/core/ports"
)

// maxImportSize is the upload ceiling for CSV imports: 10MB.
const maxImportSize = 10 << 20

var allowedImportExtensions = map[string]struct{}{
	".csv": {},
	".txt": {},
}

// allowedImportMIMEs is the content-type allowlist. Plain CSV is usually
// detected as text/plain; some exporters label it application/csv or the
// legacy Excel type.
var allowedImportMIMEs = []string{
	"text/csv",
	"text/plain",
	"application/csv",
	"application/vnd.ms-excel",
}

// FileValidation accumulates every applicable violation rather than failing
// on the first one, so the uploader can fix all problems in one pass.
type FileValidation struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// CsvImportGuard authorizes CSV import operations and owns the upload
// validation rules. Imports are agency-internal, so the common matrix runs
// with no client roles: imports have no client link and client roles deny.
type CsvImportGuard struct {
	base
}

func NewCsvImportGuard(assignments ports.AssignmentRepository) *CsvImportGuard {
	return &CsvImportGuard{base{assignments: assignments}}
}

func (g *CsvImportGuard) CanView(ctx context.Context, identity domain.Identity, r domain.Resource) (bool, error) {
	return g.decide(ctx, identity, r)
}

func (g *CsvImportGuard) CanCreate(identity domain.Identity) bool {
	return staffCanCreate(identity)
}

func (g *CsvImportGuard) CanEdit(ctx context.Context, identity domain.Identity, r domain.Resource) (bool, error) {
	return g.decide(ctx, identity, r)
}

func (g *CsvImportGuard) CanDelete(ctx context.Context, identity domain.Identity, r domain.Resource) (bool, error) {
	return g.decide(ctx, identity, r)
}

// ValidateFile checks an upload against the import rules: size ceiling,
// extension allowlist, detected MIME type, and readability. All violations
// are collected into the result.
func (g *CsvImportGuard) ValidateFile(name string, size int64, content io.Reader) FileValidation {
	var errs []string

	if size > maxImportSize {
		errs = append(errs, fmt.Sprintf("file exceeds maximum size of %dMB", maxImportSize>>20))
	}

	ext := strings.ToLower(filepath.Ext(name))
	if _, ok := allowedImportExtensions[ext]; !ok {
		errs = append(errs, "file extension must be .csv or .txt")
	}

	if content == nil {
		errs = append(errs, "file is not readable")
	} else if mt, err := mimetype.DetectReader(content); err != nil {
		errs = append(errs, "file is not readable")
	} else if !mimeAllowed(mt) {
		errs = append(errs, fmt.Sprintf("file type %s is not allowed", mt.String()))
	}

	return FileValidation{Valid: len(errs) == 0, Errors: errs}
}

func mimeAllowed(mt *mimetype.MIME) bool {
	for _, allowed := range allowedImportMIMEs {
		if mt.Is(allowed) {
			return true
		}
	}
	return false
}

// SanitizeFilename strips the name down to a safe character set and appends
// a disambiguating suffix so two uploads of the same file never collide.
func (g *CsvImportGuard) SanitizeFilename(name string) string {
	base := filepath.Base(name)
	ext := strings.ToLower(filepath.Ext(base))
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	var b strings.Builder
	for _, r := range stem {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	safe := b.String()
	if safe == "" {
		safe = "import"
	}

	return fmt.Sprintf("%s-%s%s", safe, uniqueSuffix(), ext)
}

// uniqueSuffix returns 8 hex characters of randomness, falling back to the
// clock when the random source fails.
func uniqueSuffix() string {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("%08x", time.Now().UnixNano()&0xFFFFFFFF)
	}
	return fmt.Sprintf("%08x", buf)
}
