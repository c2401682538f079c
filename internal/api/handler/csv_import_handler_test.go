package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/agencyhub/crm-api/internal/core/domain"
	"github.com/agencyhub/crm-api/internal/core/guard"
)

type stubImportRepo struct {
	created *domain.CsvImport
}

func (s *stubImportRepo) FindByID(_ context.Context, id string) (*domain.CsvImport, error) {
	return nil, domain.ErrCsvImportNotFound
}

func (s *stubImportRepo) Create(_ context.Context, imp *domain.CsvImport) (*domain.CsvImport, error) {
	imp.ID = "import_1"
	s.created = imp
	return imp, nil
}

func (s *stubImportRepo) Delete(_ context.Context, id string) error { return nil }

func multipartUpload(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write(content); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, w.FormDataContentType()
}

func TestCsvImportHandler_Upload_Success(t *testing.T) {
	e := newTestEcho()
	repo := &stubImportRepo{}
	handler := NewCsvImportHandler(repo, guard.NewCsvImportGuard(&stubAssignmentRepo{}))

	body, contentType := multipartUpload(t, "contacts.csv", []byte("name,email\nalice,a@example.com\n"))
	req := httptest.NewRequest(http.MethodPost, "/imports", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setIdentity(c, domain.Identity{ID: "u1", Role: domain.RoleAgency, AgencyID: "agency_1"})

	if err := handler.Upload(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if repo.created == nil {
		t.Fatalf("expected import to be recorded")
	}
	if repo.created.Filename != "contacts.csv" {
		t.Fatalf("unexpected original filename: %s", repo.created.Filename)
	}
	if repo.created.StoredName == "contacts.csv" || repo.created.StoredName == "" {
		t.Fatalf("expected sanitized stored name, got %q", repo.created.StoredName)
	}
	if repo.created.AgencyID != "agency_1" || repo.created.UploadedBy != "u1" {
		t.Fatalf("unexpected ownership: %+v", repo.created)
	}
}

func TestCsvImportHandler_Upload_RejectsDisallowedFile(t *testing.T) {
	e := newTestEcho()
	repo := &stubImportRepo{}
	handler := NewCsvImportHandler(repo, guard.NewCsvImportGuard(&stubAssignmentRepo{}))

	// PNG magic bytes under a fake extension: both the extension and the
	// detected type violate the rules.
	body, contentType := multipartUpload(t, "contacts.exe", []byte("\x89PNG\r\n\x1a\n0000"))
	req := httptest.NewRequest(http.MethodPost, "/imports", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setIdentity(c, domain.Identity{ID: "u1", Role: domain.RoleAgency, AgencyID: "agency_1"})

	if err := handler.Upload(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if repo.created != nil {
		t.Fatalf("rejected upload must not be recorded")
	}

	var validation guard.FileValidation
	if err := json.Unmarshal(rec.Body.Bytes(), &validation); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if validation.Valid || len(validation.Errors) < 2 {
		t.Fatalf("expected accumulated violations, got %+v", validation)
	}
}

func TestCsvImportHandler_Upload_EndClientDenied(t *testing.T) {
	e := newTestEcho()
	handler := NewCsvImportHandler(&stubImportRepo{}, guard.NewCsvImportGuard(&stubAssignmentRepo{}))

	body, contentType := multipartUpload(t, "contacts.csv", []byte("a,b\n"))
	req := httptest.NewRequest(http.MethodPost, "/imports", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setIdentity(c, domain.Identity{ID: "u2", Role: domain.RoleEndClient, AgencyID: "agency_1"})

	if err := handler.Upload(c); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}
