package validator_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	pkgvalidator "github.com/ghuser/recordvault/pkg/validator"
)

type sampleStruct struct {
	ID   string `validate:"required,uuid"`
	Name string `validate:"notblank,max=10"`
	Sort string `validate:"omitempty,oneof=name createdAt"`
}

func TestValidate_valid(t *testing.T) {
	s := sampleStruct{
		ID:   "550e8400-e29b-41d4-a716-446655440000",
		Name: "hello",
		Sort: "name",
	}
	if err := pkgvalidator.Validate(&s); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}

func TestValidate_missingRequired(t *testing.T) {
	s := sampleStruct{}
	if err := pkgvalidator.Validate(&s); err == nil {
		t.Fatal("expected validation error for empty struct")
	}
}

func TestFormatValidationErrors(t *testing.T) {
	tests := []struct {
		name  string
		in    sampleStruct
		field string
		want  string
	}{
		{"required", sampleStruct{Name: "ok"}, "ID", "This field is required"},
		{"uuid", sampleStruct{ID: "not-a-uuid", Name: "ok"}, "ID", "Must be a valid UUID"},
		{"notblank", sampleStruct{ID: "550e8400-e29b-41d4-a716-446655440000", Name: "   "}, "Name", "This field is required"},
		{"max", sampleStruct{ID: "550e8400-e29b-41d4-a716-446655440000", Name: "12345678901"}, "Name", "Maximum length is 10"},
		{"oneof", sampleStruct{ID: "550e8400-e29b-41d4-a716-446655440000", Name: "ok", Sort: "size"}, "Sort", "Must be one of: name, createdAt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := pkgvalidator.FormatValidationErrors(pkgvalidator.Validate(&tt.in))
			if m[tt.field] != tt.want {
				t.Errorf("%s: got %q, want %q", tt.field, m[tt.field], tt.want)
			}
		})
	}
}

func TestFormatValidationErrors_nonValidationError(t *testing.T) {
	m := pkgvalidator.FormatValidationErrors(http.ErrNoCookie)
	if len(m) != 0 {
		t.Errorf("expected empty map for non-validation error, got %v", m)
	}
}

// --- ValidateRequest ---

type recordReq struct {
	Name    string `json:"name"    validate:"notblank,max=255"`
	Details string `json:"details" validate:"max=4096"`
}

func TestValidateRequest_valid(t *testing.T) {
	body := `{"name":"Router","details":"Home WiFi"}`
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	req, ok := pkgvalidator.ValidateRequest[recordReq](w, r)
	if !ok {
		t.Fatalf("expected ok=true, got false. Response: %s", w.Body.String())
	}
	if req.Name != "Router" || req.Details != "Home WiFi" {
		t.Errorf("unexpected request: %+v", req)
	}
}

func TestValidateRequest_invalidJSON(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{bad json"))
	w := httptest.NewRecorder()

	_, ok := pkgvalidator.ValidateRequest[recordReq](w, r)
	if ok {
		t.Fatal("expected ok=false for malformed JSON")
	}
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Invalid JSON") {
		t.Errorf("expected 'Invalid JSON' in body, got: %s", w.Body.String())
	}
}

func TestValidateRequest_unknownField(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x","colour":"red"}`))
	w := httptest.NewRecorder()

	if _, ok := pkgvalidator.ValidateRequest[recordReq](w, r); ok {
		t.Fatal("expected ok=false for unknown field")
	}
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestValidateRequest_blankName(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"   "}`))
	w := httptest.NewRecorder()

	if _, ok := pkgvalidator.ValidateRequest[recordReq](w, r); ok {
		t.Fatal("expected ok=false for blank name")
	}
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"name":"This field is required"`) {
		t.Errorf("expected name field error, got: %s", w.Body.String())
	}
}

func TestValidateRequest_tooLarge(t *testing.T) {
	body := `{"name":"` + strings.Repeat("a", 64) + `"}`
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	w := httptest.NewRecorder()
	r.Body = http.MaxBytesReader(w, r.Body, 16)

	if _, ok := pkgvalidator.ValidateRequest[recordReq](w, r); ok {
		t.Fatal("expected ok=false for oversized body")
	}
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected 413, got %d", w.Code)
	}
}

type listQuery struct {
	Sort string `json:"sort" validate:"omitempty,oneof=name createdAt"`
}

func TestValidateQuery(t *testing.T) {
	w := httptest.NewRecorder()
	if _, ok := pkgvalidator.ValidateQuery(w, &listQuery{Sort: "name"}); !ok {
		t.Fatal("expected valid query")
	}

	w = httptest.NewRecorder()
	if _, ok := pkgvalidator.ValidateQuery(w, &listQuery{Sort: "size"}); ok {
		t.Fatal("expected invalid query")
	}
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", w.Code)
	}
}
