package models

import (
	"errors"
	"testing"

	"github.com/ghuser/recordvault/services/record/domain"
)

func TestParseSortOrder(t *testing.T) {
	tests := []struct {
		field, dir string
		want       SortOrder
		wantErr    bool
	}{
		{"name", "asc", SortOrder{SortByName, Ascending}, false},
		{"1", "2", SortOrder{SortByName, Descending}, false},
		{"createdAt", "desc", SortOrder{SortByCreatedAt, Descending}, false},
		{"created_at", "ascending", SortOrder{SortByCreatedAt, Ascending}, false},
		{" NAME ", "DESC", SortOrder{SortByName, Descending}, false},
		{"details", "asc", SortOrder{}, true},
		{"name", "sideways", SortOrder{}, true},
		{"", "", SortOrder{}, true},
		{"3", "1", SortOrder{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.field+"/"+tt.dir, func(t *testing.T) {
			got, err := ParseSortOrder(tt.field, tt.dir)
			if tt.wantErr {
				if !errors.Is(err, domain.ErrInvalidSelection) {
					t.Fatalf("expected ErrInvalidSelection, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestParseSearchMode(t *testing.T) {
	for in, want := range map[string]SearchMode{"1": SearchByName, "name": SearchByName, "byName": SearchByName, "2": SearchByID, "ID": SearchByID} {
		got, err := ParseSearchMode(in)
		if err != nil || got != want {
			t.Errorf("ParseSearchMode(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseSearchMode("details"); !errors.Is(err, domain.ErrInvalidSelection) {
		t.Errorf("expected ErrInvalidSelection, got %v", err)
	}
}

func TestNormalizeSearchTerm(t *testing.T) {
	got, err := NormalizeSearchTerm("  pass ")
	if err != nil || got != "pass" {
		t.Fatalf("got %q, %v", got, err)
	}
	if _, err := NormalizeSearchTerm("  "); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestEscapeLike(t *testing.T) {
	if got := EscapeLike(`50%_off\`); got != `50\%\_off\\` {
		t.Fatalf("unexpected escape %q", got)
	}
}
