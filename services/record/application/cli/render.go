package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	recorddomain "github.com/ghuser/recordvault/services/record/domain"
	"github.com/ghuser/recordvault/services/record/domain/models"
	domainsvcs "github.com/ghuser/recordvault/services/record/domain/services"
)

// Format selects how read results are written.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts text, json or yaml.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	case "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("%w: output format %q (want text, json or yaml)", recorddomain.ErrInvalidSelection, s)
	}
}

// Styles holds the lipgloss styles bound to one output.
type Styles struct {
	Title   lipgloss.Style
	Label   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Muted   lipgloss.Style
}

// NewStyles detects the color profile of w, so plain writers get plain text.
func NewStyles(w io.Writer) Styles {
	r := lipgloss.NewRenderer(w)
	return Styles{
		Title:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("#2196F3")),
		Label:   r.NewStyle().Bold(true),
		Success: r.NewStyle().Foreground(lipgloss.Color("#8BC34A")),
		Warning: r.NewStyle().Foreground(lipgloss.Color("#FFC107")),
		Error:   r.NewStyle().Foreground(lipgloss.Color("#e53935")),
		Muted:   r.NewStyle().Faint(true),
	}
}

// recordView is the json/yaml shape of a record.
type recordView struct {
	ID        string `json:"id" yaml:"id"`
	Name      string `json:"name" yaml:"name"`
	Details   string `json:"details" yaml:"details"`
	CreatedAt string `json:"created_at" yaml:"created_at"`
	UpdatedAt string `json:"updated_at" yaml:"updated_at"`
}

func toView(r *models.Record) recordView {
	return recordView{
		ID:        r.ID.String(),
		Name:      r.Name.String(),
		Details:   r.Details,
		CreatedAt: r.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt: r.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

type statsView struct {
	Count             int    `json:"count" yaml:"count"`
	LastModified      string `json:"last_modified" yaml:"last_modified"`
	EarliestCreated   string `json:"earliest_created" yaml:"earliest_created"`
	LatestCreated     string `json:"latest_created" yaml:"latest_created"`
	LongestName       string `json:"longest_name" yaml:"longest_name"`
	LongestNameLength int    `json:"longest_name_length" yaml:"longest_name_length"`
}

// WriteRecords writes records in format f. Text output says so when the
// slice is empty.
func WriteRecords(w io.Writer, st Styles, f Format, records []*models.Record) error {
	switch f {
	case FormatJSON, FormatYAML:
		views := make([]recordView, len(records))
		for i, r := range records {
			views[i] = toView(r)
		}
		return encode(w, f, views)
	}

	if len(records) == 0 {
		_, err := fmt.Fprintln(w, st.Muted.Render("No records found."))
		return err
	}
	for i, r := range records {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if err := WriteRecord(w, st, r); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, st.Muted.Render(fmt.Sprintf("%d record(s)", len(records))))
	return err
}

// WriteRecord writes one record as a labelled text block.
func WriteRecord(w io.Writer, st Styles, r *models.Record) error {
	lines := [][2]string{
		{"ID", r.ID.String()},
		{"Name", r.Name.String()},
		{"Details", r.DetailsOrNA()},
		{"Created", models.FormatTimestamp(r.CreatedAt)},
		{"Updated", models.FormatTimestamp(r.UpdatedAt)},
	}
	for _, l := range lines {
		if _, err := fmt.Fprintf(w, "%s %s\n", st.Label.Render(l[0]+":"), l[1]); err != nil {
			return err
		}
	}
	return nil
}

// WriteStats writes a statistics snapshot in format f.
func WriteStats(w io.Writer, st Styles, f Format, s *domainsvcs.Statistics) error {
	view := statsView{
		Count:             s.Count,
		LastModified:      models.FormatTimestamp(s.LastModified),
		EarliestCreated:   models.FormatTimestamp(s.EarliestCreated),
		LatestCreated:     models.FormatTimestamp(s.LatestCreated),
		LongestName:       s.LongestNameText(),
		LongestNameLength: s.LongestNameLength,
	}
	switch f {
	case FormatJSON, FormatYAML:
		return encode(w, f, view)
	}

	longest := view.LongestName
	if !s.Empty() {
		longest = fmt.Sprintf("%s (%d characters)", view.LongestName, view.LongestNameLength)
	}
	lines := [][2]string{
		{"Total records", fmt.Sprint(view.Count)},
		{"Last modified", view.LastModified},
		{"Earliest created", view.EarliestCreated},
		{"Latest created", view.LatestCreated},
		{"Longest name", longest},
	}
	if _, err := fmt.Fprintln(w, st.Title.Render("Vault Statistics")); err != nil {
		return err
	}
	for _, l := range lines {
		if _, err := fmt.Fprintf(w, "%s %s\n", st.Label.Render(l[0]+":"), l[1]); err != nil {
			return err
		}
	}
	return nil
}

func encode(w io.Writer, f Format, v any) error {
	if f == FormatYAML {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}
