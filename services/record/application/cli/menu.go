// Package cli is the interactive operator menu. It reads choices and field
// values line by line and calls the vault; every operation error is shown
// and the session continues.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ghuser/recordvault/services/record/application/services"
	"github.com/ghuser/recordvault/services/record/domain/models"
	domainsvcs "github.com/ghuser/recordvault/services/record/domain/services"
)

// Vault is the set of operations the menu drives.
type Vault interface {
	AddRecord(ctx context.Context, name, details string) (*services.MutationResult, error)
	UpdateRecord(ctx context.Context, id, newName, newDetails string) (*models.Record, error)
	DeleteRecord(ctx context.Context, id string, confirmed bool) (*services.MutationResult, error)
	ListRecords(ctx context.Context) ([]*models.Record, error)
	SearchRecords(ctx context.Context, mode, term string) ([]*models.Record, error)
	SortRecords(ctx context.Context, field, direction string) ([]*models.Record, error)
	ExportData(ctx context.Context) (*services.ExportResult, error)
	ViewStatistics(ctx context.Context) (*domainsvcs.Statistics, error)
}

const menuText = `1. Add record
2. Update record
3. Delete record
4. List records
5. Search records
6. Sort records
7. Export data
8. View statistics
9. Exit`

// Menu runs one interactive session.
type Menu struct {
	vault  Vault
	in     *LineReader
	out    io.Writer
	styles Styles
	outErr error
}

// NewMenu reads operator input from in and writes to out.
func NewMenu(v Vault, in io.Reader, out io.Writer) *Menu {
	return &Menu{
		vault:  v,
		in:     NewLineReader(in),
		out:    out,
		styles: NewStyles(out),
	}
}

// Run loops until the operator picks Exit, input ends, or ctx is cancelled.
// Operation errors are shown and the loop goes on; only a failure to read in
// or write to out is returned.
func (m *Menu) Run(ctx context.Context) error {
	actions := map[string]func(context.Context) (bool, error){
		"1": m.add,
		"2": m.update,
		"3": m.delete,
		"4": m.list,
		"5": m.search,
		"6": m.sort,
		"7": m.export,
		"8": m.stats,
	}

	for ctx.Err() == nil {
		m.printf("\n%s\n%s\n", m.styles.Title.Render("=== Record Vault ==="), menuText)
		choice, err := m.prompt("Choose an option: ")
		if errors.Is(err, ErrLineTooLong) {
			m.printf("%s\n", m.styles.Error.Render(Describe(err)))
			continue
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		if err != nil || choice == "9" {
			m.printf("Goodbye.\n")
			return m.writeErr()
		}

		action, found := actions[choice]
		if !found {
			m.printf("%s\n", m.styles.Error.Render("Invalid option, choose 1-9."))
			continue
		}
		more, err := action(ctx)
		if isReadErr(err) {
			return err
		}
		if err != nil {
			m.printf("%s\n", m.styles.Error.Render(Describe(err)))
		}
		if werr := m.writeErr(); werr != nil {
			return werr
		}
		if !more {
			m.printf("Goodbye.\n")
			return m.writeErr()
		}
	}
	return nil
}

func (m *Menu) add(ctx context.Context) (bool, error) {
	in, err := m.ask("Name: ", "Details (optional): ")
	if err != nil {
		return abandon(err)
	}

	res, err := m.vault.AddRecord(ctx, in[0], in[1])
	if res != nil {
		m.printf("%s %s\n", m.styles.Success.Render("Record added:"), res.Record.ID)
		m.backupNote(res)
	}
	return true, err
}

func (m *Menu) update(ctx context.Context) (bool, error) {
	in, err := m.ask("Record ID: ", "New name (blank to keep): ", "New details (blank to keep): ")
	if err != nil {
		return abandon(err)
	}

	rec, err := m.vault.UpdateRecord(ctx, in[0], in[1], in[2])
	if err != nil {
		return true, err
	}
	m.printf("%s\n", m.styles.Success.Render("Record updated."))
	m.record(rec)
	return true, nil
}

func (m *Menu) delete(ctx context.Context) (bool, error) {
	id, err := m.prompt("Record ID: ")
	if err != nil {
		return abandon(err)
	}

	if _, err := models.ParseRecordID(id); err != nil {
		return true, err
	}
	found, err := m.vault.SearchRecords(ctx, string(models.SearchByID), id)
	if err != nil {
		return true, err
	}
	m.record(found[0])
	answer, err := m.prompt("Delete this record? [y/N]: ")
	if err != nil {
		return abandon(err)
	}
	confirmed := strings.EqualFold(answer, "y") || strings.EqualFold(answer, "yes")

	res, err := m.vault.DeleteRecord(ctx, id, confirmed)
	if res != nil {
		m.printf("%s %s\n", m.styles.Success.Render("Record deleted:"), res.Record.ID)
		m.backupNote(res)
	}
	return true, err
}

func (m *Menu) list(ctx context.Context) (bool, error) {
	records, err := m.vault.ListRecords(ctx)
	if err != nil {
		return true, err
	}
	m.records(records)
	return true, nil
}

func (m *Menu) search(ctx context.Context) (bool, error) {
	in, err := m.ask("Search by 1) Name 2) ID: ", "Search term: ")
	if err != nil {
		return abandon(err)
	}

	records, err := m.vault.SearchRecords(ctx, in[0], in[1])
	if err != nil {
		return true, err
	}
	m.records(records)
	return true, nil
}

func (m *Menu) sort(ctx context.Context) (bool, error) {
	in, err := m.ask("Sort by 1) Name 2) Created at: ", "Direction 1) Ascending 2) Descending: ")
	if err != nil {
		return abandon(err)
	}

	records, err := m.vault.SortRecords(ctx, in[0], in[1])
	if err != nil {
		return true, err
	}
	m.records(records)
	return true, nil
}

func (m *Menu) export(ctx context.Context) (bool, error) {
	res, err := m.vault.ExportData(ctx)
	if err != nil {
		return true, err
	}
	m.printf("%s %d record(s) to %s\n", m.styles.Success.Render("Exported"), res.Count, res.Path)
	return true, nil
}

func (m *Menu) stats(ctx context.Context) (bool, error) {
	s, err := m.vault.ViewStatistics(ctx)
	if err != nil {
		return true, err
	}
	m.setErr(WriteStats(m.out, m.styles, FormatText, s))
	return true, nil
}

func (m *Menu) backupNote(res *services.MutationResult) {
	if res.BackupPath != "" {
		m.printf("%s %s\n", m.styles.Muted.Render("Backup written:"), res.BackupPath)
	}
}

func (m *Menu) record(r *models.Record) {
	m.setErr(WriteRecord(m.out, m.styles, r))
}

func (m *Menu) records(rs []*models.Record) {
	m.setErr(WriteRecords(m.out, m.styles, FormatText, rs))
}

// prompt writes label and reads one trimmed line.
func (m *Menu) prompt(label string) (string, error) {
	m.printf("%s", label)
	line, err := m.in.ReadLine()
	if err != nil {
		m.printf("\n")
		if !errors.Is(err, io.EOF) && !errors.Is(err, ErrLineTooLong) {
			return "", readErr{err}
		}
	}
	return line, err
}

// ask prompts for each label in turn. An over-long answer does not stop the
// remaining prompts, so the operator's following lines still land where
// they were meant to; the first such error is returned at the end.
func (m *Menu) ask(labels ...string) ([]string, error) {
	answers := make([]string, len(labels))
	var tooLong error
	for i, label := range labels {
		v, err := m.prompt(label)
		if errors.Is(err, ErrLineTooLong) {
			tooLong = err
			continue
		}
		if err != nil {
			return nil, err
		}
		answers[i] = v
	}
	if tooLong != nil {
		return nil, tooLong
	}
	return answers, nil
}

// abandon ends an action whose prompt failed. Running out of input ends the
// session quietly; Run decides what to do with any other error.
func abandon(err error) (bool, error) {
	if errors.Is(err, io.EOF) {
		return false, nil
	}
	return true, err
}

// readErr marks a failure of the input stream itself.
type readErr struct{ err error }

func (e readErr) Error() string { return "read input: " + e.err.Error() }
func (e readErr) Unwrap() error { return e.err }

func isReadErr(err error) bool {
	var re readErr
	return errors.As(err, &re)
}

// printf and setErr keep the first write error so the loop can stop on a
// broken output without checking every call.
func (m *Menu) printf(format string, args ...any) {
	_, err := fmt.Fprintf(m.out, format, args...)
	m.setErr(err)
}

func (m *Menu) setErr(err error) {
	if err != nil && m.outErr == nil {
		m.outErr = err
	}
}

func (m *Menu) writeErr() error {
	return m.outErr
}
