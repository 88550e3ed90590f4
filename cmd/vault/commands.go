package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ghuser/recordvault/pkg/app"
	"github.com/ghuser/recordvault/services/record/application/cli"
	appsvcs "github.com/ghuser/recordvault/services/record/application/services"
	"github.com/ghuser/recordvault/services/record/domain/models"
)

func (s *session) addCmd() *cobra.Command {
	var details string
	cmd := &cobra.Command{
		Use:   "add NAME...",
		Short: "Add a record and write a backup",
		Example: `  vault add Router --details "Home WiFi"
  vault add Passport -o json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := s.svcs.Vault.AddRecord(cmd.Context(), strings.Join(args, " "), details)
			if res == nil {
				return err
			}
			if werr := s.writeMutation("Record added:", res); werr != nil {
				return werr
			}
			return err
		},
	}
	cmd.Flags().StringVarP(&details, "details", "d", "", "free-form details")
	return cmd
}

func (s *session) updateCmd() *cobra.Command {
	var name, details string
	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Change a record's name and/or details",
		Long:  "Only the flags you pass are changed. Updates do not write a backup.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := s.svcs.Vault.UpdateRecord(cmd.Context(), args[0], name, details)
			if err != nil {
				return err
			}
			return s.writeRecords([]*models.Record{rec})
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", "", "new name")
	cmd.Flags().StringVarP(&details, "details", "d", "", "new details")
	return cmd
}

func (s *session) deleteCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a record and write a backup",
		Long:  "Without --yes the record is shown and you are asked to confirm.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id := args[0]
			confirmed := yes
			if !confirmed {
				if _, err := models.ParseRecordID(id); err != nil {
					return err
				}
				found, err := s.svcs.Vault.SearchRecords(ctx, string(models.SearchByID), id)
				if err != nil {
					return err
				}
				if err := cli.WriteRecord(s.out, s.styles, found[0]); err != nil {
					return err
				}
				confirmed = s.confirm("Delete this record? [y/N]: ")
			}

			res, err := s.svcs.Vault.DeleteRecord(ctx, id, confirmed)
			if res == nil {
				return err
			}
			if werr := s.writeMutation("Record deleted:", res); werr != nil {
				return werr
			}
			return err
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "delete without asking")
	return cmd
}

func (s *session) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every record in creation order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			records, err := s.svcs.Vault.ListRecords(cmd.Context())
			if err != nil {
				return err
			}
			return s.writeRecords(records)
		},
	}
}

func (s *session) searchCmd() *cobra.Command {
	var by string
	cmd := &cobra.Command{
		Use:   "search TERM",
		Short: "Find records by name substring or exact id",
		Example: `  vault search pass
  vault search --by id 3f0c6a6e-8d0f-4c7b-9a55-0e4b1a6f2d11`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := s.svcs.Vault.SearchRecords(cmd.Context(), by, args[0])
			if err != nil {
				return err
			}
			return s.writeRecords(records)
		},
	}
	cmd.Flags().StringVar(&by, "by", "name", "match against name or id")
	return cmd
}

func (s *session) sortCmd() *cobra.Command {
	var field, dir string
	cmd := &cobra.Command{
		Use:   "sort",
		Short: "List every record in a chosen order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			records, err := s.svcs.Vault.SortRecords(cmd.Context(), field, dir)
			if err != nil {
				return err
			}
			return s.writeRecords(records)
		},
	}
	cmd.Flags().StringVar(&field, "field", "createdAt", "name or createdAt")
	cmd.Flags().StringVar(&dir, "dir", "asc", "asc or desc")
	return cmd
}

func (s *session) exportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Rewrite the human-readable export report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := s.svcs.Vault.ExportData(cmd.Context())
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(s.out, "%s %d record(s) to %s\n", s.styles.Success.Render("Exported"), res.Count, res.Path)
			return err
		},
	}
}

func (s *session) statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show vault statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := s.svcs.Vault.ViewStatistics(cmd.Context())
			if err != nil {
				return err
			}
			return cli.WriteStats(s.out, s.styles, s.format, st)
		},
	}
}

func (s *session) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations and exit",
		Long:  "Every vault process migrates at startup; this command does only that.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.Migrate(cmd.Context(), s.app.DB, s.log); err != nil {
				return err
			}
			_, err := fmt.Fprintf(s.out, "%s %s store is up to date\n", s.styles.Success.Render("Migrated:"), s.app.DB.Driver())
			return err
		},
	}
}

func (s *session) writeRecords(records []*models.Record) error {
	return cli.WriteRecords(s.out, s.styles, s.format, records)
}

// writeMutation prints the changed record. In text mode it is a one-line
// summary plus the backup path, if one was written.
func (s *session) writeMutation(label string, res *appsvcs.MutationResult) error {
	if s.format != cli.FormatText {
		return s.writeRecords([]*models.Record{res.Record})
	}
	if _, err := fmt.Fprintf(s.out, "%s %s\n", s.styles.Success.Render(label), res.Record.ID); err != nil {
		return err
	}
	if res.BackupPath != "" {
		_, err := fmt.Fprintf(s.out, "%s %s\n", s.styles.Muted.Render("Backup written:"), res.BackupPath)
		return err
	}
	return nil
}

// confirm treats anything but y/yes, including an unreadable or over-long
// answer, as no.
func (s *session) confirm(question string) bool {
	fmt.Fprint(s.out, question) //nolint:errcheck
	answer, err := cli.NewLineReader(s.in).ReadLine()
	if err != nil {
		fmt.Fprintln(s.out) //nolint:errcheck
		return false
	}
	return strings.EqualFold(answer, "y") || strings.EqualFold(answer, "yes")
}
