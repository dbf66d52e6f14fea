package cli

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/go-mizu/xorm"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "xorm v%s\n", Version)
		},
	}
}

func newTemplatesCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "templates [model...]",
		Short: "Print the SQL templates generated for models",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := a.cfg.Registry(a.logger)
			if err != nil {
				return err
			}
			names := args
			if len(names) == 0 {
				names = reg.Names()
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"model", "kind", "sql"})
			for _, name := range names {
				m, ok := reg[name]
				if !ok {
					return fmt.Errorf("unknown model %q", name)
				}
				t.AppendRow(table.Row{name, "select", m.SelectSQL()})
				t.AppendRow(table.Row{name, "insert", m.InsertSQL()})
				t.AppendRow(table.Row{name, "update", m.UpdateSQL()})
				t.AppendRow(table.Row{name, "delete", m.DeleteSQL()})
				t.AppendSeparator()
			}
			t.Render()
			return nil
		},
	}
}

func newPingCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Open the connection pool and verify connectivity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withDB(cmd.Context(), func(*xorm.DB) error {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "ok: %s@%s:%d/%s\n",
					a.cfg.Database.User, a.cfg.Database.Host, a.cfg.Database.Port, a.cfg.Database.DB)
				return nil
			})
		},
	}
}

func newFindCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "find <model> <pk>",
		Short: "Look up one record by primary key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.model(args[0])
			if err != nil {
				return err
			}
			return a.withDB(cmd.Context(), func(db *xorm.DB) error {
				rec, err := m.Find(cmd.Context(), db, args[1])
				if err != nil {
					return err
				}
				if rec == nil {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "(not found)")
					return nil
				}
				t := table.NewWriter()
				t.SetOutputMirror(cmd.OutOrStdout())
				t.SetStyle(table.StyleLight)
				t.AppendHeader(table.Row{"attribute", "value"})
				for _, k := range rec.Keys() {
					t.AppendRow(table.Row{k, rec.Value(k)})
				}
				t.Render()
				return nil
			})
		},
	}
}

func newCountCommand(a *app) *cobra.Command {
	var where string
	cmd := &cobra.Command{
		Use:   "count <model>",
		Short: "Count the rows of a model's table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.model(args[0])
			if err != nil {
				return err
			}
			return a.withDB(cmd.Context(), func(db *xorm.DB) error {
				var opts []xorm.QueryOption
				if where != "" {
					opts = append(opts, xorm.Where(where))
				}
				n, err := m.FindNumber(cmd.Context(), db, "count(*)", opts...)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), n)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&where, "where", "", "raw where clause")
	return cmd
}
