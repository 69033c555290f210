package main

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/cobra"

	"content-mover/internal/idmap"
	"content-mover/internal/model"
)

func idmapCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "idmap",
		Short: "Inspect and edit id map files",
	}

	var parent string

	add := &cobra.Command{
		Use:   "add FILE TYPE SOURCE TARGET",
		Short: "Add an entry, creating the file if needed",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := idmap.LoadFile(args[0])

			switch {
			case err == nil:
			case errors.Is(err, fs.ErrNotExist):
				m = idmap.New("", "")
			default:
				return err
			}

			t := model.ObjectType(args[1])
			if !t.IsKnown() {
				return fmt.Errorf("unknown type %q", args[1])
			}

			if err := m.Add(idmap.Entry{Type: t, Source: args[2], Target: args[3], Parent: parent}); err != nil {
				return err
			}

			return idmap.WriteFile(m, args[0])
		},
	}
	add.Flags().StringVar(&parent, "parent", "", "Source id of the parent object")

	show := &cobra.Command{
		Use:   "show FILE",
		Short: "Print the entries of an id map",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := idmap.LoadFile(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s -> %s, %d entries\n", orDash(m.SourceSystem), orDash(m.TargetSystem), m.Len())

			for _, e := range m.Entries() {
				fmt.Fprintln(out, e)
			}

			return nil
		},
	}

	cmd.AddCommand(add, show)

	return cmd
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}

	return s
}
