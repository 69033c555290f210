package main

import (
	"fmt"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"

	"content-mover/internal/idtypes"
)

func discoverCmd(a *app) *cobra.Command {
	var (
		storeDir string
		dump     bool
	)

	cmd := &cobra.Command{
		Use:   "discover TYPE:KEY",
		Short: "List the literal ids an object carries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}

			src, err := openStore(storeDir)
			if err != nil {
				return err
			}

			obj, err := src.Object(ids[0])
			if err != nil {
				return err
			}

			d, err := a.engine().Discover(obj)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()

			if dump {
				fmt.Fprint(out, spew.Sdump(d.IdTypes.All()))

				return nil
			}

			for _, m := range d.IdTypes.All() {
				fmt.Fprintf(out, "%s/%s\t%s\t%s\t%s\n",
					m.Resource, m.Element, typeName(m), m.Value, a.messages.Chain(m.Chain))
			}

			printDiagnostics(out, d.Diagnostics)

			return nil
		},
	}

	cmd.Flags().StringVarP(&storeDir, "store", "s", ".", "Source store directory")
	cmd.Flags().BoolVar(&dump, "dump", false, "Dump the discovered mappings in full")

	return cmd
}

func typeName(m *idtypes.Mapping) string {
	switch {
	case m.IsUndefined():
		return "undefined"
	case m.ParentID != "":
		return fmt.Sprintf("%s(%s:%s)", m.Type, m.ParentType, m.ParentID)
	default:
		return string(m.Type)
	}
}
