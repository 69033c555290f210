package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"content-mover/internal/diagnostic"
)

func depsCmd(a *app) *cobra.Command {
	var storeDir string

	cmd := &cobra.Command{
		Use:   "deps TYPE:KEY...",
		Short: "Print the dependency levels of objects",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}

			src, err := openStore(storeDir)
			if err != nil {
				return err
			}

			graph, err := a.resolver(src, a.engine()).Resolve(ids...)
			if err != nil {
				return err
			}

			levels, err := graph.Levels()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for i, level := range levels {
				fmt.Fprintf(out, "level %d\n", i)

				for _, d := range level {
					fmt.Fprintf(out, "  %s [%s]\n", d, d.Category)
				}
			}

			printDiagnostics(out, graph.Diagnostics)

			return nil
		},
	}

	cmd.Flags().StringVarP(&storeDir, "store", "s", ".", "Source store directory")

	return cmd
}

func printDiagnostics(w io.Writer, d diagnostic.Diagnostics) {
	for _, x := range d.Errors {
		fmt.Fprintf(w, "error: %s\n", x)
	}

	for _, x := range d.Warnings {
		fmt.Fprintf(w, "warning: %s\n", x)
	}

	if len(d.Infos) == 0 {
		return
	}

	var info diagnostic.Diagnostics
	info.Infos = d.Infos

	for _, c := range info.Counts() {
		fmt.Fprintf(w, "info: %d x %s\n", c.Count, c.Code)
	}
}
