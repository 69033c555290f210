package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"content-mover/internal/logger"
	"content-mover/internal/pkgfile"
)

func packageCmd(a *app) *cobra.Command {
	var (
		storeDir string
		outDir   string
		name     string
		source   string
	)

	cmd := &cobra.Command{
		Use:   "package TYPE:KEY...",
		Short: "Write objects and their dependencies into a package directory",
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

			if name == "" {
				name = ids[0].String()
			}

			engine := a.engine()
			b := pkgfile.NewBuilder(src, a.resolver(src, engine), engine, pkgfile.BuildOptions{
				Name:   name,
				Source: source,
				Files: pkgfile.Filter{
					Include: a.cfg.Package.Include,
					Exclude: a.cfg.Package.Exclude,
				},
				IncludeSystem: a.cfg.Package.IncludeSystem,
			}, a.sugar(logger.ComponentPackage))

			res, err := b.Build(outDir, ids...)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, e := range res.Manifest.Objects {
				fmt.Fprintf(out, "%d  %s  %d file(s)\n", e.Level, e.ID(), len(e.Files))
			}

			printDiagnostics(out, res.Diagnostics)

			return nil
		},
	}

	cmd.Flags().StringVarP(&storeDir, "store", "s", ".", "Source store directory")
	cmd.Flags().StringVarP(&outDir, "out", "o", "package", "Package directory to write")
	cmd.Flags().StringVar(&name, "name", "", "Package name (default: first root)")
	cmd.Flags().StringVar(&source, "source", "", "Name of the source system")

	return cmd
}
