// meta-dds pkg create
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/meta-dds/meta-dds/internal/dds"
	"github.com/meta-dds/meta-dds/internal/metapkg"
	"github.com/meta-dds/meta-dds/internal/msg"
	"github.com/meta-dds/meta-dds/internal/sdist"
)

var (
	pkgCreateProject  string
	pkgCreateOutput   string
	pkgCreateIfExists = newIfExistsFlag()
	pkgCreateName     string
	pkgCreateVersion  string
)

var pkgCmd = &cobra.Command{
	Use:   "pkg",
	Short: "Package management commands",
}

var pkgCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Archive a project directory as a gzipped tarball",
	Long: `Archive a project directory as a gzipped tarball, honoring the
project's .gitignore. Unlike forge, this does not configure the project
or rewrite its layout.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		overrides := metapkg.Overrides{Name: pkgCreateName, Version: pkgCreateVersion}
		err := sdist.CreateArchive(pkgCreateProject, pkgCreateOutput, overrides, dds.IfExists(pkgCreateIfExists.Value()))
		if err != nil {
			msg.Fatal("%v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(pkgCmd)
	pkgCmd.AddCommand(pkgCreateCmd)
	pkgCreateCmd.Flags().StringVarP(&pkgCreateProject, "project", "p", ".", "Root directory of the project to archive")
	pkgCreateCmd.Flags().StringVarP(&pkgCreateOutput, "output", "o", "", "Destination of the archive")
	pkgCreateCmd.Flags().Var(&pkgCreateIfExists, "if-exists", "What to do if the output exists, one of "+pkgCreateIfExists.HelpString())
	pkgCreateCmd.RegisterFlagCompletionFunc("if-exists", pkgCreateIfExists.CompletionFunc())
	pkgCreateCmd.Flags().StringVar(&pkgCreateName, "name", "", "Override the package name")
	pkgCreateCmd.Flags().StringVar(&pkgCreateVersion, "pkg-version", "", "Override the package version")
}
