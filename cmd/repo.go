// meta-dds repo init/ls/import/remove
package cmd

import (
	"fmt"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/meta-dds/meta-dds/internal/dds"
	"github.com/meta-dds/meta-dds/internal/msg"
	"github.com/meta-dds/meta-dds/internal/repoman"
)

var (
	repoInitName     string
	repoInitIfExists = newIfExistsFlag()
)

var repoCmd = &cobra.Command{
	Use:   "repo",
	Short: "Manage a meta-dds package repository",
}

var repoInitCmd = &cobra.Command{
	Use:   "init [directory]",
	Short: "Initialize a directory as a package repository",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		err := repoman.Init(args[0], repoInitName, dds.IfExists(repoInitIfExists.Value()))
		if err != nil {
			msg.Fatal("%v", err)
		}
	},
}

var repoLsCmd = &cobra.Command{
	Use:   "ls [directory]",
	Short: "List the packages in a repository",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		repo, err := repoman.Open(args[0])
		if err != nil {
			msg.Fatal("%v", err)
		}
		defer repo.Close()
		pkgs, err := repo.List()
		if err != nil {
			msg.Fatal("%v", err)
		}
		for _, pkg := range pkgs {
			fmt.Println(pkg)
		}
	},
}

var repoImportCmd = &cobra.Command{
	Use:   "import [directory] [sdist...]",
	Short: "Import source distribution archives into a repository",
	Long: `Import source distribution archives into a repository. The sdist
arguments may be glob patterns (including ** recursion).`,
	Args: cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		repo, err := repoman.Open(args[0])
		if err != nil {
			msg.Fatal("%v", err)
		}
		defer repo.Close()
		for _, pattern := range args[1:] {
			matches, err := doublestar.FilepathGlob(pattern)
			if err != nil {
				msg.Fatal("bad sdist pattern %q: %v", pattern, err)
			}
			if len(matches) == 0 {
				msg.Warn("no sdist matches pattern %q", pattern)
			}
			for _, sdist := range matches {
				if err := repo.Import(sdist); err != nil {
					msg.Fatal("%v", err)
				}
			}
		}
	},
}

var repoRemoveCmd = &cobra.Command{
	Use:   "remove [directory] [name@version...]",
	Short: "Remove packages from a repository",
	Args:  cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		repo, err := repoman.Open(args[0])
		if err != nil {
			msg.Fatal("%v", err)
		}
		defer repo.Close()
		for _, pkgID := range args[1:] {
			name, version, err := repoman.ParsePkgID(pkgID)
			if err != nil {
				msg.Fatal("%v", err)
			}
			if err := repo.Remove(name, version); err != nil {
				msg.Fatal("%v", err)
			}
			msg.Info("removed %s@%s", name, version)
		}
	},
}

func init() {
	rootCmd.AddCommand(repoCmd)
	repoCmd.AddCommand(repoInitCmd)
	repoInitCmd.Flags().StringVarP(&repoInitName, "name", "n", "", "Name of the new repository (default: generated)")
	repoInitCmd.Flags().Var(&repoInitIfExists, "if-exists", "What to do if the directory exists, one of "+repoInitIfExists.HelpString())
	repoInitCmd.RegisterFlagCompletionFunc("if-exists", repoInitIfExists.CompletionFunc())
	repoCmd.AddCommand(repoLsCmd)
	repoCmd.AddCommand(repoImportCmd)
	repoCmd.AddCommand(repoRemoveCmd)
}
