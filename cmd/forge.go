// meta-dds forge [flags]
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/meta-dds/meta-dds/internal/dds"
	"github.com/meta-dds/meta-dds/internal/metapkg"
	"github.com/meta-dds/meta-dds/internal/msg"
	"github.com/meta-dds/meta-dds/internal/sdist"
)

var (
	forgeToolchain  string
	forgeProject    string
	forgeOutput     string
	forgeScratchDir string
	forgeIfExists   = newIfExistsFlag()
	forgeName       string
	forgeNamespace  string
	forgeVersion    string
)

var forgeCmd = &cobra.Command{
	Use:   "forge",
	Short: "Forge a dds source distribution from a CMake project",
	Long: `Forge a dds source distribution from a CMake project. The project is
configured against the given toolchain, its library targets are resolved
through the CMake file API, and the result is archived with dds.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		err := sdist.Forge(tools(), sdist.ForgeOptions{
			Project:    forgeProject,
			Output:     forgeOutput,
			Toolchain:  forgeToolchain,
			ScratchDir: forgeScratchDir,
			IfExists:   dds.IfExists(forgeIfExists.Value()),
			Overrides: metapkg.Overrides{
				Name:      forgeName,
				Namespace: forgeNamespace,
				Version:   forgeVersion,
			},
		})
		if err != nil {
			msg.Fatal("%v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(forgeCmd)
	forgeCmd.Flags().StringVarP(&forgeToolchain, "toolchain", "t", "", "Toolchain descriptor file or builtin specifier (e.g. :gcc, :debug:clang)")
	forgeCmd.Flags().StringVarP(&forgeProject, "project", "p", ".", "Root directory of the CMake project")
	forgeCmd.Flags().StringVarP(&forgeOutput, "output", "o", "", "Destination of the source distribution archive")
	forgeCmd.Flags().StringVar(&forgeScratchDir, "scratch-dir", "", "Pin the scratch directory used for intermediate files")
	forgeCmd.Flags().Var(&forgeIfExists, "if-exists", "What to do if the output exists, one of "+forgeIfExists.HelpString())
	forgeCmd.RegisterFlagCompletionFunc("if-exists", forgeIfExists.CompletionFunc())
	forgeCmd.Flags().StringVar(&forgeName, "name", "", "Override the package name")
	forgeCmd.Flags().StringVar(&forgeNamespace, "namespace", "", "Override the package namespace")
	forgeCmd.Flags().StringVar(&forgeVersion, "pkg-version", "", "Override the package version")
}
