// meta-dds forge, meta-dds pkg, meta-dds repo, meta-dds target-info
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/meta-dds/meta-dds/internal/exes"
	"github.com/meta-dds/meta-dds/internal/msg"
)

var (
	flagCMakeExe string
	flagDDSExe   string
	flagVerbose  bool
)

var rootCmd = &cobra.Command{
	Use:   "meta-dds",
	Short: "Repackage CMake projects as dds source distributions",
	Long:  `meta-dds drives CMake and dds to convert CMake-built projects into dds source distributions`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		msg.SetVerbose(flagVerbose)
	},
}

// tools collects the executables selected by the global flags.
func tools() exes.Tools {
	return exes.Tools{CMake: flagCMakeExe, DDS: flagDDSExe}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagCMakeExe, "cmake", "cmake", "Path of the CMake executable to use")
	rootCmd.PersistentFlags().StringVar(&flagDDSExe, "dds", "dds", "Path of the dds executable to use")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Print verbose output")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
