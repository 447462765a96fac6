// meta-dds target-info [target]
package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/meta-dds/meta-dds/internal/cmake"
	"github.com/meta-dds/meta-dds/internal/msg"
	"github.com/meta-dds/meta-dds/internal/scratch"
	"github.com/meta-dds/meta-dds/internal/toolchain"
)

var (
	tiToolchain  string
	tiProject    string
	tiScratchDir string
)

var targetInfoCmd = &cobra.Command{
	Use:   "target-info [target]",
	Short: "Print the resolved compile information of a CMake target",
	Long: `Print the resolved compile information of a CMake target as JSON:
include directories, preprocessor definitions, sources, and linked
libraries, split into public and private sets.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		info, err := resolveTargetInfo(args[0])
		if err != nil {
			msg.Fatal("%v", err)
		}
		data, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			msg.Fatal("%v", err)
		}
		fmt.Println(string(data))
	},
}

func resolveTargetInfo(target string) (*cmake.TargetInfo, error) {
	tc, err := toolchain.Load(tiToolchain)
	if err != nil {
		return nil, err
	}
	script, err := toolchain.Generate(tc, toolchain.PolicyExtract)
	if err != nil {
		return nil, err
	}

	dir, cleanup, err := scratch.Dir(tiScratchDir)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	cm, err := cmake.New(flagCMakeExe, tiProject, filepath.Join(dir, "cmake_build"))
	if err != nil {
		return nil, err
	}

	toolchainFile := filepath.Join(dir, "toolchain.cmake")
	if err := os.WriteFile(toolchainFile, []byte(script), 0644); err != nil {
		return nil, err
	}

	version, err := cm.Version()
	if err != nil {
		return nil, err
	}
	if err := cm.Configure(cmake.DefaultConfigureArgs(version), true, toolchainFile); err != nil {
		return nil, err
	}

	api := &cmake.FileAPI{CMake: cm, Client: "meta-dds"}
	codemodel, err := api.Codemodel()
	if err != nil {
		return nil, err
	}

	info, err := api.ResolveTarget(codemodel, target)
	var notFound *cmake.TargetNotFoundError
	if errors.As(err, &notFound) {
		msg.Debug("target `%s' not in codemodel, trying a live query", target)
		live, liveErr := cmake.ResolveTargetLive(cm, tc, target, "")
		if liveErr != nil {
			msg.Debug("live query failed: %v", liveErr)
			return nil, err
		}
		return live, nil
	}
	return info, err
}

func init() {
	rootCmd.AddCommand(targetInfoCmd)
	targetInfoCmd.Flags().StringVarP(&tiToolchain, "toolchain", "t", "", "Toolchain descriptor file or builtin specifier")
	targetInfoCmd.Flags().StringVarP(&tiProject, "project", "p", ".", "Root directory of the CMake project")
	targetInfoCmd.Flags().StringVar(&tiScratchDir, "scratch-dir", "", "Pin the scratch directory used for intermediate files")
}
