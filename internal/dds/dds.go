// Package dds invokes the dds executable (the target packager).
package dds

import (
	"os"
	"os/exec"
	"strings"

	"github.com/meta-dds/meta-dds/internal/exes"
	"github.com/meta-dds/meta-dds/internal/msg"
)

// IfExists selects behavior when an output artifact already exists.
type IfExists string

const (
	IfExistsFail    IfExists = "fail"
	IfExistsSkip    IfExists = "skip"
	IfExistsReplace IfExists = "replace"
)

// DDS wraps one dds executable.
type DDS struct {
	Exe string
}

// PkgCreate runs `dds pkg create` to archive a prepared project directory.
func (d *DDS) PkgCreate(project, output string, ifExists IfExists) error {
	return d.run("pkg", "create",
		"--project", project,
		"--output", output,
		"--if-exists", string(ifExists))
}

func (d *DDS) run(args ...string) error {
	msg.Debug("running dds as: %s %s", d.Exe, strings.Join(args, " "))

	cmd := exec.Command(d.Exe, args...)
	cmd.Stdout = &msg.IndentWriter{Indent: "    ", W: os.Stdout}
	cmd.Stderr = os.Stderr
	err := cmd.Run()
	if exitErr, ok := err.(*exec.ExitError); ok {
		return &exes.ExitError{Exe: d.Exe, Code: exitErr.ExitCode()}
	}
	return err
}
