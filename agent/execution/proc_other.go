//go:build !unix

package execution

import (
	"os"
	"os/exec"
)

func configureProcessGroup(*exec.Cmd) {}

func processExitCode(state *os.ProcessState) int {
	return state.ExitCode()
}
