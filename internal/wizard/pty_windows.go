//go:build windows

package wizard

import (
	"errors"
	"io"
	"os/exec"
)

var errNoPTY = errors.New("pty not available")

func isTerminal(r io.Reader) bool { return false }

func runPTY(cmd *exec.Cmd, stdin io.Reader, stdout, transcript io.Writer) error {
	return errNoPTY
}
