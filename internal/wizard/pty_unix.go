//go:build !windows

package wizard

import (
	"errors"
	"io"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/creack/pty"
	"github.com/muesli/cancelreader"
	"golang.org/x/term"
)

var errNoPTY = errors.New("pty not available")

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// runPTY runs cmd under a pseudo-terminal so the wizard keeps its
// interactive UI while its output is copied to transcript
func runPTY(cmd *exec.Cmd, stdin io.Reader, stdout, transcript io.Writer) error {
	ptmx, err := pty.Start(cmd)
	if err != nil {
		if cmd.Process == nil {
			return errNoPTY
		}
		return err
	}
	defer ptmx.Close()

	winch := make(chan os.Signal, 1)
	signal.Notify(winch, syscall.SIGWINCH)
	defer func() {
		signal.Stop(winch)
		close(winch)
	}()
	go func() {
		for range winch {
			if f, ok := stdin.(*os.File); ok {
				pty.InheritSize(f, ptmx)
			}
		}
	}()
	winch <- syscall.SIGWINCH

	if f, ok := stdin.(*os.File); ok {
		if oldState, err := term.MakeRaw(int(f.Fd())); err == nil {
			defer term.Restore(int(f.Fd()), oldState)
		}
	}

	stopInput := copyInput(ptmx, stdin)
	defer stopInput()

	// EIO once the child closes its side of the pty
	io.Copy(io.MultiWriter(stdout, transcript), ptmx)

	return cmd.Wait()
}

// copyInput forwards src to dst in the background. The returned stop
// cancels the pending read and waits for the copier, so no keystroke typed
// after the wizard exits is swallowed. It reports false when src cannot be
// cancelled; the copier is then left running.
func copyInput(dst io.Writer, src io.Reader) (stop func() bool) {
	cr, err := cancelreader.NewReader(src)
	if err != nil {
		log.Printf("wizard: stdin not cancelable: %v", err)
		go io.Copy(dst, src)
		return func() bool { return false }
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		io.Copy(dst, cr)
	}()

	return func() bool {
		if !cr.Cancel() {
			return false
		}
		<-done
		cr.Close()
		return true
	}
}
