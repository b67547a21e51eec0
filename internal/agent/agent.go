package agent

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// Request is one agent query
type Request struct {
	SystemPrompt string
	Prompt       string
	Model        string
	MaxTurns     int
	AllowedTools []string
	Dir          string // working directory the agent may read
}

// Handler receives every decoded message. Returning an error stops the stream.
type Handler func(*Message) error

// Querier runs an agent query and streams its messages to fn
type Querier interface {
	Query(ctx context.Context, req Request, fn Handler) error
}

// ClaudeCLI runs queries through the claude binary
type ClaudeCLI struct {
	Binary string   // defaults to "claude"
	Env    []string // extra environment, e.g. ANTHROPIC_API_KEY
}

// Args builds the claude argv for req
func (c *ClaudeCLI) Args(req Request) []string {
	args := []string{
		"--print",
		"--verbose",
		"--output-format", "stream-json",
		"--permission-mode", "bypassPermissions",
	}
	if req.Model != "" {
		args = append(args, "--model", req.Model)
	}
	if req.MaxTurns > 0 {
		args = append(args, "--max-turns", strconv.Itoa(req.MaxTurns))
	}
	if len(req.AllowedTools) > 0 {
		args = append(args, "--allowedTools", strings.Join(req.AllowedTools, ","))
	}
	if req.SystemPrompt != "" {
		args = append(args, "--system-prompt", req.SystemPrompt)
	}
	// the prompt goes over stdin; diffs easily exceed argv limits
	return args
}

// Query implements Querier
func (c *ClaudeCLI) Query(ctx context.Context, req Request, fn Handler) error {
	binary := c.Binary
	if binary == "" {
		binary = "claude"
	}

	cmd := exec.CommandContext(ctx, binary, c.Args(req)...)
	cmd.Dir = req.Dir
	cmd.Env = append(os.Environ(), c.Env...)
	cmd.Stdin = strings.NewReader(req.Prompt)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("claude stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting claude: %w", err)
	}

	decodeErr := Decode(stdout, fn)
	if decodeErr != nil {
		// drain so the process can exit
		io.Copy(io.Discard, stdout)
	}
	waitErr := cmd.Wait()

	if decodeErr != nil {
		return decodeErr
	}
	if waitErr != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("claude: %s: %w", strings.TrimSpace(stderr.String()), waitErr)
	}
	return nil
}

// Decode reads stream-json lines from r and passes each message to fn.
// Lines that are not JSON are logged and skipped.
func Decode(r io.Reader, fn Handler) error {
	scanner := bufio.NewScanner(r)
	// Increase buffer size for long JSON lines
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		msg, err := parseMessage(line)
		if err != nil {
			log.Printf("agent: skipping non-JSON line: %.80s", line)
			continue
		}
		if err := fn(msg); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// Collect runs a query and returns the successful result message.
// Assistant messages are forwarded to onAssistant when it is not nil.
func Collect(ctx context.Context, q Querier, req Request, onAssistant func(*Message)) (*Message, error) {
	var result *Message
	err := q.Query(ctx, req, func(msg *Message) error {
		switch msg.Type {
		case TypeAssistant:
			if onAssistant != nil {
				onAssistant(msg)
			}
		case TypeResult:
			if !msg.Success() {
				subtype := msg.Subtype
				if subtype == "" || (subtype == SubtypeSuccess && msg.IsError) {
					subtype = "error"
				}
				return &ResultError{Subtype: subtype, Detail: msg.Result}
			}
			result = msg
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if result == nil || result.Result == "" {
		return nil, ErrNoResult
	}
	return result, nil
}
