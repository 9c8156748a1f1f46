// Package generator wraps the external tool that produces magic links.
//
// The tool signs a ticket credential with the event's key file and prints
// the link query to stdout, e.g. "?ticket=MIGZMAoCAQYCAgTRA...". The
// cryptography lives entirely in the tool.
package generator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/deppfellow/attestation-plugin/internal/metrics"
	"github.com/deppfellow/attestation-plugin/internal/model"
	"github.com/google/shlex"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// ErrValue marks a link that could not be generated from the given input.
// Callers treat it as "nothing to persist".
var ErrValue = errors.New("attestation link could not be generated")

// maxStderr bounds the tool output kept for error messages.
const maxStderr = 4096

// Generator produces the magic link of a position.
type Generator interface {
	GenerateLink(ctx context.Context, position *model.OrderPosition, keyPath string) (string, error)
}

// Func adapts a function to Generator.
type Func func(ctx context.Context, position *model.OrderPosition, keyPath string) (string, error)

// GenerateLink calls f.
func (f Func) GenerateLink(ctx context.Context, position *model.OrderPosition, keyPath string) (string, error) {
	return f(ctx, position, keyPath)
}

// CommandGenerator runs a command line once per link.
//
// Arguments appended to the command: key path, attendee email, event
// slug, ticket id and ticket class (item id).
type CommandGenerator struct {
	argv    []string
	timeout time.Duration
	fs      afero.Fs
	logger  *zerolog.Logger
}

// NewCommandGenerator parses command with shell quoting rules.
func NewCommandGenerator(command string, timeout time.Duration, fs afero.Fs, logger *zerolog.Logger) (*CommandGenerator, error) {
	argv, err := parseCommand(command)
	if err != nil {
		return nil, err
	}
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &CommandGenerator{argv: argv, timeout: timeout, fs: fs, logger: logger}, nil
}

func parseCommand(command string) ([]string, error) {
	command = strings.TrimSpace(command)
	if command == "" {
		return nil, errors.New("generator command cannot be empty")
	}
	if strings.ContainsAny(command, "\r\n") {
		return nil, errors.New("generator command cannot contain newlines")
	}

	parts, err := shlex.Split(command)
	if err != nil {
		return nil, fmt.Errorf("failed to parse generator command: %w", err)
	}
	if len(parts) == 0 {
		return nil, errors.New("generator command cannot be empty after parsing")
	}
	if strings.HasPrefix(parts[0], "-") {
		return nil, errors.New("generator command name cannot start with dash")
	}
	return parts, nil
}

// Args returns the full argument vector for position.
func (g *CommandGenerator) Args(position *model.OrderPosition, keyPath string) []string {
	args := make([]string, 0, len(g.argv)+4)
	args = append(args, g.argv[1:]...)
	return append(args,
		keyPath,
		position.AttendeeEmail,
		position.EventSlug,
		position.TicketID(),
		strconv.FormatInt(position.ItemID, 10),
	)
}

// GenerateLink runs the command and returns its trimmed stdout.
func (g *CommandGenerator) GenerateLink(ctx context.Context, position *model.OrderPosition, keyPath string) (link string, err error) {
	start := time.Now()
	defer func() {
		outcome := metrics.OutcomeOK
		switch {
		case errors.Is(err, ErrValue):
			outcome = metrics.OutcomeGenerationFailed
		case err != nil:
			outcome = metrics.OutcomeError
		}
		metrics.GeneratorInvocationsTotal.WithLabelValues(outcome).Inc()
		metrics.GeneratorDuration.Observe(time.Since(start).Seconds())
	}()

	if position == nil {
		return "", fmt.Errorf("%w: no position", ErrValue)
	}
	if position.AttendeeEmail == "" {
		return "", fmt.Errorf("%w: position %d has no attendee email", ErrValue, position.ID)
	}
	if ok, statErr := afero.Exists(g.fs, keyPath); statErr != nil || !ok {
		return "", fmt.Errorf("%w: key file %q is not readable", ErrValue, keyPath)
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, g.argv[0], g.Args(position, keyPath)...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// Children of the tool may keep the pipes open after it is killed.
	cmd.WaitDelay = time.Second

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && ctx.Err() == nil {
			g.logger.Warn().
				Int64("position_id", position.ID).
				Int("exit_code", exitErr.ExitCode()).
				Str("stderr", truncate(stderr.String(), maxStderr)).
				Msg("attestation generator rejected input")
			return "", fmt.Errorf("%w: generator exited with status %d", ErrValue, exitErr.ExitCode())
		}
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("generator timed out after %s: %w", g.timeout, ctx.Err())
		}
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("generator command %q not found: %w", g.argv[0], err)
		}
		return "", fmt.Errorf("running generator: %w", err)
	}

	link = strings.TrimSpace(stdout.String())
	if link == "" {
		return "", fmt.Errorf("%w: generator printed no link", ErrValue)
	}
	if len(link) > model.MaxURLLength {
		return "", fmt.Errorf("%w: link exceeds %d characters", ErrValue, model.MaxURLLength)
	}
	return link, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
