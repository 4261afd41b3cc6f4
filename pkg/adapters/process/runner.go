// Package process runs allow-listed external commands as document rewriters.
//
// The command receives the document as JSON on stdin and the instruction in
// the VITAE_INSTRUCTION environment variable. It must print the rewritten
// document (JSON or YAML) on stdout. Nothing from the request is ever passed
// as a command-line argument.
package process

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"sort"
	"strings"

	"github.com/aretw0/vitae/pkg/domain"
	"github.com/aretw0/vitae/pkg/ports"
	"gopkg.in/yaml.v3"
)

// EnvInstruction carries the rewrite instruction to the child process.
const EnvInstruction = "VITAE_INSTRUCTION"

// ErrRewriterNotRegistered is returned for names missing from the allow-list.
var ErrRewriterNotRegistered = errors.New("rewriter not registered")

// Runner holds the allow-list of rewriter commands.
type Runner struct {
	registry map[string]RewriterConfig
	baseDir  string
}

// RunnerOption configures the runner.
type RunnerOption func(*Runner)

// WithRegistry populates the allow-list from a loaded config.
func WithRegistry(rewriters map[string]RewriterConfig) RunnerOption {
	return func(r *Runner) {
		for name, rw := range rewriters {
			rw.Name = name
			r.registry[name] = rw
		}
	}
}

// WithBaseDir sets the working directory for executed processes.
func WithBaseDir(dir string) RunnerOption {
	return func(r *Runner) {
		r.baseDir = dir
	}
}

// NewRunner creates a new Process Runner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		registry: make(map[string]RewriterConfig),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a trusted command to the allow-list.
func (r *Runner) Register(name string, command string, args ...string) {
	r.registry[name] = RewriterConfig{
		Name:    name,
		Command: command,
		Args:    args,
	}
}

// Names lists the registered rewriters.
func (r *Runner) Names() []string {
	names := make([]string, 0, len(r.registry))
	for name := range r.registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Rewriter returns the named command as a ports.Rewriter.
func (r *Runner) Rewriter(name string) (ports.Rewriter, error) {
	rw, ok := r.registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRewriterNotRegistered, name)
	}
	return ports.RewriterFunc(func(ctx context.Context, doc *domain.Document, instruction string) (*domain.Document, error) {
		return r.run(ctx, rw, doc, instruction)
	}), nil
}

func (r *Runner) run(ctx context.Context, rw RewriterConfig, doc *domain.Document, instruction string) (*domain.Document, error) {
	input, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}

	cmd := exec.CommandContext(ctx, rw.Command, rw.Args...)
	cmd.Dir = r.baseDir

	env := []string{EnvInstruction + "=" + instruction}
	for k, v := range rw.Environment {
		env = append(env, fmt.Sprintf("%s=%s", k, v))
	}
	cmd.Env = append(cmd.Environ(), env...)

	var stdout, stderr bytes.Buffer
	cmd.Stdin = bytes.NewReader(input)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("rewriter %s: %w", rw.Name, ctxErr)
		}
		return nil, fmt.Errorf("rewriter %s failed: %v. Stderr: %s", rw.Name, err, strings.TrimSpace(stderr.String()))
	}

	output := bytes.TrimSpace(stdout.Bytes())
	if len(output) == 0 {
		return nil, fmt.Errorf("%w: rewriter %s produced no output", domain.ErrInvalidValue, rw.Name)
	}

	var raw any
	if err := yaml.Unmarshal(output, &raw); err != nil {
		return nil, fmt.Errorf("%w: rewriter %s output: %v", domain.ErrInvalidValue, rw.Name, err)
	}
	rewritten, err := domain.DecodeDocument(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: rewriter %s output: %v", domain.ErrInvalidValue, rw.Name, err)
	}
	return rewritten, nil
}
