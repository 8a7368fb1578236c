package docker

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/aretw0/dockwise/internal/logging"
	"github.com/aretw0/dockwise/pkg/domain"
)

// DefaultBinary is the container CLI invoked by default.
const DefaultBinary = "docker"

// Image is one row of the local image list.
type Image struct {
	ID           string `json:"ID"`
	Repository   string `json:"Repository"`
	Tag          string `json:"Tag"`
	Size         string `json:"Size"`
	CreatedSince string `json:"CreatedSince"`
}

// Ref returns repository:tag.
func (i Image) Ref() string {
	if i.Tag == "" || i.Tag == "<none>" {
		return i.Repository
	}
	return i.Repository + ":" + i.Tag
}

// CommandError reports a failed docker invocation with its stderr.
type CommandError struct {
	Args   []string
	Stderr string
	Err    error
}

func (e *CommandError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		msg = e.Err.Error()
	}
	return fmt.Sprintf("docker %s: %s", strings.Join(e.Args, " "), msg)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// Client wraps the docker CLI.
type Client struct {
	binary string
	exec   Executor
	logger *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBinary sets the CLI binary (for example "podman").
func WithBinary(binary string) Option {
	return func(c *Client) {
		c.binary = binary
	}
}

// WithExecutor replaces the process executor.
func WithExecutor(e Executor) Option {
	return func(c *Client) {
		c.exec = e
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a docker CLI client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		binary: DefaultBinary,
		exec:   ProcessExecutor{},
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) run(ctx context.Context, args ...string) ([]byte, error) {
	c.logger.Debug("docker exec", "binary", c.binary, "args", args)
	stdout, stderr, err := c.exec.Exec(ctx, c.binary, args...)
	if err != nil {
		return nil, &CommandError{Args: args, Stderr: string(stderr), Err: err}
	}
	return stdout, nil
}

// Images lists local images.
func (c *Client) Images(ctx context.Context) ([]Image, error) {
	out, err := c.run(ctx, "images", "--format", "{{json .}}")
	if err != nil {
		return nil, err
	}

	var images []Image
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var img Image
		if err := json.Unmarshal(line, &img); err != nil {
			return nil, fmt.Errorf("failed to parse image list: %w", err)
		}
		images = append(images, img)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read image list: %w", err)
	}
	return images, nil
}

// HasImage reports whether ref is present locally.
func (c *Client) HasImage(ctx context.Context, ref string) (bool, error) {
	_, err := c.run(ctx, "image", "inspect", "--format", "{{.Id}}", ref)
	if err == nil {
		return true, nil
	}
	var ce *CommandError
	if errors.As(err, &ce) && strings.Contains(strings.ToLower(ce.Stderr), "no such image") {
		return false, nil
	}
	return false, err
}

// Pull downloads ref.
func (c *Client) Pull(ctx context.Context, ref string) error {
	_, err := c.run(ctx, "pull", ref)
	return err
}

// RunArgs builds the argument list for starting a container.
func RunArgs(s domain.RunSettings) []string {
	args := []string{"run"}
	if s.Detach {
		args = append(args, "-d")
	}
	if s.Name != "" {
		args = append(args, "--name", s.Name)
	}
	for _, p := range s.Ports {
		args = append(args, "-p", p)
	}
	keys := make([]string, 0, len(s.Env))
	for k := range s.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		args = append(args, "-e", k+"="+s.Env[k])
	}
	return append(args, s.Image)
}

// Run starts a container and returns the CLI output, which is the container
// id for detached runs.
func (c *Client) Run(ctx context.Context, s domain.RunSettings) (string, error) {
	if s.Image == "" {
		return "", fmt.Errorf("image cannot be empty")
	}
	out, err := c.run(ctx, RunArgs(s)...)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// Remove deletes local images.
func (c *Client) Remove(ctx context.Context, refs ...string) error {
	if len(refs) == 0 {
		return nil
	}
	_, err := c.run(ctx, append([]string{"rmi"}, refs...)...)
	return err
}

// Version returns the server version reported by the CLI.
func (c *Client) Version(ctx context.Context) (string, error) {
	out, err := c.run(ctx, "version", "--format", "{{.Server.Version}}")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
