// Package svn implements core.RepositoryClient over the svn command-line
// client. Queries shell out to `svn info --xml` and `svn log --xml` and
// parse the XML output; no working copy is required.
package svn

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"sort"
	"strings"

	"github.com/goliatone/go-commit-relay/core"
)

// Runner executes one svn invocation and returns its stdout. Injectable so
// tests exercise the client against canned XML.
type Runner interface {
	Run(ctx context.Context, args ...string) ([]byte, error)
}

type execRunner struct {
	binary string
}

func (r execRunner) Run(ctx context.Context, args ...string) ([]byte, error) {
	binary := r.binary
	if binary == "" {
		binary = "svn"
	}
	cmd := exec.CommandContext(ctx, binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			return nil, fmt.Errorf("svn: %s: %w", strings.Join(args, " "), err)
		}
		return nil, fmt.Errorf("svn: %s: %s: %w", strings.Join(args, " "), detail, err)
	}
	return stdout.Bytes(), nil
}

type Client struct {
	URL      string
	Username string
	Password string
	Runner   Runner
}

func NewClient(url string, username string, password string) *Client {
	return &Client{
		URL:      strings.TrimSpace(url),
		Username: strings.TrimSpace(username),
		Password: password,
		Runner:   execRunner{},
	}
}

func (c *Client) Head(ctx context.Context) (int64, error) {
	out, err := c.run(ctx, "info", "--xml")
	if err != nil {
		return 0, core.NewContactError(err, "svn: query repository head")
	}
	head, err := parseHeadRevision(out)
	if err != nil {
		return 0, core.NewContactError(err, "svn: parse repository info")
	}
	return head, nil
}

func (c *Client) Log(ctx context.Context, delta core.Delta) ([]core.CommitRecord, error) {
	if err := delta.Validate(); err != nil {
		return nil, err
	}
	out, err := c.run(ctx,
		"log", "--xml", "--verbose",
		"-r", fmt.Sprintf("%d:%d", delta.From, delta.To),
	)
	if err != nil {
		return nil, core.NewContactError(err, fmt.Sprintf("svn: fetch log %s", delta))
	}
	records, err := parseLog(out)
	if err != nil {
		return nil, core.NewContactError(err, "svn: parse log output")
	}
	// svn returns the range in the requested direction, but delivery order
	// is an invariant here, so enforce oldest-first regardless.
	sort.Slice(records, func(i, j int) bool {
		return records[i].Revision < records[j].Revision
	})
	return records, nil
}

// Ping verifies the repository is reachable and authenticated. Used once at
// startup; failure is fatal to the process.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.Head(ctx); err != nil {
		return core.NewConnectError(err, core.RelayErrorRepositoryConnect, "svn: repository unreachable")
	}
	return nil
}

func (c *Client) run(ctx context.Context, args ...string) ([]byte, error) {
	if c == nil {
		return nil, fmt.Errorf("svn: client is nil")
	}
	if strings.TrimSpace(c.URL) == "" {
		return nil, fmt.Errorf("svn: repository url is required")
	}
	runner := c.Runner
	if runner == nil {
		runner = execRunner{}
	}
	// Global options go between the subcommand and the positional URL.
	full := append([]string{}, args...)
	full = append(full, "--non-interactive")
	if c.Username != "" {
		full = append(full, "--username", c.Username)
	}
	if c.Password != "" {
		full = append(full, "--password", c.Password)
	}
	full = append(full, c.URL)
	return runner.Run(ctx, full...)
}

var (
	_ core.RepositoryClient = (*Client)(nil)
	_ core.RepositoryPinger = (*Client)(nil)
)
