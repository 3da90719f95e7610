package das

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"github.com/kballard/go-shellquote"
)

// CommandClient runs DAS queries with the "dasgoclient" command line tool.
type CommandClient struct {
	args []string
}

// NewCommandClient returns a client running "command", e.g.
// "dasgoclient" or "/cvmfs/cms.cern.ch/common/dasgoclient -timeout 60".
func NewCommandClient(command string) (*CommandClient, error) {
	args, err := shellquote.Split(command)
	if err != nil {
		return nil, fmt.Errorf("das: parsing command %q: %w", command, err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("das: empty command")
	}
	return &CommandClient{args: args}, nil
}

// Query runs the command with "-query <query> -json" appended.
func (c *CommandClient) Query(ctx context.Context, query string) (*Response, error) {
	args := append(append([]string{}, c.args[1:]...), "-query", query, "-json")

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.args[0], args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("das: %s: %w: %s", c.args[0], err, strings.TrimSpace(stderr.String()))
	}

	var records []Record
	if err := json.Unmarshal(stdout.Bytes(), &records); err != nil {
		return nil, fmt.Errorf("das: decoding %s output: %w", c.args[0], err)
	}
	return &Response{
		Status:   "ok",
		NResults: len(records),
		Data:     records,
	}, nil
}
