package search

import (
	"bytes"
	"context"
	"os/exec"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/docstash/internal/model"
)

// Ripgrep runs the rg CLI against the stash directory and parses its
// line-addressed output.
type Ripgrep struct {
	binPath string
}

// NewRipgrep creates a Ripgrep runner. If binPath is empty, "rg" is used.
func NewRipgrep(binPath string) *Ripgrep {
	if binPath == "" {
		binPath = "rg"
	}
	return &Ripgrep{binPath: binPath}
}

// Search runs a case-insensitive fixed-string search under dir and returns
// hits grouped by file path. A pattern with no matches is not an error.
func (r *Ripgrep) Search(ctx context.Context, pattern, dir string) (map[string][]model.LineMatch, error) {
	cmd := exec.CommandContext(ctx, r.binPath,
		"--fixed-strings", "--ignore-case", "--line-number", "--no-heading", "--with-filename",
		pattern, dir,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		// Exit code 1 means no matches.
		if exitErr, ok := err.(*exec.ExitError); ok && exitErr.ExitCode() == 1 {
			return map[string][]model.LineMatch{}, nil
		}
		return nil, eris.Wrapf(err, "search: rg failed: %s", stderr.String())
	}

	return parseRipgrepOutput(stdout.String()), nil
}

// parseRipgrepOutput parses --no-heading output: path:line:text per line.
func parseRipgrepOutput(out string) map[string][]model.LineMatch {
	hits := make(map[string][]model.LineMatch)
	for _, line := range strings.Split(out, "\n") {
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, ":", 3)
		if len(parts) != 3 {
			continue
		}
		lineNo, err := strconv.Atoi(parts[1])
		if err != nil {
			continue
		}
		hits[parts[0]] = append(hits[parts[0]], model.LineMatch{
			Line: lineNo,
			Text: strings.TrimSpace(parts[2]),
		})
	}
	return hits
}
