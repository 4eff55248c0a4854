// Package review presents the ranked match list for user approval.
package review

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"proptag/internal/match"
)

// Prompt asks the user which matched records to apply.
type Prompt struct {
	in        *bufio.Reader
	out       io.Writer
	acceptAll bool
}

// New creates an interactive prompt.
func New(in io.Reader, out io.Writer) *Prompt {
	return &Prompt{in: bufio.NewReader(in), out: out}
}

// AcceptAll makes Approve return every claim without prompting.
func (p *Prompt) AcceptAll() *Prompt {
	p.acceptAll = true
	return p
}

// Approve renders the claims and returns the approved subset. Claims must
// already be ranked; indices shown to the user refer to that order.
func (p *Prompt) Approve(claims []match.Claim) ([]match.Claim, error) {
	if len(claims) == 0 {
		return nil, nil
	}

	fmt.Fprintln(p.out, renderClaims(claims))

	if p.acceptAll {
		return claims, nil
	}

	fmt.Fprintf(p.out, "Apply to which records? [all / none / e.g. 1,3-5] (all): ")
	line, err := p.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("read selection: %w", err)
	}

	indices, err := parseSelection(strings.TrimSpace(line), len(claims))
	if err != nil {
		return nil, err
	}

	approved := make([]match.Claim, 0, len(indices))
	for _, i := range indices {
		approved = append(approved, claims[i])
	}
	return approved, nil
}

func renderClaims(claims []match.Claim) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"#", "Record", "Released", "Matched Entry", "Via"})
	for i, cl := range claims {
		released := ""
		if cl.Record.ReleaseDate != nil {
			released = cl.Record.ReleaseDate.Format("2006-01-02")
		}
		entry := ""
		if len(cl.Candidate.Names) > 0 {
			entry = cl.Candidate.Names[0]
		}
		tw.AppendRow(table.Row{i + 1, cl.Record.DisplayName(), released, entry, cl.Via})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
	})
	return tw.Render()
}

// parseSelection turns user input into zero-based claim indices. Empty input
// and "all" select everything; "none" selects nothing; otherwise a comma
// list of one-based indices and ranges ("1,3-5").
func parseSelection(input string, n int) ([]int, error) {
	switch strings.ToLower(input) {
	case "", "all", "a", "yes", "y":
		indices := make([]int, n)
		for i := range indices {
			indices[i] = i
		}
		return indices, nil
	case "none", "n", "no":
		return nil, nil
	}

	seen := make(map[int]struct{})
	var indices []int
	add := func(i int) error {
		if i < 1 || i > n {
			return fmt.Errorf("selection %d out of range 1-%d", i, n)
		}
		if _, ok := seen[i]; !ok {
			seen[i] = struct{}{}
			indices = append(indices, i-1)
		}
		return nil
	}

	for _, part := range strings.Split(input, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if lo, hi, ok := strings.Cut(part, "-"); ok {
			start, err := strconv.Atoi(strings.TrimSpace(lo))
			if err != nil {
				return nil, fmt.Errorf("invalid selection %q", part)
			}
			end, err := strconv.Atoi(strings.TrimSpace(hi))
			if err != nil {
				return nil, fmt.Errorf("invalid selection %q", part)
			}
			if end < start {
				return nil, fmt.Errorf("invalid range %q", part)
			}
			for i := start; i <= end; i++ {
				if err := add(i); err != nil {
					return nil, err
				}
			}
			continue
		}
		i, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid selection %q", part)
		}
		if err := add(i); err != nil {
			return nil, err
		}
	}
	return indices, nil
}
