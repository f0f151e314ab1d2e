package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"lrcship/pkg/semver"
)

// prompter reads interactive answers line by line. All prompts of one
// command share a single buffered reader so a chained prompt never loses
// input the previous one buffered.
type prompter struct {
	in  *bufio.Reader
	out io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{in: bufio.NewReader(in), out: out}
}

// ChooseBumpKind shows the bump menu and reads until it gets a valid
// answer, by number or by name.
func (p *prompter) ChooseBumpKind(current semver.Version) (semver.BumpKind, error) {
	fmt.Fprintf(p.out, "Current version: %s\n", current)
	fmt.Fprintln(p.out, "\nSelect version bump type:")
	fmt.Fprintln(p.out, "  1. patch (bug fixes, small changes)")
	fmt.Fprintln(p.out, "  2. minor (new features, backward compatible)")
	fmt.Fprintln(p.out, "  3. major (breaking changes)")

	for {
		fmt.Fprint(p.out, "\nEnter choice [1/2/3] or [patch/minor/major]: ")
		answer, err := p.readLine()
		if err != nil {
			return "", err
		}
		switch answer {
		case "1", "patch":
			return semver.BumpPatch, nil
		case "2", "minor":
			return semver.BumpMinor, nil
		case "3", "major":
			return semver.BumpMajor, nil
		}
		fmt.Fprintln(p.out, "Invalid choice. Please enter 1, 2, 3, patch, minor, or major")
	}
}

// ConfirmBump asks for the final go-ahead. Anything but "y" declines.
func (p *prompter) ConfirmBump(current, next semver.Version) (bool, error) {
	fmt.Fprintf(p.out, "New version: %s\n", next)
	fmt.Fprintf(p.out, "\nBump %s → %s? [y/N]: ", current, next)
	answer, err := p.readLine()
	if err != nil {
		return false, err
	}
	return answer == "y", nil
}

// readLine returns the next line, trimmed and lowercased. A final line
// without a trailing newline still counts as an answer.
func (p *prompter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if errors.Is(err, io.EOF) && line != "" {
		err = nil
	}
	if err != nil {
		return "", fmt.Errorf("read answer: %w", err)
	}
	return strings.ToLower(strings.TrimSpace(line)), nil
}
