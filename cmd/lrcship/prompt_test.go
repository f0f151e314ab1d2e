package main

import (
	"bytes"
	"strings"
	"testing"

	"lrcship/pkg/semver"
)

func TestPrompterChooseBumpKind(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    semver.BumpKind
		retries int
	}{
		{name: "numeric patch", input: "1\n", want: semver.BumpPatch},
		{name: "numeric minor", input: "2\n", want: semver.BumpMinor},
		{name: "numeric major", input: "3\n", want: semver.BumpMajor},
		{name: "named patch", input: "patch\n", want: semver.BumpPatch},
		{name: "case and whitespace", input: "  MINOR  \n", want: semver.BumpMinor},
		{name: "retries until valid", input: "0\nmajorr\n3\n", want: semver.BumpMajor, retries: 2},
		{name: "final line without newline", input: "major", want: semver.BumpMajor},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			p := newPrompter(strings.NewReader(tt.input), &out)

			kind, err := p.ChooseBumpKind(semver.MustParse("v1.4.2"))
			if err != nil {
				t.Fatalf("ChooseBumpKind() error = %v", err)
			}
			if kind != tt.want {
				t.Fatalf("ChooseBumpKind() = %q, want %q", kind, tt.want)
			}
			if got := strings.Count(out.String(), "Invalid choice"); got != tt.retries {
				t.Fatalf("invalid-choice messages = %d, want %d", got, tt.retries)
			}
			if !strings.Contains(out.String(), "Current version: v1.4.2") {
				t.Fatalf("menu missing current version:\n%s", out.String())
			}
		})
	}
}

func TestPrompterChooseBumpKindEOF(t *testing.T) {
	p := newPrompter(strings.NewReader(""), new(bytes.Buffer))
	if _, err := p.ChooseBumpKind(semver.MustParse("v1.0.0")); err == nil {
		t.Fatal("ChooseBumpKind() on closed input: want error")
	}
}

func TestPrompterConfirmBump(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{name: "yes", input: "y\n", want: true},
		{name: "uppercase yes", input: "Y\n", want: true},
		{name: "no", input: "n\n", want: false},
		{name: "empty defaults to no", input: "\n", want: false},
		{name: "spelled-out yes declines", input: "yes\n", want: false},
		{name: "yes without newline", input: "y", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			p := newPrompter(strings.NewReader(tt.input), &out)

			ok, err := p.ConfirmBump(semver.MustParse("v1.4.2"), semver.MustParse("v1.5.0"))
			if err != nil {
				t.Fatalf("ConfirmBump() error = %v", err)
			}
			if ok != tt.want {
				t.Fatalf("ConfirmBump() = %v, want %v", ok, tt.want)
			}
			if !strings.Contains(out.String(), "Bump v1.4.2 → v1.5.0? [y/N]: ") {
				t.Fatalf("prompt missing:\n%s", out.String())
			}
		})
	}
}

// The bump command chains both prompts over one reader; buffered input
// from the first read must stay available to the second.
func TestPrompterChainedAnswers(t *testing.T) {
	var out bytes.Buffer
	p := newPrompter(strings.NewReader("2\ny\n"), &out)

	kind, err := p.ChooseBumpKind(semver.MustParse("v1.4.2"))
	if err != nil {
		t.Fatalf("ChooseBumpKind() error = %v", err)
	}
	if kind != semver.BumpMinor {
		t.Fatalf("ChooseBumpKind() = %q, want minor", kind)
	}

	ok, err := p.ConfirmBump(semver.MustParse("v1.4.2"), semver.MustParse("v1.5.0"))
	if err != nil {
		t.Fatalf("ConfirmBump() error = %v", err)
	}
	if !ok {
		t.Fatal("ConfirmBump() = false, want true")
	}
}
