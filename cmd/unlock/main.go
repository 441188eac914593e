// Command unlock runs the password gate of a built page outside the browser
// and prints the revealed HTML.
//
//	unlock dist/letters/secret.html
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/goliatone/go-garden/internal/protect"
	"github.com/goliatone/go-garden/internal/ui"
)

var errPageRequired = errors.New("unlock: page path is required")

// passwordSource yields the password for one attempt.
type passwordSource func(prompt string) (string, error)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr, terminalPassword(os.Stdin, os.Stderr)))
}

func run(args []string, stdout, stderr io.Writer, password passwordSource) int {
	fs := flag.NewFlagSet("unlock", flag.ContinueOnError)
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, ui.ErrorStyle.Render(errPageRequired.Error()))
		fs.Usage()
		return 2
	}
	page := fs.Arg(0)

	data, err := os.ReadFile(page)
	if err != nil {
		fmt.Fprintln(stderr, ui.ErrorStyle.Render(fmt.Sprintf("unlock: read %s: %v", page, err)))
		return 1
	}
	gate, err := protect.ParseGate(data)
	if err != nil {
		fmt.Fprintln(stderr, ui.ErrorStyle.Render(fmt.Sprintf("unlock: %s: %v", page, err)))
		return 1
	}

	secret, err := password("Password: ")
	if err != nil {
		fmt.Fprintln(stderr, ui.ErrorStyle.Render(fmt.Sprintf("unlock: read password: %v", err)))
		return 1
	}

	if err := gate.Submit(secret); err != nil {
		view := gate.View()
		fmt.Fprintln(stderr, ui.ErrorStyle.Render("✗ incorrect password"))
		fmt.Fprintln(stderr, ui.DimStyle.Render(fmt.Sprintf("state=%s form=%t error=%t", gate.State(), view.FormVisible, view.ErrorVisible)))
		return 1
	}

	fmt.Fprintln(stderr, ui.SuccessStyle.Render(fmt.Sprintf("✓ unlocked %s (%s)", page, gate.Format())))
	fmt.Fprintln(stdout, gate.View().Content)
	return 0
}

// terminalPassword prompts without echo on a terminal and falls back to
// reading one line when stdin is piped.
func terminalPassword(in *os.File, prompt io.Writer) passwordSource {
	return func(label string) (string, error) {
		fd := int(in.Fd())
		if term.IsTerminal(fd) {
			fmt.Fprint(prompt, label)
			secret, err := term.ReadPassword(fd)
			fmt.Fprintln(prompt)
			if err != nil {
				return "", err
			}
			return string(secret), nil
		}
		return readLine(in)
	}
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" && errors.Is(err, io.EOF) {
		return "", io.ErrUnexpectedEOF
	}
	return line, nil
}
