package commands

import (
	"bytes"
	"io"
	"os"
	"regexp"

	"github.com/pterm/pterm"
)

var ansi = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// captureStdout runs f with stdout and pterm's table writer redirected to a
// pipe and returns what was written, without colours.
func captureStdout(f func()) string {
	r, w, err := os.Pipe()
	if err != nil {
		panic(err)
	}

	stdout, color, table := os.Stdout, pterm.PrintColor, pterm.DefaultTable.Writer
	os.Stdout, pterm.PrintColor, pterm.DefaultTable.Writer = w, false, w
	defer func() {
		os.Stdout, pterm.PrintColor, pterm.DefaultTable.Writer = stdout, color, table
	}()

	done := make(chan string)
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, r)
		done <- ansi.ReplaceAllString(buf.String(), "")
	}()

	f()
	w.Close()
	return <-done
}
