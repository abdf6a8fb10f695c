package main

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// Version will be set at build time via -ldflags
var Version = "v0.1.0"

func main() {
	cmd := newRootCommand(&RootOptions{})
	if err := cmd.Execute(); err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

// shownError is an error the progress display already rendered.
type shownError struct {
	err error
}

func (e *shownError) Error() string { return e.err.Error() }

func (e *shownError) Unwrap() error { return e.err }

// printError writes err unless the progress display already showed it.
func printError(w io.Writer, err error) {
	var shown *shownError
	if errors.As(err, &shown) {
		return
	}
	fmt.Fprintf(w, "Error: %v\n", err)
}
