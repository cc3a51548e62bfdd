package main

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

// newLogger builds the stderr logger from the persistent --verbose and --quiet flags.
func newLogger(cmd *cobra.Command, w io.Writer) (*log.Logger, error) {
	flags := cmd.Root().PersistentFlags()
	verbose, err := flags.GetBool("verbose")
	if err != nil {
		return nil, err
	}
	quiet, err := flags.GetBool("quiet")
	if err != nil {
		return nil, err
	}
	return buildLogger(w, verbose, quiet), nil
}

func buildLogger(w io.Writer, verbose, quiet bool) *log.Logger {
	level := log.WarnLevel
	switch {
	case quiet:
		level = log.ErrorLevel
	case verbose:
		level = log.DebugLevel
	}
	return log.NewWithOptions(w, log.Options{
		Prefix: "rsbundle",
		Level:  level,
	})
}
