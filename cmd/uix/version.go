package main

import (
	"fmt"

	uixversion "github.com/homebridge/uix/internal/version"
	"github.com/spf13/cobra"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the CLI version",
		RunE:  runVersion,
	}
}

func runVersion(cmd *cobra.Command, _ []string) error {
	out := newOutputFormatter(cmd)
	v := uixversion.String()
	if out.structured() {
		return out.Print(map[string]any{"version": v})
	}
	fmt.Fprintln(out.out, uixversion.FormatVersion(v))
	return nil
}
