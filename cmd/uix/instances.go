package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/homebridge/uix/internal/config"
	"github.com/spf13/cobra"
)

type instanceView struct {
	Name             string `json:"name" yaml:"name"`
	Path             string `json:"path" yaml:"path"`
	Insecure         bool   `json:"insecure" yaml:"insecure"`
	NoTimestamps     bool   `json:"noTimestamps" yaml:"noTimestamps"`
	CustomPluginPath string `json:"customPluginPath,omitempty" yaml:"customPluginPath,omitempty"`
	Active           bool   `json:"active" yaml:"active"`
}

func newInstancesCommand(loadEnv func() config.Environment) *cobra.Command {
	instancesCmd := &cobra.Command{
		Use:           "instances",
		Short:         "Multimode instance registry commands",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	listCmd := &cobra.Command{
		Use:           "list",
		Short:         "List registered instances",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return instancesList(cmd, loadEnv)
		},
	}

	instancesCmd.AddCommand(listCmd)
	return instancesCmd
}

func instancesList(cmd *cobra.Command, loadEnv func() config.Environment) error {
	out := newOutputFormatter(cmd)
	resolver, cfg, err := resolveInstance(cmd, loadEnv)
	if err != nil {
		return out.Error("Failed to resolve configuration", err)
	}
	descriptors, err := resolver.Instances()
	if err != nil {
		return out.Error("Failed to list instances", err)
	}

	views := make([]instanceView, 0, len(descriptors))
	for _, d := range descriptors {
		views = append(views, instanceView{
			Name:             d.Name,
			Path:             d.Path,
			Insecure:         d.Insecure,
			NoTimestamps:     d.NoTimestamps,
			CustomPluginPath: d.CustomPluginPath,
			Active:           d.Name == cfg.Instance,
		})
	}
	if out.structured() {
		return out.Print(map[string]any{"instances": views})
	}

	w := tabwriter.NewWriter(out.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tPATH\tINSECURE\t")
	for _, v := range views {
		name := v.Name
		if v.Active {
			name = "* " + name
		}
		fmt.Fprintf(w, "%s\t%s\t%t\t\n", name, v.Path, v.Insecure)
	}
	return w.Flush()
}
