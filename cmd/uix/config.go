package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/homebridge/uix/internal/config"
	"github.com/spf13/cobra"
)

type pathsView struct {
	Instance            string `json:"instance,omitempty" yaml:"instance,omitempty"`
	StoragePath         string `json:"storagePath" yaml:"storagePath"`
	ConfigPath          string `json:"configPath" yaml:"configPath"`
	SecretPath          string `json:"secretPath" yaml:"secretPath"`
	AuthPath            string `json:"authPath" yaml:"authPath"`
	CustomPluginPath    string `json:"customPluginPath,omitempty" yaml:"customPluginPath,omitempty"`
	AccessoryLayoutPath string `json:"accessoryLayoutPath" yaml:"accessoryLayoutPath"`
	StartupScript       string `json:"startupScript" yaml:"startupScript"`
	DockerEnvFile       string `json:"dockerEnvFile,omitempty" yaml:"dockerEnvFile,omitempty"`
}

func newConfigCommand(loadEnv func() config.Environment) *cobra.Command {
	configCmd := &cobra.Command{
		Use:           "config",
		Short:         "Show the resolved instance configuration",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pathsCmd := &cobra.Command{
		Use:           "paths",
		Short:         "Show the filesystem locations of the instance",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return configPaths(cmd, loadEnv)
		},
	}

	settingsCmd := &cobra.Command{
		Use:           "settings",
		Short:         "Show the settings payload served to the UI",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return configSettings(cmd, loadEnv)
		},
	}

	instanceIDCmd := &cobra.Command{
		Use:           "instance-id",
		Short:         "Show the stable instance identity",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return configInstanceID(cmd, loadEnv)
		},
	}

	configCmd.AddCommand(pathsCmd, settingsCmd, instanceIDCmd)
	return configCmd
}

func configPaths(cmd *cobra.Command, loadEnv func() config.Environment) error {
	out := newOutputFormatter(cmd)
	_, cfg, err := resolveInstance(cmd, loadEnv)
	if err != nil {
		return out.Error("Failed to resolve configuration", err)
	}

	view := pathsView{
		Instance:            cfg.Instance,
		StoragePath:         cfg.StoragePath,
		ConfigPath:          cfg.ConfigPath,
		SecretPath:          cfg.SecretPath,
		AuthPath:            cfg.AuthPath,
		CustomPluginPath:    cfg.CustomPluginPath,
		AccessoryLayoutPath: cfg.AccessoryLayoutPath,
		StartupScript:       cfg.StartupScript,
	}
	if cfg.RunningInDocker {
		view.DockerEnvFile = cfg.DockerEnvFile
	}
	if out.structured() {
		return out.Print(view)
	}

	w := tabwriter.NewWriter(out.out, 0, 0, 2, ' ', 0)
	if view.Instance != "" {
		fmt.Fprintf(w, "Instance:\t%s\n", view.Instance)
	}
	fmt.Fprintf(w, "Storage:\t%s\n", view.StoragePath)
	fmt.Fprintf(w, "Config:\t%s\n", view.ConfigPath)
	fmt.Fprintf(w, "Secrets:\t%s\n", view.SecretPath)
	fmt.Fprintf(w, "Auth:\t%s\n", view.AuthPath)
	if view.CustomPluginPath != "" {
		fmt.Fprintf(w, "Plugins:\t%s\n", view.CustomPluginPath)
	}
	fmt.Fprintf(w, "Accessory layout:\t%s\n", view.AccessoryLayoutPath)
	fmt.Fprintf(w, "Startup script:\t%s\n", view.StartupScript)
	if view.DockerEnvFile != "" {
		fmt.Fprintf(w, "Docker env:\t%s\n", view.DockerEnvFile)
	}
	return w.Flush()
}

func configSettings(cmd *cobra.Command, loadEnv func() config.Environment) error {
	out := newOutputFormatter(cmd)
	_, cfg, err := resolveInstance(cmd, loadEnv)
	if err != nil {
		return out.Error("Failed to resolve configuration", err)
	}
	return out.Print(cfg.Settings(time.Now()))
}

func configInstanceID(cmd *cobra.Command, loadEnv func() config.Environment) error {
	out := newOutputFormatter(cmd)
	_, cfg, err := resolveInstance(cmd, loadEnv)
	if err != nil {
		return out.Error("Failed to resolve configuration", err)
	}
	if out.structured() {
		return out.Print(map[string]string{"instanceId": cfg.InstanceID})
	}
	return out.Print(cfg.InstanceID)
}
