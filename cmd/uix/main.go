package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/ssh/terminal"
	"gopkg.in/yaml.v3"

	"github.com/homebridge/uix/internal/config"
	uixversion "github.com/homebridge/uix/internal/version"
)

type outputMode int

const (
	modeText outputMode = iota
	modeJSON
	modeYAML
)

// OutputFormatter handles output formatting for the CLI. Human-readable text
// is only used on a terminal; piped output defaults to JSON.
type OutputFormatter struct {
	mode   outputMode
	out    io.Writer
	errOut io.Writer
}

// reportedError has already been written to stderr by OutputFormatter.Error.
type reportedError struct {
	err error
}

func (e reportedError) Error() string { return e.err.Error() }
func (e reportedError) Unwrap() error { return e.err }

// newOutputFormatter creates a formatter from the command's --json and --yaml flags
func newOutputFormatter(cmd *cobra.Command) *OutputFormatter {
	f := &OutputFormatter{out: cmd.OutOrStdout(), errOut: cmd.ErrOrStderr()}
	jsonMode, _ := cmd.Flags().GetBool("json")
	yamlMode, _ := cmd.Flags().GetBool("yaml")
	switch {
	case yamlMode:
		f.mode = modeYAML
	case jsonMode || !isTerminal(f.out):
		f.mode = modeJSON
	}
	return f
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	return ok && terminal.IsTerminal(int(file.Fd()))
}

// structured reports whether output is machine-readable.
func (f *OutputFormatter) structured() bool {
	return f.mode != modeText
}

// Print outputs data in the appropriate format
func (f *OutputFormatter) Print(data interface{}) error {
	switch f.mode {
	case modeYAML:
		enc := yaml.NewEncoder(f.out)
		enc.SetIndent(2)
		if err := enc.Encode(data); err != nil {
			return fmt.Errorf("failed to marshal YAML: %w", err)
		}
		return enc.Close()
	case modeJSON:
		jsonBytes, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Fprintln(f.out, string(jsonBytes))
	default:
		switch v := data.(type) {
		case string:
			fmt.Fprintln(f.out, v)
		default:
			// Nested payloads read best as YAML.
			return (&OutputFormatter{mode: modeYAML, out: f.out}).Print(data)
		}
	}
	return nil
}

// Success outputs a success message
func (f *OutputFormatter) Success(message string, data map[string]interface{}) error {
	if f.structured() {
		output := map[string]interface{}{
			"success": true,
			"message": message,
		}
		for k, v := range data {
			output[k] = v
		}
		return f.Print(output)
	}
	fmt.Fprintln(f.out, message)
	return nil
}

// Error outputs an error message and returns it wrapped for the caller.
func (f *OutputFormatter) Error(message string, err error) error {
	if f.structured() {
		output := map[string]interface{}{
			"error": message,
		}
		if err != nil {
			output["details"] = err.Error()
		}
		jsonBytes, _ := json.MarshalIndent(output, "", "  ")
		fmt.Fprintln(f.errOut, string(jsonBytes))
	} else if err != nil {
		fmt.Fprintf(f.errOut, "%s: %v\n", message, err)
	} else {
		fmt.Fprintln(f.errOut, message)
	}

	if err == nil {
		return reportedError{err: errors.New(message)}
	}
	return reportedError{err: fmt.Errorf("%s: %w", message, err)}
}

func newRootCommand(loadEnv func() config.Environment) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "uix",
		Short:         "Inspect homebridge-config-ui-x instances and run offline updates",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.Version = uixversion.String()
	rootCmd.SetVersionTemplate("{{printf \"%s\\n\" .Version}}")

	rootCmd.PersistentFlags().Bool("json", false, "Output in JSON format")
	rootCmd.PersistentFlags().Bool("yaml", false, "Output in YAML format")
	rootCmd.PersistentFlags().StringP("instance", "i", "", "Multimode instance name (defaults to the first registered)")

	rootCmd.AddCommand(
		newConfigCommand(loadEnv),
		newInstancesCommand(loadEnv),
		newUpdateCommand(loadEnv),
		newVersionCommand(),
	)
	return rootCmd
}

// resolveInstance resolves the instance selected with --instance.
func resolveInstance(cmd *cobra.Command, loadEnv func() config.Environment) (*config.Resolver, *config.InstanceConfig, error) {
	name, _ := cmd.Flags().GetString("instance")
	resolver, err := config.NewResolverFor(loadEnv(), name)
	if err != nil {
		return nil, nil, err
	}
	return resolver, resolver.Current(), nil
}

func main() {
	rootCmd := newRootCommand(config.EnvironmentFromOS)
	if err := rootCmd.Execute(); err != nil {
		var reported reportedError
		if !errors.As(err, &reported) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
