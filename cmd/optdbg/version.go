package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"optdbg/internal/version"
)

type versionOptions struct {
	format   string
	showHash bool
	showDate bool
}

type versionPayload struct {
	Tool string `json:"tool"`
	version.Info
}

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show optdbg build information",
		Args:  cobra.NoArgs,
		RunE:  runVersion,
	}
	cmd.Flags().Bool("hash", false, "include git commit hash")
	cmd.Flags().Bool("date", false, "include build timestamp")
	cmd.Flags().Bool("full", false, "show every recorded bit of build metadata")
	cmd.Flags().String("format", "pretty", "output format (pretty|json)")
	return cmd
}

func runVersion(cmd *cobra.Command, _ []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	var flags [3]bool
	for i, name := range []string{"hash", "date", "full"} {
		if flags[i], err = cmd.Flags().GetBool(name); err != nil {
			return fmt.Errorf("failed to get %s flag: %w", name, err)
		}
	}
	opts := versionOptions{
		format:   strings.ToLower(format),
		showHash: flags[0] || flags[2],
		showDate: flags[1] || flags[2],
	}

	info := version.Current()
	switch opts.format {
	case "json":
		return renderVersionJSON(cmd.OutOrStdout(), info, opts)
	case "pretty":
		cfgColor, err := versionColor(cmd)
		if err != nil {
			return err
		}
		renderVersionPretty(cmd.OutOrStdout(), info, opts, cfgColor)
		return nil
	default:
		return fmt.Errorf("unsupported format %q (must be pretty or json)", format)
	}
}

func versionColor(cmd *cobra.Command) (bool, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return false, err
	}
	return useColor(cmd, &cfg)
}

func renderVersionPretty(out io.Writer, info version.Info, opts versionOptions, useColor bool) {
	fmt.Fprintf(out, "optdbg %s\n", version.Pretty(useColor))
	if opts.showHash {
		fmt.Fprintf(out, "commit: %s\n", valueOrUnknown(info.GitCommit))
	}
	if opts.showDate {
		fmt.Fprintf(out, "built:  %s\n", valueOrUnknown(info.BuildDate))
	}
}

func renderVersionJSON(out io.Writer, info version.Info, opts versionOptions) error {
	payload := versionPayload{Tool: "optdbg", Info: version.Info{Version: info.Version}}
	if opts.showHash {
		payload.GitCommit = valueOrUnknown(info.GitCommit)
	}
	if opts.showDate {
		payload.BuildDate = valueOrUnknown(info.BuildDate)
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

func valueOrUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
