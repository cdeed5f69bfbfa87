package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"optdbg/internal/session"
)

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report [flags] <session.mp>",
		Short: "Render a session saved with `analyze --save`",
		Args:  cobra.ExactArgs(1),
		RunE:  runReport,
	}
	addReportFlags(cmd)
	return cmd
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	opts, err := reportOpts(cmd, &cfg)
	if err != nil {
		return err
	}
	s, err := session.LoadFile(args[0])
	if err != nil {
		if errors.Is(err, session.ErrSchemaMismatch) {
			return fmt.Errorf("%w; re-run `optdbg analyze --save`", err)
		}
		return err
	}
	return renderSession(cmd, s, opts)
}
