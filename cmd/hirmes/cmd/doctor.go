package cmd

import (
	"encoding/json"
	"errors"

	"github.com/spf13/cobra"

	"github.com/hirmes/hirmes/internal/config"
	"github.com/hirmes/hirmes/internal/preflight"
)

func newDoctorCmd() *cobra.Command {
	var (
		verbose    bool
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the service connection and local state",
		Long: `Run diagnostics to ensure hirmes can operate correctly.

Checks:
  - Service reachable at server.url
  - Tagging offered by the service (warning only)
  - Data directory writable
  - History database opens (warning only)
  - Remembered indexing path still exists (warning only)
  - File descriptor limit for index --watch (warning only)`,
		Example: `  hirmes doctor
  hirmes doctor --verbose
  hirmes doctor --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDoctor(cmd, verbose, jsonOutput)
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show detailed diagnostic info")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runDoctor(cmd *cobra.Command, verbose, jsonOutput bool) error {
	d, err := loadDeps(false)
	if err != nil {
		return err
	}
	defer d.Close()

	env := preflight.Environment{
		ServerURL:   d.client.BaseURL(),
		DataDir:     config.DataDir(),
		IndexedPath: d.rememberedIndexing().Path,
	}
	if d.cfg.History.Enabled {
		env.HistoryPath = d.cfg.History.Path
	}

	checker := preflight.New(
		preflight.WithVerbose(verbose),
		preflight.WithOutput(cmd.OutOrStdout()),
	)
	results := checker.RunAll(cmd.Context(), d.client, env)

	if jsonOutput {
		if err := doctorJSON(cmd, checker, results); err != nil {
			return err
		}
	} else {
		checker.PrintResults(results)
	}

	if checker.HasCriticalFailures(results) {
		return reported(errors.New("system check failed"))
	}
	return nil
}

// doctorOutput is the --json shape.
type doctorOutput struct {
	Status   string            `json:"status"`
	Checks   []doctorCheckJSON `json:"checks"`
	Warnings []string          `json:"warnings,omitempty"`
	Errors   []string          `json:"errors,omitempty"`
}

type doctorCheckJSON struct {
	Name     string `json:"name"`
	Status   string `json:"status"`
	Message  string `json:"message"`
	Required bool   `json:"required"`
	Details  string `json:"details,omitempty"`
}

func doctorJSON(cmd *cobra.Command, checker *preflight.Checker, results []preflight.CheckResult) error {
	out := doctorOutput{
		Status: checker.SummaryStatus(results),
		Checks: make([]doctorCheckJSON, len(results)),
	}
	for i, r := range results {
		out.Checks[i] = doctorCheckJSON{
			Name:     r.Name,
			Status:   r.Status.String(),
			Message:  r.Message,
			Required: r.Required,
			Details:  r.Details,
		}
		switch {
		case r.IsCritical():
			out.Errors = append(out.Errors, r.Name+": "+r.Message)
		case r.Status != preflight.StatusPass:
			out.Warnings = append(out.Warnings, r.Name+": "+r.Message)
		}
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
