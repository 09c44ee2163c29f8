// Package preflight diagnoses the client's environment: whether the service
// answers, whether it offers tagging, and whether local state (data
// directory, history database, remembered indexing path) is usable.
//
//	checker := preflight.New(preflight.WithOutput(os.Stdout))
//	results := checker.RunAll(ctx, client, env)
//	if checker.HasCriticalFailures(results) {
//	    // Handle failures
//	}
package preflight
