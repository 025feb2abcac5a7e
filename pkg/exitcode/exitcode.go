// Package exitcode defines the exit codes the snipmark CLI reports.
// Scripts and git hooks branch on these, so the values are stable.
package exitcode

const (
	// Success: the run completed and every checked snippet is valid.
	Success = 0
	// GeneralError: the command itself failed (bad flags, I/O trouble,
	// anything outside the validation domain).
	GeneralError = 1
	// ConfigError: snippets.toml or the project schema is unusable. Raised
	// before any document is read.
	ConfigError = 2
	// ValidationError: at least one snippet has findings after the run.
	// Fix reports it too when residual findings survive the rewrite.
	ValidationError = 3
	// FileSystemError: a snippet file could not be read or written back.
	FileSystemError = 4
)

// String describes code for log lines and hook output.
func String(code int) string {
	switch code {
	case Success:
		return "success"
	case GeneralError:
		return "general error"
	case ConfigError:
		return "configuration error"
	case ValidationError:
		return "validation findings"
	case FileSystemError:
		return "file system error"
	default:
		return "unknown error"
	}
}
