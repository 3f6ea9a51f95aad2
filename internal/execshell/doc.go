// Package execshell runs the git executable on behalf of the rest of gitkeeper.
//
// OSCommandRunner spawns exactly one process per call, under the C locale with
// terminal prompts disabled. ShellExecutor layers zap
// logging on top of a CommandRunner and exposes two channels: ExecuteGit, which
// converts a non-zero exit into a CommandFailedError, and QueryGit, which folds
// any failure into a QueryResult so probes can treat "command failed" as an
// answer rather than an exception.
package execshell
