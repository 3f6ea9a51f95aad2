// Package branches switches a working directory onto a named branch, creating
// the branch when it does not exist yet, and restores single files from other
// branches.
//
// Service reports the branch that was checked out before the switch so callers
// can return to it. CommandBuilder exposes the behavior as the branch and
// restore-file Cobra commands.
package branches
