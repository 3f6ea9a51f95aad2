// Package stash saves uncommitted work under a fixed label and restores it.
//
// Restore pops a stash entry and, when git refuses because local modifications
// would be overwritten, stages everything and pops exactly once more. Neither
// Save nor Restore returns an error: failures travel inside their results so a
// bootstrap run never aborts on them.
package stash
