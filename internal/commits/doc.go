// Package commits stages a list of paths and records them in a single commit.
//
// A rejected commit can be tolerated when the caller opts into IgnoreUntracked:
// the failure is logged together with the untracked files that usually cause it
// and the result is flagged instead of returned as an error.
package commits
