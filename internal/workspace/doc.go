// Package workspace owns one repository path and composes the lower services
// into the bootstrap, init and status flows.
//
// Bootstrap restores the most recent stash entry and never fails. Initialize
// is the opt-in setup step that refuses to run outside a repository and gives
// an empty repository its first commit.
package workspace
