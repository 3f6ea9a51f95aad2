// Package gitrepo answers read-only questions about a working directory by
// asking git. Every probe issues exactly one git invocation through the silent
// query channel, so a failing command reads as "absent" rather than an error.
// Nothing is cached: each call reflects the repository as it is right now.
package gitrepo
