// Package worklock serializes gitkeeper processes that operate on the same
// repository through an advisory file lock inside the git directory. The lock
// does not protect against other programs that run git in the same directory.
package worklock
