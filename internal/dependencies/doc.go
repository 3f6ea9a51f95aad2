// Package dependencies builds default collaborators for command builders that were not given explicit ones.
package dependencies
