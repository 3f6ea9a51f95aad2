// Package pathutils resolves user-supplied repository paths into absolute, existing directories.
package pathutils
