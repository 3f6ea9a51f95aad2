// Package ui renders git command activity for console log output.
package ui
