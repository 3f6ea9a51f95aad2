// Package testsupport provides scripted git executors and fixture repositories for package tests.
package testsupport
