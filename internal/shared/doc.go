// Package shared holds the interfaces that connect gitkeeper services to the
// execution and inspection layers, so each service can be tested against stubs.
// Every command prints its result lines through a Reporter.
package shared
