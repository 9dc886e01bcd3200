// Package testutil holds file assertions, polling and fake providers
// shared by the package tests.
package testutil
