// Package main provides the entry point of the authenticator service.
// It verifies credentials against a local user store, an LDAP or Active
// Directory server, or both in hybrid mode, issues signed access tokens and
// mirrors account lifecycle events into the directory. The REST API is served
// with fiber, accounts and the audit log are persisted with gorm, and the
// console commands manage accounts without starting the web service.
package main
