// Package validator checks usecase inputs and module wiring against their
// `validate` struct tags and reports failures as snake_case field messages
// that the router returns to clients.
package validator
