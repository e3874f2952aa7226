// Package hash holds the one-way functions used by the login gate: bcrypt for
// stored admin passwords and HMAC-SHA256 for OTP codes parked in a session.
package hash
