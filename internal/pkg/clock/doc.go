// Package clock lets OTP expiry and token lifetimes be driven by a fake time
// source in tests.
package clock
