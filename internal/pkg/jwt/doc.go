// Package jwt issues the access token returned once an admin clears both the
// password and the OTP step, and verifies it on bearer-authenticated calls.
package jwt
