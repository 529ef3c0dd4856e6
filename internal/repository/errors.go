// Package repository holds the MySQL-backed stores.  Sentinel errors are
// defined here so handlers can distinguish failure scenarios without
// matching on driver error strings.
package repository

import "errors"

// ErrEmailExists is returned when registering a member with an email
// address that is already taken.
var ErrEmailExists = errors.New("email already exists")

// ErrInvalidCredentials is returned by Authenticate when the email is
// unknown, the account is inactive, or the password does not match.
// The three cases are deliberately indistinguishable to the caller.
var ErrInvalidCredentials = errors.New("invalid credentials")
