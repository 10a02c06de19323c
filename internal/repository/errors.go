// Package repository holds the MySQL and Redis backed stores.  Lookups
// that match nothing return sql.ErrNoRows, the same sentinel the auth
// package checks for.
package repository

import "errors"

// ErrEmailExists is returned by Create when the email is already taken.
// Handlers should translate this into an HTTP 409 response.
var ErrEmailExists = errors.New("email already exists")

// ErrUsernameExists is returned by Create when the username is already
// taken.  Handlers should translate this into an HTTP 409 response.
var ErrUsernameExists = errors.New("username already exists")
