// Package repository implements the data access layer over database/sql.
// The sentinel errors below are reused across repositories so that the
// service layer can distinguish failure scenarios without depending on
// driver-specific error values. For example, ErrNotFound replaces
// sql.ErrNoRows at the repository boundary, and ErrDuplicate signals a
// unique-key violation on insert.
package repository

import "errors"

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("record not found")

// ErrDuplicate is returned when an insert violates a unique key, such as
// a second application for the same user or a taken username/email.
var ErrDuplicate = errors.New("duplicate record")
