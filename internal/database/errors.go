package database

import "errors"

// ErrNotFound is returned when a topic, card, user or progress row does
// not exist. Check with errors.Is.
var ErrNotFound = errors.New("database: record not found")
