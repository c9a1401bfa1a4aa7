package repository

import "errors"

var (
	errUnique  = errors.New("constraint failed: UNIQUE constraint failed: users.email (2067)")
	errForeign = errors.New("constraint failed: FOREIGN KEY constraint failed (787)")
)
