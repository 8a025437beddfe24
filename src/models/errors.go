package models

import "errors"

// Storage sentinels. Stores return these (optionally wrapped) and services
// translate them into domain outcomes.
var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate")
)
