package model

import (
	"errors"
)

var (
	// ErrNil reports an absent key or hash field.
	ErrNil = errors.New("model: nil reply")

	ErrAccountNotExists = errors.New("model: account does not exist")
	ErrGroupNotExists   = errors.New("model: group does not exist")
	ErrIDExhausted      = errors.New("model: no free id left")
)
