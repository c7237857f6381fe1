package model

import "errors"

var (
	ErrUserDoesNotExist   = errors.New("user does not exist")
	ErrMacroDoesNotExist  = errors.New("macro does not exist")
	ErrActionDoesNotExist = errors.New("action does not exist")
	ErrActionNameTaken    = errors.New("action name already taken")
	ErrNotMacroOwner      = errors.New("macro belongs to another user")
)
