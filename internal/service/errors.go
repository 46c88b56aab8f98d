package service

import "errors"

var (
	ErrConflict           = errors.New("username or email already exists")
	ErrNotFound           = errors.New("user not found")
	ErrForbidden          = errors.New("not enough permissions")
	ErrUnauthenticated    = errors.New("could not validate credentials")
	ErrInvalidCredentials = errors.New("incorrect email or password")
)
