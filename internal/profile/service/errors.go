package service

import "errors"

// ErrInvalidProfile wraps validation failures.
var ErrInvalidProfile = errors.New("invalid profile")
