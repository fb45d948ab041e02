package repository

import "errors"

var ErrParse = errors.New("store content is not a valid todo list")
