package store

import (
	"github.com/xtxerr/docservice/internal/errors"
)

var (
	ErrBatchTooLarge = errors.ErrBatchTooLarge
	ErrClosed        = errors.ErrClosed
)
