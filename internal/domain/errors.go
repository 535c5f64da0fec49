package domain

import "errors"

var (
	ErrConnection         = errors.New("tap-firebird: connection error")
	ErrMissingConfig      = errors.New("tap-firebird: missing required config key")
	ErrInvalidConfig      = errors.New("tap-firebird: invalid config value")
	ErrUnsupportedDialect = errors.New("tap-firebird: unsupported dialect")
	ErrNoCatalog          = errors.New("tap-firebird: catalog is required")
	ErrStreamNotFound     = errors.New("tap-firebird: stream not found")
	ErrRunInProgress      = errors.New("tap-firebird: a sync run is already in progress")
)
