package aspen

import "github.com/op/go-logging"

// Package-level logger. Callers (see cmd/aspen-render) configure the
// backend and level; the default go-logging backend writes to stderr.
var log = logging.MustGetLogger("aspen")
