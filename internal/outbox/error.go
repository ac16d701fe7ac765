package outbox

import "errors"

var ErrUnknownChannel = errors.New("unknown outbox channel")
