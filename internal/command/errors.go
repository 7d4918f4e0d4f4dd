package command

import "errors"

var (
	errTooManyInFlight = errors.New("command: too many in-flight commands")
	errTimeout         = errors.New("command: exhausted retries without a matching response")
)
