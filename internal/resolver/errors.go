package resolver

import "errors"

// ErrVariableNotFound indicates that no viable derivation path exists for a
// requested variable. At the per-candidate level it is recoverable and
// triggers backtracking; it only surfaces to the caller when every candidate
// is exhausted.
var ErrVariableNotFound = errors.New("variable not found")

// ErrInvalidArgument indicates a malformed request, such as an empty
// variable name or a zero-length independent dimension.
var ErrInvalidArgument = errors.New("invalid argument")
