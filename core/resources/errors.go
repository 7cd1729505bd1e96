package resources

import "errors"

// ErrOutOfResources is returned when a counter would go negative (§3
// invariant: "a consumer that would drive a counter negative fails with
// OutOfResources"). It is frame-local per the taxonomy in spec.md §7.
var ErrOutOfResources = errors.New("resources: out of resources")

// ErrGasLimitExceeded names a pool overflow. AddGas does not return it: it
// panics on overflow instead.
var ErrGasLimitExceeded = errors.New("resources: gas limit exceeded")
