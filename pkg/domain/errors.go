package domain

import "errors"

// ErrUnknownSegment is returned when a segment ID is not part of the network.
var ErrUnknownSegment = errors.New("unknown segment")

// ErrUnknownJunction is returned when a junction ID is not part of the network.
var ErrUnknownJunction = errors.New("unknown junction")

// ErrOffsetOutOfRange is returned when a start offset lies outside [0, segment length].
var ErrOffsetOutOfRange = errors.New("offset out of range")

// ErrUnparsableLabel is returned when a sign label cannot be read as a speed limit or grade.
var ErrUnparsableLabel = errors.New("unparsable sign label")

// ErrNotStorable is returned when an event record cannot be rebuilt without the live network.
var ErrNotStorable = errors.New("event kind is not storable")
