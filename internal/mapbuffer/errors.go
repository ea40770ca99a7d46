package mapbuffer

import "github.com/pkg/errors"

var (
	// ErrMiss reports that a chunk is neither resident nor backed by a quad file.
	// Callers are expected to generate the chunk themselves.
	ErrMiss = errors.New("chunk not found")
	// ErrDuplicate reports a chunk that was already resident.
	ErrDuplicate = errors.New("chunk already resident")
	// ErrMissingCoordinates reports a quad record without a usable coordinates member.
	ErrMissingCoordinates = errors.New("record has no coordinates")
	// ErrForeignRecord reports a quad record for a chunk outside the quad it was read from.
	ErrForeignRecord = errors.New("record does not belong to quad")
	// ErrReservedMember reports chunk content that tries to use a member name the quad file owns.
	ErrReservedMember = errors.New("content uses reserved member name")
)
