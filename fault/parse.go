package fault

import (
	"encoding/hex"
	"strconv"

	"golang.org/x/xerrors"
)

// ParseError is the error of a value that failed to be parsed. The detail of
// the original error is dropped.
//
// - implements error
type ParseError struct{}

// Error implements error.
func (ParseError) Error() string {
	return "failed to parse"
}

// NewParseError collapses the errors of the number and hexadecimal parsers
// into a parse error. Any other error is returned as is.
func NewParseError(err error) error {
	if err == nil {
		return nil
	}

	var numErr *strconv.NumError
	if xerrors.As(err, &numErr) {
		return ParseError{}
	}

	var byteErr hex.InvalidByteError
	if xerrors.As(err, &byteErr) || xerrors.Is(err, hex.ErrLength) {
		return ParseError{}
	}

	return err
}
