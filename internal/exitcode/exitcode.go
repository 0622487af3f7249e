package exitcode

import (
	"errors"

	"github.com/thought-machine/go-flags"
)

// Coder is an interface to control what value Get returns.
type Coder interface {
	error
	ExitCode() int
}

// Get gets the exit code associated with an error. Cases:
//
//	nil => 0
//	errors implementing Coder => value returned by ExitCode
//	a help request from the flag parser => 0
//	all other errors => 1
func Get(err error) int {
	if err == nil {
		return 0
	}

	if coder := Coder(nil); errors.As(err, &coder) {
		return coder.ExitCode()
	}

	if flagsErr := (*flags.Error)(nil); errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
		return 0
	}

	return 1
}

// Set wraps an error in a Coder, setting its error code.
func Set(err error, code int) error {
	if err == nil {
		return nil
	}
	return coder{err, code}
}

var _ Coder = coder{}

type coder struct {
	error
	int
}

func (co coder) ExitCode() int {
	return co.int
}

func (co coder) Unwrap() error {
	return co.error
}
