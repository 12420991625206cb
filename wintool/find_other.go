//go:build !windows

package wintool

import "tlog.app/go/errors"

// ErrUnsupportedHost is returned by FindLink on hosts other than Windows.
var ErrUnsupportedHost = errors.New("the MSVC toolchain can only be located on Windows")

// FindLink locates the MSVC linker.  It is only available on Windows.
func FindLink(triple string) (*Linker, error) {
	return nil, ErrUnsupportedHost
}
