//go:build linux

// File: guess_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package uv

import (
	"github.com/koehlma/uv/api"
	"github.com/koehlma/uv/internal/normalize"
)

// GuessHandleKind classifies a raw descriptor as the handle kind that
// may adopt it: TCP or UDP sockets, pipes, TTYs or plain files.
// Unclassifiable descriptors report HandleUnknown.
func GuessHandleKind(fd int) api.HandleKind {
	return normalize.GuessKind(fd)
}
