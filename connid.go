// SPDX-License-Identifier: GPL-3.0-or-later

package lanconsole

import (
	"github.com/bassosimone/runtimex"
	"github.com/google/uuid"
)

// NewConnID returns a UUIDv7 identifying a connection attempt.
//
// [*Client] tags every transport log event with the ID of the attempt
// that produced it, so events of a reconnection are easy to tell apart.
//
// This function panics if the system random number generator fails,
// which should only happen under extraordinary circumstances.
func NewConnID() string {
	return runtimex.PanicOnError1(uuid.NewV7()).String()
}
