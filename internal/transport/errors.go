// SignageFleet Kiosk Coordination Server
// SPDX-License-Identifier: AGPL-3.0-or-later

package transport

import "errors"

var (
	errClosed    = errors.New("transport: session closed")
	errQueueFull = errors.New("transport: outbound queue full")
)
