// SignageFleet Kiosk Coordination Server
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import "errors"

var (
	errBadRequest    = errors.New("api: bad request")
	errDeviceOffline = errors.New("device_offline")
	errUnauthorized  = errors.New("api: unauthorized")
)
