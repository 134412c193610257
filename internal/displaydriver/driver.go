// SignageFleet Kiosk Coordination Server
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package displaydriver defines the narrow capability the Playlist
// Executor uses to put pixels on screen. The browser-automation layer that
// actually renders a URL is an external collaborator (spec.md's Non-goals);
// this package only states the contract plus a logging stub good enough
// to exercise the executor end to end in cmd/kiosk without a real browser.
package displaydriver

import "github.com/signagefleet/kioskd/internal/logging"

// Driver is the opaque display capability the executor commands.
type Driver interface {
	// Navigate instructs the display to load url. Failures are logged by
	// the executor via error:report, never fatal to rotation.
	Navigate(url string) error

	// RenderMessage shows a fixed-template message overlay (used by
	// broadcast type "message"). text has already been HTML-escaped by the
	// caller.
	RenderMessage(escapedText string) error

	// Screenshot captures the current frame and returns a reference URL.
	Screenshot() (url string, err error)
}

// LoggingStub is a Driver that only logs what it would have done. It
// satisfies the interface well enough to drive cmd/kiosk in the absence of
// the real browser-automation layer.
type LoggingStub struct{}

func (LoggingStub) Navigate(url string) error {
	logging.Logger().Info().Str("url", url).Msg("display: navigate")
	return nil
}

func (LoggingStub) RenderMessage(escapedText string) error {
	logging.Logger().Info().Str("text", escapedText).Msg("display: render message")
	return nil
}

func (LoggingStub) Screenshot() (string, error) {
	logging.Logger().Debug().Msg("display: screenshot")
	return "", nil
}
