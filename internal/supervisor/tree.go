// SignageFleet Kiosk Coordination Server
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package supervisor wires the server's background services into a suture
// tree (spec's supplemented "supervised hub/broadcast lifecycle" feature),
// grounded on the teacher's internal/supervisor/tree.go three-group shape:
// a root supervisor holding one child supervisor per concern, each
// restarting its own services independently of the others.
package supervisor

import (
	"context"
	"time"

	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"

	"github.com/signagefleet/kioskd/internal/logging"
)

// TreeConfig tunes restart behavior for the tree and its children.
type TreeConfig struct {
	FailureThreshold  float64
	FailureBackoff    time.Duration
	EventHook         suture.EventHook
}

// DefaultTreeConfig mirrors suture's own sane defaults, logged through
// zerolog instead of the default stdlib logger.
func DefaultTreeConfig() TreeConfig {
	return TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   5 * time.Second,
	}
}

// Tree is the root of the server's supervised background services.
type Tree struct {
	Root     *suture.Supervisor
	Fleet    *suture.Supervisor
}

// NewTree builds the supervision tree: a root supervisor holding one child
// supervisor ("fleet"), to which cmd/server adds the persistence health
// poller and the connected-device and connected-admin gauge samplers.
// Additional children can be added the same way as the server grows more
// background concerns.
func NewTree(cfg TreeConfig) *Tree {
	hook := sutureslog.Handler{Logger: logging.Logger()}.MustHook()

	newSupervisor := func(name string) *suture.Supervisor {
		return suture.New(name, suture.Spec{
			EventHook:                hook,
			FailureThreshold:         cfg.FailureThreshold,
			FailureBackoff:           cfg.FailureBackoff,
			PassThroughPanics:        false,
		})
	}

	root := newSupervisor("root")
	fleet := newSupervisor("fleet")
	root.Add(fleet)

	return &Tree{Root: root, Fleet: fleet}
}

// Serve runs the tree until ctx is canceled. Intended to be run in its own
// goroutine from cmd/server's main.
func (t *Tree) Serve(ctx context.Context) {
	go t.Root.ServeBackground(ctx)
	<-ctx.Done()
	t.Root.Stop()
}
