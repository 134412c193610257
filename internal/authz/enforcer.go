// SignageFleet Kiosk Coordination Server
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package authz gates the REST control surface to the admin role using
// Casbin. Grounded on the teacher's internal/authz/enforcer.go wrapper,
// which is domain-agnostic; only the embedded model.conf/policy.csv are
// authored fresh for the admin-vs-device RBAC this server needs (the
// teacher's own policy files were not retrieved into the example pack).
package authz

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	fileadapter "github.com/casbin/casbin/v2/persist/file-adapter"

	"github.com/signagefleet/kioskd/internal/logging"
)

//go:embed model.conf
var modelConf string

//go:embed policy.csv
var policyCSV string

// Enforcer wraps a Casbin SyncedEnforcer with the decision cache in cache.go.
type Enforcer struct {
	mu       sync.RWMutex
	enforcer *casbin.SyncedEnforcer
	cache    *decisionCache
	secLog   *logging.SecurityLogger
}

// New builds an Enforcer from the embedded model and policy. policyPath, if
// non-empty, loads policy rules from a file on disk instead of the embedded
// default (operators can override admin-only paths without a rebuild).
func New(policyPath string) (*Enforcer, error) {
	m, err := model.NewModelFromString(modelConf)
	if err != nil {
		return nil, fmt.Errorf("authz: parse model: %w", err)
	}

	var adapter interface {
		LoadPolicy(model.Model) error
	}
	if policyPath != "" {
		adapter = fileadapter.NewAdapter(policyPath)
	} else {
		adapter = newStringAdapter(policyCSV)
	}

	e, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("authz: new enforcer: %w", err)
	}
	if err := adapter.LoadPolicy(e.GetModel()); err != nil {
		return nil, fmt.Errorf("authz: load policy: %w", err)
	}

	return &Enforcer{enforcer: e, cache: newDecisionCache(), secLog: logging.NewSecurityLogger()}, nil
}

// Enforce reports whether sub may perform act on obj, consulting the
// decision cache before falling back to the Casbin enforcer.
func (e *Enforcer) Enforce(sub, obj, act string) (bool, error) {
	if v, ok := e.cache.get(sub, obj, act); ok {
		return v, nil
	}
	e.mu.RLock()
	allowed, err := e.enforcer.Enforce(sub, obj, act)
	e.mu.RUnlock()
	if err != nil {
		return false, fmt.Errorf("authz: enforce: %w", err)
	}
	e.cache.put(sub, obj, act, allowed)
	return allowed, nil
}

// Invalidate clears the decision cache, e.g. after a policy reload.
func (e *Enforcer) Invalidate() {
	e.cache.clear()
}
