// SignageFleet Kiosk Coordination Server
// SPDX-License-Identifier: AGPL-3.0-or-later

package authz

import (
	"strings"

	"github.com/casbin/casbin/v2/model"
	"github.com/casbin/casbin/v2/persist"
)

// stringAdapter loads policy rules from an in-memory CSV string, used to
// load the embedded default policy without touching the filesystem.
type stringAdapter struct {
	csv string
}

func newStringAdapter(csv string) *stringAdapter {
	return &stringAdapter{csv: csv}
}

func (a *stringAdapter) LoadPolicy(m model.Model) error {
	for _, line := range strings.Split(a.csv, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		persist.LoadPolicyLine(line, m)
	}
	return nil
}
