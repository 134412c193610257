// SignageFleet Kiosk Coordination Server
// SPDX-License-Identifier: AGPL-3.0-or-later

package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnforceAllowsAdminOnPolicyPaths(t *testing.T) {
	e, err := New("")
	require.NoError(t, err)

	allowed, err := e.Enforce("admin", "/devices", "GET")
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = e.Enforce("admin", "/devices/kiosk-1", "DELETE")
	require.NoError(t, err)
	assert.True(t, allowed, "wildcard path segment must match via keyMatch2")
}

func TestEnforceRejectsUnlistedSubject(t *testing.T) {
	e, err := New("")
	require.NoError(t, err)

	allowed, err := e.Enforce("device", "/devices", "GET")
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestEnforceRejectsUnlistedPath(t *testing.T) {
	e, err := New("")
	require.NoError(t, err)

	allowed, err := e.Enforce("admin", "/unknown-resource", "GET")
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestEnforceCachesDecisionAcrossCalls(t *testing.T) {
	e, err := New("")
	require.NoError(t, err)

	_, err = e.Enforce("admin", "/devices", "GET")
	require.NoError(t, err)

	_, cached := e.cache.get("admin", "/devices", "GET")
	assert.True(t, cached, "a decision must be cached after the first Enforce call")
}

func TestInvalidateClearsDecisionCache(t *testing.T) {
	e, err := New("")
	require.NoError(t, err)

	_, err = e.Enforce("admin", "/devices", "GET")
	require.NoError(t, err)

	e.Invalidate()

	_, cached := e.cache.get("admin", "/devices", "GET")
	assert.False(t, cached)
}

func TestDecisionCacheGetPutClear(t *testing.T) {
	c := newDecisionCache()

	_, ok := c.get("a", "b", "c")
	assert.False(t, ok)

	c.put("a", "b", "c", true)
	v, ok := c.get("a", "b", "c")
	require.True(t, ok)
	assert.True(t, v)

	c.clear()
	_, ok = c.get("a", "b", "c")
	assert.False(t, ok)
}
