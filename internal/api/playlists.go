// SignageFleet Kiosk Coordination Server
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/signagefleet/kioskd/internal/audit"
	"github.com/signagefleet/kioskd/internal/database"
	"github.com/signagefleet/kioskd/internal/models"
)

type playlistRequest struct {
	Name     string `json:"name"`
	IsActive bool   `json:"isActive"`
}

func (s *Server) listPlaylists(w http.ResponseWriter, r *http.Request) {
	playlists, err := s.db.ListPlaylists(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, playlists)
}

func (s *Server) createPlaylist(w http.ResponseWriter, r *http.Request) {
	var req playlistRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(w, r, err)
		return
	}
	if req.Name == "" {
		fail(w, r, errBadRequest)
		return
	}
	p, err := s.db.CreatePlaylist(r.Context(), req.Name, req.IsActive)
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, http.StatusCreated, p)
}

func (s *Server) getPlaylist(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}
	p, found := s.db.Playlist(id)
	if !found {
		fail(w, r, database.ErrNotFound)
		return
	}
	ok(w, http.StatusOK, p)
}

// updatePlaylist mutates the playlist and re-propagates to every device
// currently assigned to it (spec §4.5 step 1: playlist mutation).
func (s *Server) updatePlaylist(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}
	var req playlistRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(w, r, err)
		return
	}
	p, err := s.db.UpdatePlaylist(r.Context(), id, req.Name, req.IsActive)
	if err != nil {
		fail(w, r, err)
		return
	}
	s.propagator.OnPlaylistMutated(r.Context(), id)
	ok(w, http.StatusOK, p)
}

func (s *Server) deletePlaylist(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}
	// Collect the assigned devices first: DeletePlaylist removes the
	// assignments, after which OnPlaylistMutated would find none.
	deviceIDs, _ := s.db.DevicesAssignedToPlaylist(r.Context(), id)
	if err := s.db.DeletePlaylist(r.Context(), id); err != nil {
		fail(w, r, err)
		return
	}
	for _, deviceID := range deviceIDs {
		if surrogateID, found := s.db.DeviceSurrogateID(deviceID); found {
			s.propagator.OnAssignmentMutated(r.Context(), surrogateID)
		}
	}
	noContent(w)
}

func (s *Server) listItems(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, s.db.ItemsForPlaylist(id))
}

// addItem appends an item and re-propagates to the owning playlist's
// assigned devices (spec §4.5 step 1: item mutation).
func (s *Server) addItem(w http.ResponseWriter, r *http.Request) {
	playlistID, err := parseID(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}
	var item models.PlaylistItem
	if err := decodeJSON(r, &item); err != nil {
		fail(w, r, err)
		return
	}
	item.PlaylistID = playlistID
	created, err := s.db.AddItem(r.Context(), item)
	if err != nil {
		fail(w, r, err)
		return
	}
	s.propagator.OnPlaylistMutated(r.Context(), playlistID)
	ok(w, http.StatusCreated, created)
}

func (s *Server) updateItem(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}
	var item models.PlaylistItem
	if err := decodeJSON(r, &item); err != nil {
		fail(w, r, err)
		return
	}
	item.ID = id
	updated, err := s.db.UpdateItem(r.Context(), item)
	if err != nil {
		fail(w, r, err)
		return
	}
	s.propagator.OnItemMutated(r.Context(), id)
	ok(w, http.StatusOK, updated)
}

func (s *Server) deleteItem(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}
	playlistID, lookupErr := s.db.ItemPlaylistID(r.Context(), id)
	if err := s.db.DeleteItem(r.Context(), id); err != nil {
		fail(w, r, err)
		return
	}
	if lookupErr == nil {
		s.propagator.OnPlaylistMutated(r.Context(), playlistID)
	}
	noContent(w)
}

type assignRequest struct {
	DeviceID   int64 `json:"deviceId"`
	PlaylistID int64 `json:"playlistId"`
}

// assignPlaylist implements S1/S6: assigns and re-propagates exactly once
// on success; a duplicate assignment fails with 409 and no second push.
func (s *Server) assignPlaylist(w http.ResponseWriter, r *http.Request) {
	var req assignRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(w, r, err)
		return
	}
	s.doAssign(w, r, req.DeviceID, req.PlaylistID)
}

func (s *Server) assignPlaylistPath(w http.ResponseWriter, r *http.Request) {
	deviceID, err := parseID(r, "deviceId")
	if err != nil {
		fail(w, r, err)
		return
	}
	playlistID, err := parseID(r, "playlistId")
	if err != nil {
		fail(w, r, err)
		return
	}
	s.doAssign(w, r, deviceID, playlistID)
}

func (s *Server) doAssign(w http.ResponseWriter, r *http.Request, deviceSurrogateID, playlistID int64) {
	a, err := s.db.AssignPlaylist(r.Context(), deviceSurrogateID, playlistID)
	if err != nil {
		fail(w, r, err)
		return
	}
	s.propagator.OnAssignmentMutated(r.Context(), deviceSurrogateID)
	s.recordAudit(r, audit.EventTypePlaylistAssigned, audit.OutcomeSuccess, &audit.Target{Type: "playlist"}, "assign playlist")
	ok(w, http.StatusCreated, a)
}

func (s *Server) unassignPlaylist(w http.ResponseWriter, r *http.Request) {
	deviceID, err := parseID(r, "deviceId")
	if err != nil {
		fail(w, r, err)
		return
	}
	playlistID, err := parseID(r, "playlistId")
	if err != nil {
		fail(w, r, err)
		return
	}
	if err := s.db.UnassignPlaylist(r.Context(), deviceID, playlistID); err != nil {
		fail(w, r, err)
		return
	}
	s.propagator.OnAssignmentMutated(r.Context(), deviceID)
	s.recordAudit(r, audit.EventTypePlaylistUnassigned, audit.OutcomeSuccess, &audit.Target{Type: "playlist"}, "unassign playlist")
	noContent(w)
}

func (s *Server) devicePlaylists(w http.ResponseWriter, r *http.Request) {
	deviceID := chi.URLParam(r, "deviceId")
	surrogateID, found := s.db.DeviceSurrogateID(deviceID)
	if !found {
		fail(w, r, database.ErrNotFound)
		return
	}
	ok(w, http.StatusOK, s.db.AssignmentsForDevice(surrogateID))
}

func (s *Server) playlistDevices(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}
	deviceIDs, err := s.db.DevicesAssignedToPlaylist(r.Context(), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, deviceIDs)
}

func parseID(r *http.Request, param string) (int64, error) {
	v := chi.URLParam(r, param)
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, errBadRequest
	}
	return id, nil
}
