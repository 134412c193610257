// SignageFleet Kiosk Coordination Server
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/signagefleet/kioskd/internal/models"
)

func (s *Server) listContent(w http.ResponseWriter, r *http.Request) {
	items, err := s.db.ListContent(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, items)
}

func (s *Server) createContent(w http.ResponseWriter, r *http.Request) {
	var c models.Content
	if err := decodeJSON(r, &c); err != nil {
		fail(w, r, err)
		return
	}
	if c.Name == "" || c.URL == "" {
		fail(w, r, errBadRequest)
		return
	}
	created, err := s.db.CreateContent(r.Context(), c)
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, http.StatusCreated, created)
}

func (s *Server) getContent(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		fail(w, r, errBadRequest)
		return
	}
	c, err := s.db.GetContent(r.Context(), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, c)
}

func (s *Server) deleteContent(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		fail(w, r, errBadRequest)
		return
	}
	if err := s.db.DeleteContent(r.Context(), id); err != nil {
		fail(w, r, err)
		return
	}
	noContent(w)
}
