package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/kimeraswm/kimera/internal/identity"
	"github.com/kimeraswm/kimera/internal/lattice"
)

func (s *Server) handleCreateIdentity(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Type       string   `json:"identity_type"`
		Raw        string   `json:"raw"`
		RelatedIDs []string `json:"related_ids"`
		Tags       []string `json:"tags"`
		Weight     float64  `json:"weight"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	var id *identity.Identity
	var err error
	switch req.Type {
	case "scar":
		id, err = identity.NewScarWithContent(req.Raw, req.RelatedIDs, nil)
	case "geoid", "":
		id, err = identity.NewGeoid(req.Raw, req.Tags...)
	default:
		writeError(w, http.StatusBadRequest, "identity_type must be geoid or scar")
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if req.Type == "scar" {
		for _, tag := range req.Tags {
			id.AddTag(tag)
		}
	}
	if req.Weight > 0 {
		id.Weight = req.Weight
	}

	if err := s.db.PutIdentity(id); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, identityJSON(id))
}

func (s *Server) handleGetIdentity(w http.ResponseWriter, r *http.Request) {
	id, err := s.db.GetIdentity(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if id == nil {
		writeError(w, http.StatusNotFound, "identity not found")
		return
	}
	writeJSON(w, http.StatusOK, identityJSON(id))
}

func (s *Server) handleListIdentities(w http.ResponseWriter, r *http.Request) {
	kind := r.URL.Query().Get("kind")
	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)

	var ids []*identity.Identity
	var err error
	if min := r.URL.Query().Get("min_entropy"); min != "" {
		minEntropy, perr := strconv.ParseFloat(min, 64)
		if perr != nil {
			writeError(w, http.StatusBadRequest, "min_entropy must be a number")
			return
		}
		ids, err = s.db.FindIdentitiesByEntropy(minEntropy)
	} else {
		ids, err = s.db.ListIdentities(kind, limit, offset)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	out := make([]map[string]any, len(ids))
	for i, id := range ids {
		out[i] = identityJSON(id)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":      len(out),
		"identities": out,
	})
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	var req struct {
		A string `json:"a"`
		B string `json:"b"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.A == "" || req.B == "" {
		writeError(w, http.StatusBadRequest, "a and b identity ids required")
		return
	}

	a, err := s.db.GetIdentity(req.A)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	b, err := s.db.GetIdentity(req.B)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if a == nil || b == nil {
		writeError(w, http.StatusNotFound, "both identities must exist")
		return
	}

	intensity, err := s.lattice.Resolve(a, b)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"anchor":    lattice.AnchorFor(a.ID, b.ID),
		"intensity": intensity,
	})
}

func (s *Server) handleGetForm(w http.ResponseWriter, r *http.Request) {
	form, err := s.db.GetForm(chi.URLParam(r, "anchor"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if form == nil {
		writeError(w, http.StatusNotFound, "form not found")
		return
	}
	writeJSON(w, http.StatusOK, form)
}

func (s *Server) handleListForms(w http.ResponseWriter, r *http.Request) {
	forms, err := s.db.ListForms(queryInt(r, "limit", 50), queryInt(r, "offset", 0))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	type formJSON struct {
		Anchor         string  `json:"anchor"`
		Domain         string  `json:"domain"`
		Phase          string  `json:"phase"`
		TraceSignature string  `json:"trace_signature"`
		Intensity      float64 `json:"intensity"`
		Terms          int     `json:"terms"`
	}
	out := make([]formJSON, len(forms))
	for i, f := range forms {
		out[i] = formJSON{
			Anchor:         f.Anchor,
			Domain:         f.Domain,
			Phase:          f.Phase,
			TraceSignature: f.TraceSignature,
			Intensity:      f.IntensitySum(),
			Terms:          len(f.Terms),
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count": len(out),
		"forms": out,
	})
}

func (s *Server) handleMutatePhase(w http.ResponseWriter, r *http.Request) {
	anchor := chi.URLParam(r, "anchor")

	var req struct {
		Phase string `json:"phase"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Phase == "" {
		writeError(w, http.StatusBadRequest, "phase required")
		return
	}

	form, err := s.db.GetForm(anchor)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if form == nil {
		writeError(w, http.StatusNotFound, "form not found")
		return
	}

	child := form.MutatePhase(req.Phase)
	if err := s.db.PutForm(child); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"anchor":           anchor,
		"phase":            child.Phase,
		"trace_signature":  child.TraceSignature,
		"parent_signature": form.TraceSignature,
	})
}

func (s *Server) handleDecay(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TauDays float64 `json:"tau_days"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.TauDays <= 0 {
		req.TauDays = s.lattice.Cfg.BaseTauDays
	}

	updated, err := s.db.ApplyTimeDecay(req.TauDays, s.lattice.Cfg.TauEntropyCoeff)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"tau_days": req.TauDays,
		"updated":  updated,
	})
}

func identityJSON(id *identity.Identity) map[string]any {
	return map[string]any{
		"id":            id.ID,
		"identity_type": id.Kind,
		"raw":           id.Raw,
		"related_ids":   id.RelatedIDs,
		"weight":        id.Weight,
		"tags":          id.Tags,
		"meta":          id.Meta,
		"entropy":       id.Entropy(),
		"created_at":    id.CreatedAt,
	}
}

func queryInt(r *http.Request, key string, def int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return def
}
