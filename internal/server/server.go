package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fathomhq/fathom/internal/metrics"
	"github.com/fathomhq/fathom/internal/model"
	"github.com/fathomhq/fathom/internal/usecase"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Responder is the conversation pipeline behind POST /respond.
type Responder interface {
	HandleMessage(ctx context.Context, userID uuid.UUID, userPrompt string) (string, []string, error)
}

type Deps struct {
	Responder Responder
	Users     *usecase.UserUsecase
	Macros    *usecase.MacroUsecase
	Catalog   *usecase.ActionCatalogUsecase
	Metrics   *metrics.Metrics
	PromReg   *prometheus.Registry
	Logger    *zap.Logger
}

type Server struct {
	Deps
	adminAPIKey string
}

func NewHandler(deps Deps, adminAPIKey string) http.Handler {
	s := &Server{
		Deps:        deps,
		adminAPIKey: adminAPIKey,
	}

	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.PromReg, promhttp.HandlerOpts{}))

	r.Post("/respond", s.respond)

	r.Post("/users", s.createUser)
	r.Get("/users/{userID}", s.getUser)
	r.Delete("/users/{userID}", s.deleteUser)
	r.Get("/users/{userID}/macros", s.listUserMacros)

	r.Post("/macros", s.createMacro)
	r.Put("/macros/{macroID}", s.updateMacro)
	r.Delete("/macros/{macroID}", s.deleteMacro)

	r.Get("/actions", s.listActions)
	r.With(s.adminRequired).Post("/actions", s.createAction)
	r.With(s.adminRequired).Put("/actions/{actionID}", s.updateAction)
	r.With(s.adminRequired).Delete("/actions/{actionID}", s.deleteAction)

	return r
}

// ------------------------------- pipeline -------------------------------

type respondRequest struct {
	Message string `json:"message"`
}

type respondResponse struct {
	Response         string   `json:"response"`
	ActionsPerformed []string `json:"actions_performed"`
}

func (s *Server) respond(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userFromHeader(w, r)
	if !ok {
		s.Metrics.RespondRequests.WithLabelValues("unauthorized").Inc()
		return
	}
	var req respondRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Message == "" {
		s.Metrics.RespondRequests.WithLabelValues("bad_request").Inc()
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	answer, actionsPerformed, err := s.Responder.HandleMessage(r.Context(), userID, req.Message)
	if err != nil {
		s.Metrics.RespondRequests.WithLabelValues("error").Inc()
		s.Logger.Error("failed to handle message", zap.String("user_id", userID.String()), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to process message")
		return
	}
	s.Metrics.RespondRequests.WithLabelValues("ok").Inc()
	writeJSON(
		w, http.StatusOK, respondResponse{
			Response:         answer,
			ActionsPerformed: actionsPerformed,
		},
	)
}

// -------------------------------- users ---------------------------------

func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.Users.CreateUser(r.Context())
	if err != nil {
		s.Logger.Error("failed to create user", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to create user")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": user.UserID.String()})
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseUUIDParam(w, r, "userID")
	if !ok {
		return
	}
	user, err := s.Users.GetUser(r.Context(), userID)
	if err != nil {
		s.writeStorageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": user.UserID.String()})
}

func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseUUIDParam(w, r, "userID")
	if !ok {
		return
	}
	if err := s.Users.DeleteUser(r.Context(), userID); err != nil {
		s.writeStorageError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type macroResponse struct {
	ID                string           `json:"id"`
	Name              string           `json:"name"`
	Prompt            string           `json:"prompt"`
	AllowOtherActions bool             `json:"allow_other_actions"`
	RequiredActions   []actionResponse `json:"required_actions"`
}

type actionResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

func (s *Server) listUserMacros(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseUUIDParam(w, r, "userID")
	if !ok {
		return
	}
	macros, err := s.Macros.ListUserMacros(r.Context(), userID)
	if err != nil {
		s.writeStorageError(w, err)
		return
	}
	resp := make([]macroResponse, 0, len(macros))
	for _, m := range macros {
		resp = append(resp, toMacroResponse(m))
	}
	writeJSON(w, http.StatusOK, resp)
}

func toMacroResponse(m model.Macro) macroResponse {
	actions := make([]actionResponse, 0, len(m.RequiredActionIDs))
	for i, id := range m.RequiredActionIDs {
		name := ""
		if i < len(m.RequiredActions) {
			name = m.RequiredActions[i]
		}
		actions = append(actions, actionResponse{ID: id.String(), Name: name})
	}
	return macroResponse{
		ID:                m.MacroID.String(),
		Name:              m.Name,
		Prompt:            m.Prompt,
		AllowOtherActions: m.AllowOtherActions,
		RequiredActions:   actions,
	}
}

// -------------------------------- macros --------------------------------

type macroRequest struct {
	Name              string   `json:"name"`
	Prompt            string   `json:"prompt"`
	AllowOtherActions bool     `json:"allow_other_actions"`
	RequiredActions   []string `json:"required_actions"`
}

func (m macroRequest) params() (usecase.MacroParams, error) {
	actionIDs := make([]uuid.UUID, 0, len(m.RequiredActions))
	for _, idStr := range m.RequiredActions {
		id, err := uuid.Parse(idStr)
		if err != nil {
			return usecase.MacroParams{}, err
		}
		actionIDs = append(actionIDs, id)
	}
	return usecase.MacroParams{
		Name:              m.Name,
		Prompt:            m.Prompt,
		AllowOtherActions: m.AllowOtherActions,
		RequiredActionIDs: actionIDs,
	}, nil
}

func (s *Server) createMacro(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userFromHeader(w, r)
	if !ok {
		return
	}
	var req macroRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	params, err := req.params()
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid action id")
		return
	}
	macro, err := s.Macros.CreateMacro(r.Context(), userID, params)
	if err != nil {
		s.writeStorageError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": macro.MacroID.String(), "name": macro.Name})
}

func (s *Server) updateMacro(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userFromHeader(w, r)
	if !ok {
		return
	}
	macroID, ok := parseUUIDParam(w, r, "macroID")
	if !ok {
		return
	}
	var req macroRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	params, err := req.params()
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid action id")
		return
	}
	macro, err := s.Macros.UpdateMacro(r.Context(), userID, macroID, params)
	if err != nil {
		s.writeStorageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": macro.MacroID.String(), "name": macro.Name})
}

func (s *Server) deleteMacro(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userFromHeader(w, r)
	if !ok {
		return
	}
	macroID, ok := parseUUIDParam(w, r, "macroID")
	if !ok {
		return
	}
	if err := s.Macros.DeleteMacro(r.Context(), userID, macroID); err != nil {
		s.writeStorageError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---------------------------- action catalog -----------------------------

type actionRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (s *Server) listActions(w http.ResponseWriter, r *http.Request) {
	actions, err := s.Catalog.ListActions(r.Context())
	if err != nil {
		s.Logger.Error("failed to list actions", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list actions")
		return
	}
	resp := make([]actionResponse, 0, len(actions))
	for _, a := range actions {
		resp = append(
			resp, actionResponse{
				ID:          a.ActionID.String(),
				Name:        a.Name,
				Description: a.Description,
			},
		)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) createAction(w http.ResponseWriter, r *http.Request) {
	var req actionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	created, err := s.Catalog.CreateAction(r.Context(), req.Name, req.Description)
	if err != nil {
		s.writeStorageError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": created.ActionID.String(), "name": created.Name})
}

func (s *Server) updateAction(w http.ResponseWriter, r *http.Request) {
	actionID, ok := parseUUIDParam(w, r, "actionID")
	if !ok {
		return
	}
	var req actionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	updated, err := s.Catalog.UpdateAction(r.Context(), actionID, req.Name, req.Description)
	if err != nil {
		s.writeStorageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": updated.ActionID.String(), "name": updated.Name})
}

func (s *Server) deleteAction(w http.ResponseWriter, r *http.Request) {
	actionID, ok := parseUUIDParam(w, r, "actionID")
	if !ok {
		return
	}
	if err := s.Catalog.DeleteAction(r.Context(), actionID); err != nil {
		s.writeStorageError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ------------------------------- helpers --------------------------------

// userFromHeader authenticates the request via the X-User-ID header: the id
// must parse and reference an existing user.
func (s *Server) userFromHeader(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	idStr := r.Header.Get("X-User-ID")
	if idStr == "" {
		writeError(w, http.StatusUnauthorized, "missing X-User-ID")
		return uuid.Nil, false
	}
	userID, err := uuid.Parse(idStr)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid user id")
		return uuid.Nil, false
	}
	if _, err = s.Users.GetUser(r.Context(), userID); err != nil {
		writeError(w, http.StatusUnauthorized, "invalid user id")
		return uuid.Nil, false
	}
	return userID, true
}

func (s *Server) adminRequired(next http.Handler) http.Handler {
	return http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			if s.adminAPIKey == "" || r.Header.Get("X-Admin-Key") != s.adminAPIKey {
				writeError(w, http.StatusForbidden, "admin key required")
				return
			}
			next.ServeHTTP(w, r)
		},
	)
}

func (s *Server) writeStorageError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrUserDoesNotExist),
		errors.Is(err, model.ErrMacroDoesNotExist),
		errors.Is(err, model.ErrActionDoesNotExist):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, model.ErrNotMacroOwner):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, model.ErrActionNameTaken):
		writeError(w, http.StatusConflict, err.Error())
	default:
		s.Logger.Error("storage error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func parseUUIDParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		writeError(w, http.StatusNotFound, "not found")
		return uuid.Nil, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
