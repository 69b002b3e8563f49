package service

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	apperrors "github.com/tokenforge/launchpad-middleware/pkg/app/errors"
	apphttp "github.com/tokenforge/launchpad-middleware/pkg/app/http"
	"github.com/tokenforge/launchpad-middleware/pkg/auth"
	"github.com/tokenforge/launchpad-middleware/pkg/launch"
	"github.com/tokenforge/launchpad-middleware/pkg/registry"
	"github.com/tokenforge/launchpad-middleware/pkg/token"
)

var validate = validator.New()

// HTTP wraps the Service to provide HTTP endpoints
type HTTP struct {
	service *Service
	logger  *zap.Logger
}

// RegisterRoutes registers the launch endpoints on the given chi router
func RegisterRoutes(r chi.Router, service *Service, logger *zap.Logger) {
	h := &HTTP{
		service: service,
		logger:  logger,
	}

	r.Get("/networks", apphttp.HandleError(h.listNetworks))

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", apphttp.HandleError(h.createSession))
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", apphttp.HandleError(h.getSession))
			r.Delete("/", apphttp.HandleError(h.deleteSession))
			r.Put("/fields", apphttp.HandleError(h.updateField))
			r.Put("/features", apphttp.HandleError(h.updateFeature))
			r.Post("/advance", apphttp.HandleError(h.advance))
			r.Post("/back", apphttp.HandleError(h.back))
			r.Post("/reset", apphttp.HandleError(h.resetWizard))
			r.Post("/deploy", apphttp.HandleError(h.deploy))
			r.Post("/deploy/reset", apphttp.HandleError(h.resetDeployment))
			r.Get("/status", apphttp.HandleError(h.deploymentStatus))
			r.Get("/stream", apphttp.HandleError(h.stream))
		})
	})

	r.Route("/tokens", func(r chi.Router) {
		r.Get("/", apphttp.HandleError(h.listTokens))
		r.Get("/{recordID}", apphttp.HandleError(h.getToken))
	})
}

type sessionResponse struct {
	SessionID string            `json:"sessionId"`
	Step      int               `json:"step"`
	Draft     token.Draft       `json:"draft"`
	Errors    map[string]string `json:"errors"`
	Status    launch.Status     `json:"status"`
}

type updateFieldRequest struct {
	Field string `json:"field" validate:"required"`
	Value string `json:"value"`
}

type updateFeatureRequest struct {
	Feature string `json:"feature" validate:"required"`
	Enabled bool   `json:"enabled"`
}

func (h *HTTP) creatorID(r *http.Request) (string, error) {
	creatorID, ok := auth.CreatorIDFromContext(r.Context())
	if !ok || creatorID == "" {
		return "", apperrors.UnAuthorizedError(nil, "missing creator identity")
	}
	return creatorID, nil
}

func (h *HTTP) session(r *http.Request) (*Session, error) {
	creatorID, err := h.creatorID(r)
	if err != nil {
		return nil, err
	}
	return h.service.Session(creatorID, chi.URLParam(r, "sessionID"))
}

const maxRequestBody = 1 << 20 // 1MB

func (h *HTTP) decode(w http.ResponseWriter, r *http.Request, into any) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err != nil {
		return apperrors.BadRequestError(err, "failed to read request")
	}
	if err := json.Unmarshal(body, into); err != nil {
		return apperrors.BadRequestError(err, "invalid JSON")
	}
	if err := validate.Struct(into); err != nil {
		return apperrors.BadRequestError(err, "invalid request")
	}
	return nil
}

func sessionState(s *Session) sessionResponse {
	return sessionResponse{
		SessionID: s.ID,
		Step:      s.Wizard.Step(),
		Draft:     s.Wizard.Draft(),
		Errors:    s.Wizard.Errors(),
		Status:    s.Orchestrator.Status(),
	}
}

func (h *HTTP) createSession(w http.ResponseWriter, r *http.Request) error {
	creatorID, err := h.creatorID(r)
	if err != nil {
		return err
	}
	session := h.service.CreateSession(creatorID)
	return apphttp.WriteJSON(w, http.StatusCreated, sessionState(session))
}

func (h *HTTP) getSession(w http.ResponseWriter, r *http.Request) error {
	session, err := h.session(r)
	if err != nil {
		return err
	}
	return apphttp.WriteJSON(w, http.StatusOK, sessionState(session))
}

func (h *HTTP) updateField(w http.ResponseWriter, r *http.Request) error {
	session, err := h.session(r)
	if err != nil {
		return err
	}

	var req updateFieldRequest
	if err := h.decode(w, r, &req); err != nil {
		return err
	}

	session.Wizard.UpdateField(req.Field, req.Value)
	return apphttp.WriteJSON(w, http.StatusOK, sessionState(session))
}

func (h *HTTP) updateFeature(w http.ResponseWriter, r *http.Request) error {
	session, err := h.session(r)
	if err != nil {
		return err
	}

	var req updateFeatureRequest
	if err := h.decode(w, r, &req); err != nil {
		return err
	}

	session.Wizard.UpdateFeature(req.Feature, req.Enabled)
	return apphttp.WriteJSON(w, http.StatusOK, sessionState(session))
}

func (h *HTTP) advance(w http.ResponseWriter, r *http.Request) error {
	session, err := h.session(r)
	if err != nil {
		return err
	}

	if ok := session.Wizard.Advance(); !ok {
		return apperrors.ValidationError(session.Wizard.Errors())
	}
	return apphttp.WriteJSON(w, http.StatusOK, sessionState(session))
}

func (h *HTTP) back(w http.ResponseWriter, r *http.Request) error {
	session, err := h.session(r)
	if err != nil {
		return err
	}

	session.Wizard.Back()
	return apphttp.WriteJSON(w, http.StatusOK, sessionState(session))
}

func (h *HTTP) resetWizard(w http.ResponseWriter, r *http.Request) error {
	session, err := h.session(r)
	if err != nil {
		return err
	}

	session.Wizard.Reset()
	return apphttp.WriteJSON(w, http.StatusOK, sessionState(session))
}

func (h *HTTP) deleteSession(w http.ResponseWriter, r *http.Request) error {
	creatorID, err := h.creatorID(r)
	if err != nil {
		return err
	}

	if err := h.service.DeleteSession(creatorID, chi.URLParam(r, "sessionID")); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (h *HTTP) deploy(w http.ResponseWriter, r *http.Request) error {
	creatorID, err := h.creatorID(r)
	if err != nil {
		return err
	}

	status, err := h.service.Deploy(creatorID, chi.URLParam(r, "sessionID"))
	if err != nil {
		return err
	}
	return apphttp.WriteJSON(w, http.StatusAccepted, status)
}

func (h *HTTP) resetDeployment(w http.ResponseWriter, r *http.Request) error {
	creatorID, err := h.creatorID(r)
	if err != nil {
		return err
	}

	status, err := h.service.ResetDeployment(creatorID, chi.URLParam(r, "sessionID"))
	if err != nil {
		return err
	}
	return apphttp.WriteJSON(w, http.StatusOK, status)
}

func (h *HTTP) deploymentStatus(w http.ResponseWriter, r *http.Request) error {
	session, err := h.session(r)
	if err != nil {
		return err
	}
	return apphttp.WriteJSON(w, http.StatusOK, session.Orchestrator.Status())
}

func (h *HTTP) listTokens(w http.ResponseWriter, r *http.Request) error {
	creatorID, err := h.creatorID(r)
	if err != nil {
		return err
	}

	recs, err := h.service.ListRecords(r.Context(), creatorID)
	if err != nil {
		return err
	}
	if recs == nil {
		recs = []*token.Record{}
	}
	return apphttp.WriteJSON(w, http.StatusOK, recs)
}

func (h *HTTP) getToken(w http.ResponseWriter, r *http.Request) error {
	creatorID, err := h.creatorID(r)
	if err != nil {
		return err
	}

	rec, err := h.service.GetRecord(r.Context(), creatorID, chi.URLParam(r, "recordID"))
	if err != nil {
		return err
	}
	return apphttp.WriteJSON(w, http.StatusOK, rec)
}

func (h *HTTP) listNetworks(w http.ResponseWriter, _ *http.Request) error {
	return apphttp.WriteJSON(w, http.StatusOK, registry.All())
}
