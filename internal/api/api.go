package api

import (
	"errors"
	"net/http"

	"medai-backend/internal/auth"
	"medai-backend/internal/catalog"
	"medai-backend/internal/dashboards"
	"medai-backend/internal/intake"
	"medai-backend/internal/prediction"
	"medai-backend/internal/session"

	"github.com/go-chi/chi/v5"
)

type BackendService struct {
	gate           auth.Gate
	catalog        *catalog.Catalog
	sessions       *session.Store
	dashboards     *dashboards.Service
	maxUploadBytes int64
}

func NewBackendService(gate auth.Gate, models *catalog.Catalog, sessions *session.Store, dash *dashboards.Service, maxUploadBytes int64) *BackendService {
	if maxUploadBytes <= 0 {
		maxUploadBytes = intake.DefaultMaxBytes
	}
	return &BackendService{
		gate:           gate,
		catalog:        models,
		sessions:       sessions,
		dashboards:     dash,
		maxUploadBytes: maxUploadBytes,
	}
}

func (s *BackendService) AddRoutes(r chi.Router) {
	r.Get("/health", RestHandler(func(r *http.Request) (any, error) { return nil, nil }))

	r.Post("/auth/login", s.Login)

	r.Group(func(r chi.Router) {
		r.Use(s.RequireUser)

		r.Post("/auth/logout", s.Logout)
		r.Get("/auth/me", RestHandler(s.Me))

		r.Get("/models", RestHandler(s.ListModels))

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", RestHandler(s.CreateSession))
			r.Route("/{session_id}", func(r chi.Router) {
				r.Get("/", RestHandler(s.GetSession))
				r.Delete("/", RestHandler(s.DeleteSession))
				r.Post("/upload", RestHandler(s.Upload))
				r.Put("/model", RestHandler(s.SelectModel))
				r.Post("/classify", RestHandler(s.Classify))
				r.Post("/explain", RestHandler(s.Explain))
				r.Get("/preview", RestHandler(s.GetPreview))
			})
		})

		r.Route("/dashboards", func(r chi.Router) {
			r.Get("/comparison", RestHandler(s.GetComparison))
			r.Get("/federated", RestHandler(s.GetFederated))
			r.Get("/federated/status", RestHandler(s.GetFederatedStatus))
		})
	})
}

func (s *BackendService) ListModels(r *http.Request) (any, error) {
	return convertModels(s.catalog.List()), nil
}

// sessionError maps errors from the prediction flow to HTTP statuses.
func sessionError(err error) error {
	var verr *intake.ValidationError
	switch {
	case errors.As(err, &verr):
		if errors.Is(verr, intake.ErrFileTooLarge) {
			return CodedErrorf(http.StatusRequestEntityTooLarge, "%s", verr.Message)
		}
		return CodedErrorf(http.StatusUnprocessableEntity, "%s", verr.Message)
	case errors.Is(err, session.ErrNotFound):
		return CodedErrorf(http.StatusNotFound, "session not found")
	case errors.Is(err, session.ErrMissingRequirement):
		return CodedErrorf(http.StatusUnprocessableEntity, "Please upload an image and select a model")
	case errors.Is(err, session.ErrUnknownModel):
		return CodedError(http.StatusUnprocessableEntity, err)
	case errors.Is(err, session.ErrSuperseded):
		return CodedError(http.StatusConflict, err)
	case errors.Is(err, session.ErrExplainNotOffered):
		return CodedError(http.StatusConflict, err)
	case errors.Is(err, prediction.ErrTransport):
		return CodedErrorf(http.StatusBadGateway, "%s", prediction.GenericFailureMessage)
	default:
		return CodedError(http.StatusInternalServerError, err)
	}
}
