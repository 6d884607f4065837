package api

import (
	"errors"
	"net/http"

	"medai-backend/internal/dashboards"
	"medai-backend/pkg/api"
)

func (s *BackendService) GetComparison(r *http.Request) (any, error) {
	comparison, err := s.dashboards.Comparison(r.Context())
	if err != nil {
		return nil, CodedError(http.StatusInternalServerError, err)
	}
	return convertComparison(comparison), nil
}

func (s *BackendService) GetFederated(r *http.Request) (any, error) {
	params, err := ParseRequestQueryParams[api.FederatedParams](r)
	if err != nil {
		return nil, err
	}
	if params.Round < 0 {
		return nil, CodedErrorf(http.StatusBadRequest, "round must be positive")
	}

	dashboard, err := s.dashboards.Federated(r.Context(), params.Round)
	if err != nil {
		if errors.Is(err, dashboards.ErrRoundNotFound) {
			return nil, CodedError(http.StatusNotFound, err)
		}
		return nil, CodedError(http.StatusInternalServerError, err)
	}
	return convertFederated(dashboard), nil
}

func (s *BackendService) GetFederatedStatus(r *http.Request) (any, error) {
	status, err := s.dashboards.Status(r.Context())
	if err != nil {
		return nil, CodedError(http.StatusInternalServerError, err)
	}
	return api.FederatedStatusResponse{
		ModelExists:      status.ModelExists,
		ModelKey:         status.ModelKey,
		ModelSize:        status.ModelSize,
		HistoryAvailable: status.HistoryAvailable,
	}, nil
}
