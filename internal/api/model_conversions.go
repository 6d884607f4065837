package api

import (
	"medai-backend/internal/auth"
	"medai-backend/internal/catalog"
	"medai-backend/internal/dashboards"
	"medai-backend/internal/presenter"
	"medai-backend/pkg/api"
)

func convertModels(ds []catalog.Descriptor) []api.Model {
	models := make([]api.Model, 0, len(ds))
	for _, d := range ds {
		models = append(models, api.Model{
			Id:          d.Id,
			Name:        d.Name,
			Description: d.Description,
			Accuracy:    d.Accuracy,
		})
	}
	return models
}

func convertUser(u auth.User) api.User {
	return api.User{Username: u.Username, Anonymous: u.Anonymous}
}

func convertView(v presenter.View) api.Session {
	session := api.Session{
		Id:             v.SessionId,
		ModelId:        v.ModelId,
		Classifying:    v.Classifying,
		Explaining:     v.Explaining,
		ExplainOffered: v.ExplainOffered,
		Explanation: api.Explanation{
			State:   v.Explanation.State.String(),
			Image:   v.Explanation.Image,
			Message: v.Explanation.Message,
		},
	}

	if v.Asset != nil {
		session.Asset = &api.Asset{
			Filename:  v.Asset.Filename,
			MediaType: v.Asset.MediaType,
			Size:      v.Asset.SizeBytes,
			SizeText:  v.Asset.SizeText,
			Preview:   string(v.Asset.Preview),
		}
	}

	if v.Result != nil {
		bars := make([]api.Bar, 0, len(v.Result.Bars))
		for _, b := range v.Result.Bars {
			bars = append(bars, api.Bar{Label: b.Label.String(), Value: b.Value, Text: b.Text})
		}
		session.Result = &api.Result{
			Label:     v.Result.Label.String(),
			LabelText: v.Result.LabelText,
			Style: api.Style{
				Color:      v.Result.Style.Color,
				Background: v.Result.Style.Background,
				Icon:       v.Result.Style.Icon,
			},
			Confidence:     v.Result.Confidence,
			ConfidenceText: v.Result.ConfidenceText,
			Bars:           bars,
			ModelId:        v.Result.ModelId,
			ProcessingTime: v.Result.ProcessingTime,
		}
	}

	if v.Notice != nil {
		session.Notice = &api.Notice{
			Level:   string(v.Notice.Level),
			Title:   v.Notice.Title,
			Message: v.Notice.Message,
			Time:    v.Notice.Time,
		}
	}

	return session
}

func convertPerformance(m dashboards.ModelPerformance) api.ModelPerformance {
	return api.ModelPerformance{
		Id:           m.Id,
		Name:         m.Name,
		Description:  m.Description,
		Accuracy:     m.Accuracy,
		Precision:    m.Precision,
		Recall:       m.Recall,
		F1Score:      m.F1Score,
		TrainingTime: m.TrainingTime,
		Parameters:   m.Parameters,
		Status:       m.Status,
		Tiers: api.MetricTiers{
			Accuracy:  string(m.Tiers.Accuracy),
			Precision: string(m.Tiers.Precision),
			Recall:    string(m.Tiers.Recall),
			F1Score:   string(m.Tiers.F1Score),
		},
	}
}

func convertComparison(c *dashboards.Comparison) api.ComparisonResponse {
	res := api.ComparisonResponse{
		Models:   make([]api.ModelPerformance, 0, len(c.Models)),
		Best:     convertPerformance(c.Best),
		Matrices: make([]api.ConfusionMatrix, 0, len(c.Matrices)),
	}
	for _, m := range c.Models {
		res.Models = append(res.Models, convertPerformance(m))
	}
	for _, m := range c.Matrices {
		res.Matrices = append(res.Matrices, api.ConfusionMatrix{
			ModelId:   m.ModelId,
			ModelName: m.ModelName,
			Classes:   m.Classes,
			Counts:    m.Counts,
			Recall:    m.Recall,
		})
	}
	return res
}

func convertRound(r dashboards.Round) api.FederatedRound {
	return api.FederatedRound{Round: r.Round, Accuracy: r.Accuracy, Participants: r.Participants, DataPoints: r.DataPoints}
}

func convertProfile(p dashboards.Profile) api.DeploymentProfile {
	return api.DeploymentProfile{
		Accuracy:    p.Accuracy,
		DataPrivacy: p.DataPrivacy,
		Scalability: p.Scalability,
		Regulations: p.Regulations,
		DataSharing: p.DataSharing,
	}
}

func convertFederated(f *dashboards.Federated) api.FederatedResponse {
	res := api.FederatedResponse{
		Rounds:        make([]api.FederatedRound, 0, len(f.Rounds)),
		SelectedRound: convertRound(f.Selected),
		Hospitals:     make([]api.Hospital, 0, len(f.Hospitals)),
		Totals: api.FederatedTotals{
			Rounds:          f.Totals.Rounds,
			FinalAccuracy:   f.Totals.FinalAccuracy,
			Hospitals:       f.Totals.Hospitals,
			ActiveHospitals: f.Totals.ActiveHospitals,
			DataPoints:      f.Totals.DataPoints,
		},
		Centralized:   convertProfile(f.Centralized),
		Federated:     convertProfile(f.Federated),
		HistorySource: f.HistorySource,
		Timestamp:     f.Timestamp,
	}
	for _, r := range f.Rounds {
		res.Rounds = append(res.Rounds, convertRound(r))
	}
	for _, h := range f.Hospitals {
		res.Hospitals = append(res.Hospitals, api.Hospital{
			Id:               h.Id,
			Name:             h.Name,
			Location:         h.Location,
			DataSize:         h.DataSize,
			Contribution:     h.Contribution,
			ContributionTier: string(h.ContributionTier),
			Status:           h.Status,
			StatusTier:       string(h.StatusTier),
		})
	}
	return res
}
