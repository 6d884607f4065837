package dashboards

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"medai-backend/internal/database"
	"medai-backend/internal/storage"
)

const (
	HistoryKey        = "training_history.json"
	GlobalModelPrefix = "global_model"
)

var ErrRoundNotFound = errors.New("federated round not found")

type Round struct {
	Round        int
	Accuracy     float64
	Participants int
	DataPoints   int
}

type Hospital struct {
	Id               int
	Name             string
	Location         string
	DataSize         int
	Contribution     string
	ContributionTier Tier
	Status           string
	StatusTier       Tier
}

type Totals struct {
	Rounds          int
	FinalAccuracy   float64
	Hospitals       int
	ActiveHospitals int
	DataPoints      int
}

type Profile struct {
	Accuracy    float64
	DataPrivacy string
	Scalability string
	Regulations string
	DataSharing string
}

type Federated struct {
	Rounds      []Round
	Selected    Round
	Hospitals   []Hospital
	Totals      Totals
	Centralized Profile
	Federated   Profile
	// HistorySource is "storage" when the rounds come from a training
	// history artifact and "seed" otherwise.
	HistorySource string
	Timestamp     string
}

type Status struct {
	ModelExists      bool
	ModelKey         string
	ModelSize        int64
	HistoryAvailable bool
}

// Federated returns the federated learning dashboard with the given round
// selected. Round 0 selects the latest round.
func (s *Service) Federated(ctx context.Context, round int) (*Federated, error) {
	rounds, source, timestamp, err := s.rounds(ctx)
	if err != nil {
		return nil, err
	}
	if len(rounds) == 0 {
		return nil, fmt.Errorf("no federated rounds available")
	}

	dashboard := &Federated{Rounds: rounds, HistorySource: source, Timestamp: timestamp}

	if round == 0 {
		dashboard.Selected = rounds[len(rounds)-1]
	} else {
		found := false
		for _, r := range rounds {
			if r.Round == round {
				dashboard.Selected, found = r, true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("%w: %d", ErrRoundNotFound, round)
		}
	}

	hospitals, err := database.ListHospitals(ctx, s.db)
	if err != nil {
		return nil, err
	}
	for _, h := range hospitals {
		dashboard.Hospitals = append(dashboard.Hospitals, Hospital{
			Id:               h.Id,
			Name:             h.Name,
			Location:         h.Location,
			DataSize:         h.DataSize,
			Contribution:     h.Contribution,
			ContributionTier: ContributionTier(h.Contribution),
			Status:           h.Status,
			StatusTier:       StatusTier(h.Status),
		})
		dashboard.Totals.Hospitals++
		dashboard.Totals.DataPoints += h.DataSize
		if h.Status == database.HospitalActive {
			dashboard.Totals.ActiveHospitals++
		}
	}
	dashboard.Totals.Rounds = len(rounds)
	dashboard.Totals.FinalAccuracy = rounds[len(rounds)-1].Accuracy

	profiles, err := database.GetDeploymentProfiles(ctx, s.db)
	if err != nil {
		return nil, err
	}
	dashboard.Centralized = profileOf(profiles["centralized"])
	dashboard.Federated = profileOf(profiles["federated"])

	return dashboard, nil
}

func profileOf(p database.DeploymentProfile) Profile {
	return Profile{
		Accuracy:    p.Accuracy,
		DataPrivacy: p.DataPrivacy,
		Scalability: p.Scalability,
		Regulations: p.Regulations,
		DataSharing: p.DataSharing,
	}
}

func (s *Service) rounds(ctx context.Context) ([]Round, string, string, error) {
	if history, err := s.loadHistory(ctx); err != nil {
		slog.Warn("ignoring federated training history", "bucket", s.bucket, "key", HistoryKey, "error", err)
	} else if history != nil {
		return history.toRounds(), "storage", history.Timestamp, nil
	}

	seeded, err := database.ListFederatedRounds(ctx, s.db)
	if err != nil {
		return nil, "", "", err
	}
	rounds := make([]Round, 0, len(seeded))
	for _, r := range seeded {
		rounds = append(rounds, Round{Round: r.Round, Accuracy: r.Accuracy, Participants: r.Participants, DataPoints: r.DataPoints})
	}
	return rounds, "seed", "", nil
}

type clientMetric struct {
	Samples int `json:"samples"`
}

type trainingHistory struct {
	Rounds         []int            `json:"rounds"`
	GlobalAccuracy []float64        `json:"global_accuracy"`
	ClientMetrics  [][]clientMetric `json:"client_metrics"`
	Timestamp      string           `json:"timestamp"`
}

// loadHistory returns nil without error when no history has been published.
func (s *Service) loadHistory(ctx context.Context) (*trainingHistory, error) {
	if s.storage == nil {
		return nil, nil
	}

	data, err := s.storage.GetObject(ctx, s.bucket, HistoryKey)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var history trainingHistory
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, fmt.Errorf("invalid training history: %w", err)
	}
	if len(history.Rounds) == 0 {
		return nil, nil
	}
	if len(history.GlobalAccuracy) != len(history.Rounds) || len(history.ClientMetrics) != len(history.Rounds) {
		return nil, fmt.Errorf("training history has %d rounds, %d accuracies and %d client metric sets",
			len(history.Rounds), len(history.GlobalAccuracy), len(history.ClientMetrics))
	}
	return &history, nil
}

func (h *trainingHistory) toRounds() []Round {
	// Accuracies are fractions when written by the training server.
	scale := 100.0
	for _, acc := range h.GlobalAccuracy {
		if acc > 1 {
			scale = 1
			break
		}
	}

	rounds := make([]Round, 0, len(h.Rounds))
	for i, num := range h.Rounds {
		dataPoints := 0
		for _, m := range h.ClientMetrics[i] {
			dataPoints += m.Samples
		}
		rounds = append(rounds, Round{
			Round:        num,
			Accuracy:     h.GlobalAccuracy[i] * scale,
			Participants: len(h.ClientMetrics[i]),
			DataPoints:   dataPoints,
		})
	}
	return rounds
}

// Status reports whether the federated training pipeline has published a
// global model and a training history.
func (s *Service) Status(ctx context.Context) (*Status, error) {
	status := &Status{}
	if s.storage == nil {
		return status, nil
	}

	objects, err := s.storage.ListObjects(ctx, s.bucket, "")
	if err != nil {
		return nil, fmt.Errorf("error listing federated artifacts: %w", err)
	}

	for _, obj := range objects {
		name := obj.Name[strings.LastIndex(obj.Name, "/")+1:]
		switch {
		case obj.Name == HistoryKey:
			status.HistoryAvailable = true
		case strings.HasPrefix(name, GlobalModelPrefix) && !strings.Contains(name, "_round_"):
			status.ModelExists = true
			status.ModelKey = obj.Name
			status.ModelSize = obj.Size
		}
	}

	return status, nil
}
