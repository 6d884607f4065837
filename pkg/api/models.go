package api

import (
	"time"

	"github.com/google/uuid"
)

type Model struct {
	Id          string
	Name        string
	Description string
	Accuracy    string
}

type LoginRequest struct {
	Username string
	Password string
}

type User struct {
	Username  string
	Anonymous bool
}

type LoginResponse struct {
	Token string
	User  User
}

type CreateSessionResponse struct {
	Id uuid.UUID
}

type SelectModelRequest struct {
	ModelId string
}

type Notice struct {
	Level   string
	Title   string
	Message string
	Time    time.Time
}

type Asset struct {
	Filename  string
	MediaType string
	Size      int64
	SizeText  string
	Preview   string
}

type Style struct {
	Color      string
	Background string
	Icon       string
}

type Bar struct {
	Label string
	Value float64
	Text  string
}

type Result struct {
	Label          string
	LabelText      string
	Style          Style
	Confidence     float64
	ConfidenceText string
	Bars           []Bar
	ModelId        string
	ProcessingTime string `json:"ProcessingTime,omitempty"`
}

type Explanation struct {
	State   string
	Image   string `json:"Image,omitempty"`
	Message string `json:"Message,omitempty"`
}

type Session struct {
	Id             uuid.UUID
	Asset          *Asset
	ModelId        string
	Classifying    bool
	Explaining     bool
	Result         *Result
	Explanation    Explanation
	ExplainOffered bool
	Notice         *Notice
}

type Preview struct {
	State string
	Image string `json:"Image,omitempty"`
}

type MetricTiers struct {
	Accuracy  string
	Precision string
	Recall    string
	F1Score   string
}

type ModelPerformance struct {
	Id           string
	Name         string
	Description  string
	Accuracy     float64
	Precision    float64
	Recall       float64
	F1Score      float64
	TrainingTime string
	Parameters   string
	Status       string
	Tiers        MetricTiers
}

type ConfusionMatrix struct {
	ModelId   string
	ModelName string
	Classes   []string
	Counts    [][]int
	Recall    []float64
}

type ComparisonResponse struct {
	Models   []ModelPerformance
	Best     ModelPerformance
	Matrices []ConfusionMatrix
}

type FederatedParams struct {
	Round int `schema:"round"`
}

type FederatedRound struct {
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
	ContributionTier string
	Status           string
	StatusTier       string
}

type FederatedTotals struct {
	Rounds          int
	FinalAccuracy   float64
	Hospitals       int
	ActiveHospitals int
	DataPoints      int
}

type DeploymentProfile struct {
	Accuracy    float64
	DataPrivacy string
	Scalability string
	Regulations string
	DataSharing string
}

type FederatedResponse struct {
	Rounds        []FederatedRound
	SelectedRound FederatedRound
	Hospitals     []Hospital
	Totals        FederatedTotals
	Centralized   DeploymentProfile
	Federated     DeploymentProfile
	HistorySource string
	Timestamp     string `json:"Timestamp,omitempty"`
}

type FederatedStatusResponse struct {
	ModelExists      bool
	ModelKey         string `json:"ModelKey,omitempty"`
	ModelSize        int64
	HistoryAvailable bool
}
