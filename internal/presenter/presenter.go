package presenter

import (
	"fmt"

	"medai-backend/internal/intake"
	"medai-backend/internal/prediction"
	"medai-backend/internal/session"

	"github.com/google/uuid"
)

type Style struct {
	Color      string
	Background string
	Icon       string
}

// StyleFor is total over labels; anything unrecognized gets the muted style.
func StyleFor(label prediction.Label) Style {
	switch label {
	case prediction.Normal:
		return Style{Color: "text-green-600", Background: "bg-green-100", Icon: "check-circle-2"}
	case prediction.Bacterial:
		return Style{Color: "text-red-600", Background: "bg-red-100", Icon: "alert-circle"}
	case prediction.Viral:
		return Style{Color: "text-orange-600", Background: "bg-orange-100", Icon: "alert-circle"}
	default:
		return Style{Color: "text-muted-foreground", Background: "bg-muted", Icon: "alert-circle"}
	}
}

func DisplayName(label prediction.Label) string {
	switch label {
	case prediction.Bacterial:
		return "Bacterial Pneumonia"
	case prediction.Viral:
		return "Viral Pneumonia"
	default:
		return label.String()
	}
}

type PreviewState string

const (
	PreviewNone    PreviewState = "none"
	PreviewPending PreviewState = "pending"
	PreviewReady   PreviewState = "ready"
	PreviewFailed  PreviewState = "failed"
)

type AssetView struct {
	Filename  string
	MediaType string
	SizeBytes int64
	SizeText  string
	Preview   PreviewState
}

type Bar struct {
	Label prediction.Label
	Value float64
	Text  string
}

type ResultView struct {
	Label          prediction.Label
	LabelText      string
	Style          Style
	Confidence     float64
	ConfidenceText string
	Bars           []Bar
	ModelId        string
	ProcessingTime string
}

type ExplanationView struct {
	State   prediction.ExplanationState
	Image   string
	Message string
}

type View struct {
	SessionId      uuid.UUID
	Asset          *AssetView
	ModelId        string
	Classifying    bool
	Explaining     bool
	Result         *ResultView
	Explanation    ExplanationView
	ExplainOffered bool
	Notice         *session.Notice
}

const notApplicableMessage = "Grad-CAM highlighting is only generated for pneumonia cases"

func Present(snapshot session.Snapshot) View {
	view := View{
		SessionId:      snapshot.Id,
		ModelId:        snapshot.ModelId,
		Classifying:    snapshot.Classifying,
		Explaining:     snapshot.Explaining,
		ExplainOffered: snapshot.ExplainOffered,
		Notice:         snapshot.Notice,
		Explanation:    presentExplanation(snapshot.Explanation),
	}
	if snapshot.Asset != nil {
		view.Asset = presentAsset(snapshot.Asset)
	}
	if snapshot.Result != nil {
		view.Result = presentResult(snapshot.Result)
	}
	return view
}

func presentAsset(asset *intake.Asset) *AssetView {
	return &AssetView{
		Filename:  asset.Filename,
		MediaType: asset.MediaType,
		SizeBytes: asset.Size,
		SizeText:  intake.FormatSize(asset.Size),
		Preview:   PreviewStateOf(asset),
	}
}

func PreviewStateOf(asset *intake.Asset) PreviewState {
	if asset == nil || asset.Preview == nil {
		return PreviewNone
	}
	_, ready, err := asset.Preview.Ready()
	switch {
	case !ready:
		return PreviewPending
	case err != nil:
		return PreviewFailed
	default:
		return PreviewReady
	}
}

func presentResult(result *prediction.Classification) *ResultView {
	bars := make([]Bar, 0, len(prediction.Labels))
	for _, label := range prediction.Labels {
		value := prediction.Clamp(result.Confidences[label])
		bars = append(bars, Bar{Label: label, Value: value, Text: Percent(value)})
	}

	confidence := prediction.Clamp(result.Confidence())
	return &ResultView{
		Label:          result.Label,
		LabelText:      DisplayName(result.Label),
		Style:          StyleFor(result.Label),
		Confidence:     confidence,
		ConfidenceText: Percent(confidence),
		Bars:           bars,
		ModelId:        result.ModelId,
		ProcessingTime: result.ProcessingTime,
	}
}

func presentExplanation(explanation prediction.Explanation) ExplanationView {
	view := ExplanationView{State: explanation.State}
	switch explanation.State {
	case prediction.ExplanationImage:
		view.Image = explanation.Image
	case prediction.ExplanationNotApplicable:
		view.Message = notApplicableMessage
	}
	return view
}

// Percent formats a percentage with one decimal, e.g. "90.0%".
func Percent(value float64) string {
	return fmt.Sprintf("%.1f%%", prediction.Clamp(value))
}
