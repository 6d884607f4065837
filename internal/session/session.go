package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"medai-backend/internal/intake"
	"medai-backend/internal/prediction"

	"github.com/google/uuid"
)

type Predictor interface {
	Classify(ctx context.Context, asset *intake.Asset, modelId string) (*prediction.Classification, error)
	Explain(ctx context.Context, asset *intake.Asset, modelId string) (prediction.Explanation, error)
}

type ModelLookup interface {
	Contains(id string) bool
}

type Dependencies struct {
	Intake    *intake.Intake
	Predictor Predictor
	Models    ModelLookup
}

// Session holds the state of one prediction page for one signed-in user.
//
// Classify and Explain release the lock while the inference backend is
// working. Every request takes a ticket; when it completes its outcome is
// applied only if no newer request of the same kind was issued and the held
// asset did not change in the meantime.
type Session struct {
	Id        uuid.UUID
	Owner     string
	CreatedAt time.Time

	deps Dependencies

	mu          sync.Mutex
	asset       *intake.Asset
	modelId     string
	result      *prediction.Classification
	explanation prediction.Explanation
	notice      *Notice

	classifySeq uint64
	explainSeq  uint64
	classifying bool
	explaining  bool
}

func New(owner string, deps Dependencies) *Session {
	return &Session{
		Id:        uuid.New(),
		Owner:     owner,
		CreatedAt: time.Now(),
		deps:      deps,
	}
}

// Snapshot is a consistent copy of the session state.
type Snapshot struct {
	Id             uuid.UUID
	Asset          *intake.Asset
	ModelId        string
	Result         *prediction.Classification
	Explanation    prediction.Explanation
	Notice         *Notice
	Classifying    bool
	Explaining     bool
	ExplainOffered bool
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := Snapshot{
		Id:             s.Id,
		Asset:          s.asset,
		ModelId:        s.modelId,
		Result:         s.result,
		Explanation:    s.explanation,
		Classifying:    s.classifying,
		Explaining:     s.explaining,
		ExplainOffered: s.explainOffered(),
	}
	if s.notice != nil {
		notice := *s.notice
		snapshot.Notice = &notice
	}
	return snapshot
}

func (s *Session) explainOffered() bool {
	return s.asset != nil && s.result != nil && s.result.ModelId == s.modelId
}

// invalidate drops the result and makes every in-flight request stale.
func (s *Session) invalidate() {
	s.result = nil
	s.explanation = prediction.Explanation{}
	s.classifySeq++
	s.explainSeq++
	s.classifying = false
	s.explaining = false
}

// Upload validates the files and, if they are accepted, replaces the held
// asset. A rejected upload leaves the held asset and result untouched.
func (s *Session) Upload(files []intake.File) (*intake.Asset, error) {
	asset, err := s.deps.Intake.Accept(files)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		message := "File upload failed"
		var verr *intake.ValidationError
		if errors.As(err, &verr) {
			message = verr.Message
		}
		s.notice = failure("Upload Error", message)
		return nil, err
	}

	s.asset = asset
	s.invalidate()
	s.notice = info("File uploaded successfully", fmt.Sprintf("%s is ready for analysis", asset.Filename))

	slog.Info("asset uploaded", "session_id", s.Id, "asset_id", asset.Id, "filename", asset.Filename, "media_type", asset.MediaType, "size", asset.Size)

	return asset, nil
}

func (s *Session) SelectModel(modelId string) error {
	if !s.deps.Models.Contains(modelId) {
		return fmt.Errorf("%w: %q", ErrUnknownModel, modelId)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.modelId = modelId
	return nil
}

func (s *Session) Classify(ctx context.Context) (*prediction.Classification, error) {
	s.mu.Lock()
	if s.asset == nil || s.modelId == "" {
		s.notice = failure("Missing Requirements", "Please upload an image and select a model")
		s.mu.Unlock()
		return nil, ErrMissingRequirement
	}
	s.classifySeq++
	ticket := s.classifySeq
	asset, modelId := s.asset, s.modelId
	s.classifying = true
	s.mu.Unlock()

	result, err := s.deps.Predictor.Classify(ctx, asset, modelId)

	s.mu.Lock()
	defer s.mu.Unlock()

	if ticket != s.classifySeq || asset != s.asset {
		slog.Info("discarding stale classification", "session_id", s.Id, "model", modelId, "ticket", ticket)
		return nil, ErrSuperseded
	}

	s.classifying = false
	s.explanation = prediction.Explanation{}
	s.explaining = false
	s.explainSeq++

	if err != nil {
		s.result = nil
		s.notice = failure("Prediction Failed", prediction.GenericFailureMessage)
		slog.Error("classification failed", "session_id", s.Id, "model", modelId, "error", err)
		return nil, err
	}

	s.result = result
	s.notice = info("Prediction Complete", fmt.Sprintf("Classified as %s with %.1f%% confidence", result.Label, result.Confidence()))
	return result, nil
}

func (s *Session) Explain(ctx context.Context) (prediction.Explanation, error) {
	s.mu.Lock()
	if !s.explainOffered() {
		s.mu.Unlock()
		return prediction.Explanation{}, ErrExplainNotOffered
	}
	s.explainSeq++
	ticket := s.explainSeq
	asset, result := s.asset, s.result
	s.explaining = true
	s.mu.Unlock()

	explanation, err := s.deps.Predictor.Explain(ctx, asset, result.ModelId)

	s.mu.Lock()
	defer s.mu.Unlock()

	if ticket != s.explainSeq || asset != s.asset || result != s.result {
		slog.Info("discarding stale explanation", "session_id", s.Id, "model", result.ModelId, "ticket", ticket)
		return prediction.Explanation{}, ErrSuperseded
	}

	s.explaining = false

	if err != nil {
		s.notice = failure("Grad-CAM Failed", "An error occurred generating visualization. Please try again.")
		slog.Error("explanation failed", "session_id", s.Id, "model", result.ModelId, "error", err)
		return prediction.Explanation{}, err
	}

	s.explanation = explanation
	if explanation.State == prediction.ExplanationNotApplicable {
		s.notice = info("Normal X-Ray", "Grad-CAM highlighting is only generated for pneumonia cases")
	} else {
		s.notice = info("Grad-CAM Generated", "Visual explanation showing affected areas")
	}
	return explanation, nil
}
