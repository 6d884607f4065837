package dashboards

import (
	"context"
	"fmt"
	"math"

	"medai-backend/internal/database"
)

// Classes is the row and column order of every confusion matrix.
var Classes = []string{"Normal", "Bacterial", "Viral"}

type MetricTiers struct {
	Accuracy  Tier
	Precision Tier
	Recall    Tier
	F1Score   Tier
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
	// Counts[actual][predicted]
	Counts [][]int
	// Recall per actual class, as a percentage with one decimal.
	Recall []float64
}

type Comparison struct {
	Models   []ModelPerformance
	Best     ModelPerformance
	Matrices []ConfusionMatrix
}

func (s *Service) Comparison(ctx context.Context) (*Comparison, error) {
	models, err := database.ListModelsWithMetrics(ctx, s.db)
	if err != nil {
		return nil, err
	}

	comparison := &Comparison{}
	for _, model := range models {
		if model.Metric == nil {
			continue
		}
		perf := performanceOf(model)
		comparison.Models = append(comparison.Models, perf)
		// Later models win ties.
		if len(comparison.Models) == 1 || perf.Accuracy >= comparison.Best.Accuracy {
			comparison.Best = perf
		}

		if len(model.ConfusionMatrix) > 0 {
			matrix, err := confusionMatrixOf(model)
			if err != nil {
				return nil, err
			}
			comparison.Matrices = append(comparison.Matrices, matrix)
		}
	}

	if len(comparison.Models) == 0 {
		return nil, fmt.Errorf("no model metrics available")
	}

	return comparison, nil
}

func performanceOf(model database.Model) ModelPerformance {
	m := model.Metric
	return ModelPerformance{
		Id:           model.Id,
		Name:         model.Name,
		Description:  model.Description,
		Accuracy:     m.Accuracy,
		Precision:    m.Precision,
		Recall:       m.Recall,
		F1Score:      m.F1Score,
		TrainingTime: m.TrainingTime,
		Parameters:   m.Parameters,
		Status:       m.Status,
		Tiers: MetricTiers{
			Accuracy:  PerformanceTier(m.Accuracy),
			Precision: PerformanceTier(m.Precision),
			Recall:    PerformanceTier(m.Recall),
			F1Score:   PerformanceTier(m.F1Score),
		},
	}
}

func classIndex(class string) int {
	for i, c := range Classes {
		if c == class {
			return i
		}
	}
	return -1
}

func confusionMatrixOf(model database.Model) (ConfusionMatrix, error) {
	counts := make([][]int, len(Classes))
	for i := range counts {
		counts[i] = make([]int, len(Classes))
	}

	for _, cell := range model.ConfusionMatrix {
		actual, predicted := classIndex(cell.Actual), classIndex(cell.Predicted)
		if actual < 0 || predicted < 0 {
			return ConfusionMatrix{}, fmt.Errorf("model %s has confusion cell with unknown class %s/%s", model.Id, cell.Actual, cell.Predicted)
		}
		counts[actual][predicted] = cell.Count
	}

	recall := make([]float64, len(Classes))
	for i, row := range counts {
		total := 0
		for _, c := range row {
			total += c
		}
		if total > 0 {
			recall[i] = math.Round(float64(row[i])/float64(total)*1000) / 10
		}
	}

	return ConfusionMatrix{
		ModelId:   model.Id,
		ModelName: model.Name,
		Classes:   Classes,
		Counts:    counts,
		Recall:    recall,
	}, nil
}
