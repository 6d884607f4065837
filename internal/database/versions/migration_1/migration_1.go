package migration_1

import (
	"fmt"

	"gorm.io/gorm"
)

// Seeds the illustrative catalog and dashboard data shown by the demo.

type Model struct {
	Id            string `gorm:"size:40;primaryKey"`
	Name          string
	Description   string
	AccuracyLabel string `gorm:"size:20"`
	Position      int
}

type ModelMetric struct {
	ModelId      string `gorm:"size:40;primaryKey"`
	Accuracy     float64
	Precision    float64
	Recall       float64
	F1Score      float64
	TrainingTime string
	Parameters   string
	Status       string
}

type ConfusionCell struct {
	ModelId   string `gorm:"size:40;primaryKey"`
	Actual    string `gorm:"size:20;primaryKey"`
	Predicted string `gorm:"size:20;primaryKey"`
	Count     int
}

type FederatedRound struct {
	Round        int `gorm:"primaryKey;autoIncrement:false"`
	Accuracy     float64
	Participants int
	DataPoints   int
}

type Hospital struct {
	Id           int `gorm:"primaryKey;autoIncrement:false"`
	Name         string
	Location     string
	DataSize     int
	Contribution string
	Status       string
}

type DeploymentProfile struct {
	Name        string `gorm:"size:20;primaryKey"`
	Accuracy    float64
	DataPrivacy string
	Scalability string
	Regulations string
	DataSharing string
}

var models = []Model{
	{Id: "cnn", Name: "CNN", Description: "Basic Convolutional Neural Network", AccuracyLabel: "92.5%", Position: 0},
	{Id: "vgg19", Name: "VGG19", Description: "Visual Geometry Group 19-layer network", AccuracyLabel: "94.2%", Position: 1},
	{Id: "resnet50", Name: "ResNet50", Description: "50-layer Residual Network", AccuracyLabel: "93.8%", Position: 2},
	{Id: "densenet121", Name: "DenseNet121", Description: "121-layer Densely Connected Network", AccuracyLabel: "95.1%", Position: 3},
	{Id: "federated", Name: "Federated Global Model", Description: "Privacy-preserving federated learning model", AccuracyLabel: "96.3%", Position: 4},
}

var metrics = []ModelMetric{
	{ModelId: "cnn", Accuracy: 92.5, Precision: 91.2, Recall: 90.8, F1Score: 91.0, TrainingTime: "45 min", Parameters: "2.3M", Status: "TRAINED"},
	{ModelId: "vgg19", Accuracy: 94.2, Precision: 93.8, Recall: 93.5, F1Score: 93.6, TrainingTime: "2.1 hrs", Parameters: "143.7M", Status: "TRAINED"},
	{ModelId: "resnet50", Accuracy: 93.8, Precision: 93.1, Recall: 92.9, F1Score: 93.0, TrainingTime: "1.8 hrs", Parameters: "25.6M", Status: "TRAINED"},
	{ModelId: "densenet121", Accuracy: 95.1, Precision: 94.8, Recall: 94.6, F1Score: 94.7, TrainingTime: "2.3 hrs", Parameters: "8.0M", Status: "TRAINED"},
	{ModelId: "federated", Accuracy: 96.3, Precision: 95.9, Recall: 95.7, F1Score: 95.8, TrainingTime: "4.2 hrs", Parameters: "8.0M", Status: "TRAINED"},
}

var classes = []string{"Normal", "Bacterial", "Viral"}

// rows are actual class, columns predicted class, both in classes order.
var confusion = map[string][3][3]int{
	"cnn":         {{185, 8, 7}, {12, 176, 12}, {9, 15, 176}},
	"vgg19":       {{192, 5, 3}, {8, 184, 8}, {6, 9, 185}},
	"resnet50":    {{189, 7, 4}, {10, 181, 9}, {7, 12, 181}},
	"densenet121": {{194, 4, 2}, {6, 186, 8}, {5, 8, 187}},
	"federated":   {{196, 3, 1}, {4, 189, 7}, {3, 6, 191}},
}

var rounds = []FederatedRound{
	{Round: 1, Accuracy: 78.5, Participants: 3, DataPoints: 1500},
	{Round: 2, Accuracy: 82.1, Participants: 4, DataPoints: 2000},
	{Round: 3, Accuracy: 85.3, Participants: 5, DataPoints: 2500},
	{Round: 4, Accuracy: 87.9, Participants: 5, DataPoints: 2500},
	{Round: 5, Accuracy: 89.8, Participants: 6, DataPoints: 3000},
	{Round: 6, Accuracy: 91.2, Participants: 6, DataPoints: 3000},
	{Round: 7, Accuracy: 92.5, Participants: 7, DataPoints: 3500},
	{Round: 8, Accuracy: 93.8, Participants: 7, DataPoints: 3500},
	{Round: 9, Accuracy: 95.1, Participants: 8, DataPoints: 4000},
	{Round: 10, Accuracy: 96.3, Participants: 8, DataPoints: 4000},
}

var hospitals = []Hospital{
	{Id: 1, Name: "General Hospital A", Location: "New York", DataSize: 500, Contribution: "High", Status: "Active"},
	{Id: 2, Name: "Medical Center B", Location: "California", DataSize: 450, Contribution: "High", Status: "Active"},
	{Id: 3, Name: "Regional Hospital C", Location: "Texas", DataSize: 380, Contribution: "Medium", Status: "Active"},
	{Id: 4, Name: "City Hospital D", Location: "Florida", DataSize: 320, Contribution: "Medium", Status: "Active"},
	{Id: 5, Name: "University Hospital E", Location: "Illinois", DataSize: 600, Contribution: "High", Status: "Active"},
	{Id: 6, Name: "Community Hospital F", Location: "Oregon", DataSize: 280, Contribution: "Low", Status: "Inactive"},
	{Id: 7, Name: "Metro Medical G", Location: "Washington", DataSize: 420, Contribution: "Medium", Status: "Active"},
	{Id: 8, Name: "Central Hospital H", Location: "Colorado", DataSize: 350, Contribution: "Medium", Status: "Active"},
}

var profiles = []DeploymentProfile{
	{Name: "centralized", Accuracy: 93.8, DataPrivacy: "Low", Scalability: "Limited", Regulations: "Challenging", DataSharing: "Required"},
	{Name: "federated", Accuracy: 96.3, DataPrivacy: "High", Scalability: "Excellent", Regulations: "Compliant", DataSharing: "Not Required"},
}

func Migration(db *gorm.DB) error {
	if err := db.Create(&models).Error; err != nil {
		return fmt.Errorf("error seeding models: %w", err)
	}
	if err := db.Create(&metrics).Error; err != nil {
		return fmt.Errorf("error seeding model metrics: %w", err)
	}

	var cells []ConfusionCell
	for modelId, matrix := range confusion {
		for i, actual := range classes {
			for j, predicted := range classes {
				cells = append(cells, ConfusionCell{ModelId: modelId, Actual: actual, Predicted: predicted, Count: matrix[i][j]})
			}
		}
	}
	if err := db.Create(&cells).Error; err != nil {
		return fmt.Errorf("error seeding confusion matrices: %w", err)
	}

	if err := db.Create(&rounds).Error; err != nil {
		return fmt.Errorf("error seeding federated rounds: %w", err)
	}
	if err := db.Create(&hospitals).Error; err != nil {
		return fmt.Errorf("error seeding hospitals: %w", err)
	}
	if err := db.Create(&profiles).Error; err != nil {
		return fmt.Errorf("error seeding deployment profiles: %w", err)
	}

	return nil
}

func Rollback(db *gorm.DB) error {
	for _, table := range []any{&DeploymentProfile{}, &Hospital{}, &FederatedRound{}, &ConfusionCell{}, &ModelMetric{}, &Model{}} {
		if err := db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(table).Error; err != nil {
			return err
		}
	}
	return nil
}
