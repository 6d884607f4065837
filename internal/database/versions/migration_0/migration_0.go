package migration_0

import (
	"gorm.io/gorm"
)

type Model struct {
	Id            string `gorm:"size:40;primaryKey"`
	Name          string `gorm:"not null"`
	Description   string
	AccuracyLabel string `gorm:"size:20"`
	Position      int

	Metric          *ModelMetric    `gorm:"foreignKey:ModelId;constraint:OnDelete:CASCADE"`
	ConfusionMatrix []ConfusionCell `gorm:"foreignKey:ModelId;constraint:OnDelete:CASCADE"`
}

type ModelMetric struct {
	ModelId      string `gorm:"size:40;primaryKey"`
	Accuracy     float64
	Precision    float64
	Recall       float64
	F1Score      float64
	TrainingTime string `gorm:"size:20"`
	Parameters   string `gorm:"size:20"`
	Status       string `gorm:"size:20;not null"`
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
	Contribution string `gorm:"size:20"`
	Status       string `gorm:"size:20"`
}

type DeploymentProfile struct {
	Name        string `gorm:"size:20;primaryKey"`
	Accuracy    float64
	DataPrivacy string
	Scalability string
	Regulations string
	DataSharing string
}

func Migration(db *gorm.DB) error {
	return db.AutoMigrate(
		&Model{}, &ModelMetric{}, &ConfusionCell{}, &FederatedRound{}, &Hospital{}, &DeploymentProfile{},
	)
}
