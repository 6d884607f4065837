package database

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

func ListModels(ctx context.Context, db *gorm.DB) ([]Model, error) {
	var models []Model
	if err := db.WithContext(ctx).Order("position").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("error listing models: %w", err)
	}
	return models, nil
}

func ListModelsWithMetrics(ctx context.Context, db *gorm.DB) ([]Model, error) {
	var models []Model
	if err := db.WithContext(ctx).Preload("Metric").Preload("ConfusionMatrix").Order("position").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("error listing model metrics: %w", err)
	}
	return models, nil
}

func ListFederatedRounds(ctx context.Context, db *gorm.DB) ([]FederatedRound, error) {
	var rounds []FederatedRound
	if err := db.WithContext(ctx).Order("round").Find(&rounds).Error; err != nil {
		return nil, fmt.Errorf("error listing federated rounds: %w", err)
	}
	return rounds, nil
}

func ListHospitals(ctx context.Context, db *gorm.DB) ([]Hospital, error) {
	var hospitals []Hospital
	if err := db.WithContext(ctx).Order("id").Find(&hospitals).Error; err != nil {
		return nil, fmt.Errorf("error listing hospitals: %w", err)
	}
	return hospitals, nil
}

func GetDeploymentProfiles(ctx context.Context, db *gorm.DB) (map[string]DeploymentProfile, error) {
	var profiles []DeploymentProfile
	if err := db.WithContext(ctx).Find(&profiles).Error; err != nil {
		return nil, fmt.Errorf("error listing deployment profiles: %w", err)
	}

	byName := make(map[string]DeploymentProfile, len(profiles))
	for _, p := range profiles {
		byName[p.Name] = p
	}
	return byName, nil
}
