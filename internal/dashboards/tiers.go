package dashboards

import "medai-backend/internal/database"

type Tier string

const (
	TierSuccess     Tier = "success"
	TierWarning     Tier = "warning"
	TierDestructive Tier = "destructive"
	TierMuted       Tier = "muted"
)

func PerformanceTier(value float64) Tier {
	switch {
	case value >= 95:
		return TierSuccess
	case value >= 90:
		return TierWarning
	default:
		return TierDestructive
	}
}

func ContributionTier(contribution string) Tier {
	switch contribution {
	case "High":
		return TierSuccess
	case "Medium":
		return TierWarning
	case "Low":
		return TierDestructive
	default:
		return TierMuted
	}
}

func StatusTier(status string) Tier {
	if status == database.HospitalActive {
		return TierSuccess
	}
	return TierMuted
}
