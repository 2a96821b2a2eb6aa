package dashboard

import (
	"customermind/internal/repositories"
	"customermind/internal/services"

	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Provide(
	provideDashboardRepo, provideDashboardService,
)

func provideDashboardRepo(db *gorm.DB) repositories.DashboardRepository {
	return repositories.NewDashboardRepository(db)
}

func provideDashboardService(dashboardRepo repositories.DashboardRepository, affiliates repositories.AffiliateRepository) services.DashboardService {
	return services.NewDashboardService(dashboardRepo, affiliates)
}
