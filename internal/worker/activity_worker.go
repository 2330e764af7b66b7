package worker

import (
	"github.com/slugbotics/sluggo/internal/service"
)

// StartActivityWorker registers activity log handlers.
func StartActivityWorker(activityService *service.ActivityService) {
	if activityService == nil {
		return
	}
	activityService.RegisterHandlers()
}
