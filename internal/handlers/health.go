package handlers

import (
	"context"
	"net/http"
	"time"

	applog "mealminder/internal/log"
)

type healthResponse struct {
	Status   string    `json:"status"`
	Database string    `json:"database"`
	Time     time.Time `json:"time"`
}

// Health reports liveness plus the reachability of the database. An
// unreachable database degrades the probe to 503 so orchestrators stop routing.
func Health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Database: "unconfigured", Time: time.Now().UTC()}
	status := http.StatusOK

	if database != nil {
		resp.Database = "ok"
		if err := pingDatabase(r.Context()); err != nil {
			applog.Warn(r.Context(), "health check database ping failed", "error", err)
			resp.Status = "degraded"
			resp.Database = "unreachable"
			status = http.StatusServiceUnavailable
		}
	}

	writeJSON(w, status, resp)
}

func pingDatabase(ctx context.Context) error {
	sqlDB, err := database.DB()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return sqlDB.PingContext(ctx)
}
