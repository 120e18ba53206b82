package handlers

import (
	"net/http"
	"time"

	"github.com/6529-Collections/flipscan/pkg/flips"
)

type ReportProvider interface {
	LatestReport() *flips.Report
}

type LastRun struct {
	RunID          string    `json:"runId"`
	StartedAt      time.Time `json:"startedAt"`
	FinishedAt     time.Time `json:"finishedAt"`
	Targets        int       `json:"targets"`
	TargetsScanned int       `json:"targetsScanned"`
	TargetsSkipped int       `json:"targetsSkipped"`
	Flips          int       `json:"flips"`
}

type StatusResponse struct {
	Status  string   `json:"status"`
	LastRun *LastRun `json:"lastRun"`
}

func StatusGetHandler(r *http.Request, provider ReportProvider) (StatusResponse, error) {
	resp := StatusResponse{Status: "OK"}
	if report := provider.LatestReport(); report != nil {
		resp.LastRun = &LastRun{
			RunID:          report.RunID,
			StartedAt:      report.StartedAt,
			FinishedAt:     report.FinishedAt,
			Targets:        report.Targets,
			TargetsScanned: report.TargetsScanned,
			TargetsSkipped: report.TargetsSkipped,
			Flips:          len(report.Flips),
		}
	}
	return resp, nil
}
