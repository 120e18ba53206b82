package handlers

import (
	"net/http"
	"strings"

	"github.com/6529-Collections/flipscan/pkg/flips/models"
	"github.com/ethereum/go-ethereum/common"
)

type FlipsResponse = PaginatedResponse[models.FlipRecord]

// FlipsGetHandler lists the flips of the latest finished run, optionally
// filtered by flipper address.
func FlipsGetHandler(r *http.Request, provider ReportProvider) (FlipsResponse, error) {
	var records []models.FlipRecord
	if report := provider.LatestReport(); report != nil {
		records = report.Flips
	}

	if address := r.URL.Query().Get("address"); address != "" {
		if !common.IsHexAddress(address) {
			return FlipsResponse{}, BadRequest("invalid address")
		}
		address = strings.ToLower(common.HexToAddress(address).Hex())
		filtered := make([]models.FlipRecord, 0, len(records))
		for _, f := range records {
			if f.Address == address {
				filtered = append(filtered, f)
			}
		}
		records = filtered
	}

	return Paginate(r, records), nil
}
