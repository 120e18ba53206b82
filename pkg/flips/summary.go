package flips

import (
	"fmt"
	"io"

	"github.com/6529-Collections/flipscan/pkg/flips/models"
)

const noFlipsMessage = "no quick flips detected"

// WriteSummary writes one tab-separated line per flip:
// contract, token id, address and hold time in hours.
func WriteSummary(w io.Writer, flips []models.FlipRecord) error {
	if len(flips) == 0 {
		_, err := fmt.Fprintln(w, noFlipsMessage)
		return err
	}
	for _, f := range flips {
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\n", f.Contract, f.TokenID, f.Address, f.HoldHours()); err != nil {
			return err
		}
	}
	return nil
}
