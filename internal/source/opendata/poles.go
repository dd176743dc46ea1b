package opendata

import (
	"fmt"

	"github.com/darleison-rodrigues/route-quebec-worker/internal/record"
	"github.com/darleison-rodrigues/route-quebec-worker/internal/source"
)

// PoleRecord maps one row of poteaux-de-signalisation.csv onto a poles record.
func PoleRecord(row source.Row) (*record.Record, error) {
	poleID := row.Get("POTEAU_ID_POT")
	if poleID == "" {
		return nil, fmt.Errorf("pole: POTEAU_ID_POT is required")
	}
	lat, err := reqFloat(row, "LATITUDE")
	if err != nil {
		return nil, fmt.Errorf("pole %s: %w", poleID, err)
	}
	lon, err := reqFloat(row, "LONGITUDE")
	if err != nil {
		return nil, fmt.Errorf("pole %s: %w", poleID, err)
	}
	x, err := optFloat(row, "MTM8_X")
	if err != nil {
		return nil, fmt.Errorf("pole %s: %w", poleID, err)
	}
	y, err := optFloat(row, "MTM8_Y")
	if err != nil {
		return nil, fmt.Errorf("pole %s: %w", poleID, err)
	}
	version, err := optInt(row, "POTEAU_VERSION_POT")
	if err != nil {
		return nil, fmt.Errorf("pole %s: %w", poleID, err)
	}
	onStreet, err := numFlag(row, "PAS_SUR_RUE")
	if err != nil {
		return nil, fmt.Errorf("pole %s: %w", poleID, err)
	}

	return record.New(9).
		Set("pole_id", poleID).
		Set("municipality", row.GetOr("NOM_ARROND", defaultMunicipality)).
		Set("latitude", lat).
		Set("longitude", lon).
		Set("x_coord", x).
		Set("y_coord", y).
		Set("date_conception", optText(row, "DATE_CONCEPTION_POT")).
		Set("version", version).
		Set("is_on_street", onStreet), nil
}
