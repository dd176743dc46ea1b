package opendata

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/darleison-rodrigues/route-quebec-worker/internal/record"
	"github.com/darleison-rodrigues/route-quebec-worker/internal/source"
)

// TaxiStandRecord maps one row of postestaxi.csv onto a taxi_stands record.
func TaxiStandRecord(row source.Row) (*record.Record, error) {
	lat, err := reqFloat(row, "Lat")
	if err != nil {
		return nil, fmt.Errorf("taxi stand: %w", err)
	}
	lon, err := reqFloat(row, "Long")
	if err != nil {
		return nil, fmt.Errorf("taxi stand: %w", err)
	}
	places, err := optInt(row, "Nb_place")
	if err != nil {
		return nil, fmt.Errorf("taxi stand: %w", err)
	}
	x, err := optFloat(row, "MTM8_X")
	if err != nil {
		return nil, fmt.Errorf("taxi stand: %w", err)
	}
	y, err := optFloat(row, "MTM8_Y")
	if err != nil {
		return nil, fmt.Errorf("taxi stand: %w", err)
	}

	return record.New(12).
		Set("taxi_stand_id", uuid.NewString()).
		Set("status", optText(row, "Etat_poste")).
		Set("operation_hours", optText(row, "Heure_operation")).
		Set("latitude", lat).
		Set("longitude", lon).
		Set("num_places", places).
		Set("name", optText(row, "Nom")).
		Set("type", optText(row, "Type")).
		Set("location_details", optText(row, "Localisation")).
		Set("x_coord", x).
		Set("y_coord", y).
		Set("municipality", row.GetOr("NOM_ARROND", defaultMunicipality)), nil
}
