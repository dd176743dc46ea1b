package opendata

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/darleison-rodrigues/route-quebec-worker/internal/record"
	"github.com/darleison-rodrigues/route-quebec-worker/internal/source"
)

var weekdays = []string{"mon", "tue", "wed", "thu", "fri", "sat", "sun"}

// ConstructionZoneRecord maps one row of entraves-travaux-en-cours.csv onto a
// construction_zones record.
func ConstructionZoneRecord(row source.Row) (*record.Record, error) {
	permitID := row.Get("id")
	if permitID == "" {
		return nil, fmt.Errorf("construction zone: id is required")
	}
	lat, err := optFloat(row, "latitude")
	if err != nil {
		return nil, fmt.Errorf("construction zone %s: %w", permitID, err)
	}
	lon, err := optFloat(row, "longitude")
	if err != nil {
		return nil, fmt.Errorf("construction zone %s: %w", permitID, err)
	}

	r := record.New(26).
		Set("permit_id", permitID).
		Set("permit_number", optText(row, "permit_permit_id")).
		Set("borough_id", optText(row, "boroughid")).
		Set("current_status", optText(row, "currentstatus")).
		Set("start_date", optText(row, "duration_start_date")).
		Set("end_date", optText(row, "duration_end_date")).
		Set("reason_category", optText(row, "reason_category")).
		Set("occupancy_name", optText(row, "occupancy_name")).
		Set("submitter_category", optText(row, "submittercategory")).
		Set("organization_name", optText(row, "organizationname"))
	for _, d := range weekdays {
		r.Set("active_"+d, flag(row, "duration_days_"+d+"_active"))
	}
	for _, d := range weekdays {
		r.Set("allday_"+d, flag(row, "duration_days_"+d+"_all_day_round"))
	}
	r.Set("latitude", lat).Set("longitude", lon)
	return r, nil
}

// ConstructionImpactRecord maps one row of
// impacts-entraves-travaux-en-cours.csv onto a construction_impact_details
// record. Each impact row gets a fresh id; permit_id links it to its zone.
func ConstructionImpactRecord(row source.Row) (*record.Record, error) {
	permitID := row.Get("id_request")
	if permitID == "" {
		return nil, fmt.Errorf("construction impact: id_request is required")
	}
	parking, err := optInt(row, "nbfreeparkingplace")
	if err != nil {
		return nil, fmt.Errorf("construction impact %s: %w", permitID, err)
	}
	length, err := optFloat(row, "length")
	if err != nil {
		return nil, fmt.Errorf("construction impact %s: %w", permitID, err)
	}

	return record.New(17).
		Set("impact_id", uuid.NewString()).
		Set("permit_id", permitID).
		Set("street_id", optText(row, "streetid")).
		Set("street_impact_width", optText(row, "streetimpactwidth")).
		Set("street_impact_type", optText(row, "streetimpacttype")).
		Set("nb_free_parking_places", parking).
		Set("sidewalk_blocked_type", optText(row, "sidewalk_blockedtype")).
		Set("back_sidewalk_blocked_type", optText(row, "backsidewalk_blockedtype")).
		Set("bike_path_blocked_type", optText(row, "bikepath_blockedtype")).
		Set("street_name", optText(row, "name")).
		Set("from_name", optText(row, "fromname")).
		Set("to_name", optText(row, "toname")).
		Set("length", length).
		Set("is_arterial", flag(row, "isarterial")).
		Set("stm_impact_blocked_type", optText(row, "stmimpact_blockedtype")).
		Set("other_provider_impact_blocked_type", optText(row, "otherproviderimpact_blockedtype")).
		Set("reserved_lane_blocked_type", optText(row, "reservedlane_blockedtype")), nil
}
