package opendata

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/darleison-rodrigues/route-quebec-worker/internal/record"
	"github.com/darleison-rodrigues/route-quebec-worker/internal/source"
)

// sourceTag marks rows that originate from the open-data exports.
const sourceTag = "montreal_open_data"

// SignInstanceRecord maps one row of the signalisation exports onto a
// montreal_open_data_sign_instances record. Each physical placement gets a
// fresh instance id; now supplies last_updated when the export carries no
// conception date.
func SignInstanceRecord(row source.Row, now time.Time) (*record.Record, error) {
	signCode := row.Get("PANNEAU_ID_RPA")
	if signCode == "" {
		return nil, fmt.Errorf("sign instance: PANNEAU_ID_RPA is required")
	}
	poleID := row.Get("POTEAU_ID_POT")
	if poleID == "" {
		return nil, fmt.Errorf("sign instance %s: POTEAU_ID_POT is required", signCode)
	}
	position, err := optInt(row, "POSITION_POP")
	if err != nil {
		return nil, fmt.Errorf("sign instance %s: %w", signCode, err)
	}
	arrow, err := optInt(row, "FLECHE_PAN")
	if err != nil {
		return nil, fmt.Errorf("sign instance %s: %w", signCode, err)
	}

	return record.New(12).
		Set("instance_id", uuid.NewString()).
		Set("sign_code", signCode).
		Set("pole_id", poleID).
		Set("panel_id", optText(row, "PANNEAU_ID_PAN")).
		Set("panel_position_on_pole", position).
		Set("arrow_code", arrow).
		Set("toponymic_code", optText(row, "TOPONYME_PAN")).
		Set("category_description", optText(row, "DESCRIPTION_CAT")).
		Set("rep_description", optText(row, "DESCRIPTION_REP")).
		Set("rtp_description", optText(row, "DESCRIPTION_RTP")).
		Set("source", sourceTag).
		Set("last_updated", row.GetOr("DATE_CONCEPTION_POT", now.Format("2006-01-02 15:04:05"))), nil
}
