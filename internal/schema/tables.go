package schema

// The destination tables. Column names and types mirror the remote D1 schema;
// they are an external contract and must not drift from it.

// SignDefinitions holds one row per canonical sign code from the provincial
// reference dataset.
var SignDefinitions = Contract{
	Table: "sign_definitions",
	Key:   "sign_code",
	Fields: []Field{
		{Name: "sign_code", Type: "text"},
		{Name: "explanation_fr", Type: "text"},
		{Name: "explanation_en", Type: "text"},
		{Name: "category", Type: "text"},
		{Name: "rpa_description", Type: "text"},
		{Name: "rpa_code", Type: "text"},
		{Name: "rtp_description", Type: "text"},
		{Name: "original_digital_asset_url", Type: "text"},
	},
}

// RealSignPhotos holds user-supplied or synthetic photographs of signs in the
// wild. real_world_conditions carries a JSON-encoded string array.
var RealSignPhotos = Contract{
	Table: "real_sign_photos",
	Key:   "photo_id",
	Fields: []Field{
		{Name: "photo_id", Type: "text"},
		{Name: "sign_code", Type: "text"},
		{Name: "image_url", Type: "text"},
		{Name: "source", Type: "text"},
		{Name: "latitude", Type: "real"},
		{Name: "longitude", Type: "real"},
		{Name: "municipality", Type: "text"},
		{Name: "real_world_conditions", Type: "text"},
		{Name: "is_synthetic", Type: "bool"},
		{Name: "captured_date", Type: "text"},
		{Name: "related_montreal_instance_id", Type: "text"},
	},
}

// Poles is the Montreal open-data signalisation pole inventory.
var Poles = Contract{
	Table: "poles",
	Key:   "pole_id",
	Fields: []Field{
		{Name: "pole_id", Type: "text"},
		{Name: "municipality", Type: "text"},
		{Name: "latitude", Type: "real"},
		{Name: "longitude", Type: "real"},
		{Name: "x_coord", Type: "real"},
		{Name: "y_coord", Type: "real"},
		{Name: "date_conception", Type: "text"},
		{Name: "version", Type: "integer"},
		{Name: "is_on_street", Type: "bool"},
	},
}

// SignInstances maps physical sign placements onto poles.
var SignInstances = Contract{
	Table: "montreal_open_data_sign_instances",
	Key:   "instance_id",
	Fields: []Field{
		{Name: "instance_id", Type: "text"},
		{Name: "sign_code", Type: "text"},
		{Name: "pole_id", Type: "text"},
		{Name: "panel_id", Type: "text"},
		{Name: "panel_position_on_pole", Type: "integer"},
		{Name: "arrow_code", Type: "integer"},
		{Name: "toponymic_code", Type: "text"},
		{Name: "category_description", Type: "text"},
		{Name: "rep_description", Type: "text"},
		{Name: "rtp_description", Type: "text"},
		{Name: "source", Type: "text"},
		{Name: "last_updated", Type: "text"},
	},
}

// ConstructionZones is the active roadwork permit inventory.
var ConstructionZones = Contract{
	Table: "construction_zones",
	Key:   "permit_id",
	Fields: []Field{
		{Name: "permit_id", Type: "text"},
		{Name: "permit_number", Type: "text"},
		{Name: "borough_id", Type: "text"},
		{Name: "current_status", Type: "text"},
		{Name: "start_date", Type: "text"},
		{Name: "end_date", Type: "text"},
		{Name: "reason_category", Type: "text"},
		{Name: "occupancy_name", Type: "text"},
		{Name: "submitter_category", Type: "text"},
		{Name: "organization_name", Type: "text"},
		{Name: "active_mon", Type: "bool"},
		{Name: "active_tue", Type: "bool"},
		{Name: "active_wed", Type: "bool"},
		{Name: "active_thu", Type: "bool"},
		{Name: "active_fri", Type: "bool"},
		{Name: "active_sat", Type: "bool"},
		{Name: "active_sun", Type: "bool"},
		{Name: "allday_mon", Type: "bool"},
		{Name: "allday_tue", Type: "bool"},
		{Name: "allday_wed", Type: "bool"},
		{Name: "allday_thu", Type: "bool"},
		{Name: "allday_fri", Type: "bool"},
		{Name: "allday_sat", Type: "bool"},
		{Name: "allday_sun", Type: "bool"},
		{Name: "latitude", Type: "real"},
		{Name: "longitude", Type: "real"},
	},
}

// ConstructionImpacts details per-street impacts of a roadwork permit.
var ConstructionImpacts = Contract{
	Table: "construction_impact_details",
	Key:   "impact_id",
	Fields: []Field{
		{Name: "impact_id", Type: "text"},
		{Name: "permit_id", Type: "text"},
		{Name: "street_id", Type: "text"},
		{Name: "street_impact_width", Type: "text"},
		{Name: "street_impact_type", Type: "text"},
		{Name: "nb_free_parking_places", Type: "integer"},
		{Name: "sidewalk_blocked_type", Type: "text"},
		{Name: "back_sidewalk_blocked_type", Type: "text"},
		{Name: "bike_path_blocked_type", Type: "text"},
		{Name: "street_name", Type: "text"},
		{Name: "from_name", Type: "text"},
		{Name: "to_name", Type: "text"},
		{Name: "length", Type: "real"},
		{Name: "is_arterial", Type: "bool"},
		{Name: "stm_impact_blocked_type", Type: "text"},
		{Name: "other_provider_impact_blocked_type", Type: "text"},
		{Name: "reserved_lane_blocked_type", Type: "text"},
	},
}

// TaxiStands is the municipal taxi stand inventory.
var TaxiStands = Contract{
	Table: "taxi_stands",
	Key:   "taxi_stand_id",
	Fields: []Field{
		{Name: "taxi_stand_id", Type: "text"},
		{Name: "status", Type: "text"},
		{Name: "operation_hours", Type: "text"},
		{Name: "latitude", Type: "real"},
		{Name: "longitude", Type: "real"},
		{Name: "num_places", Type: "integer"},
		{Name: "name", Type: "text"},
		{Name: "type", Type: "text"},
		{Name: "location_details", Type: "text"},
		{Name: "x_coord", Type: "real"},
		{Name: "y_coord", Type: "real"},
		{Name: "municipality", Type: "text"},
	},
}

// All lists every destination contract, in dependency order (parents first).
var All = []*Contract{
	&SignDefinitions,
	&RealSignPhotos,
	&Poles,
	&SignInstances,
	&ConstructionZones,
	&ConstructionImpacts,
	&TaxiStands,
}
