package regroup

type Config struct {
	PointLayer      string `toml:"point_layer"`
	PolygonLayer    string `toml:"polygon_layer"`
	Mode            Mode   `toml:"mode"`
	ProcessedMarker string `toml:"processed_marker"`

	// AreaKeys are divided by the occupancy count, RoundedKeys among them
	// are rounded to two decimals.
	AreaKeys    []string `toml:"area_keys"`
	RoundedKeys []string `toml:"rounded_keys"`
}

func ConfigDefault() Config {
	return Config{
		PointLayer:      "home",
		PolygonLayer:    "building-polygon",
		Mode:            ModeLinear,
		ProcessedMarker: "/processed",
		AreaKeys:        []string{"room", "L_room", "all_area", "NL_area", "CP_area", "parcel_are"},
		RoundedKeys:     []string{"room", "L_room"},
	}
}
