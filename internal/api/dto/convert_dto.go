package dto

// ConvertRequest payload for a unit conversion. Value is a pointer so a
// missing field is distinguishable from zero.
type ConvertRequest struct {
	Value    *float64 `json:"value"`
	FromUnit string   `json:"from_unit"`
	ToUnit   string   `json:"to_unit"`
}

// ConvertResponse carries the computed result and the plan it ran under.
type ConvertResponse struct {
	Result float64 `json:"result"`
	Plan   string  `json:"plan"`
}
