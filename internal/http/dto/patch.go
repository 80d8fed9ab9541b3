package dto

// ProposeRequest fields are untyped so a non-string code can be reported as
// invalid_input instead of a decode error.
type ProposeRequest struct {
	Code       any `json:"code"`
	TargetPath any `json:"target_path"`
}

type SaveResponse struct {
	Status string `json:"status"`
	Key    string `json:"key"`
	Bytes  int    `json:"bytes"`
}

type RebuildResponse struct {
	Status string  `json:"status"`
	Count  int     `json:"count"`
	First  *string `json:"first"`
}
