package dto

type ProductSummaryResponse struct {
	Id    string   `json:"id"`
	Label string   `json:"label"`
	Route string   `json:"route,omitempty"`
	Tags  []string `json:"tags"`
}

type ProductPayloadResponse struct {
	Id      string                 `json:"id"`
	Label   string                 `json:"label"`
	Payload map[string]interface{} `json:"payload"`
}
