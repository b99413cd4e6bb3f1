package api

const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

type ProcessRequest struct {
	BlobName string `json:"blob_name"`
}

// InferenceOnlyResponse is returned when the dataset bucket holds a single
// dataset and inference ran without a drift check.
type InferenceOnlyResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Blob    string `json:"blob"`
}

type DriftCheckResponse struct {
	Status          string `json:"status"`
	DriftDetected   bool   `json:"drift_detected"`
	RetrainExecuted bool   `json:"retrain_executed"`
	PreviousFile    string `json:"previous_file"`
	LatestFile      string `json:"latest_file"`
	InferenceBlob   string `json:"inference_blob"`
}

type ErrorResponse struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

type ListDatasetsParams struct {
	Limit int `schema:"limit"`
}

type ListDatasetsResponse struct {
	Datasets []string `json:"datasets"`
}

type ListModelsResponse struct {
	Models      []string `json:"models"`
	LatestModel string   `json:"latest_model,omitempty"`
}
