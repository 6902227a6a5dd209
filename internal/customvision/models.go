package customvision

import "time"

// Iteration statuses reported by the training API.
const (
	StatusTraining   = "Training"
	StatusInProgress = "InProgress"
	StatusQueued     = "Queued"
	StatusCompleted  = "Completed"
	StatusFailed     = "Failed"
)

// Tag is a Custom Vision label.
type Tag struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Type        string `json:"type,omitempty"`
	ImageCount  int    `json:"imageCount"`
}

// Image is a stored training image.
type Image struct {
	ID          string    `json:"id"`
	Created     time.Time `json:"created"`
	Width       int       `json:"width"`
	Height      int       `json:"height"`
	OriginalURI string    `json:"originalImageUri,omitempty"`
}

// ImageURLEntry is one URL submitted for ingestion.
type ImageURLEntry struct {
	URL    string   `json:"url"`
	TagIDs []string `json:"tagIds,omitempty"`
}

// ImageURLBatch is the body of a create-images-from-URLs call.
type ImageURLBatch struct {
	Images []ImageURLEntry `json:"images"`
	TagIDs []string        `json:"tagIds,omitempty"`
}

// ImageCreateResult reports how a single submitted URL was handled.
type ImageCreateResult struct {
	SourceURL string `json:"sourceUrl"`
	Status    string `json:"status"`
	Image     *Image `json:"image,omitempty"`
}

// ImageCreateSummary is returned by a create-images call.
type ImageCreateSummary struct {
	IsBatchSuccessful bool                `json:"isBatchSuccessful"`
	Images            []ImageCreateResult `json:"images"`
}

// Accepted counts the images the service stored, including duplicates of
// images it already had.
func (s *ImageCreateSummary) Accepted() int {
	n := 0
	for _, img := range s.Images {
		if img.Status == "OK" || img.Status == "OKDuplicate" {
			n++
		}
	}
	return n
}

// Iteration is a training run of the project.
type Iteration struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Status       string     `json:"status"`
	Created      time.Time  `json:"created"`
	LastModified time.Time  `json:"lastModified"`
	TrainedAt    *time.Time `json:"trainedAt,omitempty"`
	ProjectID    string     `json:"projectId"`
	PublishName  string     `json:"publishName,omitempty"`
	TrainingType string     `json:"trainingType,omitempty"`
}

// Finished reports whether the iteration left the training states.
func (it *Iteration) Finished() bool {
	switch it.Status {
	case StatusTraining, StatusInProgress, StatusQueued:
		return false
	default:
		return true
	}
}
