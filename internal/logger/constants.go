package logger

// LogStages defines standardized stage names for consistent logging
var LogStages = struct {
	RequestReceived  string
	RequestCompleted string
	RequestFailed    string
	Validation       string

	FrameExtraction string
	FrameUpload     string
	TagReconcile    string
	ImageSubmission string
	ImageCount      string
	Training        string
	Polling         string
	Publishing      string
	Rollback        string
	TagClearing     string

	VendorRequest  string
	VendorResponse string
	Retry          string

	Initialization    string
	DatabaseOperation string
	HealthCheck       string
	TrackingSetup     string
}{
	RequestReceived:  "RequestReceived",
	RequestCompleted: "RequestCompleted",
	RequestFailed:    "RequestFailed",
	Validation:       "Validation",

	FrameExtraction: "FrameExtraction",
	FrameUpload:     "FrameUpload",
	TagReconcile:    "TagReconcile",
	ImageSubmission: "ImageSubmission",
	ImageCount:      "ImageCount",
	Training:        "Training",
	Polling:         "Polling",
	Publishing:      "Publishing",
	Rollback:        "Rollback",
	TagClearing:     "TagClearing",

	VendorRequest:  "VendorRequest",
	VendorResponse: "VendorResponse",
	Retry:          "Retry",

	Initialization:    "Initialization",
	DatabaseOperation: "DatabaseOperation",
	HealthCheck:       "HealthCheck",
	TrackingSetup:     "TrackingSetup",
}

// ComponentNames defines standardized component names
var ComponentNames = struct {
	App          string
	Middleware   string
	Handler      string
	Trainer      string
	Extractor    string
	ObjectStore  string
	CustomVision string
	Database     string
	Health       string
	CLI          string
}{
	App:          "App",
	Middleware:   "Middleware",
	Handler:      "Handler",
	Trainer:      "Trainer",
	Extractor:    "FrameExtractor",
	ObjectStore:  "ObjectStore",
	CustomVision: "CustomVisionClient",
	Database:     "Database",
	Health:       "HealthChecker",
	CLI:          "CLI",
}
