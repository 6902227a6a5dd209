package utils

// HTTP Header Constants
const (
	HeaderContentType = "Content-Type"
	HeaderUserAgent   = "User-Agent"

	// Request/Response Tracking Headers
	HeaderRequestID     = "X-Request-ID"
	HeaderCorrelationID = "X-Correlation-ID"

	// Client IP Headers (priority order)
	HeaderXForwardedFor  = "X-Forwarded-For"
	HeaderXRealIP        = "X-Real-IP"
	HeaderCFConnectingIP = "CF-Connecting-IP"
	HeaderCloudFlareRay  = "CF-Ray"

	// Custom Vision authentication
	HeaderTrainingKey = "Training-Key"

	// CORS Headers
	HeaderAccessControlAllowOrigin   = "Access-Control-Allow-Origin"
	HeaderAccessControlAllowMethods  = "Access-Control-Allow-Methods"
	HeaderAccessControlAllowHeaders  = "Access-Control-Allow-Headers"
	HeaderAccessControlExposeHeaders = "Access-Control-Expose-Headers"
)

// Content Type Constants
const (
	ContentTypeJSON          = "application/json"
	ContentTypeMultipartForm = "multipart/form-data"
)

// CORS Values
const (
	CORSAllowOriginAll   = "*"
	CORSAllowMethodsAll  = "POST, GET, OPTIONS, PUT, DELETE"
	CORSAllowHeadersStd  = "Accept, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, X-Request-ID"
	CORSExposeHeadersStd = "X-Request-ID, X-Correlation-ID"
)

// Service Values
const (
	ServiceName      = "go-wheel-trainer"
	ServiceUserAgent = "WheelTrainer/1.0"
)
