package biz

import "github.com/go-kratos/kratos/v2/errors"

// Error reasons returned to clients. Messages are fixed; causes are only logged.
const (
	ReasonMediaURLMissing      = "MEDIA_URL_MISSING"
	ReasonUnsupportedMediaType = "UNSUPPORTED_MEDIA_TYPE"
	ReasonInvalidRequest       = "INVALID_REQUEST"
	ReasonFetchFailed          = "FETCH_FAILED"
	ReasonVideoUnprocessable   = "VIDEO_UNPROCESSABLE"
	ReasonImageUnprocessable   = "IMAGE_UNPROCESSABLE"
	ReasonAnalysisFailed       = "ANALYSIS_FAILED"
	ReasonHistoryUnavailable   = "HISTORY_UNAVAILABLE"
	ReasonRecordNotFound       = "RECORD_NOT_FOUND"
)

var (
	ErrMediaURLMissing      = errors.BadRequest(ReasonMediaURLMissing, "media_url not provided")
	ErrUnsupportedMediaType = errors.BadRequest(ReasonUnsupportedMediaType, "Unsupported media type")
	ErrInvalidRequest       = errors.BadRequest(ReasonInvalidRequest, "Invalid request")

	ErrFetchFailed        = errors.InternalServer(ReasonFetchFailed, "Could not fetch media")
	ErrVideoUnprocessable = errors.InternalServer(ReasonVideoUnprocessable, "Could not process video")
	ErrImageUnprocessable = errors.InternalServer(ReasonImageUnprocessable, "Could not process image")
	ErrAnalysisFailed     = errors.InternalServer(ReasonAnalysisFailed, "Analysis failed")

	ErrHistoryUnavailable = errors.ServiceUnavailable(ReasonHistoryUnavailable, "Analysis history is not configured")
	ErrRecordNotFound     = errors.NotFound(ReasonRecordNotFound, "Analysis not found")
)
