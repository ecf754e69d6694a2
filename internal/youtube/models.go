package youtube

import "fmt"

// thumbnail is a single thumbnail rendition.
type thumbnail struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// thumbnailSet holds the renditions the API returns per video.
type thumbnailSet struct {
	Default thumbnail `json:"default"`
	Medium  thumbnail `json:"medium"`
	High    thumbnail `json:"high"`
}

// searchItem is one result from search.list.
type searchItem struct {
	ID struct {
		Kind    string `json:"kind"`
		VideoID string `json:"videoId"`
	} `json:"id"`
	Snippet struct {
		Title        string       `json:"title"`
		ChannelTitle string       `json:"channelTitle"`
		Thumbnails   thumbnailSet `json:"thumbnails"`
	} `json:"snippet"`
}

// searchResponse is the payload of search.list.
type searchResponse struct {
	Items         []searchItem `json:"items"`
	NextPageToken string       `json:"nextPageToken"`
}

// videoItem is one result from videos.list.
type videoItem struct {
	ID             string `json:"id"`
	ContentDetails struct {
		Duration string `json:"duration"`
	} `json:"contentDetails"`
}

// videosResponse is the payload of videos.list.
type videosResponse struct {
	Items []videoItem `json:"items"`
}

// APIErrorDetail is one reason entry inside an API error payload.
type APIErrorDetail struct {
	Reason string `json:"reason"`
	Domain string `json:"domain"`
}

// APIError is an error payload from the YouTube Data API.
type APIError struct {
	ErrorInfo struct {
		Code    int              `json:"code"`
		Message string           `json:"message"`
		Errors  []APIErrorDetail `json:"errors"`
	} `json:"error"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("YouTube API error %d: %s", e.ErrorInfo.Code, e.ErrorInfo.Message)
}

// Reason returns the first error reason, if any.
func (e *APIError) Reason() string {
	if len(e.ErrorInfo.Errors) == 0 {
		return ""
	}
	return e.ErrorInfo.Errors[0].Reason
}

// quotaReasons are the API error reasons that mean "out of quota", which
// callers must treat as "no results now" rather than a hard failure.
var quotaReasons = map[string]bool{
	"quotaExceeded":         true,
	"dailyLimitExceeded":    true,
	"rateLimitExceeded":     true,
	"userRateLimitExceeded": true,
}

// IsQuotaError reports whether the error is a quota or rate-limit rejection.
func (e *APIError) IsQuotaError() bool {
	if e.ErrorInfo.Code == 403 || e.ErrorInfo.Code == 429 {
		if len(e.ErrorInfo.Errors) == 0 {
			return true
		}
		return quotaReasons[e.Reason()]
	}
	return false
}
