package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yourusername/mediagrab/internal/domain"
)

// FileURL is where a completed session's file can be fetched
func FileURL(sessionID string) string {
	return "/api/files/" + sessionID
}

// eventPayload maps an acquisition event to its wire name and JSON payload
func eventPayload(e domain.Event) (string, gin.H) {
	switch e.Type {
	case domain.EventInfo:
		payload := gin.H{}
		if e.Info != nil {
			payload["title"] = e.Info.Title
			payload["thumbnail"] = e.Info.Thumbnail
			payload["duration"] = e.Info.Duration
			payload["uploader"] = e.Info.Uploader
		}
		return string(e.Type), payload
	case domain.EventProgress:
		return string(e.Type), gin.H{"percent": e.Percent}
	case domain.EventComplete:
		payload := gin.H{"downloadUrl": FileURL(e.Session)}
		if e.Result != nil {
			payload["filename"] = e.Result.Filename
		}
		return string(e.Type), payload
	default:
		return string(domain.EventError), gin.H{"message": e.Message}
	}
}

// callerOf identifies the client of a request for history records
func callerOf(c *gin.Context) domain.Caller {
	return domain.Caller{
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
}

// streamRequest reads and validates the url/format query parameters shared by streaming endpoints
func streamRequest(c *gin.Context) (domain.AcquisitionRequest, error) {
	req := domain.AcquisitionRequest{
		URL:  c.Query("url"),
		Mode: domain.ParseFormat(c.Query("format")),
	}
	return req, req.Validate()
}
