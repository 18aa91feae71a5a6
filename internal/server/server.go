// Package server exposes the HTTP surface: the assistant webhook, the email
// correction endpoint, and a health probe.
package server

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/administrator-png/vapiwebhook/internal/calendar"
	"github.com/administrator-png/vapiwebhook/internal/dispatch"
	"github.com/administrator-png/vapiwebhook/internal/workflow"
)

type Server struct {
	disp          *dispatch.Dispatcher
	wf            *workflow.Workflow
	calConfigured bool
	subsystems    map[string]bool
}

func New(disp *dispatch.Dispatcher, wf *workflow.Workflow, calConfigured bool, subsystems map[string]bool) *Server {
	return &Server{
		disp:          disp,
		wf:            wf,
		calConfigured: calConfigured,
		subsystems:    subsystems,
	}
}

func (s *Server) Router() *gin.Engine {
	r := gin.Default()

	r.POST("/webhook", s.handleWebhook)
	r.POST("/api/update-email", s.handleUpdateEmail)
	r.GET("/health", s.handleHealth)

	return r
}

type webhookRequest struct {
	Message struct {
		Type         string              `json:"type"`
		ToolCallList []dispatch.ToolCall `json:"toolCallList"`
	} `json:"message"`
}

// POST /webhook
func (s *Server) handleWebhook(c *gin.Context) {
	var in webhookRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if in.Message.Type != "tool-calls" || len(in.Message.ToolCallList) == 0 {
		c.JSON(http.StatusOK, gin.H{"results": []dispatch.TaggedResult{}})
		return
	}

	results := s.disp.Dispatch(c.Request.Context(), in.Message.ToolCallList)
	c.JSON(http.StatusOK, gin.H{"results": results})
}

// POST /api/update-email
func (s *Server) handleUpdateEmail(c *gin.Context) {
	var in workflow.Request
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid request body"})
		return
	}

	resp, err := s.wf.CorrectEmail(c.Request.Context(), in)
	switch {
	case err == nil:
	case errors.Is(err, workflow.ErrMissingField):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "bookingUid and email are required"})
		return
	case errors.Is(err, calendar.ErrBookingNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "We couldn't find that booking. The link may be invalid or expired."})
		return
	default:
		log.Printf("[webhook] update-email uid=%s: %v", in.BookingUID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Something went wrong updating your email. Please try again."})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Your email has been updated and your booking is confirmed.",
		"booking": gin.H{
			"date": resp.Date,
			"time": resp.Clock,
			"name": resp.Name,
		},
	})
}

// GET /health
func (s *Server) handleHealth(c *gin.Context) {
	out := gin.H{
		"status":           "healthy",
		"timestamp":        time.Now().UTC().Format(time.RFC3339),
		"calApiConfigured": s.calConfigured,
	}
	for name, ok := range s.subsystems {
		out[name] = ok
	}
	c.JSON(http.StatusOK, out)
}
