package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/galley/internal/chat"
	"github.com/zulandar/galley/internal/conversation"
	"github.com/zulandar/galley/internal/dashboard"
	"github.com/zulandar/galley/internal/genlog"
	"github.com/zulandar/galley/internal/models"
)

// Context keys set by the identity middleware.
const (
	ctxUserID = "user_id"
	ctxEmail  = "email"
)

// registerRoutes sets up all API routes on the gin router.
func registerRoutes(router *gin.Engine, d *Deps) {
	router.GET("/healthz", handleHealth())

	api := router.Group("/api", identity(d.UserHeader, d.EmailHeader))
	api.POST("/chats/messages", handleSendMessage(d))
	api.GET("/chats", handleListChats(d))
	api.GET("/chats/:id/messages", handleChatMessages(d))
	api.GET("/quota", handleQuota(d))
	// Generation logs and the overview span every user; an admin-only
	// gateway route is expected in front of them.
	api.GET("/generation-logs", handleGenerationLogs(d))
	api.GET("/dashboard/overview", handleOverview(d))
}

// identity reads the caller from upstream headers and rejects anonymous
// requests.
func identity(userHeader, emailHeader string) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := strings.TrimSpace(c.GetHeader(userHeader))
		if uid == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		c.Set(ctxUserID, uid)
		c.Set(ctxEmail, strings.TrimSpace(c.GetHeader(emailHeader)))
		c.Next()
	}
}

func handleHealth() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

type sendMessageBody struct {
	Message string `json:"message"`
	ChatID  string `json:"chat_id"`
	Title   string `json:"title"`
}

func handleSendMessage(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body sendMessageBody
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		resp, err := d.Chat.Send(c.Request.Context(), chat.Request{
			UserID:    c.GetString(ctxUserID),
			Email:     c.GetString(ctxEmail),
			Message:   body.Message,
			SessionID: body.ChatID,
			Title:     body.Title,
		})
		if err != nil {
			writeChatError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

// writeChatError maps an orchestrator error to a status and body.
func writeChatError(c *gin.Context, err error) {
	e, ok := chat.AsError(err)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	switch e.Kind {
	case chat.KindValidation:
		status := http.StatusBadRequest
		if errors.Is(e, conversation.ErrSessionNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": e.Msg})
	case chat.KindQuotaExceeded:
		c.JSON(http.StatusForbidden, gin.H{"error": e.Msg, "error_type": chat.PlanUpdateErrorType})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": e.Msg})
	}
}

func handleListChats(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessions, err := d.Store.Sessions(c.Request.Context(), c.GetString(ctxUserID))
		if err != nil {
			d.Logger.WithError(err).Error("list chats")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load chats"})
			return
		}
		out := make([]sessionView, len(sessions))
		for i, s := range sessions {
			out[i] = toSessionView(s)
		}
		c.JSON(http.StatusOK, out)
	}
}

func handleChatMessages(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		sess, err := d.Store.Session(ctx, c.Param("id"), c.GetString(ctxUserID))
		if errors.Is(err, conversation.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Chat not found"})
			return
		}
		if err != nil {
			d.Logger.WithError(err).Error("load chat")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load chat"})
			return
		}
		msgs, err := d.Store.Messages(ctx, sess.ID)
		if err != nil {
			d.Logger.WithError(err).Error("load chat messages")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load chat"})
			return
		}
		views := make([]messageView, len(msgs))
		for i, m := range msgs {
			views[i] = toMessageView(m)
		}
		c.JSON(http.StatusOK, gin.H{
			"chat_id":  sess.ID,
			"title":    sess.Title,
			"messages": views,
		})
	}
}

func handleQuota(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		decision, err := d.Quota.Check(c.Request.Context(), c.GetString(ctxUserID))
		if err != nil {
			d.Logger.WithError(err).Error("check quota")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load quota"})
			return
		}
		c.JSON(http.StatusOK, decision)
	}
}

func handleGenerationLogs(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		q, err := parseLogQuery(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		recs, err := d.Log.List(c.Request.Context(), q)
		if err != nil {
			d.Logger.WithError(err).Error("list generation logs")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load generation logs"})
			return
		}
		out := make([]recordView, len(recs))
		for i, r := range recs {
			out[i] = toRecordView(r)
		}
		c.JSON(http.StatusOK, out)
	}
}

// parseLogQuery reads from, to (RFC 3339), limit and status.
func parseLogQuery(c *gin.Context) (genlog.Query, error) {
	var q genlog.Query
	if v := c.Query("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return q, errors.New("from must be an RFC 3339 timestamp")
		}
		q.From = t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return q, errors.New("to must be an RFC 3339 timestamp")
		}
		q.To = t
	}
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return q, errors.New("limit must be a non-negative integer")
		}
		q.Limit = n
	}
	switch status := c.Query("status"); status {
	case "", models.OutcomeSuccess, models.OutcomeFailed:
		q.Outcome = status
	default:
		return q, errors.New("status must be Success or Failed")
	}
	return q, nil
}

func handleOverview(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		ov, err := dashboard.GetOverview(c.Request.Context(), d.DB, d.Now())
		if err != nil {
			d.Logger.WithError(err).Error("dashboard overview")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load overview"})
			return
		}
		c.JSON(http.StatusOK, ov)
	}
}
