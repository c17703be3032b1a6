package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/MarcoPoloResearchLab/margin/internal/annotations"
	"github.com/MarcoPoloResearchLab/margin/internal/document"
	"github.com/MarcoPoloResearchLab/margin/internal/events"
	"github.com/MarcoPoloResearchLab/margin/internal/notifications"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var (
	errMissingStore      = errors.New("annotation store dependency required")
	errMissingBody       = errors.New("document body dependency required")
	errMissingFeed       = errors.New("notification feed dependency required")
	errMissingDispatcher = errors.New("event dispatcher dependency required")
)

// Dependencies carries the wired core the HTTP surface exposes.
type Dependencies struct {
	Store  *annotations.Store
	Body   *document.Body
	Feed   *notifications.Feed
	Events *events.Dispatcher
	Pulser *Pulser
	Logger *zap.Logger
}

// NewHTTPHandler builds the gin handler exposing the annotation core's
// inbound operations and its outbound signal stream.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.Store == nil {
		return nil, errMissingStore
	}
	if deps.Body == nil {
		return nil, errMissingBody
	}
	if deps.Feed == nil {
		return nil, errMissingFeed
	}
	if deps.Events == nil {
		return nil, errMissingDispatcher
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	pulser := deps.Pulser
	if pulser == nil {
		pulser = NewPulser()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))

	handler := &httpHandler{
		store:     deps.Store,
		projector: annotations.NewProjector(deps.Store),
		body:      deps.Body,
		feed:      deps.Feed,
		events:    deps.Events,
		pulser:    pulser,
		logger:    logger,
	}

	router.GET("/document", handler.handleDocument)
	router.GET("/annotations", handler.handleAnnotationList)
	router.GET("/annotations/summaries", handler.handleAnnotationSummaries)
	router.GET("/annotations/:id/thread", handler.handleReplyThread)
	router.POST("/annotations", handler.handleAnnotationCreate)
	router.POST("/annotations/:id/replies", handler.handleReplyCreate)
	router.POST("/highlights/click", handler.handleHighlightClick)
	router.GET("/reveal", handler.handleRevealState)
	router.GET("/notifications", handler.handleNotificationList)
	router.GET("/notifications/unread-count", handler.handleUnreadCount)
	router.POST("/notifications/:id/read", handler.handleNotificationRead)
	router.POST("/notifications/:id/open", handler.handleNotificationOpen)
	router.GET("/events", handler.handleEventStream)

	return router, nil
}

type httpHandler struct {
	store     *annotations.Store
	projector *annotations.Projector
	body      *document.Body
	feed      *notifications.Feed
	events    *events.Dispatcher
	pulser    *Pulser
	logger    *zap.Logger
}

type markPayload struct {
	AnnotationID string `json:"annotation_id"`
	Start        int    `json:"start"`
	End          int    `json:"end"`
}

func (h *httpHandler) handleDocument(c *gin.Context) {
	marks := h.body.Marks()
	payload := make([]markPayload, 0, len(marks))
	for _, mark := range marks {
		payload = append(payload, markPayload{
			AnnotationID: mark.AnnotationID,
			Start:        mark.Start,
			End:          mark.End,
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"text":   h.body.Text(),
		"blocks": h.body.BlockCount(),
		"marks":  payload,
	})
}

type selectionPayload struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

type annotationCreatePayload struct {
	Selection        *selectionPayload `json:"selection"`
	Phrase           string            `json:"phrase"`
	Note             string            `json:"note"`
	Author           string            `json:"author"`
	CreatedAtSeconds int64             `json:"created_at_s"`
}

type annotationPayload struct {
	ID               string         `json:"id"`
	Author           string         `json:"author"`
	CreatedAtSeconds int64          `json:"created_at_s"`
	Note             string         `json:"note"`
	Snippet          string         `json:"snippet"`
	ReplyCount       int            `json:"reply_count"`
	Replies          []replyPayload `json:"replies,omitempty"`
	HighlightApplied bool           `json:"highlight_applied"`
}

type replyPayload struct {
	Author           string `json:"author"`
	Text             string `json:"text"`
	CreatedAtSeconds int64  `json:"created_at_s"`
}

func (h *httpHandler) handleAnnotationCreate(c *gin.Context) {
	var request annotationCreatePayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	anchor, err := h.resolveAnchor(request)
	if err != nil {
		h.logger.Warn("selection capture rejected", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_selection"})
		return
	}

	params := annotations.AppendParams{
		Anchor: anchor,
		Note:   request.Note,
	}
	if request.Author != "" {
		author, err := annotations.NewAuthor(request.Author)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_author"})
			return
		}
		params.Author = author.String()
	}
	if request.CreatedAtSeconds > 0 {
		params.CreatedAt = time.Unix(request.CreatedAtSeconds, 0).UTC()
	}

	record, err := h.store.Append(params)
	if err != nil {
		if errors.Is(err, annotations.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "a note is required"})
			return
		}
		h.logger.Error("annotation create failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "append_failed"})
		return
	}

	c.JSON(http.StatusCreated, annotationToPayload(record))
}

func (h *httpHandler) resolveAnchor(request annotationCreatePayload) (document.Anchor, error) {
	if request.Selection != nil {
		return document.Capture(document.Selection{
			Start: request.Selection.Start,
			End:   request.Selection.End,
		}, h.body)
	}
	return document.CaptureByPhrase(request.Phrase, h.body)
}

func (h *httpHandler) handleAnnotationList(c *gin.Context) {
	records := h.store.List()
	payload := make([]annotationPayload, 0, len(records))
	for _, record := range records {
		payload = append(payload, annotationToPayload(record))
	}
	view := h.projector.FullList()
	response := gin.H{
		"annotations": payload,
		"count":       view.Count,
	}
	if view.Empty {
		response["empty_message"] = view.EmptyMessage
	}
	c.JSON(http.StatusOK, response)
}

type summaryPayload struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Meta  string `json:"meta"`
}

func (h *httpHandler) handleAnnotationSummaries(c *gin.Context) {
	view := h.projector.CompactSummaries()
	items := make([]summaryPayload, 0, len(view.Items))
	for _, item := range view.Items {
		items = append(items, summaryPayload{ID: item.ID, Title: item.Title, Meta: item.Meta})
	}
	response := gin.H{"summaries": items}
	if view.Empty {
		response["empty_message"] = view.EmptyMessage
	}
	c.JSON(http.StatusOK, response)
}

func (h *httpHandler) handleReplyThread(c *gin.Context) {
	thread, err := h.projector.ReplyThreadText(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "annotation_not_found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"thread": thread})
}

type replyCreatePayload struct {
	Author string `json:"author"`
	Text   string `json:"text"`
}

func (h *httpHandler) handleReplyCreate(c *gin.Context) {
	var request replyCreatePayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	reply, err := h.store.AppendReply(c.Param("id"), request.Author, request.Text)
	if err != nil {
		switch {
		case errors.Is(err, annotations.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "annotation_not_found"})
		case errors.Is(err, annotations.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": "reply text is required"})
		default:
			h.logger.Error("reply create failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "reply_failed"})
		}
		return
	}

	c.JSON(http.StatusCreated, replyPayload{
		Author:           reply.Author,
		Text:             reply.Text,
		CreatedAtSeconds: reply.CreatedAt.Unix(),
	})
}

type highlightClickPayload struct {
	Offset int `json:"offset"`
}

// handleHighlightClick resolves a click offset back to the owning annotation
// and asks consumers to reveal it with a transient pulse.
func (h *httpHandler) handleHighlightClick(c *gin.Context) {
	var request highlightClickPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	mark, ok := h.body.MarkAt(request.Offset)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no_highlight_at_offset"})
		return
	}

	h.reveal(mark.AnnotationID)
	c.JSON(http.StatusOK, gin.H{"annotation_id": mark.AnnotationID})
}

func (h *httpHandler) handleRevealState(c *gin.Context) {
	annotationID, active := h.pulser.Active()
	c.JSON(http.StatusOK, gin.H{
		"annotation_id": annotationID,
		"active":        active,
	})
}

type notificationPayload struct {
	ID                  string `json:"id"`
	Title               string `json:"title"`
	Body                string `json:"body"`
	RelatedAnnotationID string `json:"related_annotation_id,omitempty"`
	CreatedAtSeconds    int64  `json:"created_at_s"`
	Read                bool   `json:"read"`
}

func (h *httpHandler) handleNotificationList(c *gin.Context) {
	entries := h.feed.List()
	payload := make([]notificationPayload, 0, len(entries))
	for _, entry := range entries {
		payload = append(payload, notificationPayload{
			ID:                  entry.ID,
			Title:               entry.Title,
			Body:                entry.Body,
			RelatedAnnotationID: entry.RelatedAnnotationID,
			CreatedAtSeconds:    entry.CreatedAt.Unix(),
			Read:                entry.Read,
		})
	}
	response := gin.H{
		"notifications": payload,
		"unread":        h.feed.UnreadCount(),
	}
	if len(payload) == 0 {
		response["empty_message"] = notifications.EmptyFeedMessage
	}
	c.JSON(http.StatusOK, response)
}

func (h *httpHandler) handleUnreadCount(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"unread": h.feed.UnreadCount()})
}

// handleNotificationRead marks the entry read. A missing identifier is
// already resolved: the response is success either way.
func (h *httpHandler) handleNotificationRead(c *gin.Context) {
	h.feed.MarkRead(c.Param("id"))
	c.Status(http.StatusNoContent)
}

// handleNotificationOpen is the notification click: mark read, then reveal
// the related annotation when the entry carries one.
func (h *httpHandler) handleNotificationOpen(c *gin.Context) {
	entry, ok := h.feed.Get(c.Param("id"))
	h.feed.MarkRead(c.Param("id"))
	if ok && entry.RelatedAnnotationID != "" {
		if _, err := h.store.Get(entry.RelatedAnnotationID); err == nil {
			h.reveal(entry.RelatedAnnotationID)
		}
	}
	c.Status(http.StatusNoContent)
}

func (h *httpHandler) reveal(annotationID string) {
	h.pulser.Trigger(annotationID)
	h.events.Publish(events.Message{
		EventType:    events.EventAnnotationRevealed,
		AnnotationID: annotationID,
		Timestamp:    time.Now().UTC(),
	})
}

func annotationToPayload(record annotations.Annotation) annotationPayload {
	replies := make([]replyPayload, 0, len(record.Replies))
	for _, reply := range record.Replies {
		replies = append(replies, replyPayload{
			Author:           reply.Author,
			Text:             reply.Text,
			CreatedAtSeconds: reply.CreatedAt.Unix(),
		})
	}
	return annotationPayload{
		ID:               record.ID,
		Author:           record.Author,
		CreatedAtSeconds: record.CreatedAt.Unix(),
		Note:             record.Note,
		Snippet:          record.Anchor.Text,
		ReplyCount:       record.ReplyCount(),
		Replies:          replies,
		HighlightApplied: record.HighlightApplied,
	}
}
