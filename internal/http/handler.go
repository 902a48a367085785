package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"complaint-service/internal/http/middleware"
	"complaint-service/internal/media"
	"complaint-service/internal/model"
	"complaint-service/internal/repository"
	"complaint-service/internal/service"
)

type Handler struct {
	complaintService    *service.ComplaintService
	ticketService       *service.TicketService
	directoryService    *service.DirectoryService
	notificationService *service.NotificationService
	validate            *validator.Validate
	log                 zerolog.Logger
}

func NewHandler(
	complaintService *service.ComplaintService,
	ticketService *service.TicketService,
	directoryService *service.DirectoryService,
	notificationService *service.NotificationService,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		complaintService:    complaintService,
		ticketService:       ticketService,
		directoryService:    directoryService,
		notificationService: notificationService,
		validate:            validator.New(),
		log:                 log,
	}
}

// --- citizen endpoints (unauthenticated, session driven) ---

func (h *Handler) captureComplaint(c *gin.Context) {
	image, ext, err := readFormImage(c, "photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	lat, lon, err := h.parseFormCoordinates(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	input := service.CaptureInput{
		Image:      image,
		ImageExt:   ext,
		Street:     c.PostForm("street"),
		Area:       c.PostForm("area"),
		PostalCode: c.PostForm("postal_code"),
		Latitude:   lat,
		Longitude:  lon,
	}
	if sessionID := strings.TrimSpace(c.PostForm("session_id")); sessionID != "" {
		id, err := uuid.Parse(sessionID)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse("invalid session_id"))
			return
		}
		input.SessionID = id
	}

	complaint, err := h.complaintService.Capture(c.Request.Context(), input)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, successResponse(complaint))
}

func (h *Handler) submitComplaint(c *gin.Context) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid complaint id"))
		return
	}

	result, err := h.complaintService.Submit(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(result))
}

func (h *Handler) trackTicket(c *gin.Context) {
	record, err := h.ticketService.TrackByNumber(c.Request.Context(), c.Param("number"))
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(record))
}

func (h *Handler) rateTicket(c *gin.Context) {
	var req struct {
		Rating int `json:"rating" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	average, err := h.ticketService.SubmitRating(c.Request.Context(), c.Param("number"), req.Rating)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(gin.H{"contractor_rating": average}))
}

// --- staff and contractor endpoints ---

func (h *Handler) listTickets(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	opts, err := parseTicketQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	records, err := h.ticketService.List(c.Request.Context(), principal, opts)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(gin.H{"items": records}))
}

func (h *Handler) getTicket(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	id, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid ticket id"))
		return
	}

	record, err := h.ticketService.Get(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(record))
}

func (h *Handler) assignTicket(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	id, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid ticket id"))
		return
	}

	var req struct {
		ContractorID string `json:"contractor_id"`
		WardID       string `json:"ward_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	contractorID, wardID, err := parseAssignIDs(req.ContractorID, req.WardID)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	record, err := h.ticketService.Assign(c.Request.Context(), principal, id, contractorID, wardID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(record))
}

func (h *Handler) updateTicketStatus(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	id, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid ticket id"))
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	status := model.TicketStatus(strings.ToUpper(strings.TrimSpace(req.Status)))
	if err := h.ticketService.UpdateStatus(c.Request.Context(), principal, id, status); err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(gin.H{"status": "updated"}))
}

func (h *Handler) bulkAssignTickets(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	var req struct {
		TicketIDs    []string `json:"ticket_ids" binding:"required"`
		ContractorID string   `json:"contractor_id"`
		WardID       string   `json:"ward_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	ids, err := parseUUIDs(req.TicketIDs)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}
	contractorID, wardID, err := parseAssignIDs(req.ContractorID, req.WardID)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	updated, err := h.ticketService.BulkAssign(c.Request.Context(), principal, ids, contractorID, wardID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(gin.H{"updated": updated}))
}

func (h *Handler) bulkUpdateTicketStatus(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	var req struct {
		TicketIDs []string `json:"ticket_ids" binding:"required"`
		Status    string   `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	ids, err := parseUUIDs(req.TicketIDs)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	status := model.TicketStatus(strings.ToUpper(strings.TrimSpace(req.Status)))
	updated, err := h.ticketService.BulkUpdateStatus(c.Request.Context(), principal, ids, status)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(gin.H{"updated": updated}))
}

func (h *Handler) addTicketNote(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	id, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid ticket id"))
		return
	}

	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	if err := h.ticketService.AddNote(c.Request.Context(), principal, id, req.Content); err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, successResponse(gin.H{"status": "created"}))
}

func (h *Handler) startWork(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	id, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid ticket id"))
		return
	}

	if err := h.ticketService.StartWork(c.Request.Context(), principal, id); err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(gin.H{"status": "in_progress"}))
}

func (h *Handler) submitCompletion(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	id, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid ticket id"))
		return
	}

	image, ext, err := readFormImage(c, "photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}
	lat, lon, err := h.parseFormCoordinates(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	outcome, err := h.ticketService.SubmitCompletion(c.Request.Context(), principal, id, service.CompletionInput{
		AfterImage: image,
		ImageExt:   ext,
		Latitude:   lat,
		Longitude:  lon,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, successResponse(outcome))
}

func (h *Handler) dashboard(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	summary, err := h.ticketService.Dashboard(c.Request.Context(), principal)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(summary))
}

func (h *Handler) analyticsReport(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	html, err := h.ticketService.AnalyticsReport(c.Request.Context(), principal)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}

func (h *Handler) listNotifications(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	unreadOnly := strings.EqualFold(c.Query("unread"), "true")
	limit := 0
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			limit = v
		}
	}

	notifications, err := h.notificationService.List(c.Request.Context(), principal, unreadOnly, limit)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(gin.H{"items": notifications}))
}

func (h *Handler) markNotificationRead(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	id, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid notification id"))
		return
	}

	if err := h.notificationService.MarkRead(c.Request.Context(), principal, id); err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(gin.H{"status": "read"}))
}

func (h *Handler) createWard(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	input, err := bindWardInput(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	ward, err := h.directoryService.CreateWard(c.Request.Context(), principal, input)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, successResponse(ward))
}

func (h *Handler) listWards(c *gin.Context) {
	wards, err := h.directoryService.ListWards(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(gin.H{"items": wards}))
}

func (h *Handler) getWard(c *gin.Context) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid ward id"))
		return
	}

	ward, err := h.directoryService.GetWard(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(ward))
}

func (h *Handler) updateWard(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	id, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid ward id"))
		return
	}

	input, err := bindWardInput(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	ward, err := h.directoryService.UpdateWard(c.Request.Context(), principal, id, input)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(ward))
}

func (h *Handler) deleteWard(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	id, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid ward id"))
		return
	}

	if err := h.directoryService.DeleteWard(c.Request.Context(), principal, id); err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(gin.H{"status": "deleted"}))
}

func (h *Handler) resolveWard(c *gin.Context) {
	lat, lon, err := h.parseQueryCoordinates(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	ward := h.directoryService.ResolveWard(c.Request.Context(), lat, lon)
	if ward == nil {
		c.JSON(http.StatusNotFound, errorResponse("no ward covers this location"))
		return
	}

	c.JSON(http.StatusOK, successResponse(ward))
}

func (h *Handler) createContractor(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	var req service.ContractorInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	contractor, err := h.directoryService.CreateContractor(c.Request.Context(), principal, req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, successResponse(contractor))
}

func (h *Handler) listContractors(c *gin.Context) {
	var filter repository.ContractorFilter

	if wardID := strings.TrimSpace(c.Query("ward_id")); wardID != "" {
		id, err := uuid.Parse(wardID)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse("invalid ward_id"))
			return
		}
		filter.WardID = &id
	}
	if dept := strings.TrimSpace(c.Query("department")); dept != "" {
		department := model.Department(dept)
		filter.Department = &department
	}
	filter.ActiveOnly = strings.EqualFold(c.Query("active"), "true")

	contractors, err := h.directoryService.ListContractors(c.Request.Context(), filter)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(gin.H{"items": contractors}))
}

func (h *Handler) assignContractorWards(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	id, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid contractor id"))
		return
	}

	var req struct {
		WardIDs []string `json:"ward_ids" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	wardIDs, err := parseUUIDs(req.WardIDs)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	if err := h.directoryService.AssignContractorWards(c.Request.Context(), principal, id, wardIDs); err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(gin.H{"status": "updated"}))
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, errorResponse(err.Error()))
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse(err.Error()))
	case errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusConflict, errorResponse(err.Error()))
	case errors.Is(err, service.ErrInvalidStatus):
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
	case errors.Is(err, service.ErrDuplicateSubmission):
		c.JSON(http.StatusConflict, errorResponse(err.Error()))
	case errors.Is(err, service.ErrGateway):
		c.JSON(http.StatusBadGateway, errorResponse(err.Error()))
	default:
		h.log.Error().Err(err).Msg("handler error")
		c.JSON(http.StatusInternalServerError, errorResponse("internal error"))
	}
}

func parseTicketQuery(c *gin.Context) (service.ListTicketsOptions, error) {
	var opts service.ListTicketsOptions

	if statusParam := c.Query("status"); statusParam != "" {
		for _, val := range splitCSV(statusParam) {
			opts.Statuses = append(opts.Statuses, model.TicketStatus(strings.ToUpper(val)))
		}
	}
	if deptParam := c.Query("department"); deptParam != "" {
		for _, val := range splitCSV(deptParam) {
			opts.Departments = append(opts.Departments, model.Department(val))
		}
	}
	if severityParam := c.Query("severity"); severityParam != "" {
		for _, val := range splitCSV(severityParam) {
			opts.Severities = append(opts.Severities, model.TicketSeverity(val))
		}
	}
	if wardID := strings.TrimSpace(c.Query("ward_id")); wardID != "" {
		id, err := uuid.Parse(wardID)
		if err != nil {
			return opts, err
		}
		opts.WardID = &id
	}
	if dateFrom := strings.TrimSpace(c.Query("date_from")); dateFrom != "" {
		ts, err := time.Parse(time.RFC3339, dateFrom)
		if err != nil {
			return opts, err
		}
		opts.DateFrom = &ts
	}
	if dateTo := strings.TrimSpace(c.Query("date_to")); dateTo != "" {
		ts, err := time.Parse(time.RFC3339, dateTo)
		if err != nil {
			return opts, err
		}
		opts.DateTo = &ts
	}
	if limit := strings.TrimSpace(c.Query("limit")); limit != "" {
		if v, err := strconv.Atoi(limit); err == nil {
			opts.Limit = v
		}
	}
	if offset := strings.TrimSpace(c.Query("offset")); offset != "" {
		if v, err := strconv.Atoi(offset); err == nil {
			opts.Offset = v
		}
	}

	opts.Search = strings.TrimSpace(c.Query("search"))

	return opts, nil
}

func bindWardInput(c *gin.Context) (service.WardInput, error) {
	var req struct {
		WardNo    string          `json:"ward_no" binding:"required"`
		Name      string          `json:"name" binding:"required"`
		AdminName string          `json:"admin_name"`
		AdminNo   string          `json:"admin_no"`
		Address   string          `json:"address"`
		Boundary  json.RawMessage `json:"boundary"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		return service.WardInput{}, err
	}
	return service.WardInput{
		WardNo:    req.WardNo,
		Name:      req.Name,
		AdminName: req.AdminName,
		AdminNo:   req.AdminNo,
		Address:   req.Address,
		Boundary:  req.Boundary,
	}, nil
}

func parseAssignIDs(contractorRaw, wardRaw string) (*uuid.UUID, *uuid.UUID, error) {
	var contractorID, wardID *uuid.UUID
	if raw := strings.TrimSpace(contractorRaw); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, nil, errors.New("invalid contractor_id")
		}
		contractorID = &id
	}
	if raw := strings.TrimSpace(wardRaw); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, nil, errors.New("invalid ward_id")
		}
		wardID = &id
	}
	return contractorID, wardID, nil
}

func parseUUIDs(raw []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(raw))
	for _, val := range raw {
		id, err := uuid.Parse(strings.TrimSpace(val))
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func readFormImage(c *gin.Context, field string) ([]byte, string, error) {
	file, err := c.FormFile(field)
	if err != nil {
		return nil, "", errors.New(field + " file is required")
	}
	src, err := file.Open()
	if err != nil {
		return nil, "", err
	}
	defer src.Close()
	data, err := io.ReadAll(src)
	if err != nil {
		return nil, "", err
	}
	return data, media.Ext(file.Filename), nil
}

func (h *Handler) parseFormCoordinates(c *gin.Context) (float64, float64, error) {
	return h.parseCoordinates(c.PostForm("latitude"), c.PostForm("longitude"))
}

func (h *Handler) parseQueryCoordinates(c *gin.Context) (float64, float64, error) {
	return h.parseCoordinates(c.Query("latitude"), c.Query("longitude"))
}

func (h *Handler) parseCoordinates(latRaw, lonRaw string) (float64, float64, error) {
	lat, err := strconv.ParseFloat(strings.TrimSpace(latRaw), 64)
	if err != nil {
		return 0, 0, errors.New("invalid latitude")
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(lonRaw), 64)
	if err != nil {
		return 0, 0, errors.New("invalid longitude")
	}
	if err := h.validate.Var(lat, "latitude"); err != nil {
		return 0, 0, errors.New("latitude out of range")
	}
	if err := h.validate.Var(lon, "longitude"); err != nil {
		return 0, 0, errors.New("longitude out of range")
	}
	return lat, lon, nil
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}

type responseEnvelope struct {
	Data interface{} `json:"data"`
}

func successResponse(data interface{}) responseEnvelope {
	return responseEnvelope{Data: data}
}

func errorResponse(msg string) gin.H {
	return gin.H{"error": msg}
}
