package http

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/sawitsmart/backend/internal/domain"
	"github.com/sawitsmart/backend/internal/hub"
	"github.com/sawitsmart/backend/internal/log"
	"github.com/sawitsmart/backend/internal/sensor"
	"github.com/sawitsmart/backend/internal/service"
	"github.com/sawitsmart/backend/pkg/geo"
)

// Deps are the services the HTTP layer serves.
type Deps struct {
	Plots   *service.PlotService
	Robot   *service.RobotService
	Scans   *service.ScanService
	Repo    service.DataRepository
	Feed    *hub.Hub
	Palette Palette
}

// Handler contains all HTTP handlers
type Handler struct {
	plots   *service.PlotService
	robot   *service.RobotService
	scans   *service.ScanService
	repo    service.DataRepository
	feed    *hub.Hub
	palette Palette
}

// NewHandler creates a new handler
func NewHandler(d Deps) *Handler {
	return &Handler{
		plots:   d.Plots,
		robot:   d.Robot,
		scans:   d.Scans,
		repo:    d.Repo,
		feed:    d.Feed,
		palette: d.Palette,
	}
}

// HealthCheck returns service health status
func (h *Handler) HealthCheck(c *fiber.Ctx) error {
	database := "ok"
	if err := h.repo.Health(c.Context()); err != nil {
		database = err.Error()
	}

	return c.JSON(fiber.Map{
		"status":   "ok",
		"service":  "sawitsmart-backend",
		"version":  "1.0.0",
		"database": database,
	})
}

// GetPlots returns every plot with its latest reading, status and ring
func (h *Handler) GetPlots(c *fiber.Ctx) error {
	plots := h.plots.Snapshot()
	return c.JSON(fiber.Map{
		"success": true,
		"data":    plots,
		"count":   len(plots),
	})
}

// readingRequest is a soil sample pushed by a field device
type readingRequest struct {
	PH          float64 `json:"ph"`
	N           int     `json:"n"`
	P           int     `json:"p"`
	K           int     `json:"k"`
	Moisture    float64 `json:"moisture"`
	Temperature float64 `json:"temperature"`
}

// PostReading ingests a soil reading for one plot
func (h *Handler) PostReading(c *fiber.Ctx) error {
	var req readingRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	stored, err := h.plots.Ingest(domain.SoilReading{
		PlotID:      c.Params("id"),
		PH:          req.PH,
		N:           req.N,
		P:           req.P,
		K:           req.K,
		Moisture:    req.Moisture,
		Temperature: req.Temperature,
		Timestamp:   time.Now(),
	})
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}

	if err := h.repo.SaveReading(c.Context(), stored); err != nil {
		log.Error("failed to save reading", "plot_id", stored.PlotID, "error", err)
	}
	h.publish(hub.TypeUpdate, stored)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    stored,
	})
}

// GetKPIs returns dashboard aggregates
func (h *Handler) GetKPIs(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"success": true,
		"data":    h.plots.KPIs(time.Now()),
	})
}

// GetRobot returns the latest robot pose, null before the first fix
func (h *Handler) GetRobot(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"success": true,
		"id":      h.robot.ID(),
		"data":    h.robot.Pose(),
	})
}

// PutRobot applies a position fix reported by the robot
func (h *Handler) PutRobot(c *fiber.Ctx) error {
	var fix domain.RobotFix
	if err := c.BodyParser(&fix); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := (geo.Point{Lat: fix.Lat, Lng: fix.Lng}).Validate(); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if fix.Timestamp.IsZero() {
		fix.Timestamp = time.Now()
	}
	fix.ID = h.robot.ID()

	pose := h.robot.Update(fix)
	h.publish(hub.TypeRobotPosition, fix)
	scan := h.scans.Scan(c.Context())

	return c.JSON(fiber.Map{
		"success": true,
		"data":    pose,
		"scan":    scan,
		"nearest": nearest(scan),
		"style":   h.palette.For(scan.Severity),
	})
}

// GetScan returns the latest scan, scanning now if none exists yet
func (h *Handler) GetScan(c *fiber.Ctx) error {
	scan, ok := h.scans.Latest()
	if !ok {
		scan = h.scans.Scan(c.Context())
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    scan,
		"nearest": nearest(scan),
		"style":   h.palette.For(scan.Severity),
	})
}

// nearest is the closest detection of a scan, nil when nothing is in view.
func nearest(scan domain.Scan) *domain.Detection {
	if d, ok := scan.Nearest(); ok {
		return &d
	}
	return nil
}

// evaluateRequest is an ad-hoc sensor evaluation
type evaluateRequest struct {
	Robot   *domain.Pose           `json:"robot"`
	Objects []domain.TrackedObject `json:"objects"`
	Config  *sensor.Config         `json:"config"`
}

// PostScan evaluates a caller-supplied pose, objects and configuration.
// Without a robot pose the result is inert.
func (h *Handler) PostScan(c *fiber.Ctx) error {
	var req evaluateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	cfg := h.scans.SensorConfig()
	if req.Config != nil {
		cfg = *req.Config
	}

	scan, err := h.scans.Evaluate(cfg, req.Robot, req.Objects)
	if err != nil {
		if errors.Is(err, sensor.ErrInvalidConfiguration) || errors.Is(err, geo.ErrInvalidCoordinate) {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to evaluate sensor")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    scan,
		"nearest": nearest(scan),
		"style":   h.palette.For(scan.Severity),
	})
}

// GetPalette returns the sector styles
func (h *Handler) GetPalette(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"success": true,
		"data":    h.palette,
	})
}

// GetDetectionHistory returns persisted detections within a time range
func (h *Handler) GetDetectionHistory(c *fiber.Ctx) error {
	from, to := historyWindow(c)

	data, err := h.repo.GetDetectionHistory(c.Context(), from, to)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to fetch detection history")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    data,
		"count":   len(data),
	})
}

// GetReadingHistory returns soil telemetry history within a time range
func (h *Handler) GetReadingHistory(c *fiber.Ctx) error {
	from, to := historyWindow(c)

	data, err := h.repo.GetHistoricalReadings(c.Context(), from, to)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to fetch reading history")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    data,
		"count":   len(data),
	})
}

func historyWindow(c *fiber.Ctx) (time.Time, time.Time) {
	hours := c.QueryInt("hours", 24)
	if hours < 1 || hours > 720 { // max 30 days
		hours = 24
	}

	to := time.Now()
	return to.Add(-time.Duration(hours) * time.Hour), to
}

// feedSnapshot is the first message a feed client receives
type feedSnapshot struct {
	Plots   []domain.Plot `json:"plots"`
	KPIs    domain.KPIs   `json:"kpis"`
	Robot   *domain.Pose  `json:"robot"`
	Scan    *domain.Scan  `json:"scan"`
	Palette Palette       `json:"palette"`
}

func (h *Handler) snapshot() feedSnapshot {
	snap := feedSnapshot{
		Plots:   h.plots.Snapshot(),
		KPIs:    h.plots.KPIs(time.Now()),
		Robot:   h.robot.Pose(),
		Palette: h.palette,
	}
	if scan, ok := h.scans.Latest(); ok {
		snap.Scan = &scan
	}
	return snap
}

// Feed streams live updates to a websocket client
func (h *Handler) Feed(conn *websocket.Conn) {
	initial, err := hub.Encode(hub.TypeInitial, h.snapshot())
	if err != nil {
		log.Error("failed to encode feed snapshot", "error", err)
		conn.Close()
		return
	}
	hub.NewClient(h.feed, conn, initial).Run()
}

func (h *Handler) publish(msgType string, payload any) {
	if h.feed == nil {
		return
	}
	if err := h.feed.Publish(msgType, payload); err != nil {
		log.Warn("failed to publish feed message", "type", msgType, "error", err)
	}
}
