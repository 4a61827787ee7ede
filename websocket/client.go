package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"rescuereach/models"
	"rescuereach/utils"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBufferSize = 64

	// sosDeliveryTimeout bounds the pipeline run for a confirmed SOS.
	sosDeliveryTimeout = 60 * time.Second
)

// Client is one authenticated WebSocket connection and its in-flight SOS
// session state: a possibly-running confirmation countdown and a possibly-
// held status watch. Both are torn down with the connection.
type Client struct {
	conn *websocket.Conn
	hub  *Hub

	userID          string
	isAuthenticated bool

	send chan models.WSMessage

	// SOS session state, guarded by mu.
	mu              sync.Mutex
	countdownCancel chan struct{}
	watchStop       func()
	activeReportID  string

	ctx    context.Context
	cancel context.CancelFunc
}

func NewClient(conn *websocket.Conn, hub *Hub) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		conn:   conn,
		hub:    hub,
		send:   make(chan models.WSMessage, sendBufferSize),
		ctx:    ctx,
		cancel: cancel,
	}
}

func (c *Client) ReadPump() {
	defer c.cleanup()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logrus.Errorf("WebSocket error for user %s: %v", c.userID, err)
			}
			return
		}
		c.handleMessage(data)
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.ctx.Done():
			return

		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(message); err != nil {
				logrus.Errorf("WebSocket write error for user %s: %v", c.userID, err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleMessage(data []byte) {
	var req models.WSRequest
	if err := json.Unmarshal(data, &req); err != nil {
		c.sendError(models.WSErrorInvalidMessage, "Invalid message format")
		return
	}

	if req.Type != models.WSRequestAuth && !c.isAuthenticated {
		c.sendError(models.WSErrorUnauthorized, "Authentication required")
		return
	}

	switch req.Type {
	case models.WSRequestAuth:
		c.handleAuth(req)
	case models.WSRequestTriggerSOS:
		c.handleTriggerSOS(req)
	case models.WSRequestCancelSOS:
		c.handleCancelSOS(req)
	case models.WSRequestWatchSOS:
		c.handleWatchSOS()
	case models.WSRequestLocationUpdate:
		c.handleLocationUpdate(req)
	case models.WSRequestPing:
		c.SendMessage(models.WSMessage{Type: models.WSTypePong, Timestamp: time.Now()})
	default:
		c.sendError(models.WSErrorInvalidMessage, "Unknown message type")
	}
}

func (c *Client) handleAuth(req models.WSRequest) {
	var auth models.WSAuthRequest
	if err := json.Unmarshal(req.Data, &auth); err != nil || auth.Token == "" {
		c.sendError(models.WSErrorUnauthorized, "Authentication token required")
		return
	}

	claims, err := c.hub.jwtService.ValidateToken(auth.Token)
	if err != nil || claims.TokenType != "access" {
		c.sendError(models.WSErrorUnauthorized, "Invalid authentication token")
		return
	}

	c.userID = claims.UserID
	c.isAuthenticated = true
	c.hub.register <- c

	c.SendMessage(models.WSMessage{
		Type:      models.WSTypeAuthResult,
		Data:      map[string]string{"userId": c.userID},
		Timestamp: time.Now(),
	})
}

// handleTriggerSOS runs the confirmation countdown and, unless cancelled,
// fires the pipeline and starts watching the resulting report.
func (c *Client) handleTriggerSOS(req models.WSRequest) {
	var trigger models.TriggerSOSRequest
	if err := json.Unmarshal(req.Data, &trigger); err != nil {
		c.sendError(models.WSErrorInvalidMessage, "Invalid SOS request")
		return
	}

	c.mu.Lock()
	if c.countdownCancel != nil || c.watchStop != nil {
		c.mu.Unlock()
		c.sendError(models.WSErrorSOSFailed, "An SOS session is already in progress")
		return
	}
	cancelCh := make(chan struct{})
	c.countdownCancel = cancelCh
	c.mu.Unlock()

	go func() {
		events := make(chan models.WatchEvent, 8)
		done := make(chan struct{})
		go func() {
			defer close(done)
			for event := range events {
				c.SendMessage(sosEvent(event))
			}
		}()

		proceeded := c.hub.watcher.RunCountdown(c.ctx, cancelCh, events)
		close(events)
		<-done

		c.mu.Lock()
		c.countdownCancel = nil
		c.mu.Unlock()

		if !proceeded {
			return
		}

		c.deliverSOS(&trigger)
	}()
}

// deliverSOS runs the pipeline for a confirmed trigger. The context is
// detached from the connection: a client that disconnects right after
// confirming must not cancel its own emergency mid-delivery. The pointer
// plus sos_watch let a relaunched client pick the report back up.
func (c *Client) deliverSOS(trigger *models.TriggerSOSRequest) {
	ctx, cancel := context.WithTimeout(context.Background(), sosDeliveryTimeout)
	defer cancel()

	outcome, err := c.hub.sosService.TriggerSOS(ctx, c.userID, trigger)
	if err != nil {
		message := "Emergency could not be reported."
		if se, ok := utils.GetServiceError(err); ok {
			message = se.Message
		}
		c.SendMessage(sosEvent(models.WatchEvent{
			Phase:   models.PhaseFailed,
			Message: message,
		}))
		return
	}

	c.SendMessage(sosEvent(models.WatchEvent{
		Phase:   models.PhaseActive,
		Status:  outcome.Report.Status,
		Message: outcome.Message,
	}))

	// Nothing to subscribe to on the offline path; the sync worker
	// will surface the report once connectivity returns.
	if outcome.Channel == "online" {
		c.startWatch(outcome.Report.ReportID)
	}
}

// handleCancelSOS cancels the countdown when one is running (no side
// effects), or resolves the in-flight report when one exists.
func (c *Client) handleCancelSOS(req models.WSRequest) {
	c.mu.Lock()
	if c.countdownCancel != nil {
		close(c.countdownCancel)
		c.countdownCancel = nil
		c.mu.Unlock()
		return
	}
	reportID := c.activeReportID
	c.mu.Unlock()

	var cancelReq models.CancelSOSRequest
	if len(req.Data) > 0 {
		if err := json.Unmarshal(req.Data, &cancelReq); err != nil {
			c.sendError(models.WSErrorInvalidMessage, "Invalid cancel request")
			return
		}
	}

	if reportID == "" {
		report, err := c.hub.sosService.GetActiveReport(c.ctx, c.userID)
		if err != nil || report == nil {
			c.sendError(models.WSErrorSOSFailed, "No active SOS to cancel")
			return
		}
		reportID = report.ReportID
	}

	if err := c.hub.sosService.CancelSOS(c.ctx, c.userID, reportID, cancelReq.Reason); err != nil {
		c.sendError(models.WSErrorSOSFailed, "Failed to cancel SOS")
		return
	}
	c.stopWatch()

	c.SendMessage(sosEvent(models.WatchEvent{
		Phase:    models.PhaseResolved,
		Status:   models.StatusResolved,
		Canceled: true,
		Message:  "Your emergency report has been cancelled.",
	}))
}

// handleWatchSOS resumes watching the user's in-flight report after an app
// relaunch.
func (c *Client) handleWatchSOS() {
	report, err := c.hub.sosService.GetActiveReport(c.ctx, c.userID)
	if err != nil {
		c.sendError(models.WSErrorSOSFailed, "Failed to look up active SOS")
		return
	}
	if report == nil {
		c.SendMessage(sosEvent(models.WatchEvent{Phase: models.PhaseIdle, Message: "No active SOS"}))
		return
	}
	c.startWatch(report.ReportID)
}

func (c *Client) handleLocationUpdate(req models.WSRequest) {
	var update models.WSLocationUpdate
	if err := json.Unmarshal(req.Data, &update); err != nil {
		c.sendError(models.WSErrorInvalidMessage, "Invalid location update")
		return
	}

	fix := &models.LocationFix{
		Latitude:  update.Latitude,
		Longitude: update.Longitude,
		Accuracy:  update.Accuracy,
		Timestamp: time.Now(),
	}
	if err := c.hub.locationCache.Store(c.ctx, c.userID, fix); err != nil {
		logrus.Warnf("Location update failed for user %s: %v", c.userID, err)
	}
}

// startWatch begins streaming status events for a report to this client,
// replacing any previous watch.
func (c *Client) startWatch(reportID string) {
	events, stop, err := c.hub.watcher.Watch(c.ctx, reportID)
	if err != nil {
		logrus.Errorf("Failed to start watch on report %s: %v", reportID, err)
		c.sendError(models.WSErrorSOSFailed, "Failed to watch SOS status")
		return
	}

	c.mu.Lock()
	if c.watchStop != nil {
		c.watchStop()
	}
	c.watchStop = stop
	c.activeReportID = reportID
	c.mu.Unlock()

	go func() {
		for event := range events {
			c.SendMessage(sosEvent(event))
			if event.Phase == models.PhaseResolved {
				break
			}
		}
		c.stopWatch()
	}()
}

// stopWatch releases the current subscription, if any.
func (c *Client) stopWatch() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.watchStop != nil {
		c.watchStop()
		c.watchStop = nil
	}
	c.activeReportID = ""
}

func (c *Client) SendMessage(message models.WSMessage) {
	select {
	case c.send <- message:
	default:
		logrus.Warnf("Send buffer full for user %s, dropping frame", c.userID)
	}
}

func (c *Client) sendError(code, message string) {
	c.SendMessage(models.WSMessage{
		Type:      models.WSTypeError,
		Data:      models.WSError{Code: code, Message: message},
		Timestamp: time.Now(),
	})
}

func (c *Client) cleanup() {
	c.mu.Lock()
	if c.countdownCancel != nil {
		close(c.countdownCancel)
		c.countdownCancel = nil
	}
	if c.watchStop != nil {
		c.watchStop()
		c.watchStop = nil
	}
	c.mu.Unlock()

	c.cancel()
	if c.isAuthenticated {
		// During hub shutdown nobody is draining unregister anymore;
		// Shutdown empties the client maps itself.
		select {
		case c.hub.unregister <- c:
		case <-c.hub.ctx.Done():
		}
	}
	c.conn.Close()
}
