package websocket

import (
	"context"
	"sync"
	"time"

	"rescuereach/models"
	"rescuereach/repositories"
	"rescuereach/services"
	"rescuereach/utils"

	"github.com/sirupsen/logrus"
)

// Hub owns the live client connections. Each authenticated user has at most
// one connection; the SOS pipeline pushes status events through it.
type Hub struct {
	clients     map[*Client]bool
	userClients map[string]*Client

	register   chan *Client
	unregister chan *Client
	sendToUser chan userMessage

	sosService    *services.SOSService
	watcher       *services.StatusWatcherService
	locationCache *repositories.LocationCache
	jwtService    *utils.JWTService

	mutex sync.RWMutex

	ctx    context.Context
	cancel context.CancelFunc
}

type userMessage struct {
	userID  string
	message models.WSMessage
}

func NewHub(
	sosService *services.SOSService,
	watcher *services.StatusWatcherService,
	locationCache *repositories.LocationCache,
	jwtService *utils.JWTService,
) *Hub {
	ctx, cancel := context.WithCancel(context.Background())

	return &Hub{
		clients:       make(map[*Client]bool),
		userClients:   make(map[string]*Client),
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		sendToUser:    make(chan userMessage, 64),
		sosService:    sosService,
		watcher:       watcher,
		locationCache: locationCache,
		jwtService:    jwtService,
		ctx:           ctx,
		cancel:        cancel,
	}
}

func (h *Hub) Run() {
	logrus.Info("WebSocket hub starting")

	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case msg := <-h.sendToUser:
			h.deliverToUser(msg)

		case <-h.ctx.Done():
			logrus.Info("WebSocket hub shutting down")
			return
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	// A second connection from the same user replaces the first.
	if existing, ok := h.userClients[client.userID]; ok {
		go existing.cleanup()
	}

	h.clients[client] = true
	h.userClients[client.userID] = client
	logrus.Infof("WebSocket client connected: %s (total: %d)", client.userID, len(h.clients))
}

func (h *Hub) unregisterClient(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	if h.userClients[client.userID] == client {
		delete(h.userClients, client.userID)
	}
	logrus.Infof("WebSocket client disconnected: %s (total: %d)", client.userID, len(h.clients))
}

func (h *Hub) deliverToUser(msg userMessage) {
	h.mutex.RLock()
	client := h.userClients[msg.userID]
	h.mutex.RUnlock()

	if client != nil {
		client.SendMessage(msg.message)
	}
}

// SendToUser pushes one frame to a connected user; a disconnected user is
// silently skipped (push notifications cover that case).
func (h *Hub) SendToUser(userID string, message models.WSMessage) {
	select {
	case h.sendToUser <- userMessage{userID: userID, message: message}:
	default:
		logrus.Warn("Hub send channel full, dropping frame")
	}
}

func (h *Hub) IsUserOnline(userID string) bool {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	_, ok := h.userClients[userID]
	return ok
}

// Shutdown stops the hub loop and tears down every connection. Client maps
// are emptied here directly; cleanup must not be invoked under h.mutex, it
// takes the client's own lock and may block on conn teardown.
func (h *Hub) Shutdown() {
	h.cancel()

	h.mutex.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.clients = make(map[*Client]bool)
	h.userClients = make(map[string]*Client)
	h.mutex.Unlock()

	for _, client := range clients {
		client.cleanup()
	}
}

// sosEvent wraps a watch event into an outbound frame.
func sosEvent(event models.WatchEvent) models.WSMessage {
	return models.WSMessage{
		Type:      models.WSTypeSOSEvent,
		Data:      event,
		Timestamp: time.Now(),
	}
}
