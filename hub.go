// Design Sprint web game
//
// Each browser sprint is one game at /sprint/:gameid. Everyone who opens the
// same game URL shares one screen: the state is owned by the game's hub and
// a full snapshot is broadcast after every change.
//
// Features:
//   - WebSockets per game ID: /sprint/:gameid and /sprint/:gameid/ws
//   - All actions and countdown ticks are applied by the hub goroutine, one at a time
//   - Notices are sent only to the client whose action caused them
//   - Challenge export and results downloads over plain HTTP
//   - Games auto-reaped after configurable idle timeout
//   - Random 8-char game IDs via crypto/rand, with server-side collision check
//   - In-browser QR button to share the current game, backed by go-qrcode

package main

import (
	"context"
	"crypto/rand"
	"fmt"
	mrand "math/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Seednode/designsprint/games/sprint"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
)

// Large enough for a maximum-size import plus its JSON envelope, so the
// import guardrail is what rejects oversized files.
const maxMessageSize = 6 << 20

// Messages coming from clients
type ClientMessage struct {
	Type        string         `json:"type"`
	Mode        string         `json:"mode,omitempty"`        // select_mode
	Name        string         `json:"name,omitempty"`        // set_team_name, add_member, remove_member
	Text        string         `json:"text,omitempty"`        // submit
	Contributor string         `json:"contributor,omitempty"` // submit
	Index       *int           `json:"index,omitempty"`       // toggle_idea
	ID          string         `json:"id,omitempty"`          // toggle_challenge
	Challenge   *sprint.Fields `json:"challenge,omitempty"`   // add_challenge
	Filename    string         `json:"filename,omitempty"`    // import_file
	Size        int64          `json:"size,omitempty"`        // import_file
	Content     string         `json:"content,omitempty"`     // import_file
	Seconds     int            `json:"seconds,omitempty"`     // set_timer
}

type Client struct {
	conn *websocket.Conn
	send chan any

	// shareURL is the game page as this client reached it.
	shareURL string
}

type action struct {
	client *Client
	msg    ClientMessage
}

type query struct {
	fn   func(*sprint.App)
	done chan struct{}
}

type Hub struct {
	id      string
	cfg     *Config
	app     *sprint.App
	rng     *mrand.Rand
	clients map[*Client]bool

	register chan *Client
	unreg    chan *Client
	actions  chan action
	queries  chan query
	ticks    chan struct{}
	done     chan struct{}
	stop     context.CancelFunc

	ticker   *sprint.Ticker
	shareURL string

	mu         sync.RWMutex
	createdAt  time.Time
	lastActive time.Time
}

func newHub(cfg *Config, gameID string) (*Hub, error) {
	lib, err := sprint.NewLibrary(cfg.builtin)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	return &Hub{
		id:         gameID,
		cfg:        cfg,
		app:        sprint.NewApp(lib, cfg.timerSeconds()),
		rng:        mrand.New(mrand.NewSource(now.UnixNano())),
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unreg:      make(chan *Client),
		actions:    make(chan action),
		queries:    make(chan query),
		ticks:      make(chan struct{}),
		done:       make(chan struct{}),
		createdAt:  now,
		lastActive: now,
	}, nil
}

func (h *Hub) touch() {
	h.mu.Lock()
	h.lastActive = time.Now()
	h.mu.Unlock()
}

func (h *Hub) idleSince() time.Time {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.lastActive
}

func (h *Hub) run(ctx context.Context) {
	defer close(h.done)
	defer h.closeAll()
	defer h.stopTicker()

	for {
		select {
		case <-ctx.Done():
			return

		case c := <-h.register:
			h.touch()
			h.clients[c] = true
			if h.shareURL == "" {
				h.shareURL = c.shareURL
			}
			h.broadcastState()

		case c := <-h.unreg:
			h.touch()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.broadcastState()

		case a := <-h.actions:
			h.touch()
			h.apply(a)
			h.syncTicker(ctx)
			h.broadcastState()

		case q := <-h.queries:
			h.touch()
			q.fn(h.app)
			close(q.done)

		case <-h.ticks:
			if h.app.Tick() {
				logf(h.cfg, "GAMES: Idea timer expired in %s", h.id)
			}
			h.syncTicker(ctx)
			h.broadcastState()
		}
	}
}

// syncTicker runs the wall clock only while the countdown is active.
func (h *Hub) syncTicker(ctx context.Context) {
	running := h.app.TimerRunning()

	switch {
	case running && h.ticker == nil:
		h.ticker = sprint.StartTicker(ctx, h.cfg.tickInterval, func(tctx context.Context) {
			select {
			case h.ticks <- struct{}{}:
			case <-tctx.Done():
			}
		})
	case !running && h.ticker != nil:
		h.stopTicker()
	}
}

func (h *Hub) stopTicker() {
	if h.ticker != nil {
		h.ticker.Stop()
		h.ticker = nil
	}
}

// apply runs one client action. Failures go back to that client only.
func (h *Hub) apply(a action) {
	err := h.dispatch(a)
	if err == nil {
		return
	}

	n := sprint.AsNotice(err)
	if n.Kind == sprint.KindInternal {
		errorf(h.cfg, "GAMES: %s failed in %s: %v", a.msg.Type, h.id, err)
	}

	h.sendTo(a.client, noticeMessage(n))
}

func (h *Hub) dispatch(a action) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = sprint.Internal(fmt.Errorf("panic: %v", r))
		}
	}()

	msg := a.msg
	app := h.app

	switch msg.Type {
	case "select_mode":
		return app.SelectMode(sprint.Mode(msg.Mode))
	case "clear_mode":
		app.ClearMode()
	case "set_team_name":
		return app.SetTeamName(msg.Name)
	case "add_member":
		return app.AddMember(msg.Name)
	case "remove_member":
		return app.RemoveMember(msg.Name)
	case "start_sprint":
		if err := app.StartSprint(h.rng); err != nil {
			return err
		}
		logf(h.cfg, "GAMES: Started %s sprint %q in %s", app.Mode, app.Session.Challenge.Title, h.id)
	case "submit":
		if err := app.Submit(msg.Text, msg.Contributor); err != nil {
			return err
		}
		if app.Screen == sprint.ScreenComplete {
			logf(h.cfg, "GAMES: Sprint completed in %s with %d points", h.id, app.Session.Score)
		}
	case "toggle_idea":
		i := -1
		if msg.Index != nil {
			i = *msg.Index
		}
		return app.ToggleIdea(i)
	case "advance":
		return app.Advance()
	case "start_timer":
		return app.StartTimer()
	case "stop_timer":
		app.StopTimer()
	case "exit":
		app.Exit()
	case "add_challenge":
		if msg.Challenge == nil {
			return sprint.Fields{}.Validate()
		}
		c, err := app.AddChallenge(*msg.Challenge)
		if err != nil {
			return err
		}
		logf(h.cfg, "GAMES: Added challenge %q to %s", c.Title, h.id)
	case "toggle_challenge":
		id, _ := uuid.Parse(msg.ID)
		return app.ToggleChallenge(id)
	case "select_all":
		app.SelectAllChallenges()
	case "deselect_all":
		app.DeselectAllChallenges()
	case "import_file":
		size := max(msg.Size, int64(len(msg.Content)))
		_, err := app.ReceiveImport(msg.Filename, size, []byte(msg.Content))
		return err
	case "confirm_import":
		res, err := app.ConfirmImport()
		if err != nil {
			return err
		}
		logf(h.cfg, "GAMES: Imported %d challenges into %s (%d skipped)", res.Imported, h.id, res.Skipped)
		h.sendTo(a.client, NoticeMessage{Type: "notice", Kind: kindSuccess, Message: res.Message()})
	case "cancel_import":
		app.CancelImport()
	case "set_timer":
		return app.SetTimerDuration(msg.Seconds)
	default:
		// ignore unknown types
	}

	return nil
}

func (h *Hub) sendTo(c *Client, msg any) {
	if _, ok := h.clients[c]; !ok {
		return
	}

	select {
	case c.send <- msg:
	default:
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) broadcastState() {
	msg := snapshot(h.app, len(h.clients), h.shareURL, time.Now())

	for client := range h.clients {
		h.sendTo(client, msg)
	}
}

// closeAll disconnects all clients of this hub.
func (h *Hub) closeAll() {
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
}

// query runs fn against the game state from the hub goroutine. It reports
// false if the hub has already shut down.
func (h *Hub) query(fn func(*sprint.App)) bool {
	q := query{fn: fn, done: make(chan struct{})}

	select {
	case h.queries <- q:
	case <-h.done:
		return false
	}

	<-q.done

	return true
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// GameManager holds a set of hubs keyed by game ID, so each /sprint/:gameid
// is its own isolated game.
type GameManager struct {
	ctx         context.Context
	cfg         *Config
	mu          sync.Mutex
	hubs        map[string]*Hub
	idleTimeout time.Duration
}

func newGameManager(ctx context.Context, cfg *Config) *GameManager {
	gm := &GameManager{
		ctx:         ctx,
		cfg:         cfg,
		hubs:        make(map[string]*Hub),
		idleTimeout: cfg.sessionTimeout,
	}
	if gm.idleTimeout > 0 {
		go gm.reaperLoop()
	}
	return gm
}

func (gm *GameManager) getHub(gameID string) (*Hub, error) {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	if hub, ok := gm.hubs[gameID]; ok {
		return hub, nil
	}

	hub, err := newHub(gm.cfg, gameID)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(gm.ctx)
	hub.stop = cancel

	gm.hubs[gameID] = hub
	go hub.run(ctx)

	return hub, nil
}

func (gm *GameManager) lookup(gameID string) (*Hub, bool) {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	hub, ok := gm.hubs[gameID]
	return hub, ok
}

// newGameID generates a crypto-random game ID and ensures it doesn't
// collide with existing games.
func (gm *GameManager) newGameID() string {
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	for {
		buf := make([]byte, 8)
		if _, err := rand.Read(buf); err != nil {
			panic("crypto/rand failure: " + err.Error())
		}
		out := make([]byte, 8)
		for i := range out {
			out[i] = letters[int(buf[i])%len(letters)]
		}
		id := string(out)

		gm.mu.Lock()
		_, exists := gm.hubs[id]
		gm.mu.Unlock()

		if !exists {
			return id
		}
	}
}

// reapIdle ends every game idle since before cutoff and returns how many.
func (gm *GameManager) reapIdle(cutoff time.Time) int {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	reaped := 0
	for id, hub := range gm.hubs {
		if hub.idleSince().Before(cutoff) {
			delete(gm.hubs, id)
			hub.stop()
			reaped++
			logf(gm.cfg, "GAMES: Reaped idle game %s", id)
		}
	}

	return reaped
}

// reaperLoop periodically removes hubs that have been idle longer than idleTimeout.
func (gm *GameManager) reaperLoop() {
	ticker := time.NewTicker(gm.idleTimeout / 2)
	defer ticker.Stop()

	for {
		select {
		case <-gm.ctx.Done():
			return
		case now := <-ticker.C:
			gm.reapIdle(now.Add(-gm.idleTimeout))
		}
	}
}

func requestScheme(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme
}

// WebSocket handler that picks the hub based on :gameid
func serveWSForManager(cfg *Config, gm *GameManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		gameID := ps.ByName("gameid")
		if gameID == "" {
			http.Error(w, "missing game id", http.StatusBadRequest)
			return
		}

		hub, err := gm.getHub(gameID)
		if err != nil {
			errorf(cfg, "GAMES: Unable to create game %s: %v", gameID, err)
			http.Error(w, sprint.GenericFailure, http.StatusInternalServerError)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logf(cfg, "GAMES: Upgrade failed for %s: %v", realIP(r), err)
			return
		}
		conn.SetReadLimit(maxMessageSize)

		client := &Client{
			conn:     conn,
			send:     make(chan any, 8),
			shareURL: requestScheme(r) + "://" + r.Host + strings.TrimSuffix(r.URL.Path, "/ws"),
		}

		select {
		case hub.register <- client:
		case <-hub.done:
			_ = conn.Close()
			return
		}

		logf(cfg, "GAMES: %s connected to %s", realIP(r), gameID)

		go client.writePump()
		client.readPump(hub)
	}
}

func (c *Client) readPump(h *Hub) {
	defer func() {
		select {
		case h.unreg <- c:
		case <-h.done:
		}
		_ = c.conn.Close()
	}()

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		select {
		case h.actions <- action{client: c, msg: msg}:
		case <-h.done:
			return
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

// QR handler: generates a PNG QR code for the current game URL using go-qrcode.
func qrHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	gameID := ps.ByName("gameid")
	if gameID == "" {
		http.Error(w, "missing game id", http.StatusBadRequest)
		return
	}

	// We are at /.../:gameid/qr; strip trailing "/qr" to get the game URL.
	url := requestScheme(r) + "://" + r.Host + strings.TrimSuffix(r.URL.Path, "/qr")

	const qrSize = 320 // mobile-friendly size
	png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
	if err != nil {
		http.Error(w, "qr generation failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}

// serveHubDownload answers a file download from a game's state. render
// returns a *sprint.Notice when there is nothing to download yet, which is
// reported as 409 with the notice text.
func serveHubDownload(cfg *Config, gm *GameManager, contentType string, render func(*sprint.App, time.Time) (string, []byte, error)) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		startTime := time.Now()

		hub, ok := gm.lookup(ps.ByName("gameid"))
		if !ok {
			http.NotFound(w, r)
			return
		}

		var (
			name string
			body []byte
			err  error
		)
		if !hub.query(func(app *sprint.App) {
			name, body, err = render(app, startTime)
		}) {
			http.NotFound(w, r)
			return
		}

		securityHeaders(cfg, w)

		if err != nil {
			n := sprint.AsNotice(err)
			status := http.StatusConflict
			if n.Kind == sprint.KindInternal {
				errorf(cfg, "SERVE: %s for %s: %v", r.URL.Path, realIP(r), err)
				status = http.StatusInternalServerError
			}
			http.Error(w, n.Message, status)
			return
		}

		written, err := serveDownload(w, name, contentType, body)
		if err != nil {
			errorf(cfg, "SERVE: %s for %s: %v", r.URL.Path, realIP(r), err)
			return
		}

		logf(cfg, "SERVE: %s (%s) to %s in %s",
			name,
			humanReadableSize(int64(written)),
			realIP(r),
			time.Since(startTime).Round(time.Microsecond),
		)
	}
}

func exportChallenges(app *sprint.App, now time.Time) (string, []byte, error) {
	return app.ExportChallenges(now)
}

func downloadResults(app *sprint.App, now time.Time) (string, []byte, error) {
	return app.DownloadResults(now)
}

// redirectNewGame handles GET /sprint by generating a new random game ID
// (with server-side collision detection) and redirecting to /sprint/:gameid.
func redirectNewGame(cfg *Config, path string, gm *GameManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		gameID := gm.newGameID()
		logf(cfg, "GAMES: Created game %s/%s", path, gameID)
		http.Redirect(w, r, path+"/"+gameID, http.StatusTemporaryRedirect)
	}
}

// registerSprintGame sets up routes so that:
//   - $path                       → redirects to new random game (8-char ID)
//   - $path/:gameid               → HTML client
//   - $path/:gameid/ws            → WebSocket for that game
//   - $path/:gameid/challenges.json → custom challenge export
//   - $path/:gameid/results.txt   → plain-text results
//   - $path/:gameid/qr            → PNG QR code for that game URL
func registerSprintGame(ctx context.Context, cfg *Config, path string, mux *httprouter.Router) *GameManager {
	gm := newGameManager(ctx, cfg)

	full := cfg.prefix + path

	mux.GET(full, redirectNewGame(cfg, full, gm))

	mux.GET(full+"/:gameid", serveIndex(cfg))

	mux.GET(cfg.prefix+"/assets/sprint/app.css", serveAsset(cfg, "assets/sprint/app.css", "text/css; charset=utf-8"))
	mux.GET(cfg.prefix+"/assets/sprint/app.js", serveAsset(cfg, "assets/sprint/app.js", "text/javascript; charset=utf-8"))

	mux.GET(full+"/:gameid/ws", serveWSForManager(cfg, gm))

	mux.GET(full+"/:gameid/challenges.json", serveHubDownload(cfg, gm, "application/json", exportChallenges))
	mux.GET(full+"/:gameid/results.txt", serveHubDownload(cfg, gm, "text/plain; charset=utf-8", downloadResults))

	mux.GET(full+"/:gameid/qr", qrHandler)

	return gm
}
