package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/yoockh/voicememo/internal/capture"
	"github.com/yoockh/voicememo/internal/memo"
	"github.com/yoockh/voicememo/internal/models"
	"github.com/yoockh/voicememo/internal/services"
	"github.com/yoockh/voicememo/internal/utils"
)

const (
	wsHelloTimeout = 10 * time.Second
	wsIdleTimeout  = 60 * time.Second
	wsWriteTimeout = 10 * time.Second
)

type WSHandler struct {
	memos    services.MemoService
	rec      capture.Options
	log      *logrus.Logger
	upgrader websocket.Upgrader

	// idle is how long a silent peer is kept; pings go out every idle/2
	// and each pong extends the deadline.
	idle time.Duration
}

// NewWSHandler serves the recording protocol. rec carries the duration
// ceiling, chunk interval and stream policy for every connection.
func NewWSHandler(memos services.MemoService, rec capture.Options, log *logrus.Logger) *WSHandler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &WSHandler{
		memos: memos,
		rec:   rec,
		log:   log,
		idle:  wsIdleTimeout,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

type wsClientMsg struct {
	Type string `json:"type"` // hello|start|stop|edit

	RecorderAvailable  *bool    `json:"recorder_available,omitempty"`
	SupportedMIMETypes []string `json:"supported_mime_types,omitempty"`
	Permission         string   `json:"permission,omitempty"`

	Slot string `json:"slot,omitempty"`
	Text string `json:"text,omitempty"`
}

type wsServerMsg struct {
	Type string `json:"type"` // ready|state|result|error

	SessionID     string                 `json:"session_id,omitempty"`
	MIMEType      *string                `json:"mime_type,omitempty"`
	TimesliceMS   int64                  `json:"timeslice_ms,omitempty"`
	MaxDurationMS int64                  `json:"max_duration_ms,omitempty"`
	State         models.ProcessingState `json:"state,omitempty"`
	Transcript    *models.Transcript     `json:"transcript,omitempty"`
	Code          utils.Code             `json:"code,omitempty"`
	Message       string                 `json:"message,omitempty"`
}

type wsConn struct {
	c  *websocket.Conn
	mu sync.Mutex
}

func (w *wsConn) send(m wsServerMsg) error {
	b, err := json.Marshal(m)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.c.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return w.c.WriteMessage(websocket.TextMessage, b)
}

func (w *wsConn) ping() error {
	return w.c.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteTimeout))
}

// cycleGroup tracks the memo cycles of one connection. Once closed it
// refuses new cycles, so Wait never races an Add.
type cycleGroup struct {
	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// Go runs fn in a goroutine unless the group is closed.
func (g *cycleGroup) Go(fn func()) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return false
	}
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		fn()
	}()
	return true
}

func (g *cycleGroup) Close() {
	g.mu.Lock()
	g.closed = true
	g.mu.Unlock()
}

func (g *cycleGroup) Wait() { g.wg.Wait() }

func (w *wsConn) sendError(err error) error {
	return w.send(wsServerMsg{Type: "error", Code: utils.CodeOf(err), Message: utils.Message(err)})
}

// Record handles GET /ws/record.
func (h *WSHandler) Record(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// upgrade already wrote response in most cases
		return
	}
	defer conn.Close()

	wc := &wsConn{c: conn}
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	hello, err := readHello(conn)
	if err != nil {
		_ = wc.sendError(err)
		return
	}

	fac := capture.NewRemoteFacility(hello)

	sess := h.memos.NewSession(func(ev memo.Event) {
		tr := ev.Transcript
		_ = wc.send(wsServerMsg{Type: "state", SessionID: ev.SessionID, State: ev.State, Transcript: &tr, Code: ev.Code, Message: ev.Message})
	})
	log := h.log.WithField("session_id", sess.ID())

	var cycles cycleGroup

	finish := func(art models.AudioArtifact, err error) {
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			sess.AbortRecording(err)
			_ = wc.sendError(err)
			return
		}
		cycles.Go(func() {
			tr, err := sess.Process(ctx, art)
			if err != nil {
				_ = wc.sendError(err)
				return
			}
			_ = wc.send(wsServerMsg{Type: "result", SessionID: sess.ID(), State: sess.State(), Transcript: &tr})
		})
	}

	opts := h.rec
	opts.OnAutoStop = func(art models.AudioArtifact, err error) {
		log.Info("recording reached duration ceiling")
		finish(art, err)
	}
	recorder := capture.NewRecorder(fac, opts)
	defer func() {
		cycles.Close()
		_ = recorder.Close()
		cancel()
		cycles.Wait()
		fac.Shutdown()
		log.Info("recording session closed")
	}()
	opts = recorder.Options()

	mime := capture.SelectMIMEType(fac, opts.Candidates)
	if err := wc.send(wsServerMsg{
		Type:          "ready",
		SessionID:     sess.ID(),
		MIMEType:      &mime,
		TimesliceMS:   opts.Timeslice.Milliseconds(),
		MaxDurationMS: opts.MaxDuration.Milliseconds(),
		State:         sess.State(),
	}); err != nil {
		return
	}
	log.WithFields(logrus.Fields{"mime_type": mime, "permission": hello.Permission}).Info("recording session opened")

	idle := h.idle
	if idle <= 0 {
		idle = wsIdleTimeout
	}
	_ = conn.SetReadDeadline(time.Now().Add(idle))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(idle))
		return nil
	})
	go func() {
		t := time.NewTicker(idle / 2)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if err := wc.ping(); err != nil {
					return
				}
			}
		}
	}()

	for {
		typ, data, rerr := conn.ReadMessage()
		if rerr != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(idle))

		if typ == websocket.BinaryMessage {
			if !fac.Push(data) {
				_ = wc.sendError(utils.E(utils.CodeConflict, "WSHandler.Record", "not recording", nil))
			}
			continue
		}

		var msg wsClientMsg
		if err := json.Unmarshal(data, &msg); err != nil {
			_ = wc.sendError(utils.E(utils.CodeInvalidArgument, "WSHandler.Record", "invalid json", err))
			continue
		}

		switch msg.Type {
		case "start":
			if err := sess.StartRecording(); err != nil {
				_ = wc.sendError(err)
				continue
			}
			if err := recorder.Start(ctx); err != nil {
				sess.AbortRecording(err)
				_ = wc.sendError(err)
			}

		case "stop":
			art, err := recorder.Stop()
			if utils.IsCode(err, utils.CodeConflict) {
				_ = wc.sendError(err)
				continue
			}
			finish(art, err)

		case "edit":
			slot, err := models.ParseSlot(msg.Slot)
			if err != nil {
				_ = wc.sendError(utils.E(utils.CodeInvalidArgument, "WSHandler.Record", err.Error(), err))
				continue
			}
			if err := sess.Edit(slot, msg.Text); err != nil {
				_ = wc.sendError(err)
			}

		default:
			_ = wc.sendError(utils.E(utils.CodeInvalidArgument, "WSHandler.Record", "unknown message type", nil))
		}
	}
}

func readHello(conn *websocket.Conn) (capture.RemoteHello, error) {
	const op = "WSHandler.hello"

	_ = conn.SetReadDeadline(time.Now().Add(wsHelloTimeout))
	typ, data, err := conn.ReadMessage()
	if err != nil {
		return capture.RemoteHello{}, utils.E(utils.CodeTimeout, op, "no hello received", err)
	}
	var msg wsClientMsg
	if typ != websocket.TextMessage || json.Unmarshal(data, &msg) != nil || msg.Type != "hello" {
		return capture.RemoteHello{}, utils.E(utils.CodeInvalidArgument, op, "first message must be hello", nil)
	}

	available := true
	if msg.RecorderAvailable != nil {
		available = *msg.RecorderAvailable
	}
	return capture.RemoteHello{
		RecorderAvailable:  available,
		SupportedMIMETypes: msg.SupportedMIMETypes,
		Permission:         msg.Permission,
	}, nil
}
