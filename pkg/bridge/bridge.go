// Package bridge serves the playback engine to browsers over
// websocket. It implements ports.EventSink, pushing each decoded
// frame to every connected viewer as a binary JPEG message and the
// playback state as JSON text messages, and reads transport commands
// (play, pause, seek, speed, step) back from the socket.
package bridge

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/user/replay/pkg/adapters/logger"
	"github.com/user/replay/pkg/player"
	"github.com/user/replay/pkg/ports"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // the viewer is a local tool, any origin may connect
	},
}

// Transport is the slice of the engine a viewer is allowed to drive.
// *player.Player satisfies it.
type Transport interface {
	Play() error
	Pause() error
	Seek(positionMs int) error
	SetSpeed(speed float64) float64
	StepForward() error
	StepBackward() error
	Status() player.Status
}

type durationMessage struct {
	Type       string `json:"type"`
	DurationMs int    `json:"durationMs"`
}

type positionMessage struct {
	Type       string `json:"type"`
	PositionMs int    `json:"positionMs"`
}

type stateMessage struct {
	Type        string  `json:"type"`
	Playing     bool    `json:"playing"`
	PositionMs  int     `json:"positionMs"`
	DurationMs  int     `json:"durationMs"`
	Speed       float64 `json:"speed"`
	FrameRate   float64 `json:"frameRate"`
	TotalFrames int     `json:"totalFrames"`
	Finished    bool    `json:"finished"`
}

type finishedMessage struct {
	Type string `json:"type"`
}

// controlMessage is what viewers send back. Type selects the command;
// the other fields are read per type.
type controlMessage struct {
	Type       string  `json:"type"`
	PositionMs int     `json:"positionMs"`
	Speed      float64 `json:"speed"`
	Delta      int     `json:"delta"`
}

// Bridge fans engine events out to websocket viewers and applies
// their transport commands to the engine.
type Bridge struct {
	transport Transport
	hub       *Hub
	log       ports.Logger

	mu       sync.Mutex
	finished bool
}

// New creates a bridge around the given transport. A nil log gets a
// no-op logger.
func New(transport Transport, log ports.Logger) *Bridge {
	if log == nil {
		log = logger.NewNoop()
	}
	log = log.WithComponent("bridge")
	return &Bridge{
		transport: transport,
		hub:       newHub(log),
		log:       log,
	}
}

// Handler returns the HTTP surface: the embedded viewer page at /
// and the websocket endpoint at /ws.
func (b *Bridge) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", b.handleIndex)
	mux.HandleFunc("/ws", b.handleSocket)
	return mux
}

// Stats reports hub traffic counters.
func (b *Bridge) Stats() Stats {
	return b.hub.stats()
}

// Close disconnects every viewer. The bridge is not reusable after.
func (b *Bridge) Close() {
	b.hub.closeAll()
}

// DurationChanged broadcasts the duration of a newly loaded source.
func (b *Bridge) DurationChanged(totalDurationMs int) {
	b.broadcastJSON(durationMessage{Type: "duration", DurationMs: totalDurationMs})
}

// FrameReady broadcasts the frame position as JSON text followed by
// the JPEG payload as a binary message.
func (b *Bridge) FrameReady(frame ports.Frame, positionMs int) {
	b.mu.Lock()
	b.finished = false
	b.mu.Unlock()
	b.broadcastJSON(positionMessage{Type: "position", PositionMs: positionMs})
	b.hub.broadcast(message{kind: websocket.BinaryMessage, data: frame.Data})
}

// PlaybackFinished tells viewers the stream has run out.
func (b *Bridge) PlaybackFinished() {
	b.mu.Lock()
	b.finished = true
	b.mu.Unlock()
	b.broadcastJSON(finishedMessage{Type: "finished"})
}

func (b *Bridge) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(viewerHTML)
}

func (b *Bridge) handleSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.log.Warn("Websocket upgrade failed: %v", err)
		return
	}
	c := newClient(uuid.New().String(), conn)
	b.hub.add(c)
	go c.writePump(b.hub)

	// greet the new viewer with the current state so its controls
	// render correctly before the first frame arrives
	b.sendStateTo(c.id)

	defer b.hub.remove(c.id)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		b.handleControl(data)
	}
}

func (b *Bridge) handleControl(data []byte) {
	var cmd controlMessage
	if err := json.Unmarshal(data, &cmd); err != nil {
		b.log.Warn("Discarding malformed control message: %v", err)
		return
	}
	var err error
	switch cmd.Type {
	case "play":
		err = b.transport.Play()
	case "pause":
		err = b.transport.Pause()
	case "seek":
		err = b.transport.Seek(cmd.PositionMs)
	case "speed":
		b.transport.SetSpeed(cmd.Speed)
	case "step":
		if cmd.Delta < 0 {
			err = b.transport.StepBackward()
		} else {
			err = b.transport.StepForward()
		}
	default:
		b.log.Warn("Unknown control message type %q", cmd.Type)
		return
	}
	if err != nil {
		b.log.Warn("Control %s failed: %v", cmd.Type, err)
		return
	}
	b.broadcastJSON(b.state())
}

func (b *Bridge) state() stateMessage {
	st := b.transport.Status()
	b.mu.Lock()
	finished := b.finished
	b.mu.Unlock()
	return stateMessage{
		Type:        "state",
		Playing:     st.Playing,
		PositionMs:  st.PositionMs,
		DurationMs:  st.TotalDurationMs,
		Speed:       st.Speed,
		FrameRate:   st.FrameRate,
		TotalFrames: st.TotalFrames,
		Finished:    finished,
	}
}

func (b *Bridge) sendStateTo(id string) {
	data, err := json.Marshal(b.state())
	if err != nil {
		b.log.Warn("Could not encode state message: %v", err)
		return
	}
	b.hub.sendTo(id, message{kind: websocket.TextMessage, data: data})
}

func (b *Bridge) broadcastJSON(v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		b.log.Warn("Could not encode %T: %v", v, err)
		return
	}
	b.hub.broadcast(message{kind: websocket.TextMessage, data: data})
}

var _ ports.EventSink = (*Bridge)(nil)
