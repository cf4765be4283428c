package pkg

import (
	"sync"

	petname "github.com/dustinkirkland/golang-petname"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const ConnQueueSize = 20

// Player is one browser connection.
type Player struct {
	Conn *websocket.Conn
	Out  chan MessageInterface
	Id   string
	Name string

	log       *zap.SugaredLogger
	closeOnce sync.Once
}

func NewPlayer(conn *websocket.Conn, log *zap.SugaredLogger) *Player {
	p := &Player{
		Conn: conn,
		Out:  make(chan MessageInterface, ConnQueueSize),
		Id:   uuid.NewString(),
		Name: petname.Generate(2, "-"),
	}
	p.log = log.With("player", p.Name)
	return p
}

// HandleRead forwards every frame to handle until the connection fails.
func (p *Player) HandleRead(handle func(MessageTransport)) error {
	for {
		var transport MessageTransport
		if err := p.Conn.ReadJSON(&transport); err != nil {
			return err
		}
		handle(transport)
	}
}

// HandleWrite drains Out onto the connection until Out is closed.
func (p *Player) HandleWrite() {
	for message := range p.Out {
		transport, err := Encode(message)
		if err != nil {
			p.log.Errorw("Failed to encode", "type", message.Type(), "error", err)
			continue
		}
		if err := p.Conn.WriteJSON(transport); err != nil {
			p.log.Warnw("Failed to write", "type", message.Type(), "error", err)
		}
	}
}

// Send queues m without blocking. A full queue drops the message.
func (p *Player) Send(m MessageInterface) {
	select {
	case p.Out <- m:
	default:
		p.log.Warnw("Dropping message, queue full", "type", m.Type())
	}
}

// Disconnect closes the connection and stops HandleWrite. Send must not be
// called afterwards.
func (p *Player) Disconnect() {
	p.closeOnce.Do(func() {
		close(p.Out)
		p.Conn.Close()
	})
}
