package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"civic-quiz-engine/internal/domain"
	"civic-quiz-engine/internal/engine"
	"civic-quiz-engine/internal/modes"
)

// WSHandler drives one quiz engine per connection. The client supplies the
// topic, mode and identity via query params; everything after the upgrade is
// message-driven.
type WSHandler struct {
	registry *modes.Registry
	topics   engine.QuestionSource
	progress engine.ProgressStore
	upgrader websocket.Upgrader
}

func NewWSHandler(registry *modes.Registry, topics engine.QuestionSource, progress engine.ProgressStore) *WSHandler {
	return &WSHandler{
		registry: registry,
		topics:   topics,
		progress: progress,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	Value string `json:"value"`
}

type gotoPayload struct {
	Index int `json:"index"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type answerResultPayload struct {
	QuestionIndex int    `json:"questionIndex"`
	Value         string `json:"value"`
	Correct       bool   `json:"correct"`
	Accepted      bool   `json:"accepted"`
	Score         int    `json:"score"`
	Streak        int    `json:"streak"`
}

type questionPayload struct {
	Index    int             `json:"index"`
	Total    int             `json:"total"`
	Prompt   string          `json:"prompt"`
	Options  []domain.Option `json:"options"`
	View     modes.View      `json:"view,omitempty"`
	Header   modes.View      `json:"header,omitempty"`
	Controls modes.View      `json:"controls,omitempty"`
	Footer   modes.View      `json:"footer,omitempty"`
	Aria     string          `json:"aria,omitempty"`
}

type sessionPayload struct {
	Mode        string           `json:"mode"`
	DisplayName string           `json:"displayName"`
	Shortcuts   []modes.Shortcut `json:"shortcuts,omitempty"`
}

type completedPayload struct {
	Results domain.Results `json:"results"`
	View    modes.View     `json:"view,omitempty"`
}

type progressPayload struct {
	Index         int  `json:"index"`
	Answered      int  `json:"answered"`
	Score         int  `json:"score"`
	Streak        int  `json:"streak"`
	MaxStreak     int  `json:"maxStreak"`
	TimeRemaining *int `json:"timeRemaining,omitempty"`
}

// ServeWS upgrades the request and runs a full quiz session over it.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	topicID := r.URL.Query().Get("topicId")
	mode := r.URL.Query().Get("mode")
	userID := r.URL.Query().Get("userId")
	guestToken := r.URL.Query().Get("guestToken")
	sessionID := r.URL.Query().Get("sessionId")
	if topicID == "" || mode == "" {
		http.Error(w, "missing topicId or mode", http.StatusBadRequest)
		return
	}
	if userID == "" && guestToken == "" {
		guestToken = uuid.NewString()
	}

	topic, err := h.topics.GetTopic(r.Context(), topicID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	send := make(chan outboundMessage[any], 16)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	var eng *engine.Engine
	eng, err = engine.New(engine.Config{
		Topic:      topic,
		Mode:       mode,
		Registry:   h.registry,
		Progress:   h.progress,
		UserID:     userID,
		GuestToken: guestToken,
		SessionID:  sessionID,
		OnComplete: func(results domain.Results) {
			payload := completedPayload{Results: results}
			if renderer, ok := eng.Mode().(modes.Renderer); ok {
				payload.View = renderer.RenderResults(results, eng.ModeContext())
			}
			enqueue(send, outboundMessage[any]{Type: "completed", Payload: payload})
		},
		OnRestore: func(snap domain.Snapshot) {
			send <- outboundMessage[any]{Type: "restored", Payload: snap}
		},
		// Countdown expiries happen without a client message; mirror them out
		// the same way a client-initiated answer is.
		OnAutoSubmit: func(answer domain.Answer) {
			session := eng.Session()
			enqueue(send, outboundMessage[any]{Type: "answerResult", Payload: answerResultPayload{
				QuestionIndex: answer.QuestionIndex,
				Value:         answer.Value,
				Correct:       answer.Correct,
				Accepted:      true,
				Score:         session.Score,
				Streak:        session.Streak,
			}})
			enqueue(send, outboundMessage[any]{Type: "progress", Payload: h.progressPayload(session)})
			if !session.IsCompleted {
				enqueue(send, outboundMessage[any]{Type: "question", Payload: h.questionPayload(eng)})
			}
		},
	})
	if err != nil {
		send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
		close(send)
		<-writerDone
		return
	}
	defer eng.Close()

	// PvP sessions also stream the shared leaderboard.
	closeSignals := make(chan struct{})
	updatesDone := make(chan struct{})
	if pvp, ok := eng.Mode().(*modes.PvPMode); ok {
		// Disconnect takes the player off the board and drops the arena once
		// the last participant is gone.
		identity := eng.Key().Identity()
		defer func() {
			pvp.Arena(topicID).Leave(identity)
			pvp.DropIfEmpty(topicID)
		}()
		updates, cancel := pvp.Arena(topicID).Subscribe()
		defer cancel()
		go func() {
			defer close(updatesDone)
			for {
				select {
				case update, ok := <-updates:
					if !ok {
						return
					}
					select {
					case send <- outboundMessage[any]{Type: "leaderboard", Payload: update}:
					case <-closeSignals:
						return
					}
				case <-closeSignals:
					return
				}
			}
		}()
	} else {
		close(updatesDone)
	}

	if err := eng.Start(r.Context()); err != nil {
		send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
		eng.Close()
		close(closeSignals)
		<-updatesDone
		close(send)
		<-writerDone
		return
	}

	info := sessionPayload{Mode: eng.Mode().Name(), DisplayName: eng.Mode().DisplayName()}
	if accessible, ok := eng.Mode().(modes.Accessible); ok {
		info.Shortcuts = accessible.KeyboardShortcuts()
	}
	send <- outboundMessage[any]{Type: "session", Payload: info}
	send <- outboundMessage[any]{Type: "question", Payload: h.questionPayload(eng)}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		quit := false
		switch inbound.Type {
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid answer payload"}}
				continue
			}
			h.handleAnswer(eng, send, func() (domain.Answer, bool, error) {
				return eng.Submit(r.Context(), payload.Value)
			})
		case "skip":
			h.handleAnswer(eng, send, func() (domain.Answer, bool, error) {
				return eng.Skip(r.Context())
			})
		case "hint":
			if hint, ok := eng.ShowHint(); ok {
				send <- outboundMessage[any]{Type: "hint", Payload: map[string]string{"hint": hint}}
			} else {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "no hint available"}}
			}
		case "next":
			h.handleNav(eng, send, eng.Next)
		case "previous":
			h.handleNav(eng, send, eng.Previous)
		case "goto":
			var payload gotoPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid goto payload"}}
				continue
			}
			h.handleNav(eng, send, func() error { return eng.GoTo(payload.Index) })
		case "pause":
			eng.Pause()
		case "resume":
			eng.Resume()
		case "quit":
			quit = true
		default:
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}
		}
		if quit {
			break
		}
	}

	// Stop the countdown before the send channel closes so a late tick never
	// writes into it.
	eng.Close()
	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

// enqueue drops the message when the write buffer is saturated, so engine
// goroutines are never blocked by a dead or slow client.
func enqueue(send chan outboundMessage[any], msg outboundMessage[any]) {
	select {
	case send <- msg:
	default:
	}
}

func (h *WSHandler) handleAnswer(eng *engine.Engine, send chan outboundMessage[any], submit func() (domain.Answer, bool, error)) {
	answer, accepted, err := submit()
	if err != nil && !errors.Is(err, domain.ErrAlreadyAnswered) {
		send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
		return
	}
	session := eng.Session()
	send <- outboundMessage[any]{Type: "answerResult", Payload: answerResultPayload{
		QuestionIndex: answer.QuestionIndex,
		Value:         answer.Value,
		Correct:       answer.Correct,
		Accepted:      accepted,
		Score:         session.Score,
		Streak:        session.Streak,
	}}
	send <- outboundMessage[any]{Type: "progress", Payload: h.progressPayload(session)}
	if !session.IsCompleted && accepted {
		send <- outboundMessage[any]{Type: "question", Payload: h.questionPayload(eng)}
	}
}

func (h *WSHandler) handleNav(eng *engine.Engine, send chan outboundMessage[any], nav func() error) {
	if err := nav(); err != nil {
		send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
		return
	}
	send <- outboundMessage[any]{Type: "question", Payload: h.questionPayload(eng)}
}

func (h *WSHandler) questionPayload(eng *engine.Engine) questionPayload {
	session := eng.Session()
	topic := eng.Topic()
	index := session.CurrentQuestionIndex
	payload := questionPayload{
		Index: index,
		Total: len(topic.Questions),
	}
	if index >= 0 && index < len(topic.Questions) {
		q := topic.Questions[index]
		payload.Prompt = q.Prompt
		payload.Options = q.Options
	}
	mc := eng.ModeContext()
	if renderer, ok := eng.Mode().(modes.Renderer); ok {
		payload.View = renderer.RenderQuestion(mc)
		payload.Header = renderer.RenderHeader(mc)
		payload.Controls = renderer.RenderInterface(mc)
		payload.Footer = renderer.RenderFooter(mc)
	}
	if accessible, ok := eng.Mode().(modes.Accessible); ok {
		payload.Aria = accessible.AriaLabel(mc)
	}
	return payload
}

func (h *WSHandler) progressPayload(session domain.Session) progressPayload {
	return progressPayload{
		Index:         session.CurrentQuestionIndex,
		Answered:      len(session.Answers),
		Score:         session.Score,
		Streak:        session.Streak,
		MaxStreak:     session.MaxStreak,
		TimeRemaining: session.TimeRemaining,
	}
}
