package hub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/autopeer-io/fleethub/internal/fleethub/core/auth"
	"github.com/autopeer-io/fleethub/internal/fleethub/core/model"
	"github.com/autopeer-io/fleethub/internal/pkg/metrics"
	"github.com/autopeer-io/fleethub/pkg/log"
	"github.com/autopeer-io/fleethub/pkg/protocol"
)

// ErrSessionClosed is reported for requests on a session that was disconnected.
var ErrSessionClosed = errors.New("session closed")

// Session is one authenticated connection.
type Session struct {
	ID          string
	VehicleID   string
	ConnectedAt time.Time

	vehicle *model.Vehicle
	closed  bool
}

// Connect authenticates claimedID. On success the vehicle is Online, tracked,
// and the returned envelope is EventConnected. On rejection the session is nil,
// the envelope is EventConnectError and the error is an *auth.Error.
func (h *Hub) Connect(ctx context.Context, claimedID string) (*Session, protocol.Envelope, error) {
	var (
		sess *Session
		env  protocol.Envelope
		err  error
	)
	if derr := h.do(ctx, func() { sess, env, err = h.connect(claimedID) }); derr != nil {
		return nil, errorEnvelope(protocol.EventConnectError, derr), derr
	}
	return sess, env, err
}

func (h *Hub) connect(claimedID string) (*Session, protocol.Envelope, error) {
	v, err := h.auth.Authenticate(claimedID)
	if err != nil {
		metrics.AuthRejectionsTotal.WithLabelValues(rejectionReason(err)).Inc()
		log.Info("Connection rejected", "claimedID", claimedID, "reason", err.Error())
		return nil, errorEnvelope(protocol.EventConnectError, err), err
	}

	h.rebind(v.ID)
	// Every successful login ends with the vehicle Online, also one that was
	// marked faulty while another session was open.
	if err := model.NewStatusMachine(v).Connect(context.Background()); err != nil {
		err = fmt.Errorf("moving vehicle %s online: %w", v.ID, err)
		log.Error(err, "Connection rejected", "vehicleID", v.ID)
		return nil, errorEnvelope(protocol.EventConnectError, err), err
	}
	h.tracker.Add(v)
	h.online[v.ID]++

	sess := &Session{
		ID:          uuid.NewString(),
		VehicleID:   v.ID,
		ConnectedAt: h.clock.Now(),
		vehicle:     v,
	}
	h.sessions[sess.ID] = sess

	h.notify(v)
	h.updateGauges()
	log.Info("Vehicle connected", "vehicleID", v.ID, "session", sess.ID, "sessions", h.online[v.ID])

	env, err := protocol.NewEnvelope(protocol.EventConnected, v)
	if err != nil {
		return sess, errorEnvelope(protocol.EventError, err), nil
	}
	return sess, env, nil
}

// Request dispatches one request payload for sess and returns the reply to send.
// The reply is EventResponse on success and EventError otherwise.
func (h *Hub) Request(ctx context.Context, sess *Session, data json.RawMessage) protocol.Envelope {
	var env protocol.Envelope
	if err := h.do(ctx, func() { env = h.request(sess, data) }); err != nil {
		return errorEnvelope(protocol.EventError, err)
	}
	return env
}

func (h *Hub) request(sess *Session, data json.RawMessage) protocol.Envelope {
	if sess == nil || sess.closed {
		return errorEnvelope(protocol.EventError, ErrSessionClosed)
	}

	req, err := protocol.ParseRequest(data)
	if err != nil {
		metrics.CommandsTotal.WithLabelValues("invalid", "error").Inc()
		return errorEnvelope(protocol.EventError, err)
	}

	response, err := h.dispatch(req.Name, req.Args)
	if err != nil {
		log.Debug("Request failed", "vehicleID", sess.VehicleID, "command", req.Name, "error", err.Error())
		return errorEnvelope(protocol.EventError, err)
	}

	env, err := protocol.NewEnvelope(protocol.EventResponse, protocol.Response{Request: req.Raw, Response: response})
	if err != nil {
		return errorEnvelope(protocol.EventError, err)
	}
	return env
}

// dispatch runs a command and encodes its result while still on the loop.
func (h *Hub) dispatch(name string, args []string) (json.RawMessage, error) {
	label := name
	if !h.dispatcher.Knows(name) {
		label = "unknown"
	}

	res, err := h.dispatcher.Dispatch(name, args)
	if err != nil {
		metrics.CommandsTotal.WithLabelValues(label, "error").Inc()
		return nil, err
	}
	data, err := json.Marshal(res)
	if err != nil {
		metrics.CommandsTotal.WithLabelValues(label, "error").Inc()
		return nil, fmt.Errorf("encoding %s result: %w", name, err)
	}
	metrics.CommandsTotal.WithLabelValues(label, "ok").Inc()
	return data, nil
}

// Disconnect closes sess. Closing a session twice is a no-op. When the last
// session of a vehicle closes the vehicle leaves the tracker and goes Offline.
func (h *Hub) Disconnect(ctx context.Context, sess *Session) error {
	return h.do(ctx, func() { h.disconnect(sess) })
}

func (h *Hub) disconnect(sess *Session) {
	if sess == nil || sess.closed {
		return
	}
	sess.closed = true
	delete(h.sessions, sess.ID)

	v := sess.vehicle
	h.online[v.ID]--
	if h.online[v.ID] > 0 {
		log.Info("Vehicle session closed", "vehicleID", v.ID, "session", sess.ID, "sessions", h.online[v.ID])
		return
	}
	delete(h.online, v.ID)

	h.tracker.Remove(v)
	if err := model.NewStatusMachine(v).Disconnect(context.Background()); err != nil {
		log.Warn("Unexpected status on disconnect", "vehicleID", v.ID, "status", v.Status.String(), "error", err.Error())
	}

	h.notify(v)
	h.updateGauges()
	log.Info("Vehicle disconnected", "vehicleID", v.ID, "session", sess.ID, "connectedFor", h.clock.Since(sess.ConnectedAt))
}

// rebind moves the open sessions of id onto the record currently registered
// under id. A vehicle deleted and registered again while connected has a new
// record; it takes the old record's place in the tracker and goes Online.
func (h *Hub) rebind(id string) {
	if h.online[id] == 0 {
		return
	}
	found, err := h.registry.GetByID(id)
	if err != nil {
		return
	}
	v := found[0]

	var old *model.Vehicle
	for _, s := range h.sessions {
		if s.VehicleID == id && s.vehicle != v {
			old = s.vehicle
			s.vehicle = v
		}
	}
	if old == nil {
		return
	}

	h.tracker.Replace(old, v)
	if err := model.NewStatusMachine(v).Connect(context.Background()); err != nil {
		log.Warn("Unexpected status on rebind", "vehicleID", id, "status", v.Status.String(), "error", err.Error())
	}
	h.notify(v)
	h.updateGauges()
	log.Info("Open sessions moved to the new vehicle record", "vehicleID", id, "sessions", h.online[id])
}

func errorEnvelope(event string, err error) protocol.Envelope {
	env, _ := protocol.NewEnvelope(event, err.Error())
	return env
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, auth.ErrNoID):
		return "no_id"
	case errors.Is(err, auth.ErrUnknownID):
		return "unknown_id"
	default:
		return "other"
	}
}
