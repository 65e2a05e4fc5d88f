package api

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/inauto/garage-booking/internal/booking"
	"github.com/inauto/garage-booking/internal/logging"
	"github.com/inauto/garage-booking/internal/relay"
)

var streamUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		// The route sits behind the admin token middleware.
		return true
	},
}

// StreamMessage is one frame on the admin dashboard socket. The first frame
// after connect is always a snapshot, so a reconnecting dashboard starts
// from current state instead of a gap.
type StreamMessage struct {
	Type         string                `json:"type"` // "snapshot" or "event"
	Appointments []AppointmentResponse `json:"appointments,omitempty"`
	Event        *relay.Event          `json:"event,omitempty"`
}

func adminStreamHandler(hub *relay.Hub, svc *booking.Service, logger *logging.Logger) http.HandlerFunc {
	if logger == nil {
		logger = logging.Default()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := streamUpgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn("stream upgrade failed", "error", err)
			return
		}
		defer conn.Close()

		// Snapshot first: missed events are never replayed, so the client
		// reconciles by starting from a fresh read.
		appts, err := svc.ListAppointments(r.Context(), booking.ListFilter{})
		if err != nil {
			logger.Warn("stream snapshot failed", "error", err)
			_ = conn.WriteJSON(StreamMessage{Type: "error"})
			return
		}
		snapshot := StreamMessage{Type: "snapshot", Appointments: make([]AppointmentResponse, 0, len(appts))}
		for i := range appts {
			snapshot.Appointments = append(snapshot.Appointments, toAppointmentResponse(&appts[i]))
		}
		if err := conn.WriteJSON(snapshot); err != nil {
			return
		}

		events := make(chan relay.Event, 64)
		forward := func(ev relay.Event) {
			select {
			case events <- ev:
			default:
				// Slow consumer: dropping is allowed, delivery is
				// at-most-once and the client re-snapshots on reconnect.
			}
		}

		apptSub := hub.Subscribe(relay.EntityAppointments, forward)
		defer apptSub.Unsubscribe()
		paySub := hub.Subscribe(relay.EntityPayments, forward)
		defer paySub.Unsubscribe()

		closed := make(chan struct{})
		go func() {
			defer close(closed)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case <-r.Context().Done():
				return
			case <-closed:
				return
			case ev := <-events:
				if err := conn.WriteJSON(StreamMessage{Type: "event", Event: &ev}); err != nil {
					return
				}
			}
		}
	}
}
