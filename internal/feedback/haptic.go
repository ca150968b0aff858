package feedback

import (
	"context"
	"fmt"
	"sync"

	"github.com/godbus/dbus/v5"

	"github.com/studiowebux/clicker/internal/toggle"
)

const (
	// AppID identifies the client to feedbackd
	AppID = "clicker"

	feedbackBusName   = "org.sigxcpu.Feedback"
	feedbackPath      = dbus.ObjectPath("/org/sigxcpu/Feedback")
	triggerFeedback   = feedbackBusName + ".TriggerFeedback"
	eventPressed      = "button-pressed"
	eventReleased     = "button-released"
	defaultFeedbackMs = int32(-1)
)

// Haptic vibrates through feedbackd on the session bus. Desktops without
// feedbackd simply fail every Play.
type Haptic struct {
	appID string

	mu   sync.Mutex
	conn *dbus.Conn

	// connect is replaced in tests
	connect func() (*dbus.Conn, error)
}

// NewHaptic creates a haptic sink; the bus is dialed on first use
func NewHaptic(appID string) *Haptic {
	return &Haptic{appID: appID, connect: dbus.SessionBus}
}

func (h *Haptic) Name() string { return "haptic" }

// Play triggers the press or release event for state
func (h *Haptic) Play(ctx context.Context, state toggle.State) error {
	conn, err := h.bus()
	if err != nil {
		return err
	}

	event := eventReleased
	if state == toggle.On {
		event = eventPressed
	}

	obj := conn.Object(feedbackBusName, feedbackPath)
	var id uint32
	err = obj.CallWithContext(ctx, triggerFeedback, 0,
		h.appID, event, map[string]dbus.Variant{}, defaultFeedbackMs).Store(&id)
	if err != nil {
		return fmt.Errorf("trigger %s: %w", event, err)
	}
	return nil
}

func (h *Haptic) bus() (*dbus.Conn, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.conn != nil {
		return h.conn, nil
	}
	conn, err := h.connect()
	if err != nil {
		return nil, fmt.Errorf("connect to session bus: %w", err)
	}
	h.conn = conn
	return conn, nil
}
