package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"ronbot/internal/a2a"
	"ronbot/internal/eventbus"
	"ronbot/internal/remind"
	logx "ronbot/pkg/logx"
)

const usageHelp = "Sorry, I didn't quite get that. Please use a format like:\n" +
	"• `/remindme \"Task\" in 10 minutes`\n" +
	"• `/remindme \"Task\" at 16:30`"

const missingCallbackReply = "Sorry, I can't set a reminder. The chat configuration is missing my callback URL."

// confirmTimeFormat renders fire times the way a person says them,
// e.g. "4:30 PM on Oct 31".
const confirmTimeFormat = "3:04 PM on Jan 2"

// ScheduledEvent is published on the bus when a reminder is accepted.
type ScheduledEvent struct {
	ContextID string    `json:"context_id"`
	FireAt    time.Time `json:"fire_at"`
}

func (s *Service) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "agent": "Ron the Reminder"})
}

func (s *Service) handleStatus(c *gin.Context) {
	out := gin.H{}
	if s.deps.Store != nil {
		out["pending"] = s.deps.Store.Pending()
	}
	if s.deps.Deliveries != nil {
		out["deliveries"] = s.deps.Deliveries.Snapshot()
	}
	if s.deps.Counters != nil {
		out["goroutines"] = s.deps.Counters()
	}
	c.JSON(http.StatusOK, out)
}

// handleA2A is the single conversational endpoint. The reply is always
// synchronous; actual reminder delivery happens later through the stored
// callback URL.
func (s *Service) handleA2A(c *gin.Context) {
	var req a2a.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	now := s.now()
	text := req.Params.Message.FirstText()
	cmd, ok := remind.Parse(text, now)

	var replyText string
	switch {
	case !ok:
		replyText = usageHelp

	case req.CallbackURL() == "":
		// Required-field check, not a parser failure: we understood the command
		// but have nowhere to deliver the reminder.
		s.log.Warn("reminder refused: no push notification URL configured",
			logx.String("context_id", req.Params.ContextID))
		replyText = missingCallbackReply

	default:
		r := remind.Reminder{
			FireAt:      cmd.FireAt,
			Text:        cmd.Text,
			CallbackURL: req.CallbackURL(),
			ContextID:   req.Params.ContextID,
		}
		s.deps.Store.Insert(r)
		s.log.Info("reminder scheduled",
			logx.String("context_id", r.ContextID),
			logx.Time("fire_at", r.FireAt),
			logx.Int("pending", s.deps.Store.Pending()),
		)
		if s.deps.Bus != nil {
			s.deps.Bus.Publish(eventbus.Event{
				Type: eventbus.TypeReminderScheduled,
				Time: now,
				Data: ScheduledEvent{ContextID: r.ContextID, FireAt: r.FireAt},
			})
		}
		replyText = fmt.Sprintf("✅ Got it! I'll remind you to %q at %s.", cmd.Text, cmd.FireAt.Format(confirmTimeFormat))
	}

	c.JSON(http.StatusOK, a2a.NewResponse(req.ID, req.Params.ContextID, a2a.NewAgentText(replyText)))
}
