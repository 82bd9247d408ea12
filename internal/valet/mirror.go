package valet

import (
	"time"

	"github.com/naormeit/ParkHub-Vision-Robotics/internal/domain"
)

// Session is the client-side view of one occupied slot.
type Session struct {
	UserName    string
	UserEmail   string
	RobotID     string
	CheckInTime time.Time
}

// Mirror is the client-side slot→session map. It is treated as an immutable
// value: every transition returns a new map and leaves the receiver intact,
// so an optimistic update and its rollback are a pure function of
// (prior state, event).
type Mirror map[int]Session

func NewMirror() Mirror {
	return Mirror{}
}

func (m Mirror) Clone() Mirror {
	out := make(Mirror, len(m))
	for slot, s := range m {
		out[slot] = s
	}
	return out
}

// With returns a copy of the mirror with the slot's session set.
func (m Mirror) With(slotID int, s Session) Mirror {
	out := m.Clone()
	out[slotID] = s
	return out
}

// Without returns a copy of the mirror with the slot's session removed.
func (m Mirror) Without(slotID int) Mirror {
	out := m.Clone()
	delete(out, slotID)
	return out
}

// MirrorFromStatus rebuilds the mirror from a full status response. Used to
// reconcile the optimistic state against what the server actually holds.
func MirrorFromStatus(status *domain.StatusResponse) Mirror {
	out := make(Mirror, len(status.OccupancyDetails))
	for _, d := range status.OccupancyDetails {
		out[d.SlotID] = Session{
			UserName:    d.UserName,
			UserEmail:   d.UserEmail,
			RobotID:     d.RobotID,
			CheckInTime: d.CheckInTime,
		}
	}
	return out
}

// Equal reports whether two mirrors hold the same sessions.
func (m Mirror) Equal(other Mirror) bool {
	if len(m) != len(other) {
		return false
	}
	for slot, s := range m {
		if other[slot] != s {
			return false
		}
	}
	return true
}
