package valet

import (
	"math"

	"github.com/naormeit/ParkHub-Vision-Robotics/internal/domain"
)

const (
	// LerpFactor is the fraction of the remaining delta covered per tick on
	// each axis. Exponential decay, not constant speed.
	LerpFactor = 0.05

	// ArrivalEpsilon is the Euclidean distance below which a leg counts as
	// arrived. The decay never reaches the target exactly, so this threshold
	// is load-bearing.
	ArrivalEpsilon = 0.1
)

// Motion animates a position toward an optional target. With no target set
// the position holds still. Arrival fires exactly once per leg: SetTarget
// starts a new leg and re-arms the callback.
type Motion struct {
	Position domain.Vec3

	target   *domain.Vec3
	notified bool
}

func NewMotion(start domain.Vec3) *Motion {
	return &Motion{Position: start}
}

func (m *Motion) SetTarget(target domain.Vec3) {
	t := target
	m.target = &t
	m.notified = false
}

func (m *Motion) ClearTarget() {
	m.target = nil
	m.notified = false
}

func (m *Motion) HasTarget() bool {
	return m.target != nil
}

// DistanceToTarget returns the Euclidean distance to the current target, or
// 0 when no target is set.
func (m *Motion) DistanceToTarget() float64 {
	if m.target == nil {
		return 0
	}
	dx := m.target.X - m.Position.X
	dy := m.target.Y - m.Position.Y
	dz := m.target.Z - m.Position.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Tick advances the position one animation frame and reports whether this
// tick crossed the arrival threshold. Subsequent ticks on the same leg
// return false.
func (m *Motion) Tick() bool {
	if m.target == nil {
		return false
	}

	m.Position.X += (m.target.X - m.Position.X) * LerpFactor
	m.Position.Y += (m.target.Y - m.Position.Y) * LerpFactor
	m.Position.Z += (m.target.Z - m.Position.Z) * LerpFactor

	if m.notified {
		return false
	}
	if m.DistanceToTarget() < ArrivalEpsilon {
		m.notified = true
		return true
	}
	return false
}
