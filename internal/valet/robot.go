package valet

import "github.com/naormeit/ParkHub-Vision-Robotics/internal/domain"

// Robot is the client-side robot lifecycle:
//
//	DOCKED → DISPATCHING → AT_SLOT → RETURNING → DOCKED
//
// Dispatch and Return drive the transitions out of the at-rest states; Tick
// detects arrival and completes the in-flight legs. There is no transition
// out of AT_SLOT except an external checkout calling Return.
type Robot struct {
	ID     string
	State  domain.RobotState
	Motion *Motion

	// currentSlot is the slot the robot is heading to or parked at while
	// DISPATCHING/AT_SLOT, and the slot being vacated while RETURNING.
	currentSlot int
}

func NewRobot(id string, dock domain.Vec3) *Robot {
	return &Robot{
		ID:     id,
		State:  domain.RobotDocked,
		Motion: NewMotion(dock),
	}
}

func (r *Robot) CurrentSlot() int {
	return r.currentSlot
}

// Dispatch sends the robot toward a slot after a check-in authorized it.
func (r *Robot) Dispatch(slotID int, slotPos domain.Vec3) {
	r.State = domain.RobotDispatching
	r.currentSlot = slotID
	r.Motion.SetTarget(slotPos)
}

// Return sends the robot back to the dock after a checkout.
func (r *Robot) Return(dock domain.Vec3) {
	r.State = domain.RobotReturning
	r.Motion.SetTarget(dock)
}

// EnRouteTo reports whether the robot is still dispatching toward slotID.
// Checkout for that slot must be held off until the robot arrives; the guard
// is advisory and stops applying once the robot reaches AT_SLOT.
func (r *Robot) EnRouteTo(slotID int) bool {
	return r.State == domain.RobotDispatching && r.currentSlot == slotID
}

// Tick advances the motion one frame and applies the arrival transition if
// this frame crossed the threshold. Returns the state after the tick.
func (r *Robot) Tick() domain.RobotState {
	if !r.Motion.Tick() {
		return r.State
	}
	switch r.State {
	case domain.RobotDispatching:
		r.State = domain.RobotAtSlot
	case domain.RobotReturning:
		r.State = domain.RobotDocked
		r.currentSlot = 0
		r.Motion.ClearTarget()
	}
	return r.State
}
