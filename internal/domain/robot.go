package domain

// RobotState is the client-visible lifecycle of a valet robot. The server
// never stores it; "available" server-side means no active reservation holds
// the robot id.
type RobotState string

const (
	RobotDocked      RobotState = "DOCKED"
	RobotDispatching RobotState = "DISPATCHING"
	RobotAtSlot      RobotState = "AT_SLOT"
	RobotReturning   RobotState = "RETURNING"
)

type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Robot dispatch/return commands published to the command topic.
const (
	RobotCommandDispatch = "dispatch"
	RobotCommandReturn   = "return"
)

type RobotCommandPayload struct {
	Command   string `json:"command"`
	SlotID    int    `json:"slot_id"`
	RequestID string `json:"request_id,omitempty"`
}
