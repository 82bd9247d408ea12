package valet

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/naormeit/ParkHub-Vision-Robotics/internal/domain"
)

// ErrRobotEnRoute is returned when checkout is requested for a slot whose
// robot is still dispatching toward it. No network call is made.
var ErrRobotEnRoute = errors.New("Please wait for robot to arrive")

// SlotPositionFunc maps a slot id to its world position for robot dispatch.
type SlotPositionFunc func(slotID int) domain.Vec3

// Coordinator ties the reservation client, the robot state machine and the
// occupancy mirror together. Check-in only touches the mirror after the
// server confirms; checkout removes the slot optimistically and restores the
// prior snapshot verbatim if the call fails.
type Coordinator struct {
	client  Client
	robot   *Robot
	mirror  Mirror
	slotPos SlotPositionFunc
	dock    domain.Vec3
}

func NewCoordinator(client Client, robot *Robot, slotPos SlotPositionFunc, dock domain.Vec3) *Coordinator {
	return &Coordinator{
		client:  client,
		robot:   robot,
		mirror:  NewMirror(),
		slotPos: slotPos,
		dock:    dock,
	}
}

func (co *Coordinator) Mirror() Mirror {
	return co.mirror
}

func (co *Coordinator) Robot() *Robot {
	return co.robot
}

// CheckIn requests a reservation and, on success, records the session in the
// mirror and dispatches the robot toward the slot. Nothing is applied before
// the server responds, so a failure needs no rollback.
func (co *Coordinator) CheckIn(ctx context.Context, userName, userEmail string, slotID int) (*CheckInResponse, error) {
	resp, err := co.client.CheckIn(ctx, userName, userEmail, slotID)
	if err != nil {
		return nil, err
	}

	co.mirror = co.mirror.With(resp.SlotID, Session{
		UserName:    userName,
		UserEmail:   userEmail,
		RobotID:     resp.RobotID,
		CheckInTime: time.Now().In(time.UTC),
	})
	if resp.RobotDispatchAuthorized {
		co.robot.Dispatch(resp.SlotID, co.slotPos(resp.SlotID))
	}
	return resp, nil
}

// CheckOut ends the slot's session. The slot is removed from the mirror
// before the network call resolves; on failure the prior snapshot is
// restored as a full replace, on success the mirror is additionally
// reconciled by a status refetch.
func (co *Coordinator) CheckOut(ctx context.Context, slotID int) (*CheckOutResponse, error) {
	if co.robot.EnRouteTo(slotID) {
		return nil, ErrRobotEnRoute
	}

	snapshot := co.mirror
	co.mirror = co.mirror.Without(slotID)

	resp, err := co.client.CheckOut(ctx, slotID)
	if err != nil {
		co.mirror = snapshot
		return nil, err
	}

	co.robot.Return(resp.RobotReturnDock)
	co.Refresh(ctx)
	return resp, nil
}

// Refresh reconciles the mirror against the server's full status. A failed
// refetch keeps the current mirror; the next one will catch up.
func (co *Coordinator) Refresh(ctx context.Context) {
	status, err := co.client.Status(ctx)
	if err != nil {
		log.Printf("valet: status refresh failed: %v", err)
		return
	}
	co.mirror = MirrorFromStatus(status)
}

// ReportSensor posts a sensor reading. Best-effort telemetry: failures are
// logged and swallowed, never surfaced to the user.
func (co *Coordinator) ReportSensor(ctx context.Context, event domain.SensorEventDTO) {
	if err := co.client.ReportSensor(ctx, event); err != nil {
		log.Printf("valet: sensor report failed: %v", err)
	}
}

// Tick advances the robot one animation frame.
func (co *Coordinator) Tick() domain.RobotState {
	return co.robot.Tick()
}
