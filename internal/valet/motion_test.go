package valet

import (
	"testing"

	"github.com/naormeit/ParkHub-Vision-Robotics/internal/domain"
)

func TestMotionConvergesAndFiresOnce(t *testing.T) {
	m := NewMotion(domain.Vec3{X: 0, Y: 0, Z: 0})
	m.SetTarget(domain.Vec3{X: 10, Y: 0, Z: 0})

	arrivals := 0
	arrivedAt := -1
	prev := m.DistanceToTarget()
	for tick := 1; tick <= 200; tick++ {
		if m.Tick() {
			arrivals++
			arrivedAt = tick
		}
		d := m.DistanceToTarget()
		if d >= prev {
			t.Fatalf("tick %d: distance did not decrease: %f -> %f", tick, prev, d)
		}
		prev = d
	}

	if arrivals != 1 {
		t.Fatalf("arrival fired %d times, want exactly 1", arrivals)
	}
	// 0.95^n * 10 < 0.1 needs n ≈ 90 ticks.
	if arrivedAt < 60 || arrivedAt > 100 {
		t.Errorf("arrived at tick %d, expected within [60, 100]", arrivedAt)
	}
	if m.DistanceToTarget() >= ArrivalEpsilon {
		t.Errorf("distance after arrival = %f, want < %f", m.DistanceToTarget(), ArrivalEpsilon)
	}
}

func TestMotionHoldsWithoutTarget(t *testing.T) {
	start := domain.Vec3{X: 3, Y: 0.2, Z: -1}
	m := NewMotion(start)

	for i := 0; i < 10; i++ {
		if m.Tick() {
			t.Fatal("arrival fired with no target set")
		}
	}
	if m.Position != start {
		t.Errorf("position drifted without a target: %+v", m.Position)
	}
}

func TestMotionNewLegReArmsArrival(t *testing.T) {
	m := NewMotion(domain.Vec3{})
	m.SetTarget(domain.Vec3{X: 1})

	fired := 0
	for i := 0; i < 300; i++ {
		if m.Tick() {
			fired++
		}
	}
	if fired != 1 {
		t.Fatalf("first leg fired %d times, want 1", fired)
	}

	m.SetTarget(domain.Vec3{X: -5, Z: 4})
	for i := 0; i < 300; i++ {
		if m.Tick() {
			fired++
		}
	}
	if fired != 2 {
		t.Fatalf("after second leg total arrivals = %d, want 2", fired)
	}
}
