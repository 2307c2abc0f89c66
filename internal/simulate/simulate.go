// Package simulate implements the discrete-event, time-stepped simulator
// loop: per step, it gates on opening hours, purges the waiting queue,
// runs the CP connect/disconnect lifecycle, admits new arrivals, invokes
// the scheduling policy, applies the resulting charge/discharge, and
// records the sparse result trace.
package simulate

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/dailab/elvis-go/internal/battery"
	"github.com/dailab/elvis-go/internal/event"
	"github.com/dailab/elvis-go/internal/infra"
	"github.com/dailab/elvis-go/internal/queue"
	"github.com/dailab/elvis-go/internal/result"
	"github.com/dailab/elvis-go/internal/scheduler"
	"github.com/dailab/elvis-go/internal/units"
)

// OpeningHours is a single daily open/close window, hour-of-day in [0,24].
// A nil *OpeningHours means the site is always open.
type OpeningHours struct {
	Open, Close float64
}

func (o *OpeningHours) isOpen(t time.Time) bool {
	if o == nil {
		return true
	}
	hour := float64(t.Hour()) + float64(t.Minute())/60 + float64(t.Second())/3600
	return hour >= o.Open && hour <= o.Close
}

// Config bundles everything the simulator needs for one run.
type Config struct {
	Tree             *infra.Tree
	Policy           scheduler.Policy
	VehicleTypes     []*battery.EVBattery
	Events           []event.ChargingEvent // must be sorted by ArrivalTime
	StartTime        time.Time
	EndTime          time.Time
	Resolution       time.Duration
	QueueLength      int
	DisconnectByTime bool
	DisconnectBySOC  bool
	OpeningHours     *OpeningHours
	Preload          []units.Power // length step_count
}

// Simulator owns the mutable run state: the infrastructure tree's
// connect/disconnect lifecycle, the waiting queue, and the result store.
type Simulator struct {
	cfg   Config
	queue *queue.Queue
}

// New validates cfg and constructs a Simulator.
func New(cfg Config) (*Simulator, error) {
	stepCount := units.NumTimeSteps(cfg.StartTime, cfg.EndTime, cfg.Resolution)
	if stepCount <= 0 {
		return nil, fmt.Errorf("simulate: invalid horizon")
	}
	if len(cfg.Preload) != stepCount {
		return nil, fmt.Errorf("simulate: preload length %d does not match step count %d", len(cfg.Preload), stepCount)
	}
	return &Simulator{cfg: cfg, queue: queue.New(cfg.QueueLength)}, nil
}

// Run executes the full simulation and returns the populated result store.
// Cancellation via ctx is checked between steps only, per the spec's
// cooperative-cancellation model.
func (s *Simulator) Run(ctx context.Context) (*result.Store, error) {
	cfg := s.cfg
	stepCount := units.NumTimeSteps(cfg.StartTime, cfg.EndTime, cfg.Resolution)
	resSeconds := cfg.Resolution.Seconds()

	installed := 0.0
	for _, cp := range cfg.Tree.AllChargingPoints() {
		installed += cfg.Tree.Node(cp).MaxPower
	}
	store := result.NewStore(stepCount, resSeconds, installed)

	nextEventIdx := 0
	events := cfg.Events

	for i := 0; i < stepCount; i++ {
		select {
		case <-ctx.Done():
			return store, ctx.Err()
		default:
		}

		ti := cfg.StartTime.Add(time.Duration(i) * cfg.Resolution)
		open := cfg.OpeningHours.isOpen(ti)

		allCPs := cfg.Tree.AllChargingPoints()

		// Step 1: opening-hours gate.
		if !open {
			s.queue.Empty()
			for _, cp := range allCPs {
				cfg.Tree.Node(cp).Connected = nil
			}
		} else {
			// Step 2: queue purge.
			if cfg.DisconnectByTime && !ti.Before(s.queue.NextLeave()) {
				s.queue.PurgeStale(ti)
			}

			// Step 3: CP lifecycle.
			for _, cp := range allCPs {
				node := cfg.Tree.Node(cp)
				conn := node.Connected
				if conn == nil {
					continue
				}
				disconnect := false
				if cfg.DisconnectByTime && conn.LeavingTime <= ti.Unix() {
					disconnect = true
				}
				if cfg.DisconnectBySOC && units.Floor3(conn.SOC) >= conn.SOCTarget {
					disconnect = true
				}
				if disconnect {
					node.Connected = nil
					if s.queue.Size() > 0 {
						head := s.queue.Dequeue().(event.ChargingEvent)
						s.connect(cp, head, ti)
					}
				}
			}

			// Step 4: admit arrivals.
			for nextEventIdx < len(events) && events[nextEventIdx].ArrivalTime.Equal(ti) {
				e := events[nextEventIdx]
				nextEventIdx++
				freeCP := s.firstFree(cfg.Tree)
				if freeCP != infra.NoNode {
					s.connect(freeCP, e, ti)
				} else if s.queue.Size() < cfg.QueueLength {
					s.queue.Enqueue(e)
				} else {
					store.Rejections++
				}
			}
		}

		freeCPs, busyCPs := s.partition(cfg.Tree)

		// Step 5: schedule.
		assignment, err := cfg.Policy.Schedule(scheduler.Context{
			Tree:       cfg.Tree,
			FreeCPs:    freeCPs,
			BusyCPs:    busyCPs,
			Resolution: resSeconds,
			Preload:    cfg.Preload[i],
			StepIndex:  i,
		})
		if err != nil {
			return store, fmt.Errorf("simulate: step %d: %w", i, err)
		}

		// Step 6: record last_charged.
		for _, cp := range busyCPs {
			if assignment.CPs[cp] > 0 {
				conn := cfg.Tree.Node(cp).Connected
				store.RecordCharge(conn.EventID, i)
			}
		}

		// Step 7: apply charging.
		for _, cp := range busyCPs {
			p := assignment.CPs[cp]
			conn := cfg.Tree.Node(cp).Connected
			hours := resSeconds / 3600
			conn.SOC = math.Min(1, conn.SOC+p*hours/conn.Battery.Capacity)
		}

		// Step 8: apply storage.
		if st := cfg.Tree.Storage(); st != infra.NoNode {
			sb := cfg.Tree.Node(st).Storage
			if assignment.Storage == 0 {
				pIn := cfg.Tree.Residual(cfg.Tree.Transformer(), assignment.CPs, cfg.Preload[i])
				realized, err := sb.Charge(pIn, resSeconds)
				if err != nil {
					return store, fmt.Errorf("simulate: step %d: storage charge: %w", i, err)
				}
				assignment.Storage = realized
			} else if assignment.Storage < 0 {
				if err := sb.Discharge(-assignment.Storage, resSeconds); err != nil {
					return store, fmt.Errorf("simulate: step %d: storage discharge: %w", i, err)
				}
			} else {
				if _, err := sb.Charge(assignment.Storage, resSeconds); err != nil {
					return store, fmt.Errorf("simulate: step %d: storage charge: %w", i, err)
				}
			}
		}

		// Step 9: record assignment. A CP the policy gave no entry (e.g. one
		// freed this step) is recorded at 0 so its last power does not persist.
		if assignment.CPs == nil {
			assignment.CPs = make(map[infra.NodeID]units.Power)
		}
		for _, cp := range allCPs {
			if _, ok := assignment.CPs[cp]; !ok {
				assignment.CPs[cp] = 0
			}
		}
		store.RecordStep(i, assignment.CPs, assignment.Storage)
	}

	return store, nil
}

func (s *Simulator) connect(cp infra.NodeID, e event.ChargingEvent, now time.Time) {
	var b *battery.EVBattery
	if e.VehicleType >= 0 && e.VehicleType < len(s.cfg.VehicleTypes) {
		b = s.cfg.VehicleTypes[e.VehicleType]
	}
	s.cfg.Tree.Node(cp).Connected = &infra.ConnectedVehicle{
		EventID:     e.ID,
		VehicleType: e.VehicleType,
		Battery:     b,
		SOC:         e.SOC,
		SOCTarget:   e.SOCTarget,
		LeavingTime: e.LeavingTime().Unix(),
	}
}

func (s *Simulator) firstFree(tree *infra.Tree) infra.NodeID {
	for _, cp := range tree.AllChargingPoints() {
		if tree.Node(cp).Connected == nil {
			return cp
		}
	}
	return infra.NoNode
}

func (s *Simulator) partition(tree *infra.Tree) (free, busy []infra.NodeID) {
	for _, cp := range tree.AllChargingPoints() {
		if tree.Node(cp).Connected == nil {
			free = append(free, cp)
		} else {
			busy = append(busy, cp)
		}
	}
	return free, busy
}
