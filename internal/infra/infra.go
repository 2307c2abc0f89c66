// Package infra implements the rooted infrastructure tree: transformer,
// charging stations, charging points, and an optional storage sibling,
// addressed by integer handles in an arena rather than parent/child
// pointers, per the design note on cyclic back-references.
package infra

import (
	"fmt"

	"github.com/dailab/elvis-go/internal/battery"
	"github.com/dailab/elvis-go/internal/units"
)

// NodeID is an arena handle: a node's index in the tree's arena. IDs start
// at 0, so the first node added (the transformer root) has ID 0; NoNode is
// used for "no parent".
type NodeID int

// NoNode is the sentinel for "no parent" (used only by the Transformer root).
const NoNode NodeID = -1

// Kind tags which variant a Node is.
type Kind int

const (
	KindTransformer Kind = iota
	KindStation
	KindChargingPoint
	KindStorage
)

// ConnectedVehicle is the mutable state a Charging Point holds while a
// vehicle is connected — exactly the fields the scheduler reads.
type ConnectedVehicle struct {
	EventID     int64
	VehicleType int // index into the scenario's vehicle type list
	Battery     *battery.EVBattery
	SOC         float64
	SOCTarget   float64
	LeavingTime int64 // unix seconds
}

// Node is one entry in the arena. Which fields are meaningful depends on
// Kind.
type Node struct {
	Kind     Kind
	MinPower units.Power
	MaxPower units.Power
	Parent   NodeID
	Children []NodeID

	// CPLeaves: for Transformer/Station nodes, the CP leaves beneath this
	// node (excluding Storage), precomputed after construction.
	CPLeaves []NodeID

	// ChargingPoint-only:
	Connected *ConnectedVehicle

	// Storage-only:
	Storage *battery.StationaryBattery
}

// Tree is the arena holding every node of one infrastructure instance.
type Tree struct {
	nodes        []Node
	transformer  NodeID
	storage      NodeID // NoNode if none
}

// NewTree creates an empty tree with no nodes yet; use AddTransformer to
// seed the root.
func NewTree() *Tree {
	return &Tree{storage: NoNode}
}

func (t *Tree) alloc(n Node) NodeID {
	id := NodeID(len(t.nodes))
	t.nodes = append(t.nodes, n)
	return id
}

// AddTransformer adds the (sole) root transformer node and returns its ID.
func (t *Tree) AddTransformer(minPower, maxPower units.Power) (NodeID, error) {
	if maxPower <= minPower {
		return NoNode, fmt.Errorf("infra: transformer max_power (%v) must be > min_power (%v)", maxPower, minPower)
	}
	id := t.alloc(Node{Kind: KindTransformer, MinPower: minPower, MaxPower: maxPower, Parent: NoNode})
	t.transformer = id
	return id, nil
}

// AddStation adds a charging station under parent (must be the
// transformer).
func (t *Tree) AddStation(parent NodeID, minPower, maxPower units.Power) (NodeID, error) {
	if maxPower <= minPower {
		return NoNode, fmt.Errorf("infra: station max_power (%v) must be > min_power (%v)", maxPower, minPower)
	}
	id := t.alloc(Node{Kind: KindStation, MinPower: minPower, MaxPower: maxPower, Parent: parent})
	t.nodes[parent].Children = append(t.nodes[parent].Children, id)
	return id, nil
}

// AddChargingPoint adds a CP leaf under parent (a station, or the
// transformer directly).
func (t *Tree) AddChargingPoint(parent NodeID, minPower, maxPower units.Power) (NodeID, error) {
	if maxPower <= minPower {
		return NoNode, fmt.Errorf("infra: cp max_power (%v) must be > min_power (%v)", maxPower, minPower)
	}
	id := t.alloc(Node{Kind: KindChargingPoint, MinPower: minPower, MaxPower: maxPower, Parent: parent})
	t.nodes[parent].Children = append(t.nodes[parent].Children, id)
	return id, nil
}

// AddStorage attaches the (sole) storage sibling under the transformer.
func (t *Tree) AddStorage(parent NodeID, b *battery.StationaryBattery) (NodeID, error) {
	if t.storage != NoNode {
		return NoNode, fmt.Errorf("infra: tree already has a storage node")
	}
	id := t.alloc(Node{Kind: KindStorage, Parent: parent, Storage: b})
	t.nodes[parent].Children = append(t.nodes[parent].Children, id)
	t.storage = id
	return id, nil
}

// Finalize computes CPLeaves for every Transformer/Station node. Must be
// called once after the tree is fully built and before simulation.
func (t *Tree) Finalize() {
	var collect func(id NodeID) []NodeID
	collect = func(id NodeID) []NodeID {
		n := &t.nodes[id]
		switch n.Kind {
		case KindChargingPoint:
			return []NodeID{id}
		case KindStorage:
			return nil
		default:
			var leaves []NodeID
			for _, c := range n.Children {
				leaves = append(leaves, collect(c)...)
			}
			n.CPLeaves = leaves
			return leaves
		}
	}
	collect(t.transformer)
}

// Node returns a pointer into the arena for id. Callers must not retain it
// across tree mutation (construction only mutates via Add*, never after
// Finalize).
func (t *Tree) Node(id NodeID) *Node { return &t.nodes[id] }

// Transformer returns the root transformer's ID.
func (t *Tree) Transformer() NodeID { return t.transformer }

// Storage returns the storage node's ID, or NoNode if the tree has none.
func (t *Tree) Storage() NodeID { return t.storage }

// AllChargingPoints returns every CP leaf in the tree.
func (t *Tree) AllChargingPoints() []NodeID {
	return t.nodes[t.transformer].CPLeaves
}

// MaxHardwarePowerLocal returns min(cp.max_power, battery's SOC-derated
// P_max) for a CP currently holding conn. If conn is nil (no vehicle),
// returns cp.MaxPower.
func (t *Tree) MaxHardwarePowerLocal(cp NodeID, conn *ConnectedVehicle) units.Power {
	n := &t.nodes[cp]
	if conn == nil || conn.Battery == nil {
		return n.MaxPower
	}
	bp := conn.Battery.MaxPower(conn.SOC)
	if bp < n.MaxPower {
		return bp
	}
	return n.MaxPower
}

// MinHardwarePowerLocal returns max(cp.min_power, battery.min_charge_power).
func (t *Tree) MinHardwarePowerLocal(cp NodeID, conn *ConnectedVehicle) units.Power {
	n := &t.nodes[cp]
	if conn == nil || conn.Battery == nil {
		return n.MinPower
	}
	bp := conn.Battery.MinPower(conn.SOC)
	if bp > n.MinPower {
		return bp
	}
	return n.MinPower
}

// Residual returns max(0, node.max_power - preload - sum of assigned[leaf]
// for every CP leaf beneath node), floored to 3 decimals. preload is 0 for
// every node except when called on the Transformer.
func (t *Tree) Residual(node NodeID, assigned map[NodeID]units.Power, preload units.Power) units.Power {
	n := &t.nodes[node]
	sum := 0.0
	for _, leaf := range n.CPLeaves {
		sum += assigned[leaf]
	}
	r := n.MaxPower - preload - sum
	if r < 0 {
		r = 0
	}
	return units.Floor3(r)
}

// PowerToChargeTarget returns max(0, (soc_target-soc)*capacity/Δt) in
// hours-adjusted kW, where stepLen is in seconds.
func PowerToChargeTarget(conn *ConnectedVehicle, stepLen float64) units.Power {
	hours := stepLen / 3600
	p := (conn.SOCTarget - conn.SOC) * conn.Battery.Capacity / hours
	if p < 0 {
		return 0
	}
	return p
}
