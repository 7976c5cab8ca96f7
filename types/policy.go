package types

import "fmt"

// BoundaryPolicy selects how oil is treated at edges owned by a single
// cell, i.e. the domain boundary.
type BoundaryPolicy uint8

const (
	// PolicyReflecting enforces zero flux through boundary edges, closing
	// the domain so that total mass is conserved.
	PolicyReflecting BoundaryPolicy = iota
	// PolicyAbsorbing lets outflow leave the domain and discards it; inflow
	// carries zero concentration.
	PolicyAbsorbing
)

var PolicyNameMap = map[string]BoundaryPolicy{
	"reflecting": PolicyReflecting,
	"closed":     PolicyReflecting,
	"wall":       PolicyReflecting,
	"absorbing":  PolicyAbsorbing,
	"open":       PolicyAbsorbing,
}

func ParseBoundaryPolicy(name string) (bp BoundaryPolicy, err error) {
	var (
		ok bool
	)
	if bp, ok = PolicyNameMap[name]; !ok {
		err = fmt.Errorf("unknown boundary policy %q", name)
	}
	return
}

func (bp BoundaryPolicy) String() string {
	switch bp {
	case PolicyReflecting:
		return "reflecting"
	case PolicyAbsorbing:
		return "absorbing"
	}
	return fmt.Sprintf("BoundaryPolicy(%d)", uint8(bp))
}
