// Package zone maps a cursor position to the navigation region or action
// zone under it, with fixed priority rules.
package zone

import (
	"math"

	"duskwalk/pkg/engine/config"
	"duskwalk/pkg/engine/room"
)

// Kind tags what the cursor is over.
type Kind int

const (
	// None means the cursor is over plain background.
	None Kind = iota
	// Action means the cursor is inside an action zone rectangle.
	Action
	// Nav means the cursor is inside a navigation region with a live exit.
	Nav
)

// Zone is the resolved hover target. Action zones carry the index of the
// zone in the view's action list; nav regions carry the direction name,
// "double" when both forward and backward are live in the center band.
type Zone struct {
	Kind   Kind
	Action int
	Nav    string
}

// IsNone reports whether the cursor is over nothing clickable.
func (z Zone) IsNone() bool { return z.Kind == None }

// frac floors a fractional share of a window dimension, matching integer
// band edges regardless of float wobble.
func frac(size int, fraction float64) int {
	return int(math.Floor(float64(size) * fraction))
}

// Resolve maps a cursor position to its zone within the roomview.
//
// Action zones win over navigation regions outright: the first zone in list
// order that strictly contains the cursor is returned no matter which nav
// band the cursor is also in. Rect containment is exclusive at all four
// edges. Zones with no effects at all never match.
//
// Nav bands are tested left, right, up, down, then the centered
// forward/backward band, and a band only matches when the roomview actually
// has the corresponding exit.
func Resolve(x, y, winW, winH int, nav config.NavigationConfig, rv *room.Roomview) Zone {
	if rv == nil {
		return Zone{}
	}

	for i := range rv.Actions {
		a := &rv.Actions[i]
		if Icon(a) == "" {
			continue
		}
		r := a.Rect
		if r[0] < x && x < r[2] && r[1] < y && y < r[3] {
			return Zone{Kind: Action, Action: i}
		}
	}

	minX := frac(winW, nav.EdgeMarginWidth)
	maxX := winW - minX
	regionLeft := frac(winW, nav.EdgeRegionBreadth)
	regionRight := winW - regionLeft
	minY := frac(winH, nav.EdgeMarginWidth)
	maxY := winH - minY
	regionUp := frac(winH, nav.EdgeRegionBreadth)
	regionDown := winH - regionUp

	exits := rv.Exits
	has := func(dir string) bool {
		_, ok := exits[dir]
		return ok
	}

	switch {
	case x < regionLeft && minY < y && y < maxY && has("left"):
		return Zone{Kind: Nav, Nav: "left"}
	case x > regionRight && minY < y && y < maxY && has("right"):
		return Zone{Kind: Nav, Nav: "right"}
	case y < regionUp && minX < x && x < maxX && has("up"):
		return Zone{Kind: Nav, Nav: "up"}
	case y > regionDown && minX < x && x < maxX && has("down"):
		return Zone{Kind: Nav, Nav: "down"}
	}

	nfMinX := winW/2 - frac(winW, nav.ForwardRegionWidth)/2
	nfMaxX := winW/2 + frac(winW, nav.ForwardRegionWidth)/2
	nfMinY := winH/2 - frac(winH, nav.ForwardRegionWidth)/2
	nfMaxY := winH/2 + frac(winH, nav.ForwardRegionWidth)/2

	if nfMinX < x && x < nfMaxX && nfMinY < y && y < nfMaxY {
		fwd, back := has("forward"), has("backward")
		switch {
		case fwd && back:
			return Zone{Kind: Nav, Nav: "double"}
		case fwd:
			return Zone{Kind: Nav, Nav: "forward"}
		case back:
			return Zone{Kind: Nav, Nav: "backward"}
		}
	}

	return Zone{}
}

// Icon names the indicator icon for an action zone's effect combination.
// Zones with no effects return "".
func Icon(a *room.ActionZone) string {
	switch {
	case a.Look != nil && a.Use != nil:
		return "lookuse"
	case a.Look != nil && a.Go != nil:
		return "lookgo"
	case a.Look != nil:
		return "look"
	case a.Use != nil:
		return "use"
	case a.Go != nil:
		return "go"
	}
	return ""
}
