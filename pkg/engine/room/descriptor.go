// Package room implements room descriptors, the exit conditional evaluator,
// and the roomview loader.
//
// A room file maps view names to view descriptors. Exits and go-action
// destinations may be plain strings or conditional objects gated on chance
// rolls and the session funvalue; the evaluator materializes them into the
// concrete exit tables a loaded roomview carries.
package room

import (
	"encoding/json"
	"fmt"
)

// Descriptor is a parsed room file: view name to view descriptor.
type Descriptor map[string]*ViewDescriptor

// ViewDescriptor is one named view of a room. Music is nil only when the
// view has no music key at all: an explicit null is a stop directive, not an
// absence, so the distinction has to survive parsing.
type ViewDescriptor struct {
	Image   string
	Title   string
	Music   *Music
	Exits   map[string]ExitSpec
	Actions []ActionZone
}

func (v *ViewDescriptor) UnmarshalJSON(data []byte) error {
	var obj struct {
		Image   string              `json:"image"`
		Title   string              `json:"title"`
		Music   json.RawMessage     `json:"music"`
		Exits   map[string]ExitSpec `json:"exits"`
		Actions []ActionZone        `json:"actions"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	v.Image = obj.Image
	v.Title = obj.Title
	v.Exits = obj.Exits
	v.Actions = obj.Actions
	if obj.Music != nil {
		v.Music = &Music{}
		if err := json.Unmarshal(obj.Music, v.Music); err != nil {
			return err
		}
	}
	return nil
}

// Music is a view's music directive. A string names a track to play; null
// stops the current track; a number stops it with that many seconds of fade.
type Music struct {
	Track string
	Fade  float64
}

// Play reports whether the directive names a track.
func (m *Music) Play() bool {
	return m.Track != ""
}

func (m *Music) UnmarshalJSON(data []byte) error {
	var track string
	if err := json.Unmarshal(data, &track); err == nil {
		m.Track = track
		return nil
	}
	var fade *float64
	if err := json.Unmarshal(data, &fade); err != nil {
		return fmt.Errorf("room: music must be a string, number, or null: %w", err)
	}
	if fade != nil {
		m.Fade = *fade
	}
	return nil
}

// ExitSpec is either a literal destination string or a conditional object
// with an optional presence constraint and a destination.
type ExitSpec struct {
	Literal     string
	Presence    *PresenceConstraint
	Destination *Destination
}

func (e *ExitSpec) UnmarshalJSON(data []byte) error {
	var literal string
	if err := json.Unmarshal(data, &literal); err == nil {
		e.Literal = literal
		return nil
	}

	var obj struct {
		Presence    *PresenceConstraint `json:"presence"`
		Destination *Destination        `json:"destination"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("room: exit must be a string or an object: %w", err)
	}
	if obj.Destination == nil {
		return fmt.Errorf("room: conditional exit is missing a destination")
	}
	e.Presence = obj.Presence
	e.Destination = obj.Destination
	return nil
}

// PresenceConstraint gates whether an exit appears at all. Both conditions
// must pass when present.
type PresenceConstraint struct {
	Chance   *float64      `json:"chance"`
	Funvalue *FunvalueCond `json:"funvalue"`
}

// FunvalueCond is a funvalue comparison tuple [op, bounds...]: op "range"
// takes two bounds, every other op one.
type FunvalueCond struct {
	Op     string
	Bounds []int
}

func (c *FunvalueCond) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("room: funvalue condition must be an array: %w", err)
	}
	if len(raw) < 2 {
		return fmt.Errorf("room: funvalue condition needs an operator and at least one bound")
	}
	if err := json.Unmarshal(raw[0], &c.Op); err != nil {
		return fmt.Errorf("room: funvalue operator must be a string: %w", err)
	}
	c.Bounds = make([]int, len(raw)-1)
	for i, b := range raw[1:] {
		if err := json.Unmarshal(b, &c.Bounds[i]); err != nil {
			return fmt.Errorf("room: funvalue bound %d must be an integer: %w", i, err)
		}
	}
	return nil
}

// Destination is either a literal string or a rule set starting from a
// default and rewritten by chance and funvalue rules.
type Destination struct {
	Literal  string
	Default  string
	Chance   []ChanceRule
	Funvalue []FunvalueRule
}

func (d *Destination) UnmarshalJSON(data []byte) error {
	var literal string
	if err := json.Unmarshal(data, &literal); err == nil {
		d.Literal = literal
		return nil
	}

	var obj struct {
		Default  string         `json:"default"`
		Chance   []ChanceRule   `json:"chance"`
		Funvalue []FunvalueRule `json:"funvalue"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("room: destination must be a string or an object: %w", err)
	}
	if obj.Default == "" {
		return fmt.Errorf("room: destination object is missing a default")
	}
	d.Default = obj.Default
	d.Chance = obj.Chance
	d.Funvalue = obj.Funvalue
	return nil
}

// ChanceRule is a destination rewrite [prob, alt].
type ChanceRule struct {
	Prob float64
	Alt  string
}

func (r *ChanceRule) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil || len(raw) != 2 {
		return fmt.Errorf("room: chance rule must be a [probability, destination] pair")
	}
	if err := json.Unmarshal(raw[0], &r.Prob); err != nil {
		return fmt.Errorf("room: chance rule probability must be a number: %w", err)
	}
	if err := json.Unmarshal(raw[1], &r.Alt); err != nil {
		return fmt.Errorf("room: chance rule destination must be a string: %w", err)
	}
	return nil
}

// FunvalueRule is a destination rewrite [op, bounds..., alt].
type FunvalueRule struct {
	Cond FunvalueCond
	Alt  string
}

func (r *FunvalueRule) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("room: funvalue rule must be an array: %w", err)
	}
	if len(raw) < 3 {
		return fmt.Errorf("room: funvalue rule needs an operator, bounds, and a destination")
	}
	if err := json.Unmarshal(raw[len(raw)-1], &r.Alt); err != nil {
		return fmt.Errorf("room: funvalue rule destination must be a string: %w", err)
	}

	cond, err := json.Marshal(raw[:len(raw)-1])
	if err != nil {
		return err
	}
	return json.Unmarshal(cond, &r.Cond)
}

// ActionZone is a clickable rectangle with up to three effects.
type ActionZone struct {
	Rect [4]int  `json:"rect"`
	Look *Effect `json:"look"`
	Use  *Effect `json:"use"`
	Go   *Effect `json:"go"`
}

// Effect is one action outcome. Result selects the kind: "text" opens the
// text dialog with Contents, "script" invokes a script call string, "exit"
// navigates. Exit contents may be a conditional ExitSpec, in which case Exit
// is set and Contents is empty.
type Effect struct {
	Result   string
	Contents string
	Exit     *ExitSpec
}

func (e *Effect) UnmarshalJSON(data []byte) error {
	var obj struct {
		Result   string          `json:"result"`
		Contents json.RawMessage `json:"contents"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("room: action effect must be an object: %w", err)
	}
	if obj.Result == "" {
		return fmt.Errorf("room: action effect is missing a result kind")
	}
	e.Result = obj.Result

	if len(obj.Contents) == 0 {
		return fmt.Errorf("room: action effect is missing contents")
	}
	if err := json.Unmarshal(obj.Contents, &e.Contents); err == nil {
		return nil
	}
	if e.Result != ResultExit {
		return fmt.Errorf("room: %s effect contents must be a string", e.Result)
	}
	e.Exit = &ExitSpec{}
	if err := json.Unmarshal(obj.Contents, e.Exit); err != nil {
		return fmt.Errorf("room: exit effect contents: %w", err)
	}
	return nil
}

// Effect result kinds.
const (
	ResultText   = "text"
	ResultExit   = "exit"
	ResultScript = "script"
)
