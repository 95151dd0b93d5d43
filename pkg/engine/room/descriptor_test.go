package room

import (
	"encoding/json"
	"testing"
)

const manorJSON = `{
	"default": {
		"image": "manor/hall.png",
		"title": "The Hall",
		"music": "manor/theme.ogg",
		"exits": {
			"left": "manor/study.json",
			"forward": {
				"presence": {"chance": 0.5, "funvalue": ["range", 1, 500]},
				"destination": {
					"default": "manor/landing.json",
					"chance": [[0.1, "manor/secret.json"]],
					"funvalue": [["=", 13, "manor/unlucky.json"]]
				}
			}
		},
		"actions": [
			{
				"rect": [10, 10, 100, 100],
				"look": {"result": "text", "contents": "A dusty portrait."},
				"use": {"result": "script", "contents": "portrait.lua:touch,frame"}
			},
			{
				"rect": [200, 50, 300, 150],
				"go": {"result": "exit", "contents": {
					"presence": {"chance": 0.9},
					"destination": "manor/cellar.json"
				}}
			}
		]
	},
	"nighttime": {
		"image": "manor/hall_dark.png",
		"music": 2.5
	}
}`

func TestDescriptor_Unmarshal(t *testing.T) {
	var desc Descriptor
	if err := json.Unmarshal([]byte(manorJSON), &desc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	view, ok := desc["default"]
	if !ok {
		t.Fatal("default view missing")
	}
	if view.Title != "The Hall" || view.Image != "manor/hall.png" {
		t.Errorf("view header wrong: %+v", view)
	}
	if !view.Music.Play() || view.Music.Track != "manor/theme.ogg" {
		t.Errorf("music = %+v, want play directive", view.Music)
	}

	left := view.Exits["left"]
	if left.Literal != "manor/study.json" {
		t.Errorf("left exit = %+v, want a literal", left)
	}

	fwd := view.Exits["forward"]
	if fwd.Presence == nil || fwd.Presence.Chance == nil || *fwd.Presence.Chance != 0.5 {
		t.Errorf("forward presence chance wrong: %+v", fwd.Presence)
	}
	if fwd.Presence.Funvalue.Op != "range" {
		t.Errorf("forward funvalue condition wrong: %+v", fwd.Presence.Funvalue)
	}
	if fwd.Destination.Default != "manor/landing.json" {
		t.Errorf("forward destination default wrong: %+v", fwd.Destination)
	}
	if len(fwd.Destination.Chance) != 1 || fwd.Destination.Chance[0].Alt != "manor/secret.json" {
		t.Errorf("forward chance rules wrong: %+v", fwd.Destination.Chance)
	}
	rule := fwd.Destination.Funvalue[0]
	if rule.Cond.Op != "=" || rule.Cond.Bounds[0] != 13 || rule.Alt != "manor/unlucky.json" {
		t.Errorf("forward funvalue rule wrong: %+v", rule)
	}

	if got := len(view.Actions); got != 2 {
		t.Fatalf("actions = %d, want 2", got)
	}
	if view.Actions[0].Look.Result != ResultText || view.Actions[0].Use.Result != ResultScript {
		t.Errorf("first action effects wrong: %+v", view.Actions[0])
	}
	goEffect := view.Actions[1].Go
	if goEffect.Exit == nil || goEffect.Exit.Destination.Literal != "manor/cellar.json" {
		t.Errorf("conditional go effect wrong: %+v", goEffect)
	}
}

func TestMusic_StopDirectives(t *testing.T) {
	var desc Descriptor
	if err := json.Unmarshal([]byte(manorJSON), &desc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	night := desc["nighttime"]
	if night.Music.Play() {
		t.Errorf("numeric music parsed as a play directive: %+v", night.Music)
	}
	if night.Music.Fade != 2.5 {
		t.Errorf("fade = %v, want 2.5", night.Music.Fade)
	}

	// An explicit null is a stop directive; a missing key means hands off.
	var withNull ViewDescriptor
	if err := json.Unmarshal([]byte(`{"image": "a.png", "music": null}`), &withNull); err != nil {
		t.Fatalf("null music view: %v", err)
	}
	if withNull.Music == nil || withNull.Music.Play() || withNull.Music.Fade != 0 {
		t.Errorf("null music = %+v, want immediate stop", withNull.Music)
	}

	var without ViewDescriptor
	if err := json.Unmarshal([]byte(`{"image": "a.png"}`), &without); err != nil {
		t.Fatalf("musicless view: %v", err)
	}
	if without.Music != nil {
		t.Errorf("absent music parsed as a directive: %+v", without.Music)
	}
}

func TestExitSpec_MissingDestination(t *testing.T) {
	var e ExitSpec
	if err := json.Unmarshal([]byte(`{"presence": {"chance": 0.5}}`), &e); err == nil {
		t.Fatal("conditional exit without destination parsed")
	}
}

func TestDestination_MissingDefault(t *testing.T) {
	var d Destination
	if err := json.Unmarshal([]byte(`{"chance": [[0.5, "x.json"]]}`), &d); err == nil {
		t.Fatal("destination object without default parsed")
	}
}

func TestFunvalueCond_Malformed(t *testing.T) {
	for _, raw := range []string{`["range"]`, `[5, 10]`, `"range"`} {
		var c FunvalueCond
		if err := json.Unmarshal([]byte(raw), &c); err == nil {
			t.Errorf("%s parsed as a funvalue condition", raw)
		}
	}
}

func TestEffect_NonExitContentsMustBeString(t *testing.T) {
	var e Effect
	err := json.Unmarshal([]byte(`{"result": "text", "contents": {"default": "x"}}`), &e)
	if err == nil {
		t.Fatal("text effect with object contents parsed")
	}
}
