// Package ui holds the single-instance text dialog state. The renderer draws
// it; the dispatcher and scripts open and close it.
package ui

import "go.uber.org/zap"

// Dialog is the one text box the engine ever shows. Opening a new text kills
// the previous one.
type Dialog struct {
	log  *zap.Logger
	text string
	open bool
}

// NewDialog returns a closed dialog.
func NewDialog(log *zap.Logger) *Dialog {
	return &Dialog{log: log.Named("ui")}
}

// ShowText opens the dialog with contents, replacing whatever it showed.
func (d *Dialog) ShowText(contents string) {
	d.text = contents
	d.open = true
	d.log.Debug("Opened text dialog", zap.Int("length", len(contents)))
}

// Reset closes the dialog.
func (d *Dialog) Reset() {
	if !d.open {
		return
	}
	d.text = ""
	d.open = false
	d.log.Debug("Closed text dialog")
}

// Open reports whether the dialog is showing.
func (d *Dialog) Open() bool { return d.open }

// Text returns the dialog contents, "" when closed.
func (d *Dialog) Text() string { return d.text }
