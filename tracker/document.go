package tracker

import (
	"sync"
	"sync/atomic"

	"github.com/stoneface86/trackerboy-sub003"
	"github.com/stoneface86/trackerboy-sub003/engine"
)

// Document is a module shared between the editor and the player goroutines.
// All access to the module must happen inside an edit scope: the editor holds
// one for every change, the player only for the brief moment it steps the
// engine.
//
//	release := doc.PermanentEdit()
//	doc.Module().Title = "new title"
//	release()
type Document struct {
	mu      sync.Mutex
	module  *trackerboy.Module
	dirty   atomic.Bool
	path    string
	history history
}

// NewDocument returns a document editing m, or a new module if m is nil.
func NewDocument(m *trackerboy.Module) *Document {
	if m == nil {
		m = trackerboy.NewModule()
	}
	return &Document{module: m}
}

// Module returns the module. It must only be used inside an edit scope.
func (d *Document) Module() *trackerboy.Module { return d.module }

// Edit locks the document for a change that does not need saving, e.g. a
// change of the song being edited. Call the returned function to release it.
func (d *Document) Edit() (release func()) {
	d.mu.Lock()
	return d.mu.Unlock
}

// PermanentEdit locks the document for a change of the module. Releasing it
// marks the document as changed since the last save.
func (d *Document) PermanentEdit() (release func()) {
	d.mu.Lock()
	return func() {
		d.dirty.Store(true)
		d.history.changedSinceRecovery = true
		d.mu.Unlock()
	}
}

// Replace swaps in another module, e.g. after loading a file, and marks the
// document as saved to path. The undo history is cleared.
func (d *Document) Replace(m *trackerboy.Module, path string) {
	if m == nil {
		m = trackerboy.NewModule()
	}
	d.mu.Lock()
	d.module = m
	d.path = path
	d.dirty.Store(false)
	d.history.reset()
	d.mu.Unlock()
}

// follow rebinds e to the current module if it was swapped by Replace, Undo
// or Redo since e last stepped, keeping the song index and the playback
// position. It must be called inside an edit scope.
func (d *Document) follow(e *engine.Engine, song int) {
	if e.Module() != d.module {
		e.Rebind(d.module, d.module.Song(song))
	}
}

// Dirty reports whether the module was changed since it was last saved.
func (d *Document) Dirty() bool { return d.dirty.Load() }

// Path returns the file the document was loaded from or saved to.
func (d *Document) Path() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.path
}

// Open loads a module file into the document. On error the document is
// reset to an empty module, never left with a partially loaded one.
func (d *Document) Open(path string) error {
	m, err := ReadFile(path)
	if err != nil {
		d.Replace(nil, "")
		return err
	}
	d.Replace(m, path)
	return nil
}

// Save writes the module to path, with the format chosen by the extension.
func (d *Document) Save(path string) error {
	release := d.Edit()
	err := WriteFile(path, d.module)
	if err == nil {
		d.path = path
		d.dirty.Store(false)
	}
	release()
	return err
}
