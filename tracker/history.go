package tracker

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/stoneface86/trackerboy-sub003"
)

const maxUndo = 256

// undoSkip is how many consecutive edits of one kind are merged into a single
// undo step.
var undoSkip = map[string]int{
	"setNote":   10,
	"setEffect": 10,
	"setNibble": 32,
}

type history struct {
	undoStack            []*trackerboy.Module
	redoStack            []*trackerboy.Module
	prevKind             string
	skipCounter          int
	changedSinceRecovery bool
}

func (h *history) save(m *trackerboy.Module, kind string) {
	if kind != "" && h.prevKind == kind && h.skipCounter < undoSkip[kind] {
		h.skipCounter++
		return
	}
	h.prevKind = kind
	h.skipCounter = 0
	h.undoStack = pushLimited(h.undoStack, m.Copy())
	h.redoStack = h.redoStack[:0]
}

func (h *history) reset() {
	*h = history{}
}

func pushLimited(stack []*trackerboy.Module, m *trackerboy.Module) []*trackerboy.Module {
	stack = append(stack, m)
	if len(stack) > maxUndo {
		copy(stack, stack[len(stack)-maxUndo:])
		stack = stack[:maxUndo]
	}
	return stack
}

// UndoableEdit locks the document like PermanentEdit, saving the module for
// Undo first. Consecutive edits of the same kind may share one undo step.
func (d *Document) UndoableEdit(kind string) (release func()) {
	release = d.PermanentEdit()
	d.history.save(d.module, kind)
	return release
}

// Undo restores the module as it was before the last undoable edit. It
// reports false if there was nothing to undo.
func (d *Document) Undo() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	h := &d.history
	if len(h.undoStack) == 0 {
		return false
	}
	h.redoStack = pushLimited(h.redoStack, d.module)
	d.module = h.undoStack[len(h.undoStack)-1]
	h.undoStack = h.undoStack[:len(h.undoStack)-1]
	h.prevKind = ""
	h.changedSinceRecovery = true
	d.dirty.Store(true)
	return true
}

// Redo reverts the last Undo. It reports false if there was nothing to redo.
func (d *Document) Redo() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	h := &d.history
	if len(h.redoStack) == 0 {
		return false
	}
	h.undoStack = pushLimited(h.undoStack, d.module)
	d.module = h.redoStack[len(h.redoStack)-1]
	h.redoStack = h.redoStack[:len(h.redoStack)-1]
	h.prevKind = ""
	h.changedSinceRecovery = true
	d.dirty.Store(true)
	return true
}

func (d *Document) CanUndo() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.history.undoStack) > 0
}

func (d *Document) CanRedo() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.history.redoStack) > 0
}

// SaveRecovery writes the module to a recovery file if it changed since the
// last recovery save. The recovery file is a .yml module.
func (d *Document) SaveRecovery(path string) error {
	if path == "" {
		return errors.New("no recovery file path")
	}
	release := d.Edit()
	if !d.history.changedSinceRecovery {
		release()
		return nil
	}
	var out bytes.Buffer
	err := WriteModule(&out, d.module)
	if err == nil {
		d.history.changedSinceRecovery = false
	}
	release()
	if err != nil {
		return fmt.Errorf("could not marshal recovery data: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return fmt.Errorf("could not create recovery directory: %w", err)
	}
	if err := os.WriteFile(path, out.Bytes(), 0644); err != nil {
		return fmt.Errorf("could not write recovery file: %w", err)
	}
	return nil
}

// LoadRecovery replaces the module with the one in a recovery file. The
// document stays dirty and keeps no file path, as the recovered changes were
// never saved.
func (d *Document) LoadRecovery(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	m, err := ReadModule(f)
	if err != nil {
		return fmt.Errorf("could not read recovery file: %w", err)
	}
	d.Replace(m, "")
	d.dirty.Store(true)
	return nil
}
