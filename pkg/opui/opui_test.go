package opui

import (
	"testing"

	"github.com/spf13/afero"

	"github.com/xelalexv/wd1770/pkg/catalog"
	"github.com/xelalexv/wd1770/pkg/storage"
)

func newTestController(t *testing.T) *Controller {
	t.Helper()
	fs := afero.NewMemMapFs()
	_ = afero.WriteFile(fs, "a.dsk", make([]byte, 368640), 0644)
	_ = afero.WriteFile(fs, "b.dsk", make([]byte, 368640), 0644)
	backend := storage.NewAferoBackend(fs, ".")
	cat := catalog.New(backend, "slots.cfg")
	if err := cat.Enumerate(); err != nil {
		t.Fatalf("Enumerate: %v", err)
	}
	return NewController(cat)
}

func TestSelectFlowBindsBothSlots(t *testing.T) {

	c := newTestController(t)

	if err := c.Select(); err != nil {
		t.Fatalf("Select (normal->pick0): %v", err)
	}
	if c.Mode() != ModePickSlot0 {
		t.Fatalf("expected ModePickSlot0, got %s", c.Mode())
	}

	c.Down()

	if err := c.Select(); err != nil {
		t.Fatalf("Select (pick0->pick1): %v", err)
	}
	if c.Mode() != ModePickSlot1 {
		t.Fatalf("expected ModePickSlot1, got %s", c.Mode())
	}

	if err := c.Select(); err != nil {
		t.Fatalf("Select (pick1->confirm): %v", err)
	}
	if c.Mode() != ModeConfirm {
		t.Fatalf("expected ModeConfirm, got %s", c.Mode())
	}

	if err := c.Select(); err != nil {
		t.Fatalf("Select (confirm->apply): %v", err)
	}
	if c.Mode() != ModeNormal {
		t.Fatalf("expected ModeNormal after apply, got %s", c.Mode())
	}

	b0, _ := c.catalog.Binding(0)
	b1, _ := c.catalog.Binding(1)
	if !b0.Bound || !b1.Bound {
		t.Fatalf("expected both slots bound, got %+v %+v", b0, b1)
	}
	if b0.Descriptor.Name == b1.Descriptor.Name {
		t.Errorf("expected different images in each slot, both got %s", b0.Descriptor.Name)
	}
}

func TestCancelReturnsToNormalWithoutBinding(t *testing.T) {

	c := newTestController(t)

	_ = c.Select()
	c.Down()
	_ = c.Select()

	c.Cancel()

	if c.Mode() != ModeNormal {
		t.Fatalf("expected ModeNormal after cancel, got %s", c.Mode())
	}
	b0, _ := c.catalog.Binding(0)
	if b0.Bound {
		t.Error("expected slot 0 to remain unbound after cancel")
	}
}

func TestUpDownWrapCursor(t *testing.T) {

	c := newTestController(t)
	_ = c.Select()

	c.Up()
	if c.cursor != 1 {
		t.Errorf("expected cursor to wrap to 1, got %d", c.cursor)
	}

	c.Down()
	if c.cursor != 0 {
		t.Errorf("expected cursor to wrap back to 0, got %d", c.cursor)
	}
}

func TestSelectInPickModeWithEmptyCatalogErrors(t *testing.T) {

	fs := afero.NewMemMapFs()
	backend := storage.NewAferoBackend(fs, ".")
	cat := catalog.New(backend, "slots.cfg")
	_ = cat.Enumerate()
	c := NewController(cat)

	if err := c.Select(); err != nil {
		t.Fatalf("Select (normal->pick0) on empty catalog: %v", err)
	}
	if err := c.Select(); err == nil {
		t.Error("expected error picking from empty catalog")
	}
}
