package chat

import (
	"strings"
	"testing"

	"github.com/mjaros/chatterm/internal/ui"
)

func testDialog() *DialogModel {
	d := NewDialogModel(ui.DefaultStyles())
	d.SetSize(100, 40)
	return d
}

func TestDialogShowMarksCurrent(t *testing.T) {
	d := testDialog()
	items := []DialogItem{
		{ID: "t1", Label: "first"},
		{ID: "t2", Label: "second"},
		{ID: "t3", Label: "third"},
	}
	d.Show(DialogThreadList, "Threads", items, "t2")

	if !d.IsOpen() {
		t.Fatal("dialog should be open")
	}
	sel := d.Selected()
	if sel == nil || sel.ID != "t2" {
		t.Errorf("cursor should start on the current item, got %+v", sel)
	}
}

func TestDialogFilter(t *testing.T) {
	d := testDialog()
	d.Show(DialogThreadList, "Threads", []DialogItem{
		{ID: "t1", Label: "groceries"},
		{ID: "t2", Label: "travel plans"},
		{ID: "t3", Label: "travel budget"},
	}, "")

	d.SetQuery("travel")
	if len(d.filtered) != 2 {
		t.Fatalf("expected 2 filtered items, got %d", len(d.filtered))
	}

	d.SetQuery("travel bu")
	sel := d.Selected()
	if sel == nil || sel.ID != "t3" {
		t.Errorf("expected t3 selected after narrowing, got %+v", sel)
	}
}

func TestDialogCloseResets(t *testing.T) {
	d := testDialog()
	d.Show(DialogVoicePicker, "Select Voice", []DialogItem{{ID: "alloy", Label: "alloy"}}, "")
	d.SetQuery("al")
	d.Close()

	if d.IsOpen() {
		t.Error("dialog should be closed")
	}
	if d.Query() != "" || d.Selected() != nil {
		t.Error("close should reset query and items")
	}
}

func TestDialogViewShowsFilterAndItems(t *testing.T) {
	d := testDialog()
	d.Show(DialogModelPicker, "Select Model", []DialogItem{
		{ID: "gpt-a", Label: "gpt-a"},
		{ID: "gpt-b", Label: "gpt-b"},
	}, "gpt-b")
	d.SetQuery("gpt")

	view := d.View()
	if !strings.Contains(view, "Select Model") {
		t.Error("view should contain the title")
	}
	if !strings.Contains(view, "filter: gpt") {
		t.Error("view should show the active filter")
	}
	if !strings.Contains(view, "(current)") {
		t.Error("view should mark the current item")
	}
}
