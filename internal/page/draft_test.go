package page

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/tradepost/web/internal/validation"
	"github.com/tradepost/web/internal/view"
)

func files(names ...string) []DraftFile {
	out := make([]DraftFile, len(names))
	for i, n := range names {
		out[i] = DraftFile{ID: "id-" + n, Name: n, Data: []byte(n)}
	}
	return out
}

func TestDraft_UpdateAppends(t *testing.T) {
	var d Draft
	if err := d.Update("Bike", "", files("a")); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := d.Update("Bike", "red", files("b", "c")); err != nil {
		t.Fatalf("Update: %v", err)
	}

	v := d.View()
	if len(v.Files) != 3 || v.Files[0].Name != "a" || v.Files[2].Name != "c" {
		t.Fatalf("expected [a b c], got %+v", v.Files)
	}
	if v.Description != "red" {
		t.Fatalf("expected latest description, got %q", v.Description)
	}
}

func TestDraft_UpdateTooManyFiles(t *testing.T) {
	var d Draft
	names := make([]string, MaxDraftFiles)
	for i := range names {
		names[i] = fmt.Sprintf("f%d", i)
	}
	if err := d.Update("", "", files(names...)); err != nil {
		t.Fatalf("Update: %v", err)
	}

	err := d.Update("Bike", "", files("extra"))
	if !errors.Is(err, ErrTooManyFiles) {
		t.Fatalf("expected ErrTooManyFiles, got %v", err)
	}
	v := d.View()
	if len(v.Files) != MaxDraftFiles || v.Name != "Bike" {
		t.Fatalf("expected files unchanged and name kept, got %d files, name %q", len(v.Files), v.Name)
	}
}

func TestDraft_RemoveFile(t *testing.T) {
	var d Draft
	_ = d.Update("", "", files("a", "b", "c"))
	before := d.View()

	removed, err := d.RemoveFile("id-b")
	if err != nil || !removed {
		t.Fatalf("expected removal, got %v, %v", removed, err)
	}
	if removed, _ := d.RemoveFile("id-missing"); removed {
		t.Fatal("unknown id must not remove anything")
	}

	v := d.View()
	if len(v.Files) != 2 || v.Files[1].Name != "c" {
		t.Fatalf("expected [a c], got %+v", v.Files)
	}
	if before.Files[1].Name != "b" {
		t.Fatal("earlier views must not change")
	}
}

func TestDraft_BusyBlocksChanges(t *testing.T) {
	var d Draft
	_ = d.Update("Bike", "", files("a"))

	v, err := d.Begin(d.Token(), "Bike", "", nil)
	if err != nil || !v.Busy {
		t.Fatalf("Begin: %+v, %v", v, err)
	}
	if _, err := d.Begin(d.Token(), "Bike", "", nil); !errors.Is(err, ErrSubmitInProgress) {
		t.Fatalf("expected ErrSubmitInProgress, got %v", err)
	}
	if err := d.Update("Other", "", files("b")); !errors.Is(err, ErrSubmitInProgress) {
		t.Fatalf("expected ErrSubmitInProgress, got %v", err)
	}
	if _, err := d.RemoveFile("id-a"); !errors.Is(err, ErrSubmitInProgress) {
		t.Fatalf("expected ErrSubmitInProgress, got %v", err)
	}

	d.End()
	if err := d.Update("Other", "", nil); err != nil {
		t.Fatalf("Update after End: %v", err)
	}
}

func TestDraft_BeginAppendsAndChecksToken(t *testing.T) {
	var d Draft
	_ = d.Update("Bike", "", files("a"))

	v, err := d.Begin(d.Token(), "Red bike", "fast", files("b"))
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if v.Name != "Red bike" || len(v.Files) != 2 || v.Files[1].Name != "b" {
		t.Fatalf("expected submitted fields and files, got %+v", v)
	}
	d.End()

	old := d.Token()
	d.Reset()
	if d.Token() == old {
		t.Fatal("Reset must issue a new token")
	}
	if _, err := d.Begin(old, "Bike", "", files("c")); !errors.Is(err, ErrStaleSubmit) {
		t.Fatalf("expected ErrStaleSubmit, got %v", err)
	}
	if v := d.View(); v.Busy || v.Name != "" || len(v.Files) != 0 {
		t.Fatalf("stale submit must not change the draft, got %+v", v)
	}
}

func TestDraft_BeginTooManyFiles(t *testing.T) {
	var d Draft
	names := make([]string, MaxDraftFiles)
	for i := range names {
		names[i] = fmt.Sprintf("f%d", i)
	}
	_ = d.Update("", "", files(names...))

	if _, err := d.Begin(d.Token(), "Bike", "", files("extra")); !errors.Is(err, ErrTooManyFiles) {
		t.Fatalf("expected ErrTooManyFiles, got %v", err)
	}
	if v := d.View(); v.Busy || len(v.Files) != MaxDraftFiles {
		t.Fatalf("expected an idle draft with its files, got busy=%v files=%d", v.Busy, len(v.Files))
	}
	if !strings.Contains(ErrTooManyFiles.Error(), fmt.Sprint(MaxDraftFiles)) {
		t.Fatalf("message must name the limit, got %q", ErrTooManyFiles)
	}
}

func TestDraft_ResetAndErrors(t *testing.T) {
	var d Draft
	_ = d.Update("Bike", "red", files("a"))
	d.SetErrors(validation.FieldErrors{"images": "bad"}, "oops")

	fields, msg := d.TakeErrors()
	if fields["images"] != "bad" || msg != "oops" {
		t.Fatalf("unexpected errors %v, %q", fields, msg)
	}
	if fields, msg := d.TakeErrors(); fields != nil || msg != "" {
		t.Fatal("errors must be taken once")
	}

	d.Reset()
	if v := d.View(); v.Name != "" || v.Description != "" || len(v.Files) != 0 {
		t.Fatalf("expected empty draft, got %+v", v)
	}
}

func TestDraftStore_GetIsPerUser(t *testing.T) {
	s := NewDraftStore()
	if s.Get("a") != s.Get("a") {
		t.Fatal("expected the same draft for the same user")
	}
	if s.Get("a") == s.Get("b") {
		t.Fatal("expected separate drafts per user")
	}
}

func TestDraftStore_Delete(t *testing.T) {
	s := NewDraftStore()
	d := s.Get("a")
	s.Delete("a")

	if s.Len() != 0 {
		t.Fatalf("expected no drafts, have %d", s.Len())
	}
	if s.Get("a") == d {
		t.Fatal("expected a fresh draft after Delete")
	}
	if s.Get("a").Token() == d.Token() {
		t.Fatal("a fresh draft must carry a new token")
	}
}

func TestDraftStore_SweepDropsIdle(t *testing.T) {
	s := NewDraftStore()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	s.Get("idle")
	busy := s.Get("busy")
	if _, err := busy.Begin(busy.Token(), "Bike", "", nil); err != nil {
		t.Fatalf("Begin: %v", err)
	}

	now = now.Add(30 * time.Minute)
	s.Get("recent")

	now = now.Add(45 * time.Minute)
	if n := s.Sweep(time.Hour); n != 1 {
		t.Fatalf("expected one draft swept, got %d", n)
	}
	if s.Len() != 2 {
		t.Fatalf("expected busy and recent drafts to stay, have %d", s.Len())
	}
	if s.Get("busy") != busy {
		t.Fatal("a draft with a submit running must not be swept")
	}
}

func TestFlashStore_PopOnce(t *testing.T) {
	s := NewFlashStore()
	if s.Pop("u") != nil {
		t.Fatal("expected no flash")
	}
	s.Put("u", view.Failure("first"))
	s.Put("u", view.Success("second"))
	if f := s.Pop("u"); f == nil || f.Message != "second" {
		t.Fatalf("expected latest flash, got %+v", f)
	}
	if s.Pop("u") != nil {
		t.Fatal("flash must be popped once")
	}
}
