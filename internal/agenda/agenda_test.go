package agenda

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"plancal/internal/calendar"
	perr "plancal/internal/errors"
	"plancal/internal/model"
	"plancal/internal/source"
	"plancal/internal/syntax"
)

const plan = `TASK Pay rent
DATE 2021-11-01; +m
REMIND -3d

NOTE Team sync
DATE wed 10:00 -- 11:00

TASK Broken
DATE (foo = 1)

NOTE Divide
DATE (10 / (d - 3) = 5)

LOG 2021-11-03
# Moved into the new flat
`

func options(parallel int) Options {
	return Options{
		Window:   calendar.Window{From: calendar.MustDate(2021, time.November, 1), Until: calendar.MustDate(2021, time.November, 7)},
		Today:    calendar.MustDate(2021, time.November, 2),
		Location: time.UTC,
		Parallel: parallel,
	}
}

func describe(items []Item) string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Start.String() + " " + it.Title
	}
	return strings.Join(out, "|")
}

func TestBuild(t *testing.T) {
	doc := syntax.ParseDocument("plan.txt", plan)
	a := Build([]*model.Document{doc}, options(1))

	// The LOG entry is titled by its date.
	want := "2021-11-01 Pay rent|2021-11-03 2021-11-03|2021-11-03 10:00 Team sync|2021-11-05 Divide"
	if got := describe(a.Items); got != want {
		t.Fatalf("items:\n got %s\nwant %s", got, want)
	}
	if !a.Items[0].Overdue {
		t.Fatal("rent of 11-01 is overdue on 11-02")
	}
	if a.Items[1].Kind != model.Log || a.Items[1].Description[0] != "Moved into the new flat" {
		t.Fatalf("log item %+v", a.Items[1])
	}

	if a.Diagnostics.Len() != 2 {
		t.Fatalf("diagnostics: %v", a.Diagnostics)
	}
	if d := a.Diagnostics[0]; d.Entry() != "plan.txt:8" || d.Kind() != perr.KindSemantic {
		t.Fatalf("parse diagnostic %v", d)
	}
	if d := a.Diagnostics[1]; d.Entry() != "plan.txt:11" || d.Kind() != perr.KindEvaluation {
		t.Fatalf("evaluation diagnostic %v", d)
	}

	if len(a.Overdue()) != 1 || len(a.ByDay()) != 3 {
		t.Fatalf("overdue %d, days %d", len(a.Overdue()), len(a.ByDay()))
	}
}

func TestParallelMatchesSequential(t *testing.T) {
	var b strings.Builder
	for i := 1; i <= 30; i++ {
		b.WriteString("NOTE n\nDATE 2021-11-0")
		b.WriteByte(byte('1' + i%7))
		b.WriteString("\n\n")
	}
	doc := syntax.ParseDocument("many.txt", b.String())
	seq := Build([]*model.Document{doc}, options(1))
	par := Build([]*model.Document{doc}, options(8))
	if len(seq.Items) != 30 || len(par.Items) != 30 {
		t.Fatalf("got %d and %d items", len(seq.Items), len(par.Items))
	}
	for i := range seq.Items {
		if seq.Items[i].EntryID != par.Items[i].EntryID || !seq.Items[i].Start.Equal(par.Items[i].Start) {
			t.Fatalf("item %d differs: %s vs %s", i, seq.Items[i].EntryID, par.Items[i].EntryID)
		}
	}
}

func TestReminders(t *testing.T) {
	doc := syntax.ParseDocument("plan.txt", "TASK Dentist\nDATE 2021-11-10\nREMIND -1w\n")
	a := Build([]*model.Document{doc}, options(1))
	if len(a.Items) != 1 || len(a.Reminders()) != 0 {
		t.Fatalf("items %d reminders %d", len(a.Items), len(a.Reminders()))
	}
	opt := options(1)
	opt.Today = calendar.MustDate(2021, time.November, 4)
	if a := Build([]*model.Document{doc}, opt); len(a.Reminders()) != 1 {
		t.Fatal("reminder on 11-04")
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plan.txt")
	if err := os.WriteFile(path, []byte("NOTE a\nDATE 2021-11-02\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	l := source.NewLoader(filepath.Join(dir, "cache"))
	docs := Load(context.Background(), l, []source.Source{
		{ID: "plan.txt", Location: path},
		{ID: "gone.txt", Location: filepath.Join(dir, "gone.txt")},
	})
	if len(docs) != 2 || len(docs[0].Entries) != 1 || docs[1].Errors.Len() != 1 {
		t.Fatalf("docs %+v", docs)
	}
	a := Build(docs, options(2))
	if len(a.Items) != 1 || a.Items[0].EntryID != "plan.txt:1" || a.Diagnostics.Len() != 1 {
		t.Fatalf("agenda items %d diagnostics %v", len(a.Items), a.Diagnostics)
	}
	if !perr.IsKind(a.Diagnostics[0], perr.KindIO) {
		t.Fatalf("diagnostic %v", a.Diagnostics[0])
	}
}
