package domain_test

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"fastflow/internal/modules/fasting/domain"
)

func TestParseDocumentRejectsMalformedPayloads(t *testing.T) {
	t.Parallel()
	cases := map[string]string{
		"not json":       "not json",
		"null":           "null",
		"array":          "[]",
		"wrong type":     `{"fasts": "nope"}`,
		"two active":     `{"fasts": [{"id":"a","startAt":1,"targetHours":16,"plan":"16/8"},{"id":"b","startAt":2,"targetHours":16,"plan":"16/8"}]}`,
		"end < start":    `{"fasts": [{"id":"a","startAt":10,"endAt":5,"targetHours":16,"plan":"16/8"}]}`,
		"empty id":       `{"fasts": [{"id":"","startAt":1,"endAt":5,"targetHours":16,"plan":"16/8"}]}`,
		"duplicate id":   `{"fasts": [{"id":"a","startAt":1,"endAt":5,"targetHours":16,"plan":"16/8"},{"id":"a","startAt":6,"endAt":9,"targetHours":16,"plan":"16/8"}]}`,
		"settings types": `{"settings": {"use24h": "yes"}}`,
	}
	for name, payload := range cases {
		if _, err := domain.ParseDocument([]byte(payload)); err == nil {
			t.Fatalf("%s: expected parse error", name)
		}
	}
}

func TestParseDocumentOptionalKeys(t *testing.T) {
	t.Parallel()
	doc, err := domain.ParseDocument([]byte(`{}`))
	if err != nil {
		t.Fatalf("parse empty object: %v", err)
	}
	current := historyState()
	next, err := domain.Replace(current, doc)
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	if next.FastCount() != 0 {
		t.Fatalf("missing fasts should import as an empty list")
	}
	if !reflect.DeepEqual(next.Settings, current.Settings) {
		t.Fatalf("missing settings should keep current settings")
	}
}

func TestReplaceMergesPartialSettings(t *testing.T) {
	t.Parallel()
	doc, err := domain.ParseDocument([]byte(`{"fasts": [{"id":"x","startAt":1000,"targetHours":18,"plan":"18/6","notes":"water only"}], "settings": {"defaultTargetHours": 18}}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	next, err := domain.Replace(domain.NewState(), doc)
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	if next.Active == nil || next.Active.ID != "x" || next.Active.Notes != "water only" {
		t.Fatalf("expected imported active fast, got %+v", next.Active)
	}
	if next.Settings.DefaultTargetHours != 18 || next.Settings.DefaultPlan != domain.Plan16x8 || !next.Settings.Use24h {
		t.Fatalf("unexpected merged settings %+v", next.Settings)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	t.Parallel()
	state := historyState()
	state, _, err := domain.Start(state, "live", 18, domain.Plan18x6, at(60*3_600_000))
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	payload, err := json.Marshal(domain.ExportDocument(state))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	doc, err := domain.ParseDocument(payload)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	imported, err := domain.Replace(domain.NewState(), doc)
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	if !reflect.DeepEqual(domain.ExportDocument(imported), domain.ExportDocument(state)) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", domain.ExportDocument(imported), domain.ExportDocument(state))
	}
	if imported.Active == nil || imported.Active.ID != "live" {
		t.Fatalf("current fast lost in round trip")
	}
}

func TestReplaceWithCurrentFastClosesEatingWindow(t *testing.T) {
	t.Parallel()
	state, _, err := domain.Start(historyState(), "live", 16, domain.Plan16x8, at(60*3_600_000))
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	payload, err := json.Marshal(domain.ExportDocument(state))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	doc, err := domain.ParseDocument(payload)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if doc.Settings.EatingStartAt != nil {
		t.Fatalf("backup taken mid-fast should carry no eating window")
	}

	ended, _ := domain.End(state, at(77*3_600_000))
	if ended.Settings.Eating == nil {
		t.Fatalf("end should open an eating window")
	}
	restored, err := domain.Replace(ended, doc)
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	if restored.Active == nil || restored.Active.ID != "live" {
		t.Fatalf("expected restored current fast, got %+v", restored.Active)
	}
	if restored.Settings.Eating != nil {
		t.Fatalf("eating window %+v left open beside a current fast", restored.Settings.Eating)
	}
}

func TestExportFormat(t *testing.T) {
	t.Parallel()
	payload, err := json.Marshal(domain.ExportDocument(historyState()))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	text := string(payload)
	for _, key := range []string{`"fasts"`, `"startAt":0`, `"endAt":57600000`, `"targetHours":16`, `"plan":"16/8"`, `"defaultPlan":"16/8"`, `"use24h":true`, `"eatingTargetHours":4`} {
		if !strings.Contains(text, key) {
			t.Fatalf("expected %s in %s", key, text)
		}
	}
	if strings.Contains(text, `"notes"`) {
		t.Fatalf("empty notes should be omitted")
	}
}

func TestSettingsFromRecordDefaults(t *testing.T) {
	t.Parallel()
	got := domain.SettingsFromRecord(domain.SettingsRecord{Use24h: ptr(false)})
	want := domain.DefaultSettings()
	want.Use24h = false
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}
