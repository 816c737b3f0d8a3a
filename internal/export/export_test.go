package export_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/brgilsonsp/corrida-familia-piba-front/internal/export"
	"github.com/brgilsonsp/corrida-familia-piba-front/internal/model"
)

func ptr(s string) *string { return &s }

// scenarioD is the ranking of finishes 00:20:00.00, none and 00:10:00.00.
func scenarioD() []model.RankingEntry {
	return []model.RankingEntry{
		{Position: 1, Bib: 3, Finish: ptr("00:10:00.00")},
		{Position: 2, Bib: 1, DelayedStart: ptr("00:00:30.00"), Finish: ptr("00:20:00.00")},
		{Position: 3, Bib: 2},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, scenarioD()); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	want := "Posição,Número,Tempo Atrasado,Tempo Final\n" +
		"1,3,N/A,00:10:00.00\n" +
		"2,1,00:00:30.00,00:20:00.00\n" +
		"3,2,N/A,N/A\n"
	if got := buf.String(); got != want {
		t.Errorf("WriteCSV =\n%s\nwant\n%s", got, want)
	}
}

func TestWriteCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, nil); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	if got, want := buf.String(), "Posição,Número,Tempo Atrasado,Tempo Final\n"; got != want {
		t.Errorf("WriteCSV = %q, want %q", got, want)
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := export.WriteJSON(&buf, scenarioD()); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	var got []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("decoding output: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("entries = %d, want 3", len(got))
	}
	if got[2]["tempo_final"] != nil {
		t.Errorf("tempo_final = %v, want null", got[2]["tempo_final"])
	}
	if got[0]["posicao"] != float64(1) {
		t.Errorf("posicao = %v, want 1", got[0]["posicao"])
	}
}

func TestWriteJSONEmptyIsArray(t *testing.T) {
	var buf bytes.Buffer
	if err := export.WriteJSON(&buf, nil); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	if got := strings.TrimSpace(buf.String()); got != "[]" {
		t.Errorf("WriteJSON(nil) = %q, want []", got)
	}
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	if err := export.WriteTable(&buf, scenarioD()); err != nil {
		t.Fatalf("WriteTable: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("lines = %d, want 4:\n%s", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[0], "POS") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.Contains(lines[3], "N/A") {
		t.Errorf("last row = %q, want N/A", lines[3])
	}
}

func TestWriteUnknownFormat(t *testing.T) {
	if err := export.Write(&bytes.Buffer{}, "xml", scenarioD()); err == nil {
		t.Fatal("expected error for unknown format, got nil")
	}
	for _, f := range export.Formats {
		if err := export.Write(&bytes.Buffer{}, f, scenarioD()); err != nil {
			t.Errorf("Write(%s): %v", f, err)
		}
	}
}
