package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/brgilsonsp/corrida-familia-piba-front/internal/model"
)

func strPtr(s string) *string { return &s }

func TestWriteExportFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "classificacao.csv")
	entries := []model.RankingEntry{
		{Position: 1, Bib: 2, Monitor: "m", Finish: strPtr("00:50:00.00")},
		{Position: 2, Bib: 1, Monitor: "m", DelayedStart: strPtr("00:02:00.00")},
	}

	if err := writeExport(path, "csv", entries); err != nil {
		t.Fatalf("writeExport: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading export: %v", err)
	}
	want := "Posição,Número,Tempo Atrasado,Tempo Final\n" +
		"1,2,N/A,00:50:00.00\n" +
		"2,1,00:02:00.00,N/A\n"
	if string(data) != want {
		t.Errorf("export = %q, want %q", data, want)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("temp file left behind: %v", err)
	}
}

func TestWriteExportBadFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.out")
	if err := writeExport(path, "xml", nil); err == nil {
		t.Fatal("expected error for unknown format")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("file should not exist after failed export")
	}
}

func TestValidFormat(t *testing.T) {
	for _, f := range []string{"csv", "json", "table"} {
		if !validFormat(f) {
			t.Errorf("validFormat(%q) = false", f)
		}
	}
	if validFormat("md") {
		t.Error("validFormat(md) = true")
	}
}
