package export_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/brgilsonsp/corrida-familia-piba-front/internal/export"
	"github.com/brgilsonsp/corrida-familia-piba-front/internal/model"
)

func classification() []model.ClassificationEntry {
	return []model.ClassificationEntry{
		{Position: 1, Bib: 12, Name: "Ana Souza", Age: "34", Sex: "F", Time: "00:21:10"},
		{Position: 2, Bib: 40, Name: "Lima, Bia", Age: "29", Sex: "F", Time: "00:22:03"},
	}
}

func TestWriteClassificationCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := export.WriteClassificationCSV(&buf, classification()); err != nil {
		t.Fatalf("WriteClassificationCSV: %v", err)
	}
	want := "Posição,Número,Nome,Idade,Sexo,Tempo\n" +
		"1,12,Ana Souza,34,F,00:21:10\n" +
		"2,40,\"Lima, Bia\",29,F,00:22:03\n"
	if buf.String() != want {
		t.Errorf("CSV = %q, want %q", buf.String(), want)
	}
}

func TestWriteClassificationFormats(t *testing.T) {
	var buf bytes.Buffer
	if err := export.WriteClassification(&buf, export.FormatJSON, nil); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Errorf("empty JSON = %q", buf.String())
	}

	buf.Reset()
	if err := export.WriteClassification(&buf, export.FormatTable, classification()); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"POS", "Ana Souza", "00:22:03"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("table missing %q:\n%s", want, buf.String())
		}
	}

	if err := export.WriteClassification(&buf, "xml", nil); err == nil {
		t.Error("expected error for unknown format")
	}
}
