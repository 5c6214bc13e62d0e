package regionalsync

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestNormalizeRecordsHappyPath(t *testing.T) {
	raw := []map[string]interface{}{
		{"id": float64(10), "nome": "Centro"},
		{"nome": "Norte"},
		{"id": "20", "nome": " Sul "},
	}

	records, dropped, degraded := normalizeRecords(raw)
	if len(dropped) != 0 || len(degraded) != 0 {
		t.Fatalf("expected no drops or warnings, got %+v %+v", dropped, degraded)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %+v", records)
	}
	if records[0].ExternalCode == nil || *records[0].ExternalCode != 10 {
		t.Errorf("numeric id not coerced: %+v", records[0])
	}
	if records[1].ExternalCode != nil {
		t.Errorf("absent id must stay nil: %+v", records[1])
	}
	if records[2].ExternalCode == nil || *records[2].ExternalCode != 20 {
		t.Errorf("string id not coerced: %+v", records[2])
	}
	if records[2].Name != "Sul" {
		t.Errorf("name not trimmed: %q", records[2].Name)
	}
}

func TestNormalizeRecordsDropsUnusableNames(t *testing.T) {
	raw := []map[string]interface{}{
		{"id": float64(1)},
		{"id": float64(2), "nome": nil},
		{"id": float64(3), "nome": "   "},
		{"id": float64(4), "nome": 42},
		{"id": float64(5), "nome": strings.Repeat("x", maxRegionalNameLength+1)},
		{"id": float64(6), "nome": "Valido"},
	}

	records, dropped, _ := normalizeRecords(raw)
	if len(records) != 1 || records[0].Name != "Valido" {
		t.Fatalf("expected only the valid record to survive, got %+v", records)
	}
	if len(dropped) != 5 {
		t.Fatalf("expected 5 drops, got %d", len(dropped))
	}

	wantReasons := []string{dropMissingName, dropMissingName, dropBlankName, dropMissingName, dropNameTooLong}
	for i, want := range wantReasons {
		if dropped[i].Reason != want {
			t.Errorf("drop %d: want reason %q, got %q", i, want, dropped[i].Reason)
		}
		if len(dropped[i].RawPayload) == 0 {
			t.Errorf("drop %d: raw payload missing", i)
		}
	}
}

func TestNormalizeRecordsUncoercibleIdBecomesCodeless(t *testing.T) {
	raw := []map[string]interface{}{
		{"id": 10.5, "nome": "Fracionado"},
		{"id": true, "nome": "Booleano"},
		{"id": "abc", "nome": "Texto"},
		{"id": json.Number("7"), "nome": "Numero"},
	}

	records, dropped, degraded := normalizeRecords(raw)
	if len(dropped) != 0 {
		t.Fatalf("bad ids must not drop records: %+v", dropped)
	}
	if len(records) != 4 {
		t.Fatalf("expected 4 records, got %d", len(records))
	}
	for i := 0; i < 3; i++ {
		if records[i].ExternalCode != nil {
			t.Errorf("record %d: expected nil code, got %d", i, *records[i].ExternalCode)
		}
	}
	if records[3].ExternalCode == nil || *records[3].ExternalCode != 7 {
		t.Errorf("json.Number id not coerced: %+v", records[3])
	}

	if len(degraded) != 3 {
		t.Fatalf("expected 3 degradation warnings, got %d", len(degraded))
	}
	for i, d := range degraded {
		if d.Reason != warnUnusableCode {
			t.Errorf("warning %d: want reason %q, got %q", i, warnUnusableCode, d.Reason)
		}
	}
}
