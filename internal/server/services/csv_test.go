package services

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"testing"

	"github.com/AhmedouVall23010/SupNum-Resultats-server/internal/common"
)

// sampleSheet builds a two-module grade sheet with three students in the
// positional PV layout.
func sampleSheet(t *testing.T) []byte {
	t.Helper()
	rows := [][]string{
		// row 0: semester number
		{"", "3"},
		// row 1: module headers
		pad(21, map[int]string{4: "M1: Mathématiques", 11: "M2: Informatique"}),
		// row 2: unused (kept non-blank so the reader does not skip it)
		{"", ""},
		// row 3: coefficients
		pad(21, map[int]string{4: "3", 11: "2"}),
		// row 4: matière headers
		pad(21, map[int]string{4: "MAT101: Analyse", 11: "INF201: Algorithmique"}),
		// row 5: column labels
		pad(21, map[int]string{
			4: "NCC", 5: "NSN", 6: "NSR", 7: "Moy", 8: "Capit",
			9: "MOYENNE UE", 10: "UE Valide",
			11: "NCC", 12: "NSN", 13: "NSR", 14: "Moy", 15: "Capit",
			16: "MOYENNE UE", 17: "UE Valide",
			18: "MOY GENERAL", 19: "CREDIT TOTAL", 20: "DECISION",
		}),
		// students
		{"DSI", "1001", "Ahmed", "Vall",
			"12,5", "11", "0", "12,25", "C", "12,25", "V",
			"14", "13", "0", "13,5", "C", "13,5", "V",
			"12,88", "30", "ADMIS"},
		{"DSI", "1002", "Fatima", "Mint",
			"8", "7", "0", "7,5", "", "7,5", "NV",
			"9", "8", "0", "8,5", "", "8,5", "NV",
			"8", "20", "RATTRAPAGE"},
		{"TC", "1003", "Moussa", "Ba",
			"10", "9", "0", "9,5", "", "9,5", "NV",
			"10", "9", "0", "9,5", "", "9,5", "NV",
			"9,5", "35", "AJOURNE"},
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			t.Fatalf("writing fixture: %v", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		t.Fatalf("flushing fixture: %v", err)
	}
	return buf.Bytes()
}

func pad(width int, cells map[int]string) []string {
	row := make([]string, width)
	for i, v := range cells {
		row[i] = v
	}
	return row
}

func TestParseGradeSheet(t *testing.T) {
	sheet, err := parseGradeSheet(sampleSheet(t), "2024-2025")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sheet.semester != "S3" {
		t.Fatalf("wrong semester: %q", sheet.semester)
	}
	if len(sheet.students) != 3 {
		t.Fatalf("expected 3 students, got %d", len(sheet.students))
	}

	first := sheet.students[0]
	if first.matricule != 1001 || first.department != "DSI" ||
		first.firstName != "Ahmed" || first.lastName != "Vall" {
		t.Fatalf("identity columns misread: %+v", first)
	}
	if first.moyenne != 12.88 {
		t.Fatalf("moyenne générale misread: %v", first.moyenne)
	}

	sem := first.semDoc
	if sem["year"] != "2024-2025" {
		t.Fatalf("year missing from semester doc: %v", sem["year"])
	}
	if sem["credit_total"] != 30 {
		t.Fatalf("credit_total misread: %v", sem["credit_total"])
	}
	if sem["decision"] != "ADMIS" {
		t.Fatalf("decision misread: %v", sem["decision"])
	}

	m1, ok := sem["M1"].(map[string]any)
	if !ok {
		t.Fatalf("module M1 missing: %v", sem)
	}
	if m1["name"] != "Mathématiques" || m1["moyenne"] != 12.25 || m1["UE_valide"] != "V" {
		t.Fatalf("module M1 misread: %v", m1)
	}
	mat, ok := m1["matieres"].(map[string]any)["MAT101"].(map[string]any)
	if !ok {
		t.Fatalf("matière MAT101 missing: %v", m1)
	}
	if mat["name"] != "Analyse" || mat["coef"] != 3.0 {
		t.Fatalf("matière MAT101 misread: %v", mat)
	}
	notes := mat["notes"].(map[string]any)
	if notes["NCC"] != 12.5 || notes["Moy"] != 12.25 || notes["Capit"] != "C" {
		t.Fatalf("notes misread: %v", notes)
	}
}

func TestParseGradeSheet_Ranking(t *testing.T) {
	sheet, err := parseGradeSheet(sampleSheet(t), "2024-2025")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ranks := map[int][2]int{}
	for _, s := range sheet.students {
		ranks[s.matricule] = [2]int{
			s.semDoc["rang_general"].(int),
			s.semDoc["rang_department"].(int),
		}
	}

	// Overall: 1001 (12.88) > 1003 (9.5) > 1002 (8).
	if ranks[1001][0] != 1 || ranks[1003][0] != 2 || ranks[1002][0] != 3 {
		t.Fatalf("wrong overall ranking: %v", ranks)
	}
	// Within DSI: 1001 then 1002; 1003 leads TC alone.
	if ranks[1001][1] != 1 || ranks[1002][1] != 2 || ranks[1003][1] != 1 {
		t.Fatalf("wrong department ranking: %v", ranks)
	}
}

func TestParseGradeSheet_Notes(t *testing.T) {
	sheet, err := parseGradeSheet(sampleSheet(t), "2024-2025")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	notes, err := sheet.notes()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(notes) != 3 {
		t.Fatalf("expected 3 documents, got %d", len(notes))
	}

	var doc map[string]any
	if err := json.Unmarshal(notes[0].Data, &doc); err != nil {
		t.Fatalf("document is not valid JSON: %v", err)
	}
	if doc["matricule"] != float64(1001) || doc["prenom"] != "Ahmed" || doc["nom"] != "Vall" {
		t.Fatalf("document identity misread: %v", doc)
	}
	if _, ok := doc["S3"].(map[string]any); !ok {
		t.Fatalf("document lacks semester key: %v", doc)
	}
}

func TestParseGradeSheet_Malformed(t *testing.T) {
	cases := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"too few rows", []byte("a,b\nc,d\n")},
		{"ragged quoting", []byte("\"unterminated")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := parseGradeSheet(tc.data, "2024-2025"); !errors.Is(err, common.ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
}
