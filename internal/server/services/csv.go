package services

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/AhmedouVall23010/SupNum-Resultats-server/internal/common"
	"github.com/AhmedouVall23010/SupNum-Resultats-server/internal/server/models"
)

// Grade sheets are PV exports with a fixed positional layout:
//
//	row 0: semester number in column 1
//	row 1: module headers ("CODE: Name") starting at column 4
//	row 3: matière coefficients
//	row 4: matière headers ("CODE: Name")
//	row 5: column labels (NCC/NSN/NSR/Moy/Capit, MOYENNE UE, UE Valide,
//	       MOY GENERAL, CREDIT TOTAL, DECISION)
//	rows 6+: one student each (department, matricule, prénom, nom, grades)
//
// Each matière occupies five consecutive columns; a module's columns run to
// the start of the next module header.

const studentRowsStart = 6

type sheetModule struct {
	code     string
	name     string
	startCol int
	endCol   int
}

type parsedStudent struct {
	matricule  int
	department string
	firstName  string
	lastName   string
	semDoc     map[string]any
	moyenne    float64
}

type gradeSheet struct {
	semester string
	students []*parsedStudent
}

// parseGradeSheet decodes a CSV export into per-student grade documents for
// the given academic year.
func parseGradeSheet(data []byte, year string) (*gradeSheet, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: malformed CSV: %v", common.ErrValidation, err)
	}
	if len(rows) <= studentRowsStart {
		return nil, fmt.Errorf("%w: grade sheet has no student rows", common.ErrValidation)
	}

	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}

	cell := func(row, col int) string {
		if row < 0 || row >= len(rows) || col < 0 || col >= len(rows[row]) {
			return ""
		}
		return strings.TrimSpace(rows[row][col])
	}

	semNum := cell(0, 1)
	if semNum == "" {
		return nil, fmt.Errorf("%w: missing semester number in header", common.ErrValidation)
	}
	semester := "S" + semNum

	modules := scanModules(cell, width)
	if len(modules) == 0 {
		return nil, fmt.Errorf("%w: no module headers found", common.ErrValidation)
	}

	// Summary columns live in the label row and apply to every student.
	moyGeneralCol, creditTotalCol, decisionCol := -1, -1, -1
	for col := 0; col < width; col++ {
		label := strings.ToUpper(cell(5, col))
		switch {
		case strings.Contains(label, "MOY GENERAL") || strings.Contains(label, "MOYENNE GENERAL"):
			moyGeneralCol = col
		case strings.Contains(label, "CREDIT TOT"):
			creditTotalCol = col
		case strings.Contains(label, "DECISION"):
			decisionCol = col
		}
	}

	sheet := &gradeSheet{semester: semester}
	for row := studentRowsStart; row < len(rows); row++ {
		matricule, err := strconv.Atoi(cell(row, 1))
		if err != nil {
			continue
		}

		student := &parsedStudent{
			matricule:  matricule,
			department: cell(row, 0),
			firstName:  cell(row, 2),
			lastName:   cell(row, 3),
			semDoc: map[string]any{
				"year":     year,
				"isPublic": false,
			},
		}

		for _, m := range modules {
			student.semDoc[m.code] = parseModule(cell, row, m, width)
		}

		if moyGeneralCol >= 0 {
			student.moyenne = toFloat(cell(row, moyGeneralCol))
			student.semDoc["moyenne_generale"] = numericValue(cell(row, moyGeneralCol))
		}
		if creditTotalCol >= 0 {
			student.semDoc["credit_total"] = int(toFloat(cell(row, creditTotalCol)))
		}
		if decisionCol >= 0 {
			student.semDoc["decision"] = stringOrNil(cell(row, decisionCol))
		}

		sheet.students = append(sheet.students, student)
	}

	rankStudents(sheet.students)
	return sheet, nil
}

func scanModules(cell func(int, int) string, width int) []sheetModule {
	var modules []sheetModule
	for col := 4; col < width; col++ {
		header := cell(1, col)
		if strings.Contains(header, ":") {
			code, name, _ := strings.Cut(header, ":")
			modules = append(modules, sheetModule{
				code:     strings.TrimSpace(code),
				name:     strings.TrimSpace(name),
				startCol: col,
			})
		}
	}
	for i := range modules {
		if i < len(modules)-1 {
			modules[i].endCol = modules[i+1].startCol - 1
		} else {
			modules[i].endCol = width - 2
		}
	}
	return modules
}

func parseModule(cell func(int, int) string, row int, m sheetModule, width int) map[string]any {
	matieres := map[string]any{}
	lastMatiereCol := -1

	for col := m.startCol; col <= m.endCol; {
		header := cell(4, col)
		if !strings.Contains(header, ":") {
			col++
			continue
		}
		code, name, _ := strings.Cut(header, ":")
		matieres[strings.TrimSpace(code)] = map[string]any{
			"name": strings.TrimSpace(name),
			"coef": numericValue(cell(3, col)),
			"notes": map[string]any{
				"NCC":   numericValue(cell(row, col)),
				"NSN":   numericValue(cell(row, col+1)),
				"NSR":   numericValue(cell(row, col+2)),
				"Moy":   numericValue(cell(row, col+3)),
				"Capit": stringOrNil(cell(row, col+4)),
			},
		}
		lastMatiereCol = col + 4
		col += 5
	}

	// MOYENNE UE and UE Valide trail the last matière; locate them by label
	// and fall back to the adjacent columns.
	moyenneCol, ueValideCol := -1, -1
	limit := m.endCol + 5
	if limit > width {
		limit = width
	}
	for col := m.startCol; col < limit; col++ {
		label := strings.ToUpper(cell(5, col))
		if strings.Contains(label, "MOYENNE UE") && moyenneCol < 0 {
			moyenneCol = col
		} else if strings.Contains(label, "UE VALID") {
			ueValideCol = col
			if moyenneCol < 0 {
				moyenneCol = col - 1
			}
			break
		}
	}
	if moyenneCol < 0 && lastMatiereCol >= 0 {
		moyenneCol = lastMatiereCol + 1
	}
	if ueValideCol < 0 && moyenneCol >= 0 {
		ueValideCol = moyenneCol + 1
	}

	doc := map[string]any{
		"name":     m.name,
		"matieres": matieres,
	}
	if moyenneCol >= 0 {
		doc["moyenne"] = numericValue(cell(row, moyenneCol))
	}
	if ueValideCol >= 0 {
		doc["UE_valide"] = stringOrNil(cell(row, ueValideCol))
	}
	return doc
}

// rankStudents assigns rang_general over the whole sheet and rang_department
// within each department, both by descending moyenne générale.
func rankStudents(students []*parsedStudent) {
	ordered := make([]*parsedStudent, len(students))
	copy(ordered, students)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].moyenne > ordered[j].moyenne
	})
	for rank, s := range ordered {
		s.semDoc["rang_general"] = rank + 1
	}

	byDept := map[string][]*parsedStudent{}
	for _, s := range ordered {
		byDept[s.department] = append(byDept[s.department], s)
	}
	for _, dept := range byDept {
		for rank, s := range dept {
			s.semDoc["rang_department"] = rank + 1
		}
	}
}

// notes converts parsed students into persistable note documents.
func (g *gradeSheet) notes() ([]*models.StudentNote, error) {
	out := make([]*models.StudentNote, 0, len(g.students))
	for _, s := range g.students {
		doc := map[string]any{
			"matricule":  s.matricule,
			"department": s.department,
			"prenom":     s.firstName,
			"nom":        s.lastName,
			g.semester:   s.semDoc,
		}
		data, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("encoding document for matricule %d: %w", s.matricule, err)
		}
		out = append(out, &models.StudentNote{
			Matricule:  s.matricule,
			Department: s.department,
			FirstName:  s.firstName,
			LastName:   s.lastName,
			Data:       data,
		})
	}
	return out, nil
}

// toFloat parses a grade value, accepting the French decimal comma. Anything
// unparseable counts as zero.
func toFloat(s string) float64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

// numericValue keeps numbers as numbers and non-empty non-numeric cells as
// text; empty cells become zero.
func numericValue(s string) any {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64); err == nil {
		return f
	}
	return s
}

// stringOrNil maps empty cells to nil so the stored JSON mirrors absence.
func stringOrNil(s string) any {
	if s = strings.TrimSpace(s); s == "" {
		return nil
	}
	return s
}
