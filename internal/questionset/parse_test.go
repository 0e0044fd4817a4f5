package questionset_test

import (
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/osvitacode/studybot/internal/questionset"
)

const validJSON = `{
	"questions": [
		{
			"question": "Який файл зберігає метадані проєкту?",
			"options": ["setup.py", "pyproject.toml", "requirements.txt"],
			"correct_answer": 1
		},
		{
			"question": "Для чого потрібне віртуальне середовище?",
			"options": ["Швидкість", "Ізоляція залежностей"],
			"correct_answer": 1
		}
	]
}`

func TestParseJSON_Valid(t *testing.T) {
	set, err := questionset.ParseJSON([]byte(validJSON))
	if err != nil {
		t.Fatalf("ParseJSON() error = %v", err)
	}
	if set.Count() != 2 {
		t.Errorf("Count() = %d, want 2", set.Count())
	}

	q, ok := set.At(0)
	if !ok {
		t.Fatal("At(0) not found")
	}
	if q.CorrectAnswer != 1 {
		t.Errorf("CorrectAnswer = %d, want 1", q.CorrectAnswer)
	}
	if len(q.Options) != 3 {
		t.Errorf("Options = %d, want 3", len(q.Options))
	}
}

func TestParseJSON_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not json", `{"questions": [`},
		{"no questions key", `{"items": []}`},
		{"empty questions", `{"questions": []}`},
		{"missing options", `{"questions": [{"question": "q?", "correct_answer": 0}]}`},
		{"one option", `{"questions": [{"question": "q?", "options": ["a"], "correct_answer": 0}]}`},
		{"negative answer", `{"questions": [{"question": "q?", "options": ["a", "b"], "correct_answer": -1}]}`},
		{"answer out of range", `{"questions": [{"question": "q?", "options": ["a", "b"], "correct_answer": 2}]}`},
		{"empty question text", `{"questions": [{"question": "", "options": ["a", "b"], "correct_answer": 0}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := questionset.ParseJSON([]byte(tt.doc)); err == nil {
				t.Error("ParseJSON() should reject document")
			}
		})
	}
}

func TestParseYAML_Valid(t *testing.T) {
	doc := `
questions:
  - question: "Що таке змінна?"
    options: ["Контейнер для значення", "Функція", "Цикл"]
    correct_answer: 0
`
	set, err := questionset.ParseYAML([]byte(doc))
	if err != nil {
		t.Fatalf("ParseYAML() error = %v", err)
	}
	if set.Count() != 1 {
		t.Errorf("Count() = %d, want 1", set.Count())
	}
}

func TestParseYAML_OutOfRangeAnswer(t *testing.T) {
	doc := `
questions:
  - question: "q?"
    options: ["a", "b"]
    correct_answer: 5
`
	if _, err := questionset.ParseYAML([]byte(doc)); err == nil {
		t.Error("ParseYAML() should reject out-of-range answer")
	}
}

func TestParseXLSX_RoundTrip(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]any{
		{"question", "options", "", "", "correct"},
		{"Що виведе print(2+2)?", "22", "4", "помилку", 2},
		{"Який тип у 'hello'?", "str", "int", "", 1},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("CoordinatesToCellName() error = %v", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("SetSheetRow() error = %v", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer() error = %v", err)
	}

	set, err := questionset.ParseXLSX(buf.Bytes())
	if err != nil {
		t.Fatalf("ParseXLSX() error = %v", err)
	}
	if set.Count() != 2 {
		t.Fatalf("Count() = %d, want 2", set.Count())
	}

	q, _ := set.At(0)
	if q.CorrectAnswer != 1 {
		t.Errorf("q0 CorrectAnswer = %d, want 1 (1-based 2 in sheet)", q.CorrectAnswer)
	}
	if len(q.Options) != 3 {
		t.Errorf("q0 Options = %v, want 3 options", q.Options)
	}

	q, _ = set.At(1)
	if len(q.Options) != 2 {
		t.Errorf("q1 Options = %v, want 2 options (trailing blank trimmed)", q.Options)
	}
	if q.CorrectAnswer != 0 {
		t.Errorf("q1 CorrectAnswer = %d, want 0", q.CorrectAnswer)
	}
}

func TestParseXLSX_BadCorrectColumn(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	row := []any{"q?", "a", "b", "not-a-number"}
	if err := f.SetSheetRow(sheet, "A1", &row); err != nil {
		t.Fatalf("SetSheetRow() error = %v", err)
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer() error = %v", err)
	}

	if _, err := questionset.ParseXLSX(buf.Bytes()); err == nil {
		t.Error("ParseXLSX() should reject non-numeric correct column")
	}
}

func TestParseFile_Dispatch(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		data     string
		wantErr  bool
	}{
		{"json", "test.json", validJSON, false},
		{"yaml", "test.yaml", "questions:\n  - question: q?\n    options: [a, b]\n    correct_answer: 0\n", false},
		{"yml", "test.yml", "questions:\n  - question: q?\n    options: [a, b]\n    correct_answer: 1\n", false},
		{"unsupported", "test.txt", "whatever", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := questionset.ParseFile(tt.filename, []byte(tt.data))
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseFile() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMarshalJSONDocument(t *testing.T) {
	set, err := questionset.ParseJSON([]byte(validJSON))
	if err != nil {
		t.Fatalf("ParseJSON() error = %v", err)
	}

	doc, err := set.MarshalJSONDocument()
	if err != nil {
		t.Fatalf("MarshalJSONDocument() error = %v", err)
	}
	if !strings.Contains(string(doc), `"correct_answer"`) {
		t.Error("document should contain correct_answer fields")
	}

	reparsed, err := questionset.ParseJSON(doc)
	if err != nil {
		t.Fatalf("re-ParseJSON() error = %v", err)
	}
	if reparsed.Count() != set.Count() {
		t.Errorf("reparsed Count() = %d, want %d", reparsed.Count(), set.Count())
	}
}
