package questionset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"
)

// jsonSchema is validated against uploads before anything is stored, so a
// malformed document is rejected with a precise message instead of silently
// producing an unanswerable question.
const jsonSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["questions"],
	"properties": {
		"questions": {
			"type": "array",
			"minItems": 1,
			"items": {
				"type": "object",
				"required": ["question", "options", "correct_answer"],
				"properties": {
					"question": {"type": "string", "minLength": 1},
					"options": {
						"type": "array",
						"minItems": 2,
						"items": {"type": "string"}
					},
					"correct_answer": {"type": "integer", "minimum": 0}
				}
			}
		}
	}
}`

var schemaLoader = gojsonschema.NewStringLoader(jsonSchema)

// ParseJSON decodes and validates a JSON question-set document.
func ParseJSON(data []byte) (Set, error) {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return Set{}, fmt.Errorf("validate question set: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return Set{}, fmt.Errorf("invalid question set: %s", strings.Join(msgs, "; "))
	}

	var set Set
	if err := json.Unmarshal(data, &set); err != nil {
		return Set{}, fmt.Errorf("decode question set: %w", err)
	}
	if err := set.Validate(); err != nil {
		return Set{}, err
	}
	return set, nil
}

// ParseYAML decodes and validates a YAML question-set document.
func ParseYAML(data []byte) (Set, error) {
	var set Set
	if err := yaml.Unmarshal(data, &set); err != nil {
		return Set{}, fmt.Errorf("decode question set: %w", err)
	}
	if err := set.Validate(); err != nil {
		return Set{}, err
	}
	return set, nil
}

// ParseXLSX reads a question set from a spreadsheet. The first sheet is
// used; column A holds the question text, columns B onward hold the options,
// and the last non-empty cell of each row is the 1-based number of the
// correct option. A header row starting with "question" is skipped.
func ParseXLSX(data []byte) (Set, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return Set{}, fmt.Errorf("open spreadsheet: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return Set{}, fmt.Errorf("spreadsheet has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return Set{}, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}

	var set Set
	for i, row := range rows {
		row = trimTrailingEmpty(row)
		if len(row) == 0 {
			continue
		}
		if i == 0 && strings.EqualFold(strings.TrimSpace(row[0]), "question") {
			continue
		}
		if len(row) < 4 {
			return Set{}, fmt.Errorf("row %d: need question, at least 2 options and the correct option number", i+1)
		}

		correct, err := strconv.Atoi(strings.TrimSpace(row[len(row)-1]))
		if err != nil {
			return Set{}, fmt.Errorf("row %d: correct option number %q is not an integer", i+1, row[len(row)-1])
		}

		// Ragged sheets pad short rows with blanks before the correct
		// column; those are not options.
		set.Questions = append(set.Questions, Question{
			Text:          strings.TrimSpace(row[0]),
			Options:       trimTrailingEmpty(row[1 : len(row)-1]),
			CorrectAnswer: correct - 1,
		})
	}

	if err := set.Validate(); err != nil {
		return Set{}, err
	}
	return set, nil
}

// ParseFile picks a parser from the file extension.
func ParseFile(filename string, data []byte) (Set, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json":
		return ParseJSON(data)
	case ".yaml", ".yml":
		return ParseYAML(data)
	case ".xlsx":
		return ParseXLSX(data)
	default:
		return Set{}, fmt.Errorf("unsupported file type %q: use .json, .yaml or .xlsx", filepath.Ext(filename))
	}
}

func trimTrailingEmpty(row []string) []string {
	end := len(row)
	for end > 0 && strings.TrimSpace(row[end-1]) == "" {
		end--
	}
	return row[:end]
}
