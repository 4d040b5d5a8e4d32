package transfer

import (
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/mind-engage/mindengage-quiz/internal/apperr"
	"github.com/mind-engage/mindengage-quiz/internal/grading"
)

// Spreadsheet layout: one question per row, options as column pairs.
const (
	sheetName     = "题目列表"
	colText       = "题目"
	colType       = "题型"
	colCategory   = "分类"
	colDifficulty = "难度"
	colExplain    = "解析"
	colTags       = "标签"

	typeSingle = "单选"
	typeMulti  = "多选"
	yes        = "是"
	no         = "否"

	maxOptions = 26
)

func optionHeaders(i int) (text, correct string) {
	letter := string(rune('A' + i))
	return "选项" + letter, "选项" + letter + "是否正确"
}

// EncodeXLSX writes the bank as a single-sheet workbook.
func EncodeXLSX(w io.Writer, b Bank) error {
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return err
	}

	width := 0
	for _, q := range b.Questions {
		if len(q.Options) > width {
			width = len(q.Options)
		}
	}
	if width > maxOptions {
		return apperr.Newf(apperr.InvalidArgument, "questions with more than %d options cannot be exported to a spreadsheet", maxOptions)
	}
	header := []any{colText, colType, colCategory, colDifficulty, colExplain, colTags}
	for i := 0; i < width; i++ {
		t, c := optionHeaders(i)
		header = append(header, t, c)
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return err
	}

	for r, q := range b.Questions {
		typ := typeSingle
		if q.QuestionType == grading.TypeMultiChoice {
			typ = typeMulti
		}
		row := []any{q.QuestionText, typ, deref(q.Category), deref(q.Difficulty), q.Explanation, strings.Join(q.Tags, ",")}
		for _, o := range q.Options {
			flag := no
			if o.IsCorrect {
				flag = yes
			}
			row = append(row, o.Text, flag)
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return err
		}
	}
	return f.Write(w)
}

// DecodeXLSX reads the first sheet of a workbook in the layout EncodeXLSX
// writes. Rows without question text are skipped.
func DecodeXLSX(r io.Reader) (Bank, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return Bank{}, apperr.Wrap(apperr.InvalidArgument, "unreadable spreadsheet", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return Bank{}, apperr.New(apperr.InvalidArgument, "spreadsheet has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return Bank{}, apperr.Wrap(apperr.InvalidArgument, "unreadable spreadsheet", err)
	}
	if len(rows) == 0 {
		return Bank{}, apperr.New(apperr.InvalidArgument, "spreadsheet is empty")
	}

	idx := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		idx[strings.TrimSpace(h)] = i
	}
	if _, ok := idx[colText]; !ok {
		return Bank{}, apperr.Newf(apperr.InvalidArgument, "missing %q column", colText)
	}
	cell := func(row []string, name string) string {
		i, ok := idx[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	b := Bank{QuizSet: BankSet{Title: sheets[0]}, Questions: []BankQuestion{}}
	for _, row := range rows[1:] {
		text := cell(row, colText)
		if text == "" {
			continue
		}
		q := BankQuestion{
			QuestionText: text,
			QuestionType: grading.TypeSingleChoice,
			Category:     optional(cell(row, colCategory)),
			Difficulty:   optional(cell(row, colDifficulty)),
			Explanation:  cell(row, colExplain),
			Tags:         splitTags(cell(row, colTags)),
		}
		if cell(row, colType) == typeMulti {
			q.QuestionType = grading.TypeMultiChoice
		}
		for i := 0; i < maxOptions; i++ {
			th, ch := optionHeaders(i)
			if _, ok := idx[th]; !ok {
				break
			}
			t := cell(row, th)
			if t == "" {
				continue
			}
			q.Options = append(q.Options, BankOption{Text: t, IsCorrect: truthy(cell(row, ch))})
		}
		b.Questions = append(b.Questions, q)
	}
	return b, nil
}

func truthy(s string) bool {
	switch strings.ToLower(s) {
	case yes, "true", "1", "y", "yes", "√", "✓":
		return true
	}
	return false
}

func splitTags(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, p := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '，' || r == ';' }) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
