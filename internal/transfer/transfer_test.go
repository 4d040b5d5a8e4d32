package transfer

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/mind-engage/mindengage-quiz/internal/apperr"
	"github.com/mind-engage/mindengage-quiz/internal/content"
	"github.com/mind-engage/mindengage-quiz/internal/db/dbtest"
	"github.com/mind-engage/mindengage-quiz/internal/grading"
)

func strp(s string) *string { return &s }

func sampleBank() Bank {
	return Bank{
		QuizSet: BankSet{Title: "Geo", ExportedAt: time.Unix(1_700_000_000, 0).UTC()},
		Questions: []BankQuestion{
			{
				QuestionText: "Capital of France?",
				QuestionType: grading.TypeSingleChoice,
				Category:     strp("capitals"),
				Explanation:  "Paris since 508",
				Tags:         []string{"europe"},
				Options:      []BankOption{{Text: "Paris", IsCorrect: true}, {Text: "Lyon"}},
			},
			{
				QuestionText: "Nordic countries?",
				QuestionType: grading.TypeMultiChoice,
				Difficulty:   strp("hard"),
				Options: []BankOption{
					{Text: "Norway", IsCorrect: true}, {Text: "Finland", IsCorrect: true}, {Text: "Spain"},
				},
			},
		},
	}
}

func TestXLSXLayout(t *testing.T) {
	var buf bytes.Buffer
	if err := EncodeXLSX(&buf, sampleBank()); err != nil {
		t.Fatalf("EncodeXLSX: %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := f.GetRows(sheetName)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	want := []string{"题目", "题型", "分类", "难度", "解析", "标签", "选项A", "选项A是否正确", "选项B", "选项B是否正确", "选项C", "选项C是否正确"}
	if strings.Join(rows[0], "|") != strings.Join(want, "|") {
		t.Fatalf("header = %v", rows[0])
	}
	if rows[1][1] != "单选" || rows[2][1] != "多选" || rows[1][7] != "是" || rows[1][9] != "否" {
		t.Fatalf("rows = %v", rows[1:])
	}
}

func TestXLSXDecodeMatchesEncode(t *testing.T) {
	var buf bytes.Buffer
	if err := EncodeXLSX(&buf, sampleBank()); err != nil {
		t.Fatal(err)
	}
	b, err := DecodeXLSX(&buf)
	if err != nil {
		t.Fatalf("DecodeXLSX: %v", err)
	}
	if len(b.Questions) != 2 {
		t.Fatalf("questions = %d", len(b.Questions))
	}
	q1, q2 := b.Questions[0], b.Questions[1]
	if q1.QuestionType != grading.TypeSingleChoice || *q1.Category != "capitals" || q1.Difficulty != nil ||
		len(q1.Tags) != 1 || len(q1.Options) != 2 || !q1.Options[0].IsCorrect || q1.Options[1].IsCorrect {
		t.Fatalf("q1 = %+v", q1)
	}
	if q2.QuestionType != grading.TypeMultiChoice || len(q2.Options) != 3 || !q2.Options[1].IsCorrect {
		t.Fatalf("q2 = %+v", q2)
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, err := DecodeXLSX(strings.NewReader("not a workbook")); !apperr.Is(err, apperr.InvalidArgument) {
		t.Fatalf("DecodeXLSX err = %v", err)
	}
	if _, err := DecodeJSON(strings.NewReader(`{"questions": 3}`)); !apperr.Is(err, apperr.InvalidArgument) {
		t.Fatalf("DecodeJSON err = %v", err)
	}
	if _, err := DecodeJSON(strings.NewReader(`{}`)); !apperr.Is(err, apperr.InvalidArgument) {
		t.Fatalf("DecodeJSON missing questions err = %v", err)
	}
}

func TestImportIsAllOrNothing(t *testing.T) {
	dbh := dbtest.Open(t)
	alice := dbtest.SeedUser(t, dbh, "alice")
	bob := dbtest.SeedUser(t, dbh, "bob")
	setID := dbtest.SeedQuizSet(t, dbh, alice, "Geo")
	svc := NewService(dbh, content.NewService(dbh))
	ctx := context.Background()

	bad := sampleBank()
	bad.Questions = append(bad.Questions, BankQuestion{QuestionText: "no answer", Options: []BankOption{{Text: "x"}}})
	if _, err := svc.Import(ctx, alice, setID, bad); !apperr.Is(err, apperr.InvalidArgument) {
		t.Fatalf("bad bank err = %v", err)
	} else if !strings.Contains(apperr.Message(err), "question 3") {
		t.Fatalf("message = %q", apperr.Message(err))
	}
	if _, err := svc.Import(ctx, bob, setID, sampleBank()); !apperr.Is(err, apperr.Forbidden) {
		t.Fatalf("foreign import err = %v", err)
	}
	var n int
	dbh.QueryRow(`SELECT COUNT(*) FROM questions`).Scan(&n)
	if n != 0 {
		t.Fatalf("questions after rejected imports = %d", n)
	}

	res, err := svc.Import(ctx, alice, setID, sampleBank())
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if res.ImportedCount != 2 || res.BatchID == "" {
		t.Fatalf("result = %+v", res)
	}

	var buf bytes.Buffer
	exported, err := svc.Export(ctx, alice, setID)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if err := EncodeJSON(&buf, exported); err != nil {
		t.Fatal(err)
	}
	back, err := DecodeJSON(&buf)
	if err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
	if back.QuizSet.Title != "Geo" || len(back.Questions) != 2 || back.Questions[0].Tags[0] != "europe" {
		t.Fatalf("exported = %+v", back)
	}
	if _, err := svc.Export(ctx, bob, setID); !apperr.Is(err, apperr.Forbidden) {
		t.Fatalf("foreign export err = %v", err)
	}
}
