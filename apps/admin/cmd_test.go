package main

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"testing"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/promotion"
	"github.com/trezcool/shule/core/school"
	inmemdb "github.com/trezcool/shule/storage/database/inmem"
	testutil "github.com/trezcool/shule/tests"
)

var (
	db          *inmemdb.DB
	studentRepo school.StudentRepository
)

func setup(t *testing.T) *commandLine {
	t.Helper()
	db = testutil.PrepareDB(t)

	studentRepo = inmemdb.NewStudentRepository(db)
	classRepo := inmemdb.NewClassroomRepository(db)
	streamRepo := inmemdb.NewStreamRepository(db)

	svc := promotion.NewService(
		inmemdb.NewRuleRepository(db),
		inmemdb.NewResultRepository(db),
		inmemdb.NewAttendanceRepository(db),
		studentRepo,
		nil,
	)
	resolver := school.NewResolver(studentRepo, classRepo, streamRepo, nil)
	advancer := promotion.NewAdvancer(db, svc, resolver, studentRepo, classRepo,
		inmemdb.NewEnrollmentRepository(db), inmemdb.NewDecisionRepository(db), nil)

	return &commandLine{
		conf: &core.Config{
			School: core.SchoolConfig{AcademicYear: "2025/2026", DefaultClassCapacity: 40},
		},
		resolver: resolver,
		advancer: advancer,
	}
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t)

	gooseRunFunc = func(command string, db *sql.DB, dir string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-by-one", args: []string{"migrate", "up-by-one"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "reset", args: []string{"migrate", "reset"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
		{name: "create", args: []string{"migrate", "create", "stream", "sql"}},
		{name: "fix", args: []string{"migrate", "fix"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			if err := cli.run(args); err != nil {
				if tt.wantErr != nil {
					if err != tt.wantErr {
						t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
					}
				} else if tt.wantErrStr != "" {
					if err.Error() != tt.wantErrStr {
						t.Errorf("cli.run() error.Error() = %s, wantErrStr %s", err.Error(), tt.wantErrStr)
					}
				} else {
					t.Errorf("cli.run() unexpected error = %v", err)
				}
			}
		})
	}
}

func Test_commandLine_advance(t *testing.T) {
	cli := setup(t)

	room := testutil.CreateClassroom(t, db, school.LevelJSS1, null.String{}, "A", 40)
	testutil.CreateClassroom(t, db, school.LevelJSS2, null.String{}, "A", 40)
	testutil.CreateRule(t, db, promotion.Rule{
		ClassLevel:       school.LevelJSS1,
		ToClassLevel:     null.StringFrom(string(school.LevelJSS2)),
		MinAnnualAverage: 50,
	})
	student := testutil.CreateStudent(t, db, "Ada", "ADM001", school.LevelJSS1, null.StringFrom(room.ID), null.String{})
	for term := 1; term <= 3; term++ {
		testutil.AddTermResult(t, db, student.ID, "2025/2026", term, 60, 1)
	}
	testutil.AddAttendance(t, db, student.ID, "2025/2026", 18, 20)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "advance: no classroom", args: []string{"advance"}, wantErr: errHelp},
		{name: "advance: unknown classroom", args: []string{"advance", "-classroom", "lol"}, wantErr: school.ErrClassroomNotFound},
		{name: "verify: no classroom", args: []string{"verify"}, wantErr: errHelp},
		{name: "verify", args: []string{"verify", "-classroom", room.ID}},
		{name: "advance", args: []string{"advance", "-classroom", room.ID}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			if err := cli.run(args); err != tt.wantErr {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	// the year flag defaulted from config and the batch went through
	refreshed, err := studentRepo.GetStudentByID(context.Background(), student.ID)
	if err != nil {
		t.Fatalf("GetStudentByID() failed: %v", err)
	}
	if refreshed.ClassLevel != school.LevelJSS2 {
		t.Errorf("student level = %s, want JSS2", refreshed.ClassLevel)
	}
}

func Test_commandLine_assignStream(t *testing.T) {
	cli := setup(t)

	student := testutil.CreateStudent(t, db, "Bola", "ADM001", school.LevelJSS3, null.String{}, null.String{})

	tests := []cliTest{
		{name: "no args", args: []string{"assignstream"}, wantErr: errHelp},
		{name: "no stream", args: []string{"assignstream", "-student", student.ID}, wantErr: errHelp},
		{name: "unknown student", args: []string{"assignstream", "-student", "lol", "-stream", "arts"}, wantErr: school.ErrStudentNotFound},
		{name: "assign", args: []string{"assignstream", "-student", student.ID, "-stream", "science"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			if err := cli.run(args); err != tt.wantErr {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	refreshed, err := studentRepo.GetStudentByID(context.Background(), student.ID)
	if err != nil {
		t.Fatalf("GetStudentByID() failed: %v", err)
	}
	if refreshed.Stream.String != "science" {
		t.Errorf("student stream = %v, want science", refreshed.Stream)
	}
}
