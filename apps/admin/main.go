package main

import (
	"log"
	"os"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/promotion"
	"github.com/trezcool/shule/core/school"
	logsvc "github.com/trezcool/shule/services/logger"
	"github.com/trezcool/shule/storage/database"
	sqlxrepos "github.com/trezcool/shule/storage/database/sqlx"
)

var logger core.Logger

func main() {
	defer os.Exit(0)

	std := log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf, err := core.NewConfig()
	if err != nil {
		std.Fatal(err)
	}
	logger = logsvc.NewRollbarLogger(std, conf)
	logger.Enable(!(conf.Debug || conf.TestMode))

	// set up DB
	errAndDie(database.CreateIfNotExist(conf))
	db, err := database.Open(conf)
	errAndDie(err)
	defer func() { _ = db.Close() }()
	errAndDie(db.Ping())

	// repos
	studentRepo := sqlxrepos.NewStudentRepository(db)
	classRepo := sqlxrepos.NewClassroomRepository(db)
	streamRepo := sqlxrepos.NewStreamRepository(db)
	enrollRepo := sqlxrepos.NewEnrollmentRepository(db)
	resultRepo := sqlxrepos.NewResultRepository(db)
	attRepo := sqlxrepos.NewAttendanceRepository(db)
	ruleRepo := sqlxrepos.NewRuleRepository(db)
	decRepo := sqlxrepos.NewDecisionRepository(db)

	// services
	svc := promotion.NewService(ruleRepo, resultRepo, attRepo, studentRepo, logger)
	resolver := school.NewResolver(studentRepo, classRepo, streamRepo, logger)
	advancer := promotion.NewAdvancer(db, svc, resolver, studentRepo, classRepo, enrollRepo, decRepo, logger)

	// start CLI
	cli := commandLine{
		db:       db.DB.DB,
		conf:     conf,
		resolver: resolver,
		advancer: advancer,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			std.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err.Error())
	}
}
