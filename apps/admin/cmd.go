package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/promotion"
	"github.com/trezcool/shule/core/school"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	db       *sql.DB
	conf     *core.Config
	resolver *school.Resolver
	advancer *promotion.Advancer
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate COMMAND [ARGS] - manage database migrations (up, down, status, ...)")
	fmt.Println("  advance -classroom ID [-year YYYY/YYYY] [-approver ID] [-no-create] - advance a classroom's students to the next academic year")
	fmt.Println("  verify -classroom ID [-year YYYY/YYYY] - check classroom capacity for an advancement, without changing anything")
	fmt.Println("  assignstream -student ID -stream NAME - record a student's subject stream (science, commercial, arts)")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	advanceCmd := flag.NewFlagSet("advance", flag.ExitOnError)
	advanceRoom := advanceCmd.String("classroom", "", "The classroom whose students are advanced.")
	advanceYear := advanceCmd.String("year", cli.conf.School.AcademicYear, "The academic year whose results are evaluated.")
	advanceApprover := advanceCmd.String("approver", "", "The administrator approving the batch.")
	advanceNoCreate := advanceCmd.Bool("no-create", false, "Do not create new sections when existing ones are full.")

	verifyCmd := flag.NewFlagSet("verify", flag.ExitOnError)
	verifyRoom := verifyCmd.String("classroom", "", "The classroom to check.")
	verifyYear := verifyCmd.String("year", cli.conf.School.AcademicYear, "The academic year whose results are evaluated.")

	assignStreamCmd := flag.NewFlagSet("assignstream", flag.ExitOnError)
	assignStreamStudent := assignStreamCmd.String("student", "", "The student's id.")
	assignStreamName := assignStreamCmd.String("stream", "", "The stream name: science, commercial or arts.")

	ctx := context.Background()

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "advance":
		if err := advanceCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *advanceRoom == "" || *advanceYear == "" {
			advanceCmd.Usage()
			return errHelp
		}
		rep, err := cli.advancer.AdvanceClassroom(ctx, *advanceRoom, promotion.BatchOptions{
			AcademicYear:    *advanceYear,
			Actor:           core.Actor{ID: *advanceApprover},
			AutoCreate:      !*advanceNoCreate,
			DefaultCapacity: cli.conf.School.DefaultClassCapacity,
		})
		if err != nil {
			return err
		}
		fmt.Print(rep)
		return nil
	case "verify":
		if err := verifyCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *verifyRoom == "" || *verifyYear == "" {
			verifyCmd.Usage()
			return errHelp
		}
		rep, err := cli.advancer.VerifyClassroom(ctx, *verifyRoom, promotion.BatchOptions{
			AcademicYear:    *verifyYear,
			DefaultCapacity: cli.conf.School.DefaultClassCapacity,
		})
		if err != nil {
			return err
		}
		fmt.Print(rep)
		return nil
	case "assignstream":
		if err := assignStreamCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *assignStreamStudent == "" || *assignStreamName == "" {
			assignStreamCmd.Usage()
			return errHelp
		}
		return cli.resolver.AssignStream(ctx, *assignStreamStudent, school.StreamName(*assignStreamName))
	default:
		cli.printUsage()
		return errHelp
	}
}
