package main

import (
	"errors"
	"flag"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/ukuaji/core"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	conf   *core.Config
	db     *sqlx.DB
	logger core.Logger
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  import [-root DIR] - parse the feedback documents under DIR (default: configured data root) and reconcile them into the store")
	fmt.Println("  addstudent -name NAME -grade GRADE - add a student to the roster")
	fmt.Println("  migrate COMMAND [ARGS] - run database migrations (up, down, status, ...)")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	importCmd := flag.NewFlagSet("import", flag.ExitOnError)
	importRoot := importCmd.String("root", "", "The corpus directory to walk. Defaults to the configured data root.")

	addStudentCmd := flag.NewFlagSet("addstudent", flag.ExitOnError)
	addStudentName := addStudentCmd.String("name", "", "The student's full name.")
	addStudentGrade := addStudentCmd.String("grade", "", "The student's grade, e.g. \"Grade 8\".")

	switch args[1] {
	case "import":
		if err := importCmd.Parse(args[2:]); err != nil {
			return err
		}
		root := *importRoot
		if root == "" {
			root = cli.conf.DataRoot
		}
		return cli.importDocs(root)
	case "addstudent":
		if err := addStudentCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addStudentName == "" || *addStudentGrade == "" {
			addStudentCmd.Usage()
			return errHelp
		}
		return cli.addStudent(*addStudentName, *addStudentGrade)
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	default:
		cli.printUsage()
		return errHelp
	}
}
