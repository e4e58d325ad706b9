package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/trezcool/ukuaji/core"
	"github.com/trezcool/ukuaji/core/feedback"
	"github.com/trezcool/ukuaji/core/student"
	docrendersvc "github.com/trezcool/ukuaji/services/docrender"
	emailsvc "github.com/trezcool/ukuaji/services/email"
	"github.com/trezcool/ukuaji/storage/database"
)

// importDocs wires the pipeline and runs one batch import over root.
// Interrupts stop the batch between documents; records already written stay.
func (cli *commandLine) importDocs(root string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	students := student.NewService(database.NewStudentRepository(cli.db.DB))
	writer := feedback.NewService(database.NewFeedbackRepository(cli.db), cli.logger)
	renderer := docrendersvc.NewService(cli.logger, cli.conf.RenderTimeout)

	var mailSvc core.EmailService
	if cli.conf.SendgridApiKey != "" {
		mailSvc = emailsvc.NewSendgridService(cli.conf, cli.logger)
	} else {
		mailSvc = emailsvc.NewConsoleService(cli.conf)
	}

	pipe := feedback.NewPipeline(cli.conf, cli.logger, renderer, students, writer, mailSvc)
	stats, err := pipe.Run(ctx, root)
	if err != nil {
		return err
	}
	fmt.Println(stats.Summary())
	return nil
}
