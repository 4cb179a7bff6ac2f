// Package shell provides the interactive Specter prompt. It builds the
// capability modules at startup, handles the reserved control words and
// routes everything else through the command router.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"specter/internal/output"
	"specter/internal/version"

	"github.com/abiosoft/ishell/v2"
	"github.com/chzyer/readline"
)

// Prompt is shown before each line of input.
const Prompt = "specter> "

// Run reads lines until the user quits or input ends. Lines are read raw so
// apostrophes and quotes reach the router untouched. Ctrl-C while a command
// runs cancels that command only; Ctrl-C twice at the prompt exits.
func Run(ctx context.Context, session *Session, printer *output.Printer) {
	sh := ishell.New()
	defer sh.Close()
	sh.SetPrompt(Prompt)

	PrintBanner(session, printer)

	interrupted := false
	for {
		line, err := sh.ReadLineErr()
		if errors.Is(err, readline.ErrInterrupt) {
			if interrupted {
				return
			}
			interrupted = true
			printer.Muted("Press Ctrl-C again or type 'quit' to exit.")
			continue
		}
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			printer.Error("Failed to read input: " + err.Error())
			return
		}
		interrupted = false

		cmdCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
		quit := ProcessInput(cmdCtx, session, printer, line)
		stop()
		if quit || ctx.Err() != nil {
			return
		}
	}
}

// ProcessInput prints due reminders, then the response to line. It reports
// whether the session should end.
func ProcessInput(ctx context.Context, session *Session, printer *output.Printer, line string) bool {
	for _, notice := range session.DueReminders() {
		printer.Warning(notice)
	}

	response, quit := session.Process(ctx, line)
	if response != "" {
		printer.Response(response)
	}
	return quit
}

// PrintBanner shows the version, active module count and a usage hint.
func PrintBanner(session *Session, printer *output.Printer) {
	active, total := session.assistant.Registry.ActiveCount()
	printer.Banner(
		version.GetFormattedVersion(),
		fmt.Sprintf("Hello, %s! %d/%d modules active.", session.assistant.Config.UserName, active, total),
		"Type 'help' for commands, 'status' for modules or 'quit' to exit.",
	)
}
