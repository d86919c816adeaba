package cli

import (
	"fmt"
	"io"

	"go-migration-audit/internal/event"
	"go-migration-audit/internal/model"
)

// watchProgress prints rename activity from bus to w until stop is called.
// stop blocks until every delivered event has been printed.
func watchProgress(bus event.Bus, w io.Writer) (stop func()) {
	events, unsubscribe := bus.Subscribe()
	done := make(chan struct{})

	go func() {
		defer close(done)
		for e := range events {
			printEvent(w, e)
		}
	}()

	return func() {
		unsubscribe()
		<-done
	}
}

func printEvent(w io.Writer, e event.Event) {
	switch payload := e.Payload.(type) {
	case model.RenameIntent:
		fmt.Fprintf(w, "line %-6d %-10s %s: %q -> %q\n",
			payload.Line, "proposed", payload.ItemID, payload.CurrentName, payload.ProposedName)
	case model.RenameResult:
		intent := payload.Intent
		fmt.Fprintf(w, "line %-6d %-10s %s: %q -> %q", intent.Line, payload.Status, intent.ItemID, intent.CurrentName, intent.ProposedName)
		if payload.Reason != "" {
			fmt.Fprintf(w, " (%s)", payload.Reason)
		}
		fmt.Fprintln(w)
	case model.AuditRun:
		if e.Type == event.TypeRunStarted {
			fmt.Fprintf(w, "run %s started (%s)\n", payload.RunID, payload.Mode)
		}
	}
}
