package main

import (
	"log/slog"

	"github.com/sable-ops/bouncer/internal/childproc"
)

// childExecutor implements votes.Executor by forwarding an approved
// command verbatim to the supervised child's stdin, on behalf of
// applicant. The applicant is only used for logging — the child has no
// notion of who proposed a command.
type childExecutor struct {
	log   *slog.Logger
	child *childproc.ChildProcess
}

func (e *childExecutor) Execute(command, applicant string) {
	if err := e.child.Send([]byte(command + "\n")); err != nil {
		e.log.Warn("failed to forward approved command to child", "command", command, "applicant", applicant, "error", err)
	}
}
