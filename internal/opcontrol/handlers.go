package opcontrol

import (
	"fmt"
	"time"
)

// handleRequest dispatches a decoded Request to its handler.
func (s *Server) handleRequest(req *Request) Response {
	switch req.Method {
	case "status":
		return s.handleStatus()
	case "pause":
		return s.handlePause()
	case "resume":
		return s.handleResume()
	case "stop":
		return s.handleStop(req)
	default:
		return Response{Error: fmt.Sprintf("unknown method: %s", req.Method)}
	}
}

func (s *Server) handleStatus() Response {
	status := "running"
	if !s.target.VotesAccepted() {
		status = "paused"
	}

	return Response{Result: StatusResponse{
		Status:        status,
		ChildRunning:  s.target.ChildRunning(),
		Uptime:        time.Since(s.StartTime()).Truncate(time.Second).String(),
		StartTime:     s.StartTime().Format(time.RFC3339),
		OnlineCount:   s.target.OnlineCount(),
		BannedCount:   s.target.BannedCount(),
		PendingVotes:  s.target.PendingVoteCount(),
		VotesAccepted: s.target.VotesAccepted(),
	}}
}

// handlePause stops the vote engine from accepting new command requests,
// leaving the child process and audit pump running.
func (s *Server) handlePause() Response {
	s.target.SetVotesAccepted(false)
	return Response{Result: "paused"}
}

func (s *Server) handleResume() Response {
	s.target.SetVotesAccepted(true)
	return Response{Result: "resumed"}
}

func (s *Server) handleStop(req *Request) Response {
	force := false
	if params, ok := req.Params.(map[string]interface{}); ok {
		if f, ok := params["force"].(bool); ok {
			force = f
		}
	}

	s.target.RequestStop(force)
	s.requestStop()

	return Response{Result: "stopping"}
}
