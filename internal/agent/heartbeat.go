package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"spaceblack/internal/brain"
	"spaceblack/internal/logging"
)

// heartbeatInterval is how long the agent sleeps between autonomous
// wakeups.
const heartbeatInterval = 3 * time.Hour

// okStatus is the model's "nothing to report" sentinel. Anything else
// in the response is surfaced to the user.
const okStatus = "Status: OK"

type heartbeatState struct {
	LastRun int64  `json:"last_run"`
	Status  string `json:"status"`
}

// Heartbeat wakes the agent for its background routine when the
// interval has elapsed (or force is set). It returns a message for the
// user, or "" when everything is quiet.
func (a *Agent) Heartbeat(ctx context.Context, force bool) (string, error) {
	lastRun := readHeartbeatState(a.paths.HeartbeatState)
	now := time.Now()
	if !force && now.Sub(time.Unix(lastRun, 0)) < heartbeatInterval {
		return "", nil
	}

	logging.Agent("Heartbeat waking up (force=%v)", force)
	instructions := brain.ReadFileSafe(a.paths.HeartbeatFile, "Report status.")
	identity := brain.ReadFileSafe(a.paths.IdentityFile, "")

	prompt := fmt.Sprintf(`[SYSTEM WAKEUP - AUTONOMOUS HEARTBEAT]
You are %s.
You have just woken up for a scheduled background check.

[INSTRUCTIONS]
%s

[TASK]
Perform the check.
- If everything is normal and no action is needed, reply with 'Status: OK'.
- If there is something the user needs to know (e.g. system alert, suggestion), write a short message.`,
		identity, instructions)

	response, err := a.Client().Complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("heartbeat: %w", err)
	}

	if err := writeHeartbeatState(a.paths.HeartbeatState, now.Unix()); err != nil {
		logging.Get(logging.CategoryAgent).Warn("Failed to persist heartbeat state: %v", err)
	}

	response = strings.TrimSpace(response)
	if strings.Contains(response, okStatus) {
		return "", nil
	}
	return response, nil
}

// readHeartbeatState returns the last run unix time, 0 when the state
// file is missing or unreadable.
func readHeartbeatState(path string) int64 {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0
	}
	var state heartbeatState
	if err := json.Unmarshal(data, &state); err != nil {
		return 0
	}
	return state.LastRun
}

func writeHeartbeatState(path string, lastRun int64) error {
	data, err := json.Marshal(heartbeatState{LastRun: lastRun, Status: "ok"})
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
