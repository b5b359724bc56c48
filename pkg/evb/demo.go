// SPDX-License-Identifier: MPL-2.0

package evb

import "time"

// NewDemo creates a fully populated sample bundle: a short navigation
// session with two attachments. It exists so integrators can produce a
// known-good archive to exercise a verifier against.
func NewDemo() *Bundle {
	base := time.Date(2025, 11, 19, 12, 0, 0, 0, time.UTC)

	b := New("Demo Navigation AI", "0.0.1", "Novara Developer (demo)",
		WithIncidentSummary("Demo bundle showing how an evidence bundle records an AI session for later audit."),
		WithTags("demo", "navigation", "evidence-bundle"),
		WithDisclaimer("This bundle is for demonstration and testing only."),
		WithTimestamp(base),
	)

	b.AddEvent("route-planner", "calculate_route",
		WithEventTimestamp(base),
		WithInput(map[string]any{
			"origin":      "Main Gate",
			"destination": "Campus Library",
		}),
		WithOutput(map[string]any{
			"eta_minutes": 12,
			"distance_km": 0.9,
		}),
		WithEventMetadata(map[string]any{
			"model": "nav-model-demo-001",
		}),
	)
	b.AddEvent("navigation-ui", "display_route",
		WithEventTimestamp(base.Add(time.Second)),
		WithInput(map[string]any{
			"route_id": "route-demo-001",
		}),
		WithOutput(map[string]any{
			"status": "ok",
		}),
		WithEventMetadata(map[string]any{
			"channel":    "web",
			"session_id": "session-demo-001",
		}),
	)
	b.AddEvent("logger", "write_aal_entry",
		WithEventTimestamp(base.Add(2*time.Second)),
		WithInput(map[string]any{"entries": 2}),
		WithOutput(map[string]any{"status": "ok"}),
	)

	// Registered paths are fresh, so the only failure mode of AddAttachment
	// (a duplicate path) cannot occur here.
	_ = b.AddAttachment("prompt.txt", []byte(
		"System: You are an AI whose decisions must be auditable.\n"+
			"User: Please navigate me to the campus library.\n"))
	_ = b.AddAttachment("notes.md", []byte(
		"# Demo bundle\n\n"+
			"- This is a demo evidence bundle.\n"+
			"- It shows how meta.json and aal.ndjson work together.\n"))

	return b
}
