package storage

import (
	"time"

	"civic-assist/internal/models"
)

// knowledgeEpoch is the nominal creation time for the built-in
// documents. A fixed date keeps embeddings and tests stable.
var knowledgeEpoch = time.Date(2025, time.January, 6, 0, 0, 0, 0, time.UTC)

// DefaultKnowledge returns the built-in knowledge base: curated civic
// guidance the assistant can ground answers on even before any report
// exists.
func DefaultKnowledge() []models.KnowledgeDocument {
	return []models.KnowledgeDocument{
		{
			ID:       "kb-reporting-guide",
			Title:    "How to report an infrastructure issue",
			Category: "guide",
			Content: "Citizens can report potholes, broken streetlights, drainage problems, " +
				"garbage accumulation and electrical hazards. Each report needs a title, a " +
				"category, a location and a short description. Photos and map coordinates " +
				"help crews find the problem faster.",
			Metadata:  map[string]interface{}{"audience": "citizen"},
			Timestamp: knowledgeEpoch,
		},
		{
			ID:       "kb-streetlight",
			Title:    "Streetlight faults",
			Category: "streetlight",
			Content: "Streetlight complaints cover dark streets, flickering lamps, damaged " +
				"light poles and burnt-out bulbs. Faulty streetlights are usually repaired " +
				"within five working days. Dark stretches near schools and hospitals are " +
				"prioritized as High.",
			Timestamp: knowledgeEpoch,
		},
		{
			ID:       "kb-road",
			Title:    "Road and pothole repairs",
			Category: "road",
			Content: "Potholes, pavement cracks, broken speed breakers, open manholes and " +
				"damaged footpaths are handled by the road maintenance team. Monsoon season " +
				"repairs can take longer; temporary filling is done within 48 hours for " +
				"hazardous potholes on arterial roads such as Chakrata Road and Rajpur Road.",
			Timestamp: knowledgeEpoch,
		},
		{
			ID:       "kb-water",
			Title:    "Drainage and water supply",
			Category: "water",
			Content: "Drainage complaints include blocked drains, sewage overflow, pipeline " +
				"leaks and waterlogging. Leaking pipelines are treated as High priority " +
				"because of water loss. Waterlogging reports spike during monsoon and are " +
				"triaged by locality.",
			Timestamp: knowledgeEpoch,
		},
		{
			ID:       "kb-electricity",
			Title:    "Electrical infrastructure",
			Category: "electricity",
			Content: "Transformer failures, exposed wires, voltage fluctuation and power " +
				"outages should be reported with the nearest pole or transformer number if " +
				"visible. Exposed or fallen wires are an immediate safety hazard and are " +
				"dispatched the same day.",
			Timestamp: knowledgeEpoch,
		},
		{
			ID:       "kb-waste",
			Title:    "Garbage and sanitation",
			Category: "waste",
			Content: "Garbage accumulation, missing dustbins, illegal dumping and litter in " +
				"public spaces go to the sanitation team. Regular collection runs daily; a " +
				"missed pickup becomes actionable after two consecutive days.",
			Timestamp: knowledgeEpoch,
		},
		{
			ID:       "kb-status",
			Title:    "What report statuses mean",
			Category: "guide",
			Content: "New means the report is awaiting triage. Pending means it is verified " +
				"and queued. Assigned means a team has been allocated. In Progress means " +
				"work has started on site. Resolved means the work is complete; citizens " +
				"can reopen within seven days if the problem persists.",
			Metadata:  map[string]interface{}{"audience": "citizen"},
			Timestamp: knowledgeEpoch,
		},
		{
			ID:       "kb-escalation",
			Title:    "Escalation policy",
			Category: "guide",
			Content: "Reports older than fourteen days without a status change are escalated " +
				"to the ward supervisor automatically. High priority safety hazards such as " +
				"exposed wires or open manholes escalate after 24 hours.",
			Metadata:  map[string]interface{}{"audience": "authority"},
			Timestamp: knowledgeEpoch,
		},
	}
}
