package gateway

import (
	"context"
	"fmt"
	"hash/fnv"

	"complaint-service/internal/model"
)

// MockAdapter is a deterministic stand-in for the AI service, used when
// AI_MOCK_FALLBACK is enabled and the real gateway is unreachable. The same
// complaint always yields the same classification, so nothing about an outage
// is hidden behind shifting data.
type MockAdapter struct{}

var mockIssues = []Issue{
	{
		Category:        model.CategoryGarbage,
		Department:      model.DepartmentSanitation,
		Severity:        string(model.TicketSeverityMedium),
		SuggestedTools:  []string{"Garbage truck", "Shovels", "Bins"},
		SafetyEquipment: []string{"Gloves", "Masks"},
	},
	{
		Category:        model.CategoryManholeDamage,
		Department:      model.DepartmentRoads,
		Severity:        string(model.TicketSeverityHigh),
		SuggestedTools:  []string{"Replacement cover", "Barricades"},
		SafetyEquipment: []string{"Helmets", "Reflective vests"},
	},
	{
		Category:        model.CategoryWaterLeakage,
		Department:      model.DepartmentWater,
		Severity:        string(model.TicketSeverityMedium),
		SuggestedTools:  []string{"Pipe wrench", "Sealant"},
		SafetyEquipment: []string{"Gloves", "Boots"},
	},
	{
		Category:        model.CategoryDrainageOverflow,
		Department:      model.DepartmentDrainage,
		Severity:        string(model.TicketSeverityHigh),
		SuggestedTools:  []string{"Drain rods", "Suction pump"},
		SafetyEquipment: []string{"Gloves", "Masks", "Boots"},
	},
}

func (MockAdapter) AnalyzeComplaint(ctx context.Context, req AnalyzeRequest) (ClassificationResult, error) {
	h := hashBytes(req.Image)
	issue := mockIssues[h%uint64(len(mockIssues))]
	return ClassificationResult{
		Valid:  true,
		Issues: []Issue{issue},
	}, nil
}

func (MockAdapter) VerifyCompletion(ctx context.Context, req VerifyRequest) (VerificationResult, error) {
	return VerificationResult{
		Completed: false,
		Message:   "mock verifier: manual review required",
	}, nil
}

func (MockAdapter) PredictReport(ctx context.Context, tickets []ReportTicket) (string, error) {
	return fmt.Sprintf("<p>Mock report over %d tickets.</p>", len(tickets)), nil
}

func hashBytes(b []byte) uint64 {
	h := fnv.New64a()
	_, _ = h.Write(b)
	return h.Sum64()
}
