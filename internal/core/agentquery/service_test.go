package agentquery

import "testing"

func TestComputeMetrics(t *testing.T) {
	rows := []*Query{
		{Status: StatusSuccess, LatencyMS: 800, Model: "gpt-4o", InputTokens: 200, OutputTokens: 100},
		{Status: StatusSuccess, LatencyMS: 1200, Model: "gpt-4o", InputTokens: 300, OutputTokens: 150},
		{Status: StatusError, LatencyMS: 400, Model: "gpt-4o-mini", InputTokens: 100, OutputTokens: 0, ErrorText: "timeout"},
	}

	m := computeMetrics(rows)

	if m.Total != 3 {
		t.Errorf("Total = %d, want 3", m.Total)
	}
	if m.SuccessRate != 66.7 {
		t.Errorf("SuccessRate = %v, want 66.7", m.SuccessRate)
	}
	if m.AvgLatencyMS != 800 {
		t.Errorf("AvgLatencyMS = %v, want 800", m.AvgLatencyMS)
	}
	if m.TokenSum != 850 {
		t.Errorf("TokenSum = %d, want 850", m.TokenSum)
	}
}

func TestComputeMetrics_Empty(t *testing.T) {
	m := computeMetrics(nil)
	if m.Total != 0 || m.SuccessRate != 0 || m.AvgLatencyMS != 0 || m.TokenSum != 0 {
		t.Errorf("empty input should produce zero metrics, got %+v", m)
	}
}
