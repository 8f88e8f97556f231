package chat

import (
	"testing"

	"github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/assert"
)

func TestQualityLevel(t *testing.T) {
	tests := []struct {
		name string
		rtt  float64
		ok   bool
		want Quality
	}{
		{name: "unknown", ok: false, want: QualityUnknown},
		{name: "zero", rtt: 0, ok: true, want: QualityGood},
		{name: "just under good", rtt: 0.149999, ok: true, want: QualityGood},
		{name: "good boundary", rtt: 0.15, ok: true, want: QualityFair},
		{name: "just under fair", rtt: 0.399999, ok: true, want: QualityFair},
		{name: "fair boundary", rtt: 0.4, ok: true, want: QualityPoor},
		{name: "very slow", rtt: 3, ok: true, want: QualityPoor},
		{name: "negative", rtt: -1, ok: true, want: QualityGood},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, QualityLevel(tt.rtt, tt.ok))
		})
	}
}

func TestExtractRTT(t *testing.T) {
	tests := []struct {
		name    string
		records []StatRecord
		want    float64
		wantOK  bool
	}{
		{name: "nil", records: nil},
		{name: "empty", records: []StatRecord{}},
		{
			name: "last succeeded pair wins",
			records: []StatRecord{
				{Type: "candidate-pair", State: "succeeded", CurrentRoundTripTime: 0.1},
				{Type: "candidate-pair", State: "succeeded", CurrentRoundTripTime: 0.25},
			},
			want:   0.25,
			wantOK: true,
		},
		{
			name: "ignores pairs that did not succeed",
			records: []StatRecord{
				{Type: "candidate-pair", State: "succeeded", CurrentRoundTripTime: 0.05},
				{Type: "candidate-pair", State: "in-progress", CurrentRoundTripTime: 0.9},
			},
			want:   0.05,
			wantOK: true,
		},
		{
			name: "ignores other report types",
			records: []StatRecord{
				{Type: "inbound-rtp", State: "succeeded", CurrentRoundTripTime: 0.3},
				{Type: "transport"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rtt, ok := ExtractRTT(tt.records)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, rtt)
		})
	}
}

func TestQualityLevel_ComposesWithExtractRTT(t *testing.T) {
	records := []StatRecord{{Type: "candidate-pair", State: "succeeded", CurrentRoundTripTime: 0.2}}
	assert.Equal(t, QualityFair, QualityLevel(ExtractRTT(records)))
	assert.Equal(t, QualityUnknown, QualityLevel(ExtractRTT(nil)))
}

func TestStatRecordsFromReport(t *testing.T) {
	report := webrtc.StatsReport{
		"pair-b": webrtc.ICECandidatePairStats{
			ID:                   "pair-b",
			Type:                 webrtc.StatsTypeCandidatePair,
			Timestamp:            2,
			State:                webrtc.StatsICECandidatePairStateSucceeded,
			CurrentRoundTripTime: 0.5,
		},
		"pair-a": webrtc.ICECandidatePairStats{
			ID:                   "pair-a",
			Type:                 webrtc.StatsTypeCandidatePair,
			Timestamp:            1,
			State:                webrtc.StatsICECandidatePairStateSucceeded,
			CurrentRoundTripTime: 0.1,
		},
		"transport": webrtc.TransportStats{
			ID:   "transport",
			Type: webrtc.StatsTypeTransport,
		},
	}

	records := StatRecordsFromReport(report)
	assert.Len(t, records, 2)
	assert.Equal(t, 0.1, records[0].CurrentRoundTripTime)

	rtt, ok := ExtractRTT(records)
	assert.True(t, ok)
	assert.Equal(t, 0.5, rtt)
	assert.Equal(t, QualityPoor, QualityLevel(rtt, ok))
}
