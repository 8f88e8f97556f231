package chat

import (
	"sort"
	"time"

	"github.com/pion/webrtc/v4"
)

// Quality is the CSS class shown on the connection quality indicator.
type Quality string

const (
	QualityUnknown Quality = ""
	QualityGood    Quality = "quality-good"
	QualityFair    Quality = "quality-fair"
	QualityPoor    Quality = "quality-poor"
)

// QualityPollInterval is how often a connected peer samples its stats.
const QualityPollInterval = 3 * time.Second

const (
	goodRTTLimit = 0.15
	fairRTTLimit = 0.4
)

// QualityLevel buckets a round-trip time in seconds. ok=false means no
// sample was available.
func QualityLevel(rtt float64, ok bool) Quality {
	switch {
	case !ok:
		return QualityUnknown
	case rtt < goodRTTLimit:
		return QualityGood
	case rtt < fairRTTLimit:
		return QualityFair
	default:
		return QualityPoor
	}
}

// StatRecord is the subset of a stats report entry ExtractRTT looks at.
type StatRecord struct {
	Type                 string
	State                string
	CurrentRoundTripTime float64
}

// ExtractRTT returns the round-trip time of the last succeeded candidate
// pair in records.
func ExtractRTT(records []StatRecord) (float64, bool) {
	var (
		rtt   float64
		found bool
	)
	for _, r := range records {
		if r.Type == string(webrtc.StatsTypeCandidatePair) &&
			r.State == string(webrtc.StatsICECandidatePairStateSucceeded) {
			rtt = r.CurrentRoundTripTime
			found = true
		}
	}
	return rtt, found
}

// StatRecordsFromReport flattens the candidate pairs of a pion stats report.
// Reports are maps, so pairs are ordered by timestamp and then stats ID to
// give "last wins" a stable meaning.
func StatRecordsFromReport(report webrtc.StatsReport) []StatRecord {
	pairs := make([]webrtc.ICECandidatePairStats, 0, len(report))
	for _, s := range report {
		if pair, ok := s.(webrtc.ICECandidatePairStats); ok {
			pairs = append(pairs, pair)
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Timestamp != pairs[j].Timestamp {
			return pairs[i].Timestamp < pairs[j].Timestamp
		}
		return pairs[i].ID < pairs[j].ID
	})

	records := make([]StatRecord, 0, len(pairs))
	for _, pair := range pairs {
		records = append(records, StatRecord{
			Type:                 string(pair.Type),
			State:                string(pair.State),
			CurrentRoundTripTime: pair.CurrentRoundTripTime,
		})
	}
	return records
}
