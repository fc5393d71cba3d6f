package orchestrator

import (
	"errors"
	"fmt"
	"math"

	"github.com/GoSim-25-26J-441/netgen/pkg/models"
	"google.golang.org/protobuf/encoding/protowire"
)

// Field numbers of a flow record in flows.pb
const (
	fieldFlowID            protowire.Number = 1
	fieldKind              protowire.Number = 2
	fieldLeafID            protowire.Number = 3
	fieldOrigin            protowire.Number = 4
	fieldDestination       protowire.Number = 5
	fieldOriginTier        protowire.Number = 6
	fieldDestinationTier   protowire.Number = 7
	fieldHops              protowire.Number = 8
	fieldOfferedPackets    protowire.Number = 9
	fieldDeliveredPackets  protowire.Number = 10
	fieldLostPackets       protowire.Number = 11
	fieldDeliveredBytes    protowire.Number = 12
	fieldLatencyMs         protowire.Number = 13
	fieldLatencyP95Ms      protowire.Number = 14
	fieldThroughputMbps    protowire.Number = 15
	fieldLossPct           protowire.Number = 16
	fieldActiveWindowS     protowire.Number = 17
	fieldPathPropagationMs protowire.Number = 18
	fieldDegenerate        protowire.Number = 19
	fieldQoSSatisfied      protowire.Number = 20
)

var errMalformedRecord = errors.New("malformed flow record")

// AppendFlowRecord appends one length-delimited flow record to b
func AppendFlowRecord(b []byte, f models.FlowResult) []byte {
	var m []byte
	m = appendVarint(m, fieldFlowID, uint64(f.FlowID))
	m = appendString(m, fieldKind, string(f.Kind))
	m = appendVarint(m, fieldLeafID, uint64(f.LeafID))
	m = appendString(m, fieldOrigin, f.Origin)
	m = appendString(m, fieldDestination, f.Destination)
	m = appendString(m, fieldOriginTier, string(f.OriginTier))
	m = appendString(m, fieldDestinationTier, string(f.DestinationTier))
	m = appendVarint(m, fieldHops, uint64(f.Hops))
	m = appendVarint(m, fieldOfferedPackets, uint64(f.OfferedPackets))
	m = appendVarint(m, fieldDeliveredPackets, uint64(f.DeliveredPackets))
	m = appendVarint(m, fieldLostPackets, uint64(f.LostPackets))
	m = appendVarint(m, fieldDeliveredBytes, uint64(f.DeliveredBytes))
	m = appendDouble(m, fieldLatencyMs, f.LatencyMs)
	m = appendDouble(m, fieldLatencyP95Ms, f.Latency.P95)
	m = appendDouble(m, fieldThroughputMbps, f.ThroughputMbps)
	m = appendDouble(m, fieldLossPct, f.LossPct)
	m = appendDouble(m, fieldActiveWindowS, f.ActiveWindowS)
	m = appendDouble(m, fieldPathPropagationMs, f.PathPropagationMs)
	m = appendVarint(m, fieldDegenerate, protowire.EncodeBool(f.Degenerate))
	m = appendVarint(m, fieldQoSSatisfied, protowire.EncodeBool(f.QoSSatisfied))
	return protowire.AppendBytes(b, m)
}

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendString(b []byte, num protowire.Number, s string) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendDouble(b []byte, num protowire.Number, v float64) []byte {
	b = protowire.AppendTag(b, num, protowire.Fixed64Type)
	return protowire.AppendFixed64(b, math.Float64bits(v))
}

// DecodeFlowRecords parses a stream written by AppendFlowRecord. Only the
// fields carried by the record are populated; unknown fields are skipped.
func DecodeFlowRecords(b []byte) ([]models.FlowResult, error) {
	var out []models.FlowResult
	for len(b) > 0 {
		msg, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return nil, fmt.Errorf("%w: record %d: %w", errMalformedRecord, len(out), protowire.ParseError(n))
		}
		b = b[n:]
		f, err := decodeFlowRecord(msg)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", len(out), err)
		}
		out = append(out, f)
	}
	return out, nil
}

func decodeFlowRecord(b []byte) (models.FlowResult, error) {
	var f models.FlowResult
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return f, fmt.Errorf("%w: %w", errMalformedRecord, protowire.ParseError(n))
		}
		b = b[n:]

		switch typ {
		case protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return f, fmt.Errorf("%w: field %d: %w", errMalformedRecord, num, protowire.ParseError(n))
			}
			b = b[n:]
			setVarint(&f, num, v)
		case protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			if n < 0 {
				return f, fmt.Errorf("%w: field %d: %w", errMalformedRecord, num, protowire.ParseError(n))
			}
			b = b[n:]
			setString(&f, num, v)
		case protowire.Fixed64Type:
			v, n := protowire.ConsumeFixed64(b)
			if n < 0 {
				return f, fmt.Errorf("%w: field %d: %w", errMalformedRecord, num, protowire.ParseError(n))
			}
			b = b[n:]
			setDouble(&f, num, math.Float64frombits(v))
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return f, fmt.Errorf("%w: field %d: %w", errMalformedRecord, num, protowire.ParseError(n))
			}
			b = b[n:]
		}
	}
	return f, nil
}

func setVarint(f *models.FlowResult, num protowire.Number, v uint64) {
	switch num {
	case fieldFlowID:
		f.FlowID = int(v)
	case fieldLeafID:
		f.LeafID = int64(v)
	case fieldHops:
		f.Hops = int(v)
	case fieldOfferedPackets:
		f.OfferedPackets = int64(v)
	case fieldDeliveredPackets:
		f.DeliveredPackets = int64(v)
	case fieldLostPackets:
		f.LostPackets = int64(v)
	case fieldDeliveredBytes:
		f.DeliveredBytes = int64(v)
	case fieldDegenerate:
		f.Degenerate = protowire.DecodeBool(v)
	case fieldQoSSatisfied:
		f.QoSSatisfied = protowire.DecodeBool(v)
	}
}

func setString(f *models.FlowResult, num protowire.Number, v string) {
	switch num {
	case fieldKind:
		f.Kind = models.FlowKind(v)
	case fieldOrigin:
		f.Origin = v
	case fieldDestination:
		f.Destination = v
	case fieldOriginTier:
		f.OriginTier = models.Tier(v)
	case fieldDestinationTier:
		f.DestinationTier = models.Tier(v)
	}
}

func setDouble(f *models.FlowResult, num protowire.Number, v float64) {
	switch num {
	case fieldLatencyMs:
		f.LatencyMs = v
		f.Latency.Mean = v
	case fieldLatencyP95Ms:
		f.Latency.P95 = v
	case fieldThroughputMbps:
		f.ThroughputMbps = v
	case fieldLossPct:
		f.LossPct = v
	case fieldActiveWindowS:
		f.ActiveWindowS = v
	case fieldPathPropagationMs:
		f.PathPropagationMs = v
	}
}
