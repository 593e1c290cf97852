package models

import (
	"bytes"
	"encoding/json"
	"math"
	"testing"
)

// Serializing a record for transmission must keep every numeric field
// bit-exact; rounding happens only at display time.
func TestResultRecordRoundTripIsBitExact(t *testing.T) {
	record := ResultRecord{
		Timestamp:     "2026-08-29T12:00:00.123456789Z",
		Configuration: json.RawMessage(`{"mass":1.67262192e-27}`),
		MagneticField: MagneticField{
			Strength:  45.7,
			Direction: Vec3{0.707, 0.1 + 0.2, math.Pi},
		},
		ParticleMeasurements: []ParticleMeasurement{
			{
				Position:    Vec3{1e-34, -0.9999999999999999, 3},
				Momentum:    Vec3{1.054571817e-34, 0, -1e5},
				Spin:        -0.3333333333333333,
				EnergyLevel: 4,
			},
		},
		OptimizationScore: 99.99999999999999,
		QuantumStates: QuantumStates{
			Superposition: 0.1,
			Entanglement:  0.30000000000000004,
			Coherence:     math.SmallestNonzeroFloat64,
		},
		OptimalState: OptimalState{
			State:                "0110",
			Probability:          0.073,
			FieldStrength:        40.0,
			NormalizedParameters: 0.4,
		},
	}

	encoded, err := json.Marshal(record)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var decoded ResultRecord
	if err := json.Unmarshal(encoded, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if decoded.MagneticField != record.MagneticField {
		t.Errorf("Magnetic field changed: %+v != %+v", decoded.MagneticField, record.MagneticField)
	}
	if decoded.ParticleMeasurements[0] != record.ParticleMeasurements[0] {
		t.Errorf("Measurement changed: %+v != %+v", decoded.ParticleMeasurements[0], record.ParticleMeasurements[0])
	}
	if decoded.OptimizationScore != record.OptimizationScore {
		t.Errorf("Score changed: %v != %v", decoded.OptimizationScore, record.OptimizationScore)
	}
	if decoded.QuantumStates != record.QuantumStates {
		t.Errorf("Quantum states changed: %+v != %+v", decoded.QuantumStates, record.QuantumStates)
	}
	if decoded.OptimalState != record.OptimalState {
		t.Errorf("Optimal state changed: %+v != %+v", decoded.OptimalState, record.OptimalState)
	}

	// A second encode must be byte-identical.
	reencoded, err := json.Marshal(decoded)
	if err != nil {
		t.Fatalf("Re-marshal failed: %v", err)
	}
	if !bytes.Equal(encoded, reencoded) {
		t.Errorf("Encoding not stable:\n%s\n%s", encoded, reencoded)
	}
}

func TestCustomDataOmittedWhenAbsent(t *testing.T) {
	encoded, err := json.Marshal(ResultRecord{Timestamp: "2026-08-29T12:00:00Z"})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if bytes.Contains(encoded, []byte("customData")) {
		t.Error("Expected customData to be omitted when nil")
	}
}
