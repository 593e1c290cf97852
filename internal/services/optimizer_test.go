package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/google/uuid"

	"quantumfield-backend/internal/models"
)

func TestGenerateFieldRanges(t *testing.T) {
	svc := NewOptimizerService(nil)

	for i := 0; i < 200; i++ {
		cfg := models.Configuration{
			ParticleConfig: json.RawMessage(fmt.Sprintf(`{"mass": %g, "charge": %g}`, rand.Float64(), rand.Float64())),
		}
		field := models.FieldData{
			Strength:  rand.Float64() * 100,
			Direction: models.Vec3{1, 0, 0},
		}

		record, err := svc.Generate(context.Background(), uuid.New(), uuid.New(), cfg, field)
		if err != nil {
			t.Fatalf("Generate failed on iteration %d: %v", i, err)
		}

		if len(record.ParticleMeasurements) != 10 {
			t.Fatalf("Expected 10 measurements, got %d", len(record.ParticleMeasurements))
		}
		for j, m := range record.ParticleMeasurements {
			if m.Spin < -1 || m.Spin > 1 {
				t.Errorf("Measurement %d spin out of range: %v", j, m.Spin)
			}
			if m.EnergyLevel < 0 || m.EnergyLevel > 4 {
				t.Errorf("Measurement %d energy level out of range: %d", j, m.EnergyLevel)
			}
		}

		if record.OptimizationScore < 0 || record.OptimizationScore >= 100 {
			t.Errorf("Score out of range: %v", record.OptimizationScore)
		}
		for name, v := range map[string]float64{
			"superposition": record.QuantumStates.Superposition,
			"entanglement":  record.QuantumStates.Entanglement,
			"coherence":     record.QuantumStates.Coherence,
		} {
			if v < 0 || v >= 1 {
				t.Errorf("Quantum state %s out of range: %v", name, v)
			}
		}

		if record.OptimalState.Probability <= 0 || record.OptimalState.Probability > 1 {
			t.Errorf("Optimal state probability out of range: %v", record.OptimalState.Probability)
		}
		if len(record.OptimalState.State) != 4 {
			t.Errorf("Expected 4-bit optimal state, got %q", record.OptimalState.State)
		}

		if _, err := time.Parse(time.RFC3339Nano, record.Timestamp); err != nil {
			t.Errorf("Timestamp not RFC3339: %q", record.Timestamp)
		}

		if record.MagneticField.Strength != field.Strength {
			t.Errorf("Field strength not echoed: %v != %v", record.MagneticField.Strength, field.Strength)
		}
	}
}

func TestGenerateRejectsInvalidParticleConfig(t *testing.T) {
	svc := NewOptimizerService(nil)

	tests := []struct {
		name   string
		config json.RawMessage
	}{
		{"malformed json", json.RawMessage(`{"mass": `)},
		{"empty", nil},
		{"garbage", json.RawMessage(`not json at all`)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := models.Configuration{ParticleConfig: tc.config}
			_, err := svc.Generate(context.Background(), uuid.New(), uuid.New(), cfg, models.FieldData{})

			var invalid *InvalidConfigurationError
			if !errors.As(err, &invalid) {
				t.Fatalf("Expected InvalidConfigurationError, got %v", err)
			}
		})
	}
}

func TestGenerateEchoesInput(t *testing.T) {
	svc := NewOptimizerService(nil)

	cfg := models.Configuration{
		ParticleConfig: json.RawMessage(`{"g_factor": 5.585694713}`),
		UploadedData:   []map[string]string{{"a": "1", "b": "2"}},
	}

	record, err := svc.Generate(context.Background(), uuid.New(), uuid.New(), cfg, models.FieldData{Strength: 45.7})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if string(record.Configuration) != `{"g_factor": 5.585694713}` {
		t.Errorf("Configuration not echoed: %s", record.Configuration)
	}
	rows, ok := record.CustomData.([]map[string]string)
	if !ok || len(rows) != 1 {
		t.Errorf("Uploaded data not echoed: %#v", record.CustomData)
	}
}

func TestAnalyzeMeasurementsStats(t *testing.T) {
	measurements := []models.ParticleMeasurement{
		{Position: models.Vec3{1, 0, 0}, Momentum: models.Vec3{2, 2, 2}},
		{Position: models.Vec3{3, 0, 0}, Momentum: models.Vec3{2, 2, 2}},
	}
	strengths := []float64{0.2, 0.4}

	analysis := analyzeMeasurements(measurements, strengths)

	if analysis.PositionMean[0] != 2 {
		t.Errorf("Expected position mean x = 2, got %v", analysis.PositionMean[0])
	}
	if analysis.PositionStd[0] != 1 {
		t.Errorf("Expected position std x = 1, got %v", analysis.PositionStd[0])
	}
	if analysis.MomentumStd != (models.Vec3{}) {
		t.Errorf("Expected zero momentum std, got %v", analysis.MomentumStd)
	}
	if diff := analysis.InteractionStrengthMean - 0.3; diff > 1e-12 || diff < -1e-12 {
		t.Errorf("Expected strength mean 0.3, got %v", analysis.InteractionStrengthMean)
	}
}
