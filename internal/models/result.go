package models

import "encoding/json"

// Vec3 is a 3-component vector (x, y, z).
type Vec3 [3]float64

// Configuration is the user-supplied input for an optimization session.
type Configuration struct {
	APIKey         string          `json:"apiKey,omitempty"`
	ParticleConfig json.RawMessage `json:"particleConfig"`
	UploadedData   interface{}     `json:"uploadedData,omitempty"`
}

type MagneticField struct {
	Strength  float64 `json:"strength"`
	Direction Vec3    `json:"direction"`
}

// FieldData is a magnetic field reading combined from external observatories,
// or the fixed simulated reading when no source is reachable.
type FieldData struct {
	Timestamp string   `json:"timestamp"`
	Strength  float64  `json:"field_strength"`
	Direction Vec3     `json:"field_direction"`
	Sources   []string `json:"sources"`
}

type ParticleMeasurement struct {
	Position    Vec3    `json:"position"`
	Momentum    Vec3    `json:"momentum"`
	Spin        float64 `json:"spin"`        // in [-1, 1]
	EnergyLevel int     `json:"energyLevel"` // in {0..4}
}

type QuantumStates struct {
	Superposition float64 `json:"superposition"`
	Entanglement  float64 `json:"entanglement"`
	Coherence     float64 `json:"coherence"`
}

// OptimalState is the most probable measured basis state and the field
// parameters derived from it.
type OptimalState struct {
	State                string  `json:"state"` // binary string, e.g. "0110"
	Probability          float64 `json:"probability"`
	FieldStrength        float64 `json:"fieldStrength"`
	NormalizedParameters float64 `json:"normalizedParameters"`
}

// MeasurementAnalysis summarizes a measurement series.
type MeasurementAnalysis struct {
	PositionMean            Vec3    `json:"positionMean"`
	PositionStd             Vec3    `json:"positionStd"`
	MomentumMean            Vec3    `json:"momentumMean"`
	MomentumStd             Vec3    `json:"momentumStd"`
	InteractionStrengthMean float64 `json:"interactionStrengthMean"`
	InteractionStrengthStd  float64 `json:"interactionStrengthStd"`
}

// ResultRecord is the immutable outcome of one optimization run. A session
// holds only the most recent record.
type ResultRecord struct {
	Timestamp            string                `json:"timestamp"`
	Configuration        json.RawMessage       `json:"configuration"`
	MagneticField        MagneticField         `json:"magneticField"`
	ParticleMeasurements []ParticleMeasurement `json:"particleMeasurements"`
	OptimizationScore    float64               `json:"optimizationScore"` // in [0, 100)
	QuantumStates        QuantumStates         `json:"quantumStates"`
	OptimalState         OptimalState          `json:"optimalState"`
	Analysis             MeasurementAnalysis   `json:"analysis"`
	CustomData           interface{}           `json:"customData,omitempty"`
}
