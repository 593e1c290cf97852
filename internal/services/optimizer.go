package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"quantumfield-backend/internal/models"
)

const (
	numQubits       = 4
	measurementRuns = 10
	samplingShots   = 1000
)

// The five pipeline stages, published in order before a record is returned.
// The sequence is cosmetic pacing for the client; no data flows between
// stages.
var optimizationStages = []string{
	"Initializing quantum circuit",
	"Applying magnetic field data",
	"Optimizing field configuration",
	"Measuring particle interactions",
	"Analyzing measurement series",
}

// OptimizerService produces one ResultRecord per call. It keeps no state
// between calls; progress notifications go out over Redis pub/sub so the
// WebSocket hub can relay them.
type OptimizerService struct {
	redis *redis.Client
}

func NewOptimizerService(redisClient *redis.Client) *OptimizerService {
	return &OptimizerService{redis: redisClient}
}

// PublishUpdate sends a WebSocket update via Redis pub/sub.
func (s *OptimizerService) PublishUpdate(ctx context.Context, sessionID uuid.UUID, msg models.WSMessage) {
	if s.redis == nil {
		return
	}
	data, _ := json.Marshal(msg)
	s.redis.Publish(ctx, fmt.Sprintf("session_updates:%s", sessionID.String()), string(data))
}

// Generate validates the particle configuration, emits the stage
// notifications and returns a fresh immutable ResultRecord built from the
// supplied field reading.
func (s *OptimizerService) Generate(ctx context.Context, jobID, sessionID uuid.UUID, cfg models.Configuration, field models.FieldData) (*models.ResultRecord, error) {
	if len(cfg.ParticleConfig) == 0 {
		return nil, &InvalidConfigurationError{Message: "particle configuration is required"}
	}
	var particleProps interface{}
	if err := json.Unmarshal(cfg.ParticleConfig, &particleProps); err != nil {
		return nil, &InvalidConfigurationError{Message: "particle configuration is not valid JSON"}
	}

	for i, stage := range optimizationStages {
		s.PublishUpdate(ctx, sessionID, models.WSMessage{
			Type: "status_update",
			Payload: models.StatusUpdate{
				JobID:     jobID,
				SessionID: sessionID,
				Step:      i + 1,
				StepName:  stage,
			},
		})
	}

	measurements := make([]models.ParticleMeasurement, measurementRuns)
	strengths := make([]float64, measurementRuns)
	for i := range measurements {
		measurements[i] = models.ParticleMeasurement{
			Position:    randomVec(),
			Momentum:    randomVec(),
			Spin:        rand.Float64()*2 - 1,
			EnergyLevel: rand.IntN(5),
		}
		strengths[i] = rand.Float64()
	}

	record := &models.ResultRecord{
		Timestamp:     time.Now().UTC().Format(time.RFC3339Nano),
		Configuration: cfg.ParticleConfig,
		MagneticField: models.MagneticField{
			Strength:  field.Strength,
			Direction: field.Direction,
		},
		ParticleMeasurements: measurements,
		OptimizationScore:    rand.Float64() * 100,
		QuantumStates: models.QuantumStates{
			Superposition: rand.Float64(),
			Entanglement:  rand.Float64(),
			Coherence:     rand.Float64(),
		},
		OptimalState: sampleOptimalState(),
		Analysis:     analyzeMeasurements(measurements, strengths),
		CustomData:   cfg.UploadedData,
	}

	return record, nil
}

// sampleOptimalState draws shots from a uniform distribution over the
// computational basis, keeps the most frequent state and maps its integer
// value onto field parameters.
func sampleOptimalState() models.OptimalState {
	counts := make([]int, 1<<numQubits)
	for i := 0; i < samplingShots; i++ {
		counts[rand.IntN(len(counts))]++
	}

	best := 0
	for state, count := range counts {
		if count > counts[best] {
			best = state
		}
	}

	norm := float64(best) / float64((1<<numQubits)-1)
	return models.OptimalState{
		State:                fmt.Sprintf("%0*b", numQubits, best),
		Probability:          float64(counts[best]) / samplingShots,
		FieldStrength:        norm * 100,
		NormalizedParameters: norm,
	}
}

func analyzeMeasurements(measurements []models.ParticleMeasurement, strengths []float64) models.MeasurementAnalysis {
	n := float64(len(measurements))

	var posMean, momMean models.Vec3
	for _, m := range measurements {
		for axis := 0; axis < 3; axis++ {
			posMean[axis] += m.Position[axis] / n
			momMean[axis] += m.Momentum[axis] / n
		}
	}

	var posStd, momStd models.Vec3
	for _, m := range measurements {
		for axis := 0; axis < 3; axis++ {
			posStd[axis] += (m.Position[axis] - posMean[axis]) * (m.Position[axis] - posMean[axis]) / n
			momStd[axis] += (m.Momentum[axis] - momMean[axis]) * (m.Momentum[axis] - momMean[axis]) / n
		}
	}
	for axis := 0; axis < 3; axis++ {
		posStd[axis] = math.Sqrt(posStd[axis])
		momStd[axis] = math.Sqrt(momStd[axis])
	}

	var strengthMean float64
	for _, v := range strengths {
		strengthMean += v / float64(len(strengths))
	}
	var strengthStd float64
	for _, v := range strengths {
		strengthStd += (v - strengthMean) * (v - strengthMean) / float64(len(strengths))
	}

	return models.MeasurementAnalysis{
		PositionMean:            posMean,
		PositionStd:             posStd,
		MomentumMean:            momMean,
		MomentumStd:             momStd,
		InteractionStrengthMean: strengthMean,
		InteractionStrengthStd:  math.Sqrt(strengthStd),
	}
}

func randomVec() models.Vec3 {
	return models.Vec3{
		rand.Float64()*2 - 1,
		rand.Float64()*2 - 1,
		rand.Float64()*2 - 1,
	}
}
