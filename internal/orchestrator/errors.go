package orchestrator

import (
	"context"
	"errors"

	"github.com/GoSim-25-26J-441/netgen/internal/engine"
	"github.com/GoSim-25-26J-441/netgen/internal/topology"
	"github.com/GoSim-25-26J-441/netgen/pkg/config"
	"github.com/GoSim-25-26J-441/netgen/pkg/models"
)

// ErrOutput is returned when a scenario's output cannot be written
var ErrOutput = errors.New("scenario output failed")

// Classify maps a scenario error to the kind recorded in the batch report
func Classify(err error) models.ErrorKind {
	switch {
	case err == nil:
		return models.ErrorKindNone
	case errors.Is(err, ErrOutput):
		return models.ErrorKindIO
	case errors.Is(err, config.ErrInvalidConfig):
		return models.ErrorKindConfig
	case errors.Is(err, topology.ErrUnreachable),
		errors.Is(err, topology.ErrUnknownNode),
		errors.Is(err, topology.ErrTierAdjacency):
		return models.ErrorKindTopology
	case errors.Is(err, engine.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return models.ErrorKindEngineTimeout
	default:
		return models.ErrorKindInternal
	}
}
