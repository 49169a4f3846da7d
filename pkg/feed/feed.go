// Package feed supplies market observations to the engine. Providers stream
// observations as an iterator; the engine consumes them one at a time and
// stops when the iterator ends or the context is cancelled.
package feed

import (
	"context"
	"iter"

	"github.com/stratigo-lab/stratigo/internal/types"
	"github.com/stratigo-lab/stratigo/pkg/errors"
)

// ProviderType selects a feed implementation.
type ProviderType string

const (
	ProviderSimulated ProviderType = "simulated"
	ProviderBinance   ProviderType = "binance"
)

// Provider streams market observations.
type Provider interface {
	// Stream returns an iterator that yields observations and error pairs.
	// Cancel the context to stop streaming. An error yield does not end the
	// stream unless the consumer stops iterating.
	Stream(ctx context.Context, symbols []string, interval string) iter.Seq2[types.Observation, error]
}

// NewProvider creates a feed provider by type.
func NewProvider(providerType ProviderType) (Provider, error) {
	switch providerType {
	case ProviderSimulated:
		return NewSimulated(DefaultSimulatedConfig()), nil
	case ProviderBinance:
		return NewBinance(), nil
	default:
		return nil, errors.Newf(errors.ErrCodeFeedUnavailable, "unsupported feed provider: %s", providerType)
	}
}
