package feed

import (
	"context"
	"iter"
	"strconv"
	"strings"
	"time"

	binance "github.com/adshao/go-binance/v2"

	"github.com/stratigo-lab/stratigo/internal/types"
	"github.com/stratigo-lab/stratigo/pkg/errors"
)

// Binance streams closed klines from the Binance spot websocket. Only final
// klines are yielded so each observation is a completed bar.
type Binance struct{}

func NewBinance() *Binance {
	return &Binance{}
}

// normalizeSymbol maps instrument symbols like "BTC-USD" onto Binance stream
// symbols like "BTCUSDT".
func normalizeSymbol(symbol string) string {
	s := strings.ReplaceAll(symbol, "-", "")
	s = strings.ToUpper(s)

	if strings.HasSuffix(s, "USD") && !strings.HasSuffix(s, "USDT") {
		s += "T"
	}

	return s
}

func (b *Binance) Stream(ctx context.Context, symbols []string, interval string) iter.Seq2[types.Observation, error] {
	return func(yield func(types.Observation, error) bool) {
		// Map the websocket symbol back to the configured one.
		names := make(map[string]string, len(symbols))
		pairs := make(map[string]string, len(symbols))
		for _, symbol := range symbols {
			ws := normalizeSymbol(symbol)
			names[ws] = symbol
			pairs[ws] = interval
		}

		type item struct {
			obs types.Observation
			err error
		}

		items := make(chan item, 64)

		wsHandler := func(event *binance.WsKlineEvent) {
			if !event.Kline.IsFinal {
				return
			}

			obs, err := klineToObservation(names, event)
			select {
			case items <- item{obs: obs, err: err}:
			case <-ctx.Done():
			}
		}

		errHandler := func(err error) {
			wrapped := errors.Wrap(errors.ErrCodeFeedUnavailable, "binance websocket error", err)
			select {
			case items <- item{err: wrapped}:
			case <-ctx.Done():
			}
		}

		doneC, stopC, err := binance.WsCombinedKlineServe(pairs, wsHandler, errHandler)
		if err != nil {
			yield(types.Observation{}, errors.Wrap(errors.ErrCodeFeedUnavailable, "failed to open binance stream", err))
			return
		}
		defer close(stopC)

		for {
			select {
			case <-ctx.Done():
				return
			case <-doneC:
				return
			case it := <-items:
				if !yield(it.obs, it.err) {
					return
				}
			}
		}
	}
}

func klineToObservation(names map[string]string, event *binance.WsKlineEvent) (types.Observation, error) {
	symbol, ok := names[event.Symbol]
	if !ok {
		symbol = event.Symbol
	}

	open, err := strconv.ParseFloat(event.Kline.Open, 64)
	if err != nil {
		return types.Observation{}, errors.Wrap(errors.ErrCodeFeedParseFailed, "failed to parse open price", err)
	}

	high, err := strconv.ParseFloat(event.Kline.High, 64)
	if err != nil {
		return types.Observation{}, errors.Wrap(errors.ErrCodeFeedParseFailed, "failed to parse high price", err)
	}

	low, err := strconv.ParseFloat(event.Kline.Low, 64)
	if err != nil {
		return types.Observation{}, errors.Wrap(errors.ErrCodeFeedParseFailed, "failed to parse low price", err)
	}

	close, err := strconv.ParseFloat(event.Kline.Close, 64)
	if err != nil {
		return types.Observation{}, errors.Wrap(errors.ErrCodeFeedParseFailed, "failed to parse close price", err)
	}

	volume, err := strconv.ParseFloat(event.Kline.Volume, 64)
	if err != nil {
		return types.Observation{}, errors.Wrap(errors.ErrCodeFeedParseFailed, "failed to parse volume", err)
	}

	return types.Observation{
		Symbol: symbol,
		Time:   time.UnixMilli(event.Kline.EndTime).UTC(),
		Open:   open,
		High:   high,
		Low:    low,
		Close:  close,
		Volume: volume,
	}, nil
}
