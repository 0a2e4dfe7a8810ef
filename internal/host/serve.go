package host

import (
	"bufio"
	"context"
	"encoding/json"
	"io"

	"github.com/muesli/cancelreader"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/stateful/mdpane/internal/bridge"
)

const maxRequestSize = 4 * 1024 * 1024 // 4 MiB

// Serve reads one JSON request per line from in and posts a response for
// each through t. It returns when in is exhausted or ctx is done.
func Serve(ctx context.Context, in io.Reader, d *Dispatcher, t bridge.Transport, logger *zap.Logger) error {
	reader, err := cancelreader.NewReader(in)
	if err != nil {
		return errors.Wrap(err, "failed to allocate host input")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		<-ctx.Done()
		reader.Cancel()
		return nil
	})

	g.Go(func() error {
		defer cancel()

		scanner := bufio.NewScanner(reader)
		scanner.Buffer(make([]byte, 0, 64*1024), maxRequestSize)

		for scanner.Scan() {
			line := scanner.Bytes()
			if len(line) == 0 {
				continue
			}

			var req Request
			if err := json.Unmarshal(line, &req); err != nil {
				logger.Info("malformed request", zap.Error(err))
				post(t, bridge.NewError("MalformedInput", "request", "", err.Error()), logger)
				continue
			}

			post(t, d.Handle(ctx, req), logger)
		}

		err := scanner.Err()
		if errors.Is(err, cancelreader.ErrCanceled) {
			return nil
		}
		return errors.Wrap(err, "failed to read host input")
	})

	return g.Wait()
}

func post(t bridge.Transport, msg bridge.Message, logger *zap.Logger) {
	if err := t.Post(msg); err != nil {
		logger.Warn("failed to post message", zap.String("type", string(msg.Type())), zap.Error(err))
	}
}
