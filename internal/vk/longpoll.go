package vk

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"

	"github.com/edgard/vkrelay/internal/config"
)

// EventHandler receives each raw long-poll update, one JSON array per call.
type EventHandler func(ctx context.Context, raw []byte)

// Long-poll failure codes.
const (
	failedHistoryOutdated = 1
	failedKeyExpired      = 2
	failedInfoLost        = 3
)

type pollResult struct {
	failed  int64
	ts      string
	updates [][]byte
}

// Poller runs the VK user long-poll loop and hands every update to an
// EventHandler, strictly in arrival order.
type Poller struct {
	client *Client
	http   *resty.Client
	cfg    config.VKConfig
	logger *slog.Logger
}

// NewPoller creates a poller that acquires sessions through client.
func NewPoller(client *Client, cfg config.VKConfig, logger *slog.Logger) *Poller {
	wait := time.Duration(cfg.LongPollWait) * time.Second
	return &Poller{
		client: client,
		http:   resty.New().SetTimeout(wait + cfg.RequestTimeout),
		cfg:    cfg,
		logger: logger.With("component", "vk_poller"),
	}
}

// Run polls until ctx is cancelled. Handlers run synchronously, so the next
// update is not delivered before the previous one has been handled.
func (p *Poller) Run(ctx context.Context, handle EventHandler) error {
	p.logger.InfoContext(ctx, "Starting VK long poll")

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		srv, err := p.client.LongPollServer(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.logger.ErrorContext(ctx, "Failed to acquire long poll session", "error", err)
			if err := p.sleep(ctx); err != nil {
				return err
			}
			continue
		}
		p.logger.DebugContext(ctx, "Long poll session acquired", "server", srv.Server, "ts", srv.TS.String())

		if err := p.session(ctx, srv, handle); err != nil {
			return err
		}
	}
}

// session polls one server/key pair until VK asks for a new one.
func (p *Poller) session(ctx context.Context, srv *LongPollServer, handle EventHandler) error {
	ts := srv.TS.String()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		res, err := p.check(ctx, srv, ts)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.logger.WarnContext(ctx, "Long poll request failed", "error", err)
			if err := p.sleep(ctx); err != nil {
				return err
			}
			continue
		}

		switch res.failed {
		case 0:
		case failedHistoryOutdated:
			p.logger.WarnContext(ctx, "Long poll history outdated, some events were lost", "ts", res.ts)
			if res.ts != "" {
				ts = res.ts
			}
			continue
		case failedKeyExpired, failedInfoLost:
			p.logger.InfoContext(ctx, "Long poll session expired, reacquiring", "failed", res.failed)
			return nil
		default:
			p.logger.WarnContext(ctx, "Unknown long poll failure code, reacquiring", "failed", res.failed)
			return nil
		}

		if res.ts != "" {
			ts = res.ts
		}
		for _, raw := range res.updates {
			handle(ctx, raw)
		}
	}
}

func (p *Poller) check(ctx context.Context, srv *LongPollServer, ts string) (*pollResult, error) {
	server := srv.Server
	if !strings.HasPrefix(server, "http://") && !strings.HasPrefix(server, "https://") {
		server = "https://" + server
	}

	resp, err := p.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"act":     "a_check",
			"key":     srv.Key,
			"ts":      ts,
			"wait":    strconv.Itoa(p.cfg.LongPollWait),
			"mode":    strconv.Itoa(p.cfg.LongPollMode),
			"version": strconv.Itoa(p.cfg.LongPollVersion),
		}).
		Get(server)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("long poll returned HTTP %d", resp.StatusCode())
	}

	return parsePollResponse(resp.Body())
}

func parsePollResponse(body []byte) (*pollResult, error) {
	if !gjson.ValidBytes(body) {
		return nil, errors.New("long poll returned invalid JSON")
	}
	root := gjson.ParseBytes(body)

	res := &pollResult{
		failed: root.Get("failed").Int(),
		ts:     root.Get("ts").String(),
	}
	root.Get("updates").ForEach(func(_, update gjson.Result) bool {
		res.updates = append(res.updates, []byte(update.Raw))
		return true
	})
	return res, nil
}

func (p *Poller) sleep(ctx context.Context) error {
	t := time.NewTimer(p.cfg.RetryDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
