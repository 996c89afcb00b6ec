package hook

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/penwyp/go-claude-insights/internal/core/config"
	"github.com/penwyp/go-claude-insights/internal/core/model"
	"github.com/penwyp/go-claude-insights/internal/data/parser"
	"github.com/penwyp/go-claude-insights/internal/util"
)

var (
	ErrUnknownEvent  = errors.New("unknown hook event")
	ErrMissingFields = errors.New("required hook fields missing")
)

// route describes how one event is delivered.
type route struct {
	method string
	// path returns the endpoint path below the base URL.
	path func(in *model.HookInput) string
	// upload events use the transcript base URL and the upload timeout.
	upload   bool
	required func(in *model.HookInput) bool
	build    func(d *Dispatcher, in *model.HookInput) any
}

func fixed(path string) func(*model.HookInput) string {
	return func(*model.HookInput) string { return path }
}

func hasSession(in *model.HookInput) bool { return in.SessionID != "" }

var routes = map[string]route{
	model.EventSessionStart: {
		method:   http.MethodPost,
		path:     fixed("/api/hooks/session-start"),
		required: func(*model.HookInput) bool { return true },
		build:    func(d *Dispatcher, in *model.HookInput) any { return buildSessionStart(in, d.home) },
	},
	model.EventSessionEnd: {
		method:   http.MethodPut,
		path:     fixed("/api/hooks/session-end"),
		required: hasSession,
		build:    func(_ *Dispatcher, in *model.HookInput) any { return buildSessionEnd(in) },
	},
	model.EventSessionEndTranscript: {
		method: http.MethodPut,
		path: func(in *model.HookInput) string {
			return "/api/sessions/" + url.PathEscape(in.SessionID) + "/transcript"
		},
		upload:   true,
		required: func(in *model.HookInput) bool { return in.SessionID != "" && in.Transcript() != "" },
		build:    func(d *Dispatcher, in *model.HookInput) any { return buildTranscript(in, d.parser, d.mode) },
	},
	model.EventUserPromptSubmit: {
		method:   http.MethodPost,
		path:     fixed("/api/hooks/user-prompt-submit"),
		required: func(in *model.HookInput) bool { return in.SessionID != "" && in.Prompt != "" },
		build:    func(_ *Dispatcher, in *model.HookInput) any { return buildUserPrompt(in) },
	},
	model.EventPreToolUse: {
		method:   http.MethodPost,
		path:     fixed("/api/hooks/pre-tool-use"),
		required: func(in *model.HookInput) bool { return in.SessionID != "" && in.ToolName != "" },
		build:    func(_ *Dispatcher, in *model.HookInput) any { return buildPreToolUse(in) },
	},
	model.EventPostToolUse: {
		method:   http.MethodPost,
		path:     fixed("/api/hooks/post-tool-use"),
		required: hasSession,
		build:    func(_ *Dispatcher, in *model.HookInput) any { return buildPostToolUse(in) },
	},
	model.EventPermissionRequest: {
		method:   http.MethodPost,
		path:     fixed("/api/hooks/permission-request"),
		required: func(in *model.HookInput) bool { return in.SessionID != "" && in.PermissionType != "" },
		build:    func(_ *Dispatcher, in *model.HookInput) any { return buildPermissionRequest(in) },
	},
	model.EventStop: {
		method:   http.MethodPost,
		path:     fixed("/api/hooks/stop"),
		required: hasSession,
		build:    func(_ *Dispatcher, in *model.HookInput) any { return buildStop(in) },
	},
	model.EventSubagentStop: {
		method:   http.MethodPost,
		path:     fixed("/api/hooks/subagent-stop"),
		required: hasSession,
		build:    func(_ *Dispatcher, in *model.HookInput) any { return buildSubagentStop(in) },
	},
}

// Events returns the supported event names in sorted order.
func Events() []string {
	names := make([]string, 0, len(routes))
	for name := range routes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dispatcher turns hook events into backend requests.
type Dispatcher struct {
	cfg    *config.Config
	client *Client
	parser *parser.Parser
	mode   parser.Mode
	home   string
}

// NewDispatcher creates a Dispatcher. home is the user home directory used
// for user-level commands and agents; it may be empty.
func NewDispatcher(cfg *config.Config, client *Client, home string) (*Dispatcher, error) {
	mode, err := parser.ParseMode(cfg.TranscriptMode)
	if err != nil {
		return nil, err
	}
	return &Dispatcher{
		cfg:    cfg,
		client: client,
		parser: parser.NewParser(cfg.Concurrency),
		mode:   mode,
		home:   home,
	}, nil
}

// Dispatch delivers in as event. It returns ErrMissingFields without
// sending anything when the event lacks its required fields.
func (d *Dispatcher) Dispatch(ctx context.Context, event string, in *model.HookInput) error {
	r, ok := routes[event]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownEvent, event)
	}
	if !r.required(in) {
		return ErrMissingFields
	}

	base, timeout := d.cfg.HooksURL, d.cfg.Timeout
	if r.upload {
		base, timeout = d.cfg.TranscriptURL, d.cfg.UploadTimeout
	}
	endpoint := base + r.path(in)

	logger := util.LoggerFor(ctx)
	start := time.Now()
	payload := r.build(d, in)

	if err := d.client.Send(ctx, r.method, endpoint, payload, timeout); err != nil {
		logger.Warn("Hook delivery failed",
			util.F("event", event), util.F("endpoint", endpoint), util.F("error", err.Error()))
		return err
	}

	logger.Debug("Hook delivered",
		util.F("event", event), util.F("endpoint", endpoint), util.F("duration", time.Since(start).String()))
	return nil
}
