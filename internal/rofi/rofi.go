// Package rofi speaks rofi's script-mode protocol.
//
// rofi runs the script once to get the menu and again, with ROFI_RETV and
// ROFI_INFO set, after the user acts on a row. Rows carry the attachment's
// relative path in their info field so the selection survives re-ranking.
package rofi

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/rofi-zotero/internal/session"
)

// Environment variables set by rofi for script modes.
const (
	EnvRetv = "ROFI_RETV"
	EnvInfo = "ROFI_INFO"
)

// Retv is rofi's reason for running the script.
type Retv int

const (
	// RetvInitial is the first call; the script prints the menu.
	RetvInitial Retv = 0
	// RetvSelected means an entry was chosen.
	RetvSelected Retv = 1
	// RetvCustom means the user entered text that is not an entry.
	RetvCustom Retv = 2
	// RetvCustomKey1 is kb-custom-1; values 10..28 map to kb-custom-1..19.
	RetvCustomKey1 Retv = 10
)

const (
	fieldSep = "\x1f"
	optStart = "\x00"
)

// Request is one invocation of the script.
type Request struct {
	Retv Retv
	// Info is the info field of the selected row, if any.
	Info string
	// Selection is the row text rofi passed as the first argument.
	Selection string
}

// RequestFromEnv builds a Request from the rofi environment and args.
// An unset or invalid ROFI_RETV is treated as the initial call.
func RequestFromEnv(args []string) Request {
	req := Request{Info: os.Getenv(EnvInfo)}
	if v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(EnvRetv))); err == nil {
		req.Retv = Retv(v)
	}
	if len(args) > 0 {
		req.Selection = args[0]
	}
	return req
}

// MenuOptions are the mode options emitted before the rows.
type MenuOptions struct {
	Prompt  string
	Message string
	// NoCustom rejects input that does not match a row.
	NoCustom bool
	// HotKeys enables kb-custom-N keys, needed for copy-to-clipboard.
	HotKeys bool
}

// Handler serves script-mode requests for a session.
type Handler struct {
	session *session.Session
	menu    MenuOptions
	logger  *zap.Logger // optional; when set, logs debug events
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithLogger sets a logger for debug output (selections, unknown rows).
func WithLogger(l *zap.Logger) HandlerOption {
	return func(h *Handler) { h.logger = l }
}

// WithMenu sets the mode options.
func WithMenu(m MenuOptions) HandlerOption {
	return func(h *Handler) { h.menu = m }
}

// NewHandler creates a handler over sess. The default menu has prompt
// "zotero", rejects custom input, and enables hot keys.
func NewHandler(sess *session.Session, opts ...HandlerOption) *Handler {
	h := &Handler{
		session: sess,
		menu:    MenuOptions{Prompt: "zotero", NoCustom: true, HotKeys: true},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Handle acts on req and writes to w. A selection or copy request ends the
// menu and writes nothing; any other request prints the menu. Custom input
// opens the entry whose display string or relative path it names.
func (h *Handler) Handle(ctx context.Context, req Request, w io.Writer) error {
	switch {
	case req.Retv == RetvSelected, req.Retv == RetvCustom:
		i, ok := h.resolve(req)
		if !ok {
			return h.WriteMenu(w)
		}
		return h.session.Result(ctx, i)
	case req.Retv == RetvCustomKey1:
		i, ok := h.resolve(req)
		if !ok {
			return h.WriteMenu(w)
		}
		return h.session.Copy(i)
	default:
		return h.WriteMenu(w)
	}
}

// resolve finds the session index for the row rofi reported, preferring the info field.
func (h *Handler) resolve(req Request) (int, bool) {
	if req.Info != "" {
		if i, ok := h.session.Lookup(req.Info); ok {
			return i, true
		}
	}
	if req.Selection != "" {
		if i, ok := h.session.LookupDisplay(req.Selection); ok {
			return i, true
		}
		if i, ok := h.session.Lookup(strings.TrimSpace(req.Selection)); ok {
			return i, true
		}
	}
	if h.logger != nil {
		h.logger.Debug("selected row not in library",
			zap.Int("retv", int(req.Retv)),
			zap.String("info", req.Info),
			zap.String("selection", req.Selection))
	}
	return -1, false
}

// WriteMenu writes the mode options followed by one row per entry.
func (h *Handler) WriteMenu(w io.Writer) error {
	var b strings.Builder
	writeOption(&b, "prompt", h.menu.Prompt)
	writeOption(&b, "message", h.menu.Message)
	if h.menu.NoCustom {
		writeOption(&b, "no-custom", "true")
	}
	if h.menu.HotKeys {
		writeOption(&b, "use-hot-keys", "true")
	}
	for i := 0; i < h.session.NumEntries(); i++ {
		e, _ := h.session.Entry(i)
		b.WriteString(Row(e.DisplayString(), e.RelativePath))
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// Row formats a menu row with an info payload.
func Row(display, info string) string {
	return fmt.Sprintf("%s%sinfo%s%s\n", sanitize(display), optStart, fieldSep, sanitize(info))
}

func writeOption(b *strings.Builder, key, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(b, "%s%s%s%s\n", optStart, key, fieldSep, sanitize(value))
}

// sanitize drops characters that would break the line protocol.
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '\n', '\r':
			return ' '
		case 0, 0x1f:
			return -1
		}
		return r
	}, s)
}
