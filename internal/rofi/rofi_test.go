package rofi

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hyperjump/rofi-zotero/internal/library"
	"github.com/hyperjump/rofi-zotero/internal/library/librarytest"
	"github.com/hyperjump/rofi-zotero/internal/session"
)

type recordingOpener struct{ opened []string }

func (r *recordingOpener) Open(_ context.Context, path string) error {
	r.opened = append(r.opened, path)
	return nil
}

type recordingCopier struct{ copied []string }

func (r *recordingCopier) Copy(text string) error {
	r.copied = append(r.copied, text)
	return nil
}

func newSession(t *testing.T, op *recordingOpener, cp *recordingCopier) (*session.Session, string) {
	t.Helper()
	fx := librarytest.New(t)
	fx.AddPaper(librarytest.Paper{
		Title:       "Attention Is All You Need",
		Date:        "2017-06-12",
		Creators:    []librarytest.Creator{{Last: "Vaswani", First: "Ashish"}},
		Attachments: []librarytest.Attachment{{Key: "ATT1", ContentType: "application/pdf", Path: "storage:attention.pdf"}},
	})
	fx.AddPaper(librarytest.Paper{
		Title:       "Bitcoin",
		Creators:    []librarytest.Creator{{Last: "Nakamoto", First: "Satoshi"}},
		Attachments: []librarytest.Attachment{{Key: "ATT2", ContentType: "image/vnd.djvu", Path: "storage:bitcoin.djvu"}},
	})
	s := session.Open(context.Background(), session.Options{
		Loader: library.NewLoader(fx.Root),
		Opener: op,
		Copier: cp,
	})
	t.Cleanup(func() { _ = s.Close() })
	return s, fx.Root
}

func TestHandler_WriteMenu(t *testing.T) {
	s, _ := newSession(t, &recordingOpener{}, &recordingCopier{})
	h := NewHandler(s, WithMenu(MenuOptions{Prompt: "pdf", Message: "Alt+1 copies", NoCustom: true, HotKeys: true}))
	var buf bytes.Buffer
	if err := h.WriteMenu(&buf); err != nil {
		t.Fatal(err)
	}
	want := "\x00prompt\x1fpdf\n" +
		"\x00message\x1fAlt+1 copies\n" +
		"\x00no-custom\x1ftrue\n" +
		"\x00use-hot-keys\x1ftrue\n" +
		"[2017] Attention Is All You Need - Vaswani, Ashish\x00info\x1fstorage/ATT1/attention.pdf\n" +
		"[] Bitcoin - Nakamoto, Satoshi\x00info\x1fstorage/ATT2/bitcoin.djvu\n"
	if buf.String() != want {
		t.Errorf("menu =\n%q\nwant\n%q", buf.String(), want)
	}
}

func TestHandler_InitialCallPrintsMenu(t *testing.T) {
	op := &recordingOpener{}
	s, _ := newSession(t, op, &recordingCopier{})
	var buf bytes.Buffer
	if err := NewHandler(s).Handle(context.Background(), Request{}, &buf); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(buf.String(), "\x00prompt\x1fzotero\n") {
		t.Errorf("menu should start with the prompt option: %q", buf.String())
	}
	if len(op.opened) != 0 {
		t.Error("initial call must not open anything")
	}
}

func TestHandler_SelectOpensByInfo(t *testing.T) {
	op := &recordingOpener{}
	s, root := newSession(t, op, &recordingCopier{})
	var buf bytes.Buffer
	req := Request{Retv: RetvSelected, Info: "storage/ATT2/bitcoin.djvu", Selection: "ignored"}
	if err := NewHandler(s).Handle(context.Background(), req, &buf); err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(root, "storage", "ATT2", "bitcoin.djvu"); len(op.opened) != 1 || op.opened[0] != want {
		t.Errorf("opened = %v, want %s", op.opened, want)
	}
	if buf.Len() != 0 {
		t.Errorf("selection should close the menu, got %q", buf.String())
	}
}

func TestHandler_SelectFallsBackToDisplay(t *testing.T) {
	op := &recordingOpener{}
	s, _ := newSession(t, op, &recordingCopier{})
	req := Request{Retv: RetvSelected, Selection: "[] Bitcoin - Nakamoto, Satoshi"}
	if err := NewHandler(s).Handle(context.Background(), req, &bytes.Buffer{}); err != nil {
		t.Fatal(err)
	}
	if len(op.opened) != 1 || !strings.HasSuffix(op.opened[0], "bitcoin.djvu") {
		t.Errorf("opened = %v", op.opened)
	}
}

func TestHandler_UnknownSelectionReprintsMenu(t *testing.T) {
	op := &recordingOpener{}
	s, _ := newSession(t, op, &recordingCopier{})
	var buf bytes.Buffer
	req := Request{Retv: RetvSelected, Info: "storage/GONE/x.pdf"}
	if err := NewHandler(s).Handle(context.Background(), req, &buf); err != nil {
		t.Fatal(err)
	}
	if len(op.opened) != 0 {
		t.Errorf("nothing should be opened: %v", op.opened)
	}
	if !strings.Contains(buf.String(), "Bitcoin") {
		t.Errorf("menu should be printed again: %q", buf.String())
	}
}

func TestHandler_CustomKeyCopies(t *testing.T) {
	cp := &recordingCopier{}
	op := &recordingOpener{}
	s, root := newSession(t, op, cp)
	req := Request{Retv: RetvCustomKey1, Info: "storage/ATT1/attention.pdf"}
	if err := NewHandler(s).Handle(context.Background(), req, &bytes.Buffer{}); err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(root, "storage", "ATT1", "attention.pdf"); len(cp.copied) != 1 || cp.copied[0] != want {
		t.Errorf("copied = %v, want %s", cp.copied, want)
	}
	if len(op.opened) != 0 {
		t.Error("copy must not open the file")
	}
}

func TestRequestFromEnv(t *testing.T) {
	t.Setenv(EnvRetv, "10")
	t.Setenv(EnvInfo, "storage/K/x.pdf")
	req := RequestFromEnv([]string{"[] x - y"})
	if req.Retv != RetvCustomKey1 || req.Info != "storage/K/x.pdf" || req.Selection != "[] x - y" {
		t.Errorf("RequestFromEnv = %+v", req)
	}

	t.Setenv(EnvRetv, "garbage")
	t.Setenv(EnvInfo, "")
	req = RequestFromEnv(nil)
	if req.Retv != RetvInitial || req.Selection != "" {
		t.Errorf("invalid env should be the initial call: %+v", req)
	}
}

func TestRow_Sanitizes(t *testing.T) {
	got := Row("a\nb\x1fc", "p\x00q")
	if got != "a bc\x00info\x1fpq\n" {
		t.Errorf("Row = %q", got)
	}
}

func TestHandler_CustomInputOpensMatchingEntry(t *testing.T) {
	op := &recordingOpener{}
	s, root := newSession(t, op, &recordingCopier{})
	h := NewHandler(s, WithMenu(MenuOptions{Prompt: "zotero"}))

	req := Request{Retv: RetvCustom, Selection: "storage/ATT1/attention.pdf"}
	if err := h.Handle(context.Background(), req, &bytes.Buffer{}); err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(root, "storage", "ATT1", "attention.pdf"); len(op.opened) != 1 || op.opened[0] != want {
		t.Errorf("opened = %v, want %s", op.opened, want)
	}

	var buf bytes.Buffer
	req = Request{Retv: RetvCustom, Selection: "something typed"}
	if err := h.Handle(context.Background(), req, &buf); err != nil {
		t.Fatal(err)
	}
	if len(op.opened) != 1 {
		t.Errorf("unmatched custom input opened %v", op.opened)
	}
	if !strings.Contains(buf.String(), "Attention") {
		t.Errorf("unmatched custom input should reprint the menu: %q", buf.String())
	}
}
