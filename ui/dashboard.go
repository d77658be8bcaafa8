// Package ui renders the presentation tree with tview. The dashboard owns
// the terminal; everything else talks to it through scheduled updates so
// widget surgery only ever happens on the UI goroutine.
package ui

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/larsks/gerrit-view/board"
)

const systemPaneLines = 4

// Config carries the static pieces of the dashboard chrome.
type Config struct {
	Title string
	URL   string
}

// Dashboard is the tview surface: the queue tree on top, a small system log
// pane, and a one-line status bar (left: refresh countdown, right:
// reconcile counters).
type Dashboard struct {
	cfg       Config
	app       *tview.Application
	scheduler *drawScheduler
	tree      *tview.TreeView
	arena     *nodeArena
	header    *tview.TextView
	left      *tview.TextView
	right     *tview.TextView
	system    *tview.TextView

	systemMu    sync.Mutex
	systemLines []string

	ready  chan struct{}
	done   chan struct{}
	closed atomic.Bool
}

// New constructs the dashboard and starts the tview event loop. Returns nil
// when disabled; all methods are safe on a nil receiver so headless mode
// needs no special-casing at call sites.
func New(cfg Config, enable bool) *Dashboard {
	if !enable {
		return nil
	}

	root := tview.NewTreeNode("").SetSelectable(false)
	tree := tview.NewTreeView().SetRoot(root).SetTopLevel(1)
	tree.SetBorder(true).SetTitle(" " + cfg.Title + " ").SetTitleAlign(tview.AlignLeft)

	header := tview.NewTextView().SetDynamicColors(true).SetWrap(false)
	left := tview.NewTextView().SetWrap(false)
	right := tview.NewTextView().SetWrap(false).SetTextAlign(tview.AlignRight)
	system := tview.NewTextView().SetWrap(false)
	system.SetBorder(true).SetTitle("System").SetTitleAlign(tview.AlignLeft)
	system.SetTextColor(tcell.ColorYellow)

	statusRow := tview.NewFlex().SetDirection(tview.FlexColumn).
		AddItem(left, 0, 1, false).
		AddItem(right, 0, 1, false)
	layout := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(header, 1, 0, false).
		AddItem(tree, 0, 1, true).
		AddItem(system, systemPaneLines+2, 0, false).
		AddItem(statusRow, 1, 0, false)

	app := tview.NewApplication().SetRoot(layout, true).EnableMouse(false)
	ready := make(chan struct{})
	var once sync.Once
	app.SetBeforeDrawFunc(func(screen tcell.Screen) bool {
		once.Do(func() { close(ready) })
		return false
	})

	d := &Dashboard{
		cfg:    cfg,
		app:    app,
		tree:   tree,
		arena:  newNodeArena(root),
		header: header,
		left:   left,
		right:  right,
		system: system,
		ready:  ready,
		done:   make(chan struct{}),
	}
	d.scheduler = newDrawScheduler(app, 30)
	d.scheduler.Start()
	d.installKeybindings()
	d.SetUpdated(time.Time{})
	d.SetStatus("Initializing...", "")

	go func() {
		defer close(d.done)
		if err := app.Run(); err != nil {
			fmt.Printf("UI: tview error: %v\n", err)
		}
	}()

	return d
}

func (d *Dashboard) installKeybindings() {
	d.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyEsc, tcell.KeyCtrlC:
			d.Stop()
			return nil
		}
		switch event.Rune() {
		case 'q', 'Q':
			d.Stop()
			return nil
		case 'j':
			return tcell.NewEventKey(tcell.KeyDown, 0, tcell.ModNone)
		case 'k':
			return tcell.NewEventKey(tcell.KeyUp, 0, tcell.ModNone)
		}
		return event
	})
}

// WaitReady blocks until the first draw.
func (d *Dashboard) WaitReady() {
	if d == nil {
		return
	}
	<-d.ready
}

// Done is closed when the tview event loop has exited (quit key or Stop).
func (d *Dashboard) Done() <-chan struct{} {
	if d == nil {
		return nil
	}
	return d.done
}

func (d *Dashboard) Stop() {
	if d == nil || !d.closed.CompareAndSwap(false, true) {
		return
	}
	d.scheduler.Stop()
	d.app.Stop()
}

// Apply schedules the widget tree to be brought in sync with view.
func (d *Dashboard) Apply(view board.View) {
	if d == nil {
		return
	}
	d.scheduler.Schedule("tree", func() {
		d.arena.Apply(view)
	})
}

// SetStatus updates the status bar. The left side carries the refresh
// countdown, the right side the pipeline/reconcile counters.
func (d *Dashboard) SetStatus(leftText, rightText string) {
	if d == nil {
		return
	}
	d.scheduler.Schedule("status", func() {
		d.left.SetText(" " + leftText)
		d.right.SetText(rightText + " ")
	})
}

// SetUpdated refreshes the header line with the age of the current data.
func (d *Dashboard) SetUpdated(at time.Time) {
	if d == nil {
		return
	}
	age := "waiting for first fetch"
	if !at.IsZero() {
		age = "updated " + humanize.Time(at)
	}
	text := fmt.Sprintf(" [yellow]%s[-]  %s  (%s)", d.cfg.Title, d.cfg.URL, age)
	d.scheduler.Schedule("header", func() {
		d.header.SetText(text)
	})
}

// SystemWriter adapts the system pane to io.Writer so the standard logger
// can write into it while the dashboard owns the terminal.
func (d *Dashboard) SystemWriter() *paneWriter {
	if d == nil {
		return nil
	}
	return &paneWriter{dash: d}
}

func (d *Dashboard) appendSystem(line string) {
	if d == nil || d.closed.Load() {
		return
	}
	d.systemMu.Lock()
	d.systemLines = append(d.systemLines, line)
	if len(d.systemLines) > systemPaneLines {
		d.systemLines = d.systemLines[len(d.systemLines)-systemPaneLines:]
	}
	text := strings.Join(d.systemLines, "\n")
	d.systemMu.Unlock()
	d.scheduler.Schedule("system", func() {
		d.system.SetText(text)
	})
}

type paneWriter struct {
	dash *Dashboard
	mu   sync.Mutex
	buf  []byte
}

func (w *paneWriter) Write(p []byte) (int, error) {
	if w == nil || w.dash == nil {
		return len(p), nil
	}
	w.mu.Lock()
	w.buf = append(w.buf, p...)
	data := w.buf
	var lines []string
	for {
		idx := bytes.IndexByte(data, '\n')
		if idx == -1 {
			break
		}
		lines = append(lines, string(bytes.TrimRight(data[:idx], "\r")))
		data = data[idx+1:]
	}
	w.buf = append(w.buf[:0], data...)
	w.mu.Unlock()

	for _, line := range lines {
		w.dash.appendSystem(line)
	}
	return len(p), nil
}
