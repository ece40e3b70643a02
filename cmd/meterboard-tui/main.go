// meterboard-tui is the interactive schematic editor: a keyboard-driven
// canvas over the same graph, store and interaction controller the CLI uses.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/redis/go-redis/v9"

	"github.com/voltaic-labs/meterboard/pkg/editor"
	"github.com/voltaic-labs/meterboard/pkg/geometry"
	"github.com/voltaic-labs/meterboard/pkg/graph"
	"github.com/voltaic-labs/meterboard/pkg/render"
	"github.com/voltaic-labs/meterboard/pkg/schematic"
	"github.com/voltaic-labs/meterboard/pkg/store"
	redisstore "github.com/voltaic-labs/meterboard/pkg/store/redis"
)

const (
	activityPollRate = 2 * time.Second
	activityLines    = 5
	chromeRows       = activityLines + 6
)

// Styles
var (
	subtleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))

	nodeStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	segmentStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("63"))
	markerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	guideStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true)
)

// statusNotifier collects graph notifications for the status bar. It is
// called from the sync goroutine, so it locks.
type statusNotifier struct {
	mu    sync.Mutex
	lines []string
}

func (n *statusNotifier) Notify(level graph.Level, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.lines = append(n.lines, fmt.Sprintf("[%s] %s", level, message))
	if len(n.lines) > 3 {
		n.lines = n.lines[len(n.lines)-3:]
	}
}

func (n *statusNotifier) Recent() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.lines))
	copy(out, n.lines)
	return out
}

type tickMsg time.Time

type activityMsg struct {
	edits []store.EditEntry
	err   error
}

type model struct {
	st         *store.Store
	graph      *graph.Graph
	canvas     *render.Canvas
	controller *editor.Controller
	notifier   *statusNotifier
	spinner    spinner.Model

	cursor   geometry.Point
	pressed  bool
	axisSnap bool
	snap45   bool
	layers   render.Layers

	edits []store.EditEntry
	err   error
	ready bool

	width  int
	height int

	lockHeld bool
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.fetchActivity(), tick(), m.spinner.Tick)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tickMsg:
		return m, tea.Batch(m.fetchActivity(), tick())

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case activityMsg:
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.err = nil
			m.edits = msg.edits
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		h := msg.Height - chromeRows
		if h < 5 {
			h = 5
		}
		m.canvas.Resize(geometry.Viewport{Width: float64(msg.Width), Height: float64(h)})
		m.clampCursor()
		m.ready = true
	}

	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "s":
		m.controller.SetMode(editor.ModeSelect)
	case "p":
		m.controller.SetMode(editor.ModePlaceNode)
	case "c":
		m.controller.SetMode(editor.ModeConnect)

	case "esc":
		m.controller.Session().Cancel()
		if m.pressed {
			m.dispatch(editor.PointerUp{At: m.cursor})
			m.pressed = false
		}

	case "a":
		m.axisSnap = !m.axisSnap
	case "4":
		m.snap45 = !m.snap45

	case "1":
		m.layers.Nodes = !m.layers.Nodes
		m.canvas.SetLayers(m.layers)
	case "2":
		m.layers.Connections = !m.layers.Connections
		m.canvas.SetLayers(m.layers)
	case "3":
		m.layers.Background = !m.layers.Background
		m.canvas.SetLayers(m.layers)

	case "w":
		if err := m.controller.SaveWaypoints(); err != nil {
			m.notifier.Notify(graph.LevelError, err.Error())
		}

	case "x", "delete", "backspace":
		m.dispatch(editor.DeletePressed{})

	case "enter", " ":
		if m.pressed {
			m.dispatch(editor.PointerUp{At: m.cursor})
			m.pressed = false
		} else {
			m.dispatch(editor.PointerDown{At: m.cursor, AxisSnap: m.axisSnap, Snap45: m.snap45})
			if m.controller.Mode() == editor.ModeSelect {
				m.pressed = true
			}
		}

	case "up", "k":
		m.moveCursor(0, -1)
	case "down", "j":
		m.moveCursor(0, 1)
	case "left", "h":
		m.moveCursor(-2, 0)
	case "right", "l":
		m.moveCursor(2, 0)
	case "K":
		m.moveCursor(0, -5)
	case "J":
		m.moveCursor(0, 5)
	case "H":
		m.moveCursor(-10, 0)
	case "L":
		m.moveCursor(10, 0)
	}

	return m, nil
}

func (m *model) dispatch(ev editor.Event) {
	if err := m.controller.Dispatch(ev); err != nil {
		m.notifier.Notify(graph.LevelWarn, err.Error())
	}
}

func (m *model) moveCursor(dx, dy float64) {
	m.cursor.X += dx
	m.cursor.Y += dy
	m.clampCursor()
	m.dispatch(editor.PointerMove{At: m.cursor, AxisSnap: m.axisSnap, Snap45: m.snap45})
}

func (m *model) clampCursor() {
	vp := m.canvas.Viewport()
	m.cursor.X = math.Min(math.Max(m.cursor.X, 0), vp.Width-1)
	m.cursor.Y = math.Min(math.Max(m.cursor.Y, 0), vp.Height-1)
}

func (m model) fetchActivity() tea.Cmd {
	st := m.st
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		edits, err := st.RecentEdits(ctx, activityLines)
		return activityMsg{edits: edits, err: err}
	}
}

// --- Rendering ---

type cell struct {
	ch    string
	style lipgloss.Style
}

// cardsDraggable reports whether node cards render draggable. Only the
// select tool drags cards; connect and place modes leave them fixed.
func cardsDraggable(ct *editor.Controller) bool {
	return ct.Mode() == editor.ModeSelect
}

func (m model) View() string {
	if !m.ready {
		return fmt.Sprintf("\n%s Loading diagram...", m.spinner.View())
	}

	vp := m.canvas.Viewport()
	cols, rows := int(vp.Width), int(vp.Height)
	grid := make([][]cell, rows)
	for y := range grid {
		grid[y] = make([]cell, cols)
	}

	put := func(p geometry.Point, ch string, style lipgloss.Style) {
		x, y := int(p.X), int(p.Y)
		if x >= 0 && x < cols && y >= 0 && y < rows {
			grid[y][x] = cell{ch: ch, style: style}
		}
	}

	draggable := cardsDraggable(m.controller)

	for _, obj := range m.canvas.Objects(m.controller.Session(), draggable) {
		switch o := obj.(type) {
		case render.Segment:
			drawLine(put, o.From, o.To, "·", segmentStyle)
		case render.Guide:
			drawLine(put, o.From, o.To, "~", guideStyle)
		case render.WaypointMarker:
			put(o.At, "+", markerStyle)
		case render.SnapHighlight:
			put(o.At, "o", markerStyle)
		}
	}
	// Cards last so labels sit on top of lines.
	for _, obj := range m.canvas.Objects(m.controller.Session(), draggable) {
		if card, ok := obj.(render.NodeCard); ok {
			m.drawCard(put, card)
		}
	}
	put(m.cursor, "+", cursorStyle)

	var sb strings.Builder
	for _, row := range grid {
		for _, c := range row {
			if c.ch == "" {
				sb.WriteString(" ")
			} else {
				sb.WriteString(c.style.Render(c.ch))
			}
		}
		sb.WriteString("\n")
	}

	header := headerStyle.Render(fmt.Sprintf("meterboard  mode:%s  axis:%s  45:%s  layers:%s",
		m.controller.Mode(), onOff(m.axisSnap), onOff(m.snap45), m.layerFlags()))

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		sb.String(),
		m.activityView(),
		m.statusView(),
	)
}

func (m model) drawCard(put func(geometry.Point, string, lipgloss.Style), card render.NodeCard) {
	style := nodeStyle
	if card.Selected {
		style = selectedStyle
	}
	label := card.Label
	if label == "" {
		label = card.NodeID
	}
	text := "[" + label + "]"
	center := card.Box.Center()
	start := center.X - float64(len(text))/2
	for i, r := range text {
		put(geometry.Point{X: start + float64(i), Y: center.Y}, string(r), style)
	}
}

func drawLine(put func(geometry.Point, string, lipgloss.Style), from, to geometry.Point, ch string, style lipgloss.Style) {
	steps := int(math.Max(math.Abs(to.X-from.X), math.Abs(to.Y-from.Y)))
	if steps == 0 {
		put(from, ch, style)
		return
	}
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		put(geometry.Point{
			X: from.X + (to.X-from.X)*t,
			Y: from.Y + (to.Y-from.Y)*t,
		}, ch, style)
	}
}

func (m model) layerFlags() string {
	flags := []byte("---")
	if m.layers.Nodes {
		flags[0] = 'n'
	}
	if m.layers.Connections {
		flags[1] = 'c'
	}
	if m.layers.Background {
		flags[2] = 'b'
	}
	return string(flags)
}

func (m model) activityView() string {
	var sb strings.Builder
	sb.WriteString(subtleStyle.Render("Activity") + "\n")
	if len(m.edits) == 0 {
		sb.WriteString(subtleStyle.Render("  no edits yet"))
		return sb.String()
	}
	for _, e := range m.edits {
		sb.WriteString(fmt.Sprintf("  %s %s %s\n",
			subtleStyle.Render(e.Ts.Format("15:04:05")),
			e.Action,
			subtleStyle.Render(e.Detail),
		))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (m model) statusView() string {
	var parts []string
	if m.err != nil {
		parts = append(parts, errorStyle.Render(fmt.Sprintf("store: %v", m.err)))
	}
	for _, line := range m.notifier.Recent() {
		if strings.HasPrefix(line, "[warn]") || strings.HasPrefix(line, "[error]") {
			parts = append(parts, warnStyle.Render(line))
		} else {
			parts = append(parts, subtleStyle.Render(line))
		}
	}
	if m.lockHeld {
		parts = append(parts, okStyle.Render("edit lock held"))
	}
	parts = append(parts, subtleStyle.Render("s/p/c mode · enter click · esc cancel · a axis · 4 snap45 · 1/2/3 layers · w save joints · x delete · q quit"))
	return strings.Join(parts, "\n")
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func tick() tea.Cmd {
	return tea.Tick(activityPollRate, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func main() {
	configPath := "meterboard.toml"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}
	cfg, err := LoadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "meterboard-tui: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	st, err := store.NewStore(cfg.Store.DBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "meterboard-tui: failed to open store: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	if _, err := st.GetDiagram(ctx, cfg.Diagram.DiagramID); errors.Is(err, store.ErrNotFound) {
		if err := st.PutDiagram(ctx, schematic.Diagram{
			ID:        cfg.Diagram.DiagramID,
			ProjectID: cfg.Diagram.ProjectID,
			Name:      cfg.Diagram.DiagramID,
		}); err != nil {
			fmt.Fprintf(os.Stderr, "meterboard-tui: failed to create diagram: %v\n", err)
			os.Exit(1)
		}
	}

	notifier := &statusNotifier{}
	syncer := graph.NewSyncer(st, notifier)
	syncCtx, stopSync := context.WithCancel(ctx)
	defer stopSync()
	go syncer.Run(syncCtx)

	g := graph.New(st, syncer, notifier, cfg.Diagram.DiagramID, cfg.Diagram.ProjectID)
	if err := g.Load(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "meterboard-tui: failed to load diagram: %v\n", err)
		os.Exit(1)
	}

	lockHeld := false
	if cfg.Redis.Enabled {
		locks := redisstore.NewLockStore(redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr}))
		holder := fmt.Sprintf("tui-%d", os.Getpid())
		ttl, err := cfg.Redis.LockDuration()
		if err != nil {
			fmt.Fprintf(os.Stderr, "meterboard-tui: %v\n", err)
			os.Exit(1)
		}
		ok, err := locks.Acquire(ctx, cfg.Diagram.DiagramID, holder, ttl)
		if err != nil {
			fmt.Fprintf(os.Stderr, "meterboard-tui: edit lock: %v\n", err)
			os.Exit(1)
		}
		if !ok {
			fmt.Fprintln(os.Stderr, "meterboard-tui: diagram is locked by another editor")
			os.Exit(1)
		}
		lockHeld = true
		defer locks.Release(ctx, cfg.Diagram.DiagramID, holder)

		go func() {
			ticker := time.NewTicker(ttl / 3)
			defer ticker.Stop()
			for {
				select {
				case <-syncCtx.Done():
					return
				case <-ticker.C:
					if err := locks.Renew(ctx, cfg.Diagram.DiagramID, holder, ttl); err != nil {
						notifier.Notify(graph.LevelWarn, fmt.Sprintf("edit lock renew failed: %v", err))
					}
				}
			}
		}()
	}

	if cfg.Metrics.Addr != "" {
		go func() {
			if err := graph.ServeMetrics(cfg.Metrics.Addr); err != nil {
				log.Printf("Failed to serve metrics: %v", err)
			}
		}()
	}

	canvas := render.NewCanvas(g, geometry.Viewport{Width: 100, Height: 30})
	controller := editor.NewController(canvas, g, func(at geometry.Point) error {
		return placeNextUnplaced(g, at)
	})

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	m := model{
		st:         st,
		spinner:    sp,
		graph:      g,
		canvas:     canvas,
		controller: controller,
		notifier:   notifier,
		cursor:     geometry.Point{X: 20, Y: 10},
		layers:     render.AllLayers(),
		lockHeld:   lockHeld,
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Alas, there's been an error: %v", err)
		os.Exit(1)
	}
	syncer.Flush()
}

// placeNextUnplaced places the first meter without a position at the click
// point. A picker would be nicer; first-unplaced keeps the keyboard flow
// simple.
func placeNextUnplaced(g *graph.Graph, at geometry.Point) error {
	placed := make(map[string]bool)
	for _, p := range g.Positions() {
		placed[p.NodeID] = true
	}
	for _, n := range g.Nodes() {
		if !placed[n.ID] {
			return g.UpsertPosition(n.ID, at.X, at.Y)
		}
	}
	return fmt.Errorf("every meter is already placed")
}
