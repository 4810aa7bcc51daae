package tui

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/RomanPilyushin/Backtesting-Engine/internal/domain"
)

type screen int

const (
	screenRuns screen = iota
	screenDetail
)

type runItem struct {
	ref domain.RunRef
}

func (r runItem) Title() string { return r.ref.ID }

func (r runItem) Description() string {
	desc := fmt.Sprintf("%s %s  P/L %s  %s",
		r.ref.Strategy, strings.Join(r.ref.Instruments, "/"), money(r.ref.PL), percent(r.ref.Return))
	if r.ref.MarginCall {
		desc += "  margin call"
	}
	return desc
}

func (r runItem) FilterValue() string {
	return r.ref.ID + " " + r.ref.Strategy + " " + strings.Join(r.ref.Instruments, " ")
}

type model struct {
	theme Theme
	deps  Deps

	scr    screen
	runs   list.Model
	detail viewport.Model

	workspaceFound bool
	workspaceRoot  string
	cwd            string

	loading  bool
	toast    string
	toastErr bool
}

// reset returns to the run list with a failure toast.
func (m model) reset(toast string) model {
	m.scr = screenRuns
	m.loading = false
	return m.fail(toast)
}

func (m model) fail(toast string) model {
	m.toast, m.toastErr = toast, true
	return m
}

func (m model) notify(toast string) model {
	m.toast, m.toastErr = toast, false
	return m
}

func Run(deps Deps) error {
	log := deps.logger()
	log.Info("tui.start", "debug", deps.Debug)

	p := tea.NewProgram(wrapSafe(newModel(deps), log), tea.WithAltScreen())
	_, err := p.Run()
	if err != nil {
		log.Error("tui.exit", "err", err)
	}
	return err
}

func newModel(deps Deps) model {
	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Saved runs"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(false)

	return model{
		theme:  DefaultTheme(),
		deps:   deps,
		scr:    screenRuns,
		runs:   l,
		detail: viewport.New(0, 0),
	}
}

func (m model) Init() tea.Cmd { return cmdRefreshWorkspace(m.deps) }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		w, h := msg.Width, msg.Height
		m.runs.SetSize(w-4, h-10)
		m.detail.Width = w - 8
		m.detail.Height = h - 12
		return m, nil

	case workspaceRefreshedMsg:
		m.cwd = msg.cwd
		m.workspaceFound = msg.found
		m.workspaceRoot = msg.root
		if !msg.found {
			return m, nil
		}
		m.loading = true
		return m, cmdLoadRuns(m.deps, m.workspaceRoot)

	case initWorkspaceDoneMsg:
		if msg.err != nil {
			return m.fail(userMessage(msg.err)), nil
		}
		m = m.notify("Workspace created")
		m.workspaceFound = true
		m.workspaceRoot = msg.root
		m.loading = true
		return m, cmdLoadRuns(m.deps, m.workspaceRoot)

	case runsLoadedMsg:
		m.loading = false
		if msg.err != nil {
			return m.fail(userMessage(msg.err)), nil
		}
		items := make([]list.Item, 0, len(msg.refs))
		for _, r := range msg.refs {
			items = append(items, runItem{ref: r})
		}
		return m, m.runs.SetItems(items)

	case runLoadedMsg:
		m.loading = false
		if msg.err != nil {
			return m.fail(userMessage(msg.err)), nil
		}
		m = m.notify("")
		m.scr = screenDetail
		m.detail.SetContent(renderRunSummary(msg.run))
		m.detail.GotoTop()
		return m, nil

	case tea.KeyMsg:
		if m.scr == screenRuns && m.runs.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit

		case "esc", "b":
			if m.scr == screenDetail {
				m.scr = screenRuns
				return m, nil
			}

		case "enter":
			if m.scr == screenRuns && m.workspaceFound && !m.loading {
				it, ok := m.runs.SelectedItem().(runItem)
				if !ok {
					return m, nil
				}
				m.loading = true
				return m, cmdLoadRun(m.deps, m.workspaceRoot, it.ref.ID)
			}

		case "r":
			if m.scr == screenRuns && m.workspaceFound {
				m.loading = true
				return m, cmdLoadRuns(m.deps, m.workspaceRoot)
			}

		case "i":
			if !m.workspaceFound {
				root := m.cwd
				if root == "" {
					root, _ = os.Getwd()
				}
				return m, cmdInitWorkspaceHere(m.deps, root)
			}
		}
	}

	var cmd tea.Cmd
	if m.scr == screenDetail {
		m.detail, cmd = m.detail.Update(msg)
		return m, cmd
	}
	m.runs, cmd = m.runs.Update(msg)
	return m, cmd
}

func (m model) View() string {
	wrap := m.theme.Frame
	header := m.theme.Title.Render("Backtest") + "\n" +
		m.theme.Subtitle.Render("Historical daily-price strategy runs") + "\n"

	var banner string
	if m.workspaceFound {
		banner = m.theme.Help.Render(fmt.Sprintf("Workspace: %s", m.workspaceRoot))
	} else {
		banner = m.theme.Card.Render("No workspace found.\n\nPress i to create one here, or run `backtest init`.")
	}

	status := ""
	if m.loading {
		status = m.theme.Help.Render("loading…") + "\n"
	}
	if m.toast != "" {
		status += m.theme.toastStyle(m.toastErr).Render(m.toast) + "\n"
	}

	switch m.scr {
	case screenRuns:
		if !m.workspaceFound {
			return wrap.Render(header + "\n" + banner + "\n" + status + m.theme.Help.Render("i init • q quit"))
		}
		help := m.theme.Help.Render("↑/↓ navigate • enter open • / search • r reload • q quit")
		return wrap.Render(header + "\n" + banner + "\n\n" + m.theme.Card.Render(m.runs.View()) + "\n" + status + help)

	case screenDetail:
		help := m.theme.Help.Render("↑/↓ scroll • esc back • q quit")
		return wrap.Render(header + "\n" + m.theme.Card.Render(m.detail.View()) + "\n" + status + help)

	default:
		return wrap.Render(header + "\n" + "unknown state")
	}
}
