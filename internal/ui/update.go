package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/music-playlists/internal/tasks"
)

// Updater runs a playlist update, reporting progress on the channel.
type Updater interface {
	ServicesUpdate(ctx context.Context, filter tasks.UpdateFilter, progress chan<- tasks.ProgressUpdate) ([]*tasks.UpdateResult, error)
}

type progressUpdateMsg tasks.ProgressUpdate

type updateCompleteMsg struct {
	results []*tasks.UpdateResult
	err     error
}

// UpdateModel is the bubbletea model of a running update.
type UpdateModel struct {
	ctx    context.Context
	cancel context.CancelFunc
	runner Updater
	filter tasks.UpdateFilter

	progressChan chan tasks.ProgressUpdate
	doneChan     chan updateCompleteMsg

	spinner  spinner.Model
	bar      progress.Model
	help     help.Model
	keys     keyMap
	current  tasks.ProgressUpdate
	searched float64
	finished []string

	results  []*tasks.UpdateResult
	err      error
	done     bool
	quitting bool
}

// NewUpdateModel creates a model that runs runner with filter when the program starts.
func NewUpdateModel(ctx context.Context, runner Updater, filter tasks.UpdateFilter) *UpdateModel {
	ctx, cancel := context.WithCancel(ctx)
	return &UpdateModel{
		ctx:     ctx,
		cancel:  cancel,
		runner:  runner,
		filter:  filter,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// Result returns the update results once the program has finished.
func (m *UpdateModel) Result() ([]*tasks.UpdateResult, error) {
	return m.results, m.err
}

// Init starts the update and the spinner.
func (m *UpdateModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.start())
}

// Update handles incoming messages and updates the model state.
func (m *UpdateModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, m.keys.quit) {
			m.cancel()
			if m.done {
				return m, tea.Quit
			}
			m.quitting = true
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case progressUpdateMsg:
		update := tasks.ProgressUpdate(msg)
		m.current = update
		switch update.Phase {
		case tasks.SearchTracks:
			if update.Total > 0 {
				m.searched = float64(update.Step) / float64(update.Total)
			}
		case tasks.FetchSource:
			m.searched = 0
		case tasks.Finished:
			m.finished = append(m.finished, m.finishedLine(update))
		}
		return m, m.waitForProgress()

	case updateCompleteMsg:
		m.results = msg.results
		m.err = msg.err
		m.done = true
		m.cancel()
		return m, tea.Quit
	}
	return m, nil
}

// View renders the current state.
func (m *UpdateModel) View() string {
	var b strings.Builder
	b.WriteString(styles.title.Render("Updating playlists"))
	b.WriteString("\n")

	for _, line := range m.finished {
		b.WriteString(line + "\n")
	}

	if m.done {
		if m.err != nil {
			b.WriteString(styles.err.Render(fmt.Sprintf("Finished with errors: %v", m.err)) + "\n")
		} else {
			b.WriteString(styles.ok.Render(fmt.Sprintf("✓ Updated %d playlists", len(m.results))) + "\n")
		}
		return b.String()
	}

	fmt.Fprintf(&b, "\n%s %s\n", m.spinner.View(), phaseLabel(m.current))
	if m.current.Phase == tasks.SearchTracks {
		b.WriteString(m.bar.ViewAs(m.searched) + "\n")
	}
	if m.quitting {
		b.WriteString(styles.warn.Render("Cancelling...") + "\n")
	}
	b.WriteString("\n" + styles.help.Render(m.help.ShortHelpView(m.keys.ShortHelp())))
	return b.String()
}

func (m *UpdateModel) start() tea.Cmd {
	m.progressChan = make(chan tasks.ProgressUpdate, 50)
	m.doneChan = make(chan updateCompleteMsg, 1)

	go func() {
		results, err := m.runner.ServicesUpdate(m.ctx, m.filter, m.progressChan)
		close(m.progressChan)
		m.doneChan <- updateCompleteMsg{results: results, err: err}
	}()

	return m.waitForProgress()
}

func (m *UpdateModel) waitForProgress() tea.Cmd {
	return func() tea.Msg {
		update, ok := <-m.progressChan
		if !ok {
			return <-m.doneChan
		}
		return progressUpdateMsg(update)
	}
}

func (m *UpdateModel) finishedLine(update tasks.ProgressUpdate) string {
	if result, ok := update.Data.(*tasks.UpdateResult); ok && result.Err != nil {
		return styles.err.Render(update.Message)
	}
	return styles.ok.Render(update.Message)
}

func phaseLabel(update tasks.ProgressUpdate) string {
	if update.Message == "" {
		return "Starting..."
	}
	switch update.Phase {
	case tasks.SearchTracks:
		return fmt.Sprintf("Searching tracks (%d/%d)", update.Step, update.Total)
	case tasks.Login, tasks.FetchSource, tasks.UpdateDetails, tasks.UpdateTracks:
		return update.Message
	default:
		return "Starting..."
	}
}
