package ui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/nconklindev/csvmaker/internal/batch"
	"github.com/nconklindev/csvmaker/internal/converter"
	"github.com/nconklindev/csvmaker/internal/types"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type state int

const (
	stateFilePicker state = iota
	statePreview
	stateProcessing
	stateComplete
)

// Settings configures the batch the UI runs.
type Settings struct {
	Job       converter.Job
	OutputDir string
	Workers   int
	// Files are queued before the picker opens.
	Files []string
}

type Model struct {
	state      state
	settings   Settings
	filepicker filepicker.Model
	queue      []string
	results    map[int]types.ConversionResult
	notice     string

	previewFile string
	preview     []types.Row
	previewErr  error

	report       *batch.Report
	width        int
	height       int
	progress     progress.Model
	progressChan chan batch.Progress
	reportChan   chan batch.Report
	cancel       context.CancelFunc
}

type previewLoadedMsg struct {
	path string
	rows []types.Row
	err  error
}

type fileDoneMsg batch.Progress

type batchCompleteMsg batch.Report

func New(settings Settings) Model {
	fp := filepicker.New()
	fp.AllowedTypes = allowedTypes(settings.Job.Format)
	fp.CurrentDirectory, _ = os.Getwd()

	fp.Styles.Cursor = lipgloss.NewStyle().Foreground(accent)
	fp.Styles.Symlink = lipgloss.NewStyle().Foreground(highlight)
	fp.Styles.Directory = lipgloss.NewStyle().Foreground(highlight)
	fp.Styles.File = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF"))
	fp.Styles.Permission = lipgloss.NewStyle().Foreground(muted)
	fp.Styles.Selected = lipgloss.NewStyle().Foreground(accent).Bold(true)
	fp.Styles.FileSize = lipgloss.NewStyle().Foreground(muted)

	m := Model{
		state:      stateFilePicker,
		settings:   settings,
		filepicker: fp,
		results:    make(map[int]types.ConversionResult),
		progress:   progress.New(progress.WithGradient("#2BB673", "#8FD694")),
	}
	for _, f := range settings.Files {
		m = m.enqueue(f)
	}
	return m
}

// allowedTypes limits the picker to workbooks and databases for tabular
// input. Text exports come with arbitrary extensions, so nothing is filtered.
func allowedTypes(format types.Format) []string {
	if format == types.FormatTabular {
		return []string{".xlsx", ".xlsm", ".xltx", ".xltm", ".db", ".sqlite", ".sqlite3"}
	}
	return nil
}

func (m Model) Init() tea.Cmd {
	return m.filepicker.Init()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		// Leave room for the title, queue and help text
		height := msg.Height - 14 - len(m.queue)
		if height < 5 {
			height = 5
		}
		m.filepicker.SetHeight(height)
		m.progress.Width = min(msg.Width-10, 60)

		return m, nil

	case tea.KeyMsg:
		switch m.state {
		case stateFilePicker:
			switch msg.String() {
			case "ctrl+c", "q":
				return m, tea.Quit
			case "x":
				if len(m.queue) > 0 {
					m.queue = m.queue[:len(m.queue)-1]
					m.notice = ""
				}
				return m, nil
			case "p":
				if len(m.queue) > 0 {
					return m, m.loadPreview(m.queue[len(m.queue)-1])
				}
				return m, nil
			case "c":
				if len(m.queue) > 0 {
					return m.startBatch()
				}
				return m, nil
			}

		case statePreview:
			switch msg.String() {
			case "ctrl+c", "q":
				return m, tea.Quit
			case "esc", "enter", "p":
				m.state = stateFilePicker
				return m, nil
			}
			return m, nil

		case stateProcessing:
			if msg.String() == "ctrl+c" {
				m.cancel()
				return m, tea.Quit
			}
			return m, nil

		case stateComplete:
			switch msg.String() {
			case "ctrl+c", "q", "enter", "esc":
				return m, tea.Quit
			}
			return m, nil
		}

	case previewLoadedMsg:
		m.previewFile = msg.path
		m.preview = msg.rows
		m.previewErr = msg.err
		m.state = statePreview
		return m, nil

	case fileDoneMsg:
		m.results[msg.Index] = msg.Result
		cmd := m.progress.SetPercent(batch.Progress(msg).Percent())
		return m, tea.Batch(cmd, waitForProgress(m.progressChan, m.reportChan))

	case batchCompleteMsg:
		report := batch.Report(msg)
		m.report = &report
		for i, res := range report.Results {
			m.results[i] = res
		}
		m.state = stateComplete
		if m.cancel != nil {
			m.cancel()
		}
		return m, nil

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		return m, cmd
	}

	if m.state == stateFilePicker {
		var cmd tea.Cmd
		m.filepicker, cmd = m.filepicker.Update(msg)

		if didSelect, path := m.filepicker.DidSelectFile(msg); didSelect {
			m = m.enqueue(path)
		}
		return m, cmd
	}

	return m, nil
}

// enqueue adds path to the batch unless it is already queued or its
// extension differs from the files queued so far.
func (m Model) enqueue(path string) Model {
	if slices.Contains(m.queue, path) {
		m.notice = filepath.Base(path) + " is already queued"
		return m
	}
	if err := batch.CheckSameExtension(append(slices.Clone(m.queue), path)); err != nil {
		m.notice = err.Error()
		return m
	}
	m.queue = append(m.queue, path)
	m.notice = ""
	return m
}

func (m Model) loadPreview(path string) tea.Cmd {
	job := m.settings.Job
	return func() tea.Msg {
		rows, err := converter.PreviewFile(context.Background(), job, path, converter.PreviewLimit)
		return previewLoadedMsg{path: path, rows: rows, err: err}
	}
}

func (m Model) startBatch() (Model, tea.Cmd) {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.state = stateProcessing
	m.results = make(map[int]types.ConversionResult)
	m.progressChan = make(chan batch.Progress, len(m.queue))
	m.reportChan = make(chan batch.Report, 1)

	runner := batch.Runner{
		Job:       m.settings.Job,
		OutputDir: m.settings.OutputDir,
		Workers:   m.settings.Workers,
	}
	files := slices.Clone(m.queue)
	progressChan := m.progressChan
	reportChan := m.reportChan

	go func() {
		report := runner.Run(ctx, files, progressChan)
		close(progressChan)
		reportChan <- report
		close(reportChan)
	}()

	return m, tea.Batch(
		waitForProgress(progressChan, reportChan),
		m.progress.Init(),
	)
}

func waitForProgress(progressChan chan batch.Progress, reportChan chan batch.Report) tea.Cmd {
	return func() tea.Msg {
		if progressChan == nil {
			return nil
		}

		p, ok := <-progressChan
		if !ok {
			report, ok := <-reportChan
			if ok {
				return batchCompleteMsg(report)
			}
			return nil
		}
		return fileDoneMsg(p)
	}
}

func (m Model) View() string {
	switch m.state {
	case stateFilePicker:
		return m.viewFilePicker()
	case statePreview:
		return m.viewPreview()
	case stateProcessing:
		return m.viewProcessing()
	case stateComplete:
		return m.viewComplete()
	}
	return ""
}

func (m Model) viewFilePicker() string {
	var s strings.Builder

	title := TitleStyle.Render("csvmaker")
	s.WriteString(lipgloss.JoinVertical(lipgloss.Left, title,
		SubtitleStyle.Render(fmt.Sprintf("Convert %s files to CSV", m.settings.Job.Format))))
	s.WriteString("\n")

	s.WriteString(m.filepicker.View())
	s.WriteString("\n\n")

	if len(m.queue) == 0 {
		s.WriteString(SubtitleStyle.Render("Select files to add them to the batch"))
	} else {
		s.WriteString(QueueHeaderStyle.Render(fmt.Sprintf("Queued (%d)", len(m.queue))))
		s.WriteString("\n")
		for _, f := range m.queue {
			s.WriteString("  " + truncatePath(f, m.width-4) + "\n")
		}
	}
	if m.notice != "" {
		s.WriteString("\n")
		s.WriteString(ErrorStyle.Render(m.notice))
	}
	s.WriteString("\n")
	s.WriteString(HelpStyle.Render("enter: add file • p: preview last • x: remove last • c: convert • q: quit"))

	return s.String()
}

func (m Model) viewPreview() string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render("Preview"))
	s.WriteString("\n")
	s.WriteString(SubtitleStyle.Render(filepath.Base(m.previewFile)))
	s.WriteString("\n")

	for _, row := range m.preview {
		s.WriteString(converter.EncodeRow(row, m.settings.Job.Options.Qualifier))
		s.WriteString("\n")
	}
	if len(m.preview) == 0 && m.previewErr == nil {
		s.WriteString(SubtitleStyle.Render("(no rows)"))
		s.WriteString("\n")
	}
	if m.previewErr != nil {
		s.WriteString("\n")
		s.WriteString(ErrorStyle.Render(m.previewErr.Error()))
		s.WriteString("\n")
	}

	s.WriteString(HelpStyle.Render("esc: back • q: quit"))
	return BoxStyle.Render(s.String())
}

func (m Model) viewProcessing() string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render("Converting..."))
	s.WriteString("\n\n")
	s.WriteString(m.progress.View())
	s.WriteString("\n\n")
	s.WriteString(m.statusLines())
	s.WriteString(HelpStyle.Render("ctrl+c: cancel"))

	return BoxStyle.Render(s.String())
}

func (m Model) viewComplete() string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render("Job complete."))
	s.WriteString("\n\n")
	s.WriteString(m.statusLines())

	if m.report != nil {
		failed := m.report.Failed()
		summary := fmt.Sprintf("%d of %d files converted, %d rows written",
			len(m.report.Results)-failed, len(m.report.Results), m.report.Rows())
		if failed > 0 {
			s.WriteString(ErrorStyle.Render(summary))
		} else {
			s.WriteString(SuccessStyle.Render(summary))
		}
		s.WriteString("\n")
	}
	s.WriteString(HelpStyle.Render("Press enter to exit"))

	return BoxStyle.Render(s.String())
}

// statusLines renders one line per queued file in queue order.
func (m Model) statusLines() string {
	var s strings.Builder
	for i, f := range m.queue {
		name := truncatePath(filepath.Base(f), m.width-30)
		res, ok := m.results[i]
		switch {
		case !ok:
			s.WriteString(PendingStyle.Render(name + ": ..."))
		case res.OK():
			s.WriteString(name + ": " + SuccessStyle.Render(res.Summary()))
		default:
			s.WriteString(name + ": " + ErrorStyle.Render(res.Summary()))
		}
		s.WriteString("\n")
	}
	return s.String()
}

func truncatePath(p string, maxLen int) string {
	if maxLen < 30 {
		maxLen = 30
	}
	if len(p) > maxLen {
		return "..." + p[len(p)-maxLen+3:]
	}
	return p
}
