// Package equipconsole is the terminal console over the merged equipment
// store: a refreshing list, a detail pane with the completeness breakdown
// and the tail of the audit trail.
package equipconsole

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"plantsync/internal/domain/entity"
	"plantsync/internal/ports"
	syncuc "plantsync/internal/usecase/sync"
)

const maxShownRevisions = 4
const maxShownAudit = 6

type Options struct {
	StatusFilter    string
	LocationFilter  string
	RefreshInterval time.Duration
}

type equipModel struct {
	ctx             context.Context
	service         *syncuc.Service
	statusFilter    string
	locationFilter  string
	refreshInterval time.Duration

	records       []entity.Equipment
	selectedIndex int
	detail        entity.Equipment
	hasDetail     bool
	score         syncuc.ScoreReport
	hasScore      bool
	audit         []ports.AuditEntry
	status        string
}

type recordsLoadedMsg struct {
	items []entity.Equipment
	err   error
}

type detailLoadedMsg struct {
	uid    string
	detail entity.Equipment
	score  syncuc.ScoreReport
	audit  []ports.AuditEntry
	err    error
}

type tickMsg struct{}

func NewModel(ctx context.Context, service *syncuc.Service, options Options) tea.Model {
	interval := options.RefreshInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}

	return &equipModel{
		ctx:             ctx,
		service:         service,
		statusFilter:    strings.TrimSpace(options.StatusFilter),
		locationFilter:  strings.TrimSpace(options.LocationFilter),
		refreshInterval: interval,
		status:          "loading",
	}
}

func (m *equipModel) Init() tea.Cmd {
	return tea.Batch(m.loadRecordsCmd(), m.tickCmd())
}

func (m *equipModel) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := message.(type) {
	case tickMsg:
		return m, tea.Batch(m.loadRecordsCmd(), m.tickCmd())
	case recordsLoadedMsg:
		if msg.err != nil {
			m.status = "refresh failed: " + msg.err.Error()
			return m, nil
		}
		m.records = msg.items
		if len(m.records) == 0 {
			m.selectedIndex = 0
			m.hasDetail = false
			m.hasScore = false
			m.audit = nil
			m.status = "store is empty"
			return m, nil
		}
		if m.selectedIndex < 0 {
			m.selectedIndex = 0
		}
		if m.selectedIndex >= len(m.records) {
			m.selectedIndex = len(m.records) - 1
		}
		m.status = fmt.Sprintf("refreshed, %d records", len(m.records))
		return m, m.loadSelectedDetailCmd()
	case detailLoadedMsg:
		if !m.isCurrentSelection(msg.uid) {
			return m, nil
		}
		if msg.err != nil {
			m.hasDetail = false
			m.hasScore = false
			m.audit = nil
			m.status = "detail load failed: " + msg.err.Error()
			return m, nil
		}
		m.detail = msg.detail
		m.hasDetail = true
		m.score = msg.score
		m.hasScore = true
		m.audit = msg.audit
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "g":
			m.status = "refreshing"
			return m, m.loadRecordsCmd()
		case "up", "k":
			if m.selectedIndex > 0 {
				m.selectedIndex--
				return m, m.loadSelectedDetailCmd()
			}
			return m, nil
		case "down", "j":
			if m.selectedIndex < len(m.records)-1 {
				m.selectedIndex++
				return m, m.loadSelectedDetailCmd()
			}
			return m, nil
		}
	}
	return m, nil
}

func (m *equipModel) View() string {
	titleStyle := lipgloss.NewStyle().Bold(true)
	sectionStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	selectedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Background(lipgloss.Color("62"))

	var builder strings.Builder
	builder.WriteString(titleStyle.Render("Equipment Console"))
	builder.WriteString("\n")
	builder.WriteString(dimStyle.Render(fmt.Sprintf(
		"status=%s location=%s refresh=%s",
		firstNonEmpty(m.statusFilter, "all"),
		firstNonEmpty(m.locationFilter, "all"),
		m.refreshInterval,
	)))
	builder.WriteString("\n\n")

	builder.WriteString(sectionStyle.Render("Records"))
	builder.WriteString("\n")
	if len(m.records) == 0 {
		builder.WriteString(dimStyle.Render("- no equipment"))
		builder.WriteString("\n\n")
	} else {
		for index, item := range m.records {
			line := fmt.Sprintf(
				"%s v%d status=%s name=%s",
				item.Code,
				item.Version,
				firstNonEmpty(item.Status, "-"),
				item.Name,
			)
			if index == m.selectedIndex {
				builder.WriteString(selectedStyle.Render("> " + line))
			} else {
				builder.WriteString("  " + line)
			}
			builder.WriteString("\n")
		}
		builder.WriteString("\n")
	}

	builder.WriteString(sectionStyle.Render("Detail"))
	builder.WriteString("\n")
	if !m.hasDetail {
		builder.WriteString(dimStyle.Render("- no detail"))
		builder.WriteString("\n\n")
	} else {
		builder.WriteString(fmt.Sprintf("UID: %s\n", m.detail.UID))
		builder.WriteString(fmt.Sprintf("Code: %s\n", m.detail.Code))
		builder.WriteString(fmt.Sprintf("Name: %s\n", m.detail.Name))
		builder.WriteString(fmt.Sprintf("Version: %d (source: %s)\n", m.detail.Version, m.detail.SourceModule))
		if m.detail.Manufacturer != "" || m.detail.Model != "" {
			builder.WriteString(fmt.Sprintf("Make: %s %s\n", m.detail.Manufacturer, m.detail.Model))
		}
		if m.detail.Position != (entity.Position{}) || m.detail.Size != (entity.Size{}) {
			builder.WriteString(fmt.Sprintf(
				"Diagram: pos=(%.1f, %.1f) size=%.0fx%.0f\n",
				m.detail.Position.X, m.detail.Position.Y,
				m.detail.Size.Width, m.detail.Size.Height,
			))
		}
		if m.detail.HazardClass != "" || m.detail.CASNumber != "" {
			builder.WriteString(fmt.Sprintf("Safety: hazard=%s cas=%s\n", m.detail.HazardClass, m.detail.CASNumber))
		}
		if len(m.detail.CorruptFields) > 0 {
			builder.WriteString(fmt.Sprintf("Corrupt fields reset: %s\n", strings.Join(m.detail.CorruptFields, ",")))
		}

		if m.hasScore {
			builder.WriteString(fmt.Sprintf("\nCompleteness: %.0f%%\n", m.score.Overall*100))
			for _, cat := range entity.Categories() {
				builder.WriteString(fmt.Sprintf("- %s %.0f%%", cat, m.score.ByCategory[cat]*100))
				if missing := m.score.MissingByCategory[cat]; len(missing) > 0 {
					builder.WriteString(" missing=" + strings.Join(missing, ","))
				}
				builder.WriteString("\n")
			}
		}

		builder.WriteString("\nRecent Revisions:\n")
		revisions := m.detail.Revisions
		if len(revisions) == 0 {
			builder.WriteString("- none\n")
		} else {
			start := len(revisions) - maxShownRevisions
			if start < 0 {
				start = 0
			}
			for _, rev := range revisions[start:] {
				builder.WriteString(fmt.Sprintf("- v%d by %s at %s\n", rev.Version, rev.SourceModule, rev.Timestamp.Format("2006-01-02 15:04:05")))
			}
		}
		builder.WriteString("\n")
	}

	builder.WriteString(sectionStyle.Render("Audit"))
	builder.WriteString("\n")
	if len(m.audit) == 0 {
		builder.WriteString(dimStyle.Render("- no entries"))
		builder.WriteString("\n\n")
	} else {
		for _, entry := range m.audit {
			builder.WriteString(fmt.Sprintf("- %s by=%s at=%s\n", entry.Operation, entry.ChangedBy, entry.ChangedAt))
		}
		builder.WriteString("\n")
	}

	builder.WriteString(sectionStyle.Render("Status"))
	builder.WriteString("\n")
	builder.WriteString("- " + firstNonEmpty(m.status, "ready"))
	builder.WriteString("\n\n")

	builder.WriteString(dimStyle.Render("Keys: ↑/k ↓/j move  g refresh  q quit"))
	return builder.String()
}

func (m *equipModel) tickCmd() tea.Cmd {
	return tea.Tick(m.refreshInterval, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

func (m *equipModel) loadRecordsCmd() tea.Cmd {
	return func() tea.Msg {
		items, err := m.service.ListEquipment(m.ctx, ports.EquipmentFilter{
			Status:   m.statusFilter,
			Location: m.locationFilter,
		})
		if err != nil {
			return recordsLoadedMsg{err: err}
		}
		return recordsLoadedMsg{items: items}
	}
}

func (m *equipModel) loadSelectedDetailCmd() tea.Cmd {
	selected, ok := m.selectedRecord()
	if !ok {
		return nil
	}

	return func() tea.Msg {
		detail, err := m.service.GetEquipment(m.ctx, selected.UID)
		if err != nil {
			return detailLoadedMsg{uid: selected.UID, err: err}
		}
		score, err := m.service.Completeness(m.ctx, selected.UID)
		if err != nil {
			return detailLoadedMsg{uid: selected.UID, err: err}
		}
		audit, err := m.service.ListAudit(m.ctx, selected.UID, maxShownAudit)
		if err != nil {
			return detailLoadedMsg{uid: selected.UID, err: err}
		}
		return detailLoadedMsg{
			uid:    selected.UID,
			detail: detail,
			score:  score,
			audit:  audit,
		}
	}
}

func (m *equipModel) selectedRecord() (entity.Equipment, bool) {
	if m.selectedIndex < 0 || m.selectedIndex >= len(m.records) {
		return entity.Equipment{}, false
	}
	return m.records[m.selectedIndex], true
}

func (m *equipModel) isCurrentSelection(uid string) bool {
	selected, ok := m.selectedRecord()
	return ok && selected.UID == uid
}

func firstNonEmpty(value string, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}
