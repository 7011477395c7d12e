// Package tui provides the interactive terminal UI for Planora.
package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fentz26/planora/internal/models"
)

var (
	// Colors
	primaryColor   = lipgloss.Color("#7C3AED")
	secondaryColor = lipgloss.Color("#6366F1")
	successColor   = lipgloss.Color("#10B981")
	warningColor   = lipgloss.Color("#F59E0B")
	errorColor     = lipgloss.Color("#EF4444")
	mutedColor     = lipgloss.Color("#6B7280")
	fgColor        = lipgloss.Color("#F9FAFB")
	cyanColor      = lipgloss.Color("#06B6D4")

	// Styles
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			Padding(0, 1)

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#374151")).
			Foreground(fgColor).
			Padding(0, 1)

	inputBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor).
			Padding(0, 1)

	planItemStyle = lipgloss.NewStyle().
			Padding(0, 2)

	selectedStyle = lipgloss.NewStyle().
			Background(primaryColor).
			Foreground(fgColor).
			Bold(true).
			Padding(0, 2)

	helpStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Italic(true)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(secondaryColor)

	tierUpStyle = lipgloss.NewStyle().
			Foreground(successColor).
			Bold(true)

	tierDownStyle = lipgloss.NewStyle().
			Foreground(errorColor)
)

// App is the main TUI application model.
type App struct {
	client       *Client
	plans        []PlanItem
	selectedIdx  int
	input        textinput.Model
	viewport     viewport.Model
	width        int
	height       int
	mode         string // "list", "detail", "status"
	currentPlan  *models.Plan
	llmStatus    *LLMStatus
	message      string
	loading      bool
	daemonOnline bool
	suggestions  *Suggestions
}

// New creates a new TUI application.
func New(apiAddr string) *App {
	ti := textinput.New()
	ti.Placeholder = "Type: new <goal> | open <id> | delete <id> | status (/ for commands)"
	ti.Focus()
	ti.CharLimit = 256
	ti.Width = 80

	vp := viewport.New(80, 20)

	return &App{
		client:      NewClient(apiAddr),
		input:       ti,
		viewport:    vp,
		mode:        "list",
		suggestions: NewSuggestions(),
	}
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		a.fetchPlans(),
		a.checkDaemon(),
		a.fetchLLMStatus(false),
	)
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return a, tea.Quit

		case "esc":
			if a.mode == "detail" || a.mode == "status" {
				a.mode = "list"
				a.currentPlan = nil
				return a, a.fetchPlans()
			}

		case "up":
			if a.suggestions.IsVisible() {
				a.suggestions.Prev()
			} else if a.mode == "list" && a.selectedIdx > 0 {
				a.selectedIdx--
			}

		case "down":
			if a.suggestions.IsVisible() {
				a.suggestions.Next()
			} else if a.mode == "list" && a.selectedIdx < len(a.plans)-1 {
				a.selectedIdx++
			}

		case "k":
			// Vim navigation only while the input is empty, so typing
			// commands does not move the selection.
			if a.input.Value() == "" && a.mode == "list" && a.selectedIdx > 0 {
				a.selectedIdx--
				return a, nil
			}

		case "j":
			if a.input.Value() == "" && a.mode == "list" && a.selectedIdx < len(a.plans)-1 {
				a.selectedIdx++
				return a, nil
			}

		case "tab":
			// If suggestions visible, accept selection
			if a.suggestions.IsVisible() {
				if selected := a.suggestions.Selected(); selected != nil {
					a.input.SetValue(selected.Text + " ")
					a.suggestions.Update("")
				}
				return a, nil
			}
			// Cycle between the plan list and the tier status view
			if a.input.Value() == "" {
				if a.mode == "list" {
					a.mode = "status"
					return a, a.fetchLLMStatus(false)
				}
				a.mode = "list"
				return a, a.fetchPlans()
			}

		case "enter":
			// If suggestions visible, accept selection
			if a.suggestions.IsVisible() {
				if selected := a.suggestions.Selected(); selected != nil {
					a.input.SetValue(selected.Text + " ")
					a.suggestions.Update("")
				}
				return a, nil
			}
			cmd := strings.TrimSpace(a.input.Value())
			if cmd != "" {
				a.input.SetValue("")
				return a, a.executeCommand(cmd)
			} else if a.mode == "list" && len(a.plans) > 0 {
				plan := a.plans[a.selectedIdx]
				a.mode = "detail"
				return a, a.fetchPlanDetail(plan.ID)
			}

		case "r":
			if a.input.Value() == "" {
				if a.mode == "list" {
					return a, a.fetchPlans()
				} else if a.mode == "status" {
					return a, a.fetchLLMStatus(true)
				}
			}

		case "s":
			// Quick switch to the tier status view
			if a.input.Value() == "" && a.mode == "list" {
				a.mode = "status"
				return a, a.fetchLLMStatus(false)
			}
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.input.Width = msg.Width - 4
		a.viewport.Width = msg.Width
		a.viewport.Height = msg.Height - 10
		if a.currentPlan != nil {
			a.viewport.SetContent(a.renderPlanContent(a.currentPlan))
		}

	case plansLoadedMsg:
		a.loading = false
		a.plans = msg.plans
		if a.selectedIdx >= len(a.plans) {
			a.selectedIdx = max(0, len(a.plans)-1)
		}

	case planDetailLoadedMsg:
		a.currentPlan = msg.plan
		a.viewport.SetContent(a.renderPlanContent(msg.plan))
		a.viewport.GotoTop()

	case planCreatedMsg:
		a.currentPlan = &msg.result.Plan
		a.mode = "detail"
		a.viewport.SetContent(a.renderPlanContent(a.currentPlan))
		a.viewport.GotoTop()
		if msg.result.Saved {
			a.message = fmt.Sprintf("✓ Created plan %s (%s)", truncateID(msg.result.Plan.ID), msg.result.Plan.Method)
		} else {
			a.message = "Error: plan was not saved: " + msg.result.StoreError
		}

	case llmStatusLoadedMsg:
		a.llmStatus = msg.status

	case openPlanMsg:
		a.mode = "detail"
		return a, a.fetchPlanDetail(msg.id)

	case showStatusMsg:
		a.mode = "status"
		return a, a.fetchLLMStatus(false)

	case daemonStatusMsg:
		a.daemonOnline = msg.online

	case commandResultMsg:
		a.message = msg.message
		return a, a.fetchPlans()

	case errMsg:
		a.message = "Error: " + msg.err.Error()
	}

	// Scroll the detail viewport. Key events only reach it while the input
	// is empty, otherwise typing "d" or "j" would scroll the plan.
	if a.mode == "detail" {
		if _, isKey := msg.(tea.KeyMsg); !isKey || a.input.Value() == "" {
			var cmd tea.Cmd
			a.viewport, cmd = a.viewport.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	// Update input
	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	cmds = append(cmds, cmd)

	// Update suggestions based on input
	a.suggestions.Update(a.input.Value())

	// Populate dynamic suggestions for @
	if strings.HasPrefix(a.input.Value(), "@") {
		var planIDs []string
		for _, p := range a.plans {
			planIDs = append(planIDs, p.ID)
		}
		a.suggestions.SetPlans(planIDs)
	}

	return a, tea.Batch(cmds...)
}

// View implements tea.Model
func (a *App) View() string {
	var b strings.Builder

	// Header with daemon status
	daemonStatus := tierUpStyle.Render("● DAEMON")
	if !a.daemonOnline {
		daemonStatus = tierDownStyle.Render("○ DAEMON")
	}

	header := titleStyle.Render("🗂 PLANORA")
	header += "  " + daemonStatus
	if a.llmStatus != nil {
		header += "  " + lipgloss.NewStyle().Foreground(cyanColor).Render(fmt.Sprintf("[tier: %s]", a.llmStatus.CurrentMethod))
	}

	b.WriteString(header + "\n")
	b.WriteString(strings.Repeat("─", a.width) + "\n")

	// Main content area
	contentHeight := a.height - 8
	if contentHeight < 5 {
		contentHeight = 5
	}

	switch a.mode {
	case "list":
		b.WriteString(a.renderPlanList(contentHeight))
	case "detail":
		b.WriteString(a.viewport.View())
	case "status":
		b.WriteString(a.renderStatusPanel(contentHeight))
	}

	// Message bar
	if a.message != "" {
		msgStyle := lipgloss.NewStyle().Foreground(successColor)
		if strings.HasPrefix(a.message, "Error") {
			msgStyle = lipgloss.NewStyle().Foreground(errorColor)
		}
		b.WriteString("\n" + msgStyle.Render(a.message))
	} else {
		b.WriteString("\n")
	}

	// Input box
	b.WriteString("\n")
	b.WriteString(inputBoxStyle.Render(a.input.View()))

	// Suggestions dropdown (if visible) - renders BELOW input
	if a.suggestions.IsVisible() {
		b.WriteString("\n")
		b.WriteString(a.suggestions.Render(a.width))
	}
	b.WriteString("\n")

	// Status bar
	var status string
	switch a.mode {
	case "list":
		status = fmt.Sprintf(" Plans: %d | ↑↓:nav | Enter:open | Tab:status | r:refresh | Ctrl+C:quit", len(a.plans))
	case "detail":
		status = " ↑↓:scroll | Esc:back | Ctrl+C:quit"
	case "status":
		status = " r:re-check | Esc:back | Ctrl+C:quit"
	default:
		status = " Esc:back | Enter:command | Ctrl+C:quit"
	}
	b.WriteString(statusBarStyle.Width(a.width).Render(status))

	return b.String()
}

func (a *App) renderPlanList(height int) string {
	if a.loading {
		return "\n  Loading plans...\n"
	}
	if len(a.plans) == 0 {
		return "\n  No plans yet. Type: new <goal> to generate one.\n"
	}

	var lines []string
	for i, plan := range a.plans {
		goalText := truncateText(plan.Goal, 48)
		meta := fmt.Sprintf("%d tasks · %s · %s", plan.TaskCount, plan.Category, plan.Created)

		if i == a.selectedIdx {
			line := selectedStyle.Render(fmt.Sprintf("▶ %s  %s", a.formatMethodPlain(plan.Method), goalText))
			lines = append(lines, line+"  "+helpStyle.Render(meta))
		} else {
			line := planItemStyle.Render(fmt.Sprintf("  %s  %s", a.formatMethod(plan.Method), goalText))
			lines = append(lines, line+"  "+helpStyle.Render(meta))
		}
	}

	// Limit visible lines
	if len(lines) > height {
		start := a.selectedIdx - height/2
		if start < 0 {
			start = 0
		}
		end := start + height
		if end > len(lines) {
			end = len(lines)
			start = max(0, end-height)
		}
		lines = lines[start:end]
	}

	return strings.Join(lines, "\n")
}

func (a *App) renderStatusPanel(height int) string {
	var b strings.Builder

	b.WriteString("\n  🔌 Generation Tiers\n")
	b.WriteString("  " + strings.Repeat("─", 40) + "\n\n")

	if a.llmStatus == nil {
		b.WriteString("  Checking tiers...\n")
		return b.String()
	}

	st := a.llmStatus
	b.WriteString(fmt.Sprintf("  Current method: %s\n",
		lipgloss.NewStyle().Bold(true).Foreground(cyanColor).Render(st.CurrentMethod)))

	installed := "no"
	if st.OllamaInstalled {
		installed = "yes"
	}
	b.WriteString(fmt.Sprintf("  Ollama binary:  %s\n\n", installed))

	for _, tier := range st.Tiers {
		icon := tierUpStyle.Render("●")
		if !tier.Available {
			icon = tierDownStyle.Render("○")
		}
		line := fmt.Sprintf("    %s %-10s", icon, tier.Name)
		if tier.Detail != "" {
			line += " " + helpStyle.Render(tier.Detail)
		}
		b.WriteString(line + "\n")
	}

	b.WriteString("\n  " + helpStyle.Render("Press r to re-check, Esc to go back") + "\n")

	return b.String()
}

func (a *App) renderPlanContent(p *models.Plan) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("\n  📋 %s\n", lipgloss.NewStyle().Bold(true).Render(p.Goal)))
	b.WriteString(fmt.Sprintf("  ID: %s   Method: %s   Category: %s\n", truncateID(p.ID), p.Method, p.Category))
	b.WriteString(fmt.Sprintf("  Window: %s → %s (%d days)\n", p.StartDate, p.EndDate, p.DurationDays))

	b.WriteString("\n" + sectionStyle.Render("  Tasks") + "\n")
	for _, t := range p.Tasks {
		b.WriteString(fmt.Sprintf("  %2d. %s %s\n", t.ID, a.formatPriority(t.Priority), t.Title))
		meta := fmt.Sprintf("      %sh · due %s", formatHours(t.EstimatedHours), t.DueDate)
		if len(t.Dependencies) > 0 {
			meta += " · after " + joinIDs(t.Dependencies)
		}
		b.WriteString(helpStyle.Render(meta) + "\n")
	}

	if len(p.Milestones) > 0 {
		b.WriteString("\n" + sectionStyle.Render("  Milestones") + "\n")
		for _, m := range p.Milestones {
			b.WriteString(fmt.Sprintf("  ◆ %s\n", m.Name))
			b.WriteString(helpStyle.Render(fmt.Sprintf("      %s · tasks %s", m.TargetDate, joinIDs(m.TaskIDs))) + "\n")
		}
	}

	if len(p.Metadata.Attempts) > 0 {
		b.WriteString("\n" + sectionStyle.Render("  Generation") + "\n")
		for _, at := range p.Metadata.Attempts {
			icon := tierUpStyle.Render("●")
			note := fmt.Sprintf("%dms", at.ElapsedMS)
			if !at.OK {
				icon = tierDownStyle.Render("○")
				note = at.Reason
			}
			b.WriteString(fmt.Sprintf("  %s %-10s %s\n", icon, at.Tier, helpStyle.Render(note)))
		}
	}

	return b.String()
}

func (a *App) formatPriority(p models.Priority) string {
	switch p {
	case models.PriorityHigh:
		return lipgloss.NewStyle().Foreground(errorColor).Render("[high]")
	case models.PriorityLow:
		return lipgloss.NewStyle().Foreground(mutedColor).Render("[low]")
	default:
		return lipgloss.NewStyle().Foreground(warningColor).Render("[med]")
	}
}

func (a *App) formatMethod(method string) string {
	switch method {
	case "ollama":
		return lipgloss.NewStyle().Foreground(successColor).Render("●")
	case "hosted":
		return lipgloss.NewStyle().Foreground(secondaryColor).Render("◐")
	case "fallback":
		return lipgloss.NewStyle().Foreground(warningColor).Render("○")
	default:
		return "?"
	}
}

func (a *App) formatMethodPlain(method string) string {
	switch method {
	case "ollama":
		return "●"
	case "hosted":
		return "◐"
	case "fallback":
		return "○"
	default:
		return "?"
	}
}

func (a *App) fetchPlans() tea.Cmd {
	a.loading = true
	return func() tea.Msg {
		plans, err := a.client.ListPlans(50)
		if err != nil {
			return errMsg{err}
		}
		return plansLoadedMsg{plans}
	}
}

func (a *App) fetchPlanDetail(id string) tea.Cmd {
	return func() tea.Msg {
		plan, err := a.client.GetPlan(id)
		if err != nil {
			return errMsg{err}
		}
		return planDetailLoadedMsg{plan}
	}
}

func (a *App) fetchLLMStatus(refresh bool) tea.Cmd {
	return func() tea.Msg {
		status, err := a.client.GetLLMStatus(refresh)
		if err != nil {
			return errMsg{err}
		}
		return llmStatusLoadedMsg{status}
	}
}

func (a *App) checkDaemon() tea.Cmd {
	return func() tea.Msg {
		ok, err := a.client.CheckHealth()
		return daemonStatusMsg{online: err == nil && ok}
	}
}

func (a *App) executeCommand(input string) tea.Cmd {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return nil
	}

	cmd := parts[0]
	args := parts[1:]

	// Resolve the selection now, before the command runs off the Update loop.
	selectedID := ""
	if a.mode == "list" && len(a.plans) > 0 {
		selectedID = a.plans[a.selectedIdx].ID
	} else if a.currentPlan != nil {
		selectedID = a.currentPlan.ID
	}

	switch cmd {
	case "new":
		if len(args) < 1 {
			return resultCmd("Usage: new <goal>")
		}
		goalText := strings.Join(args, " ")
		return func() tea.Msg {
			result, err := a.client.CreatePlan(goalText)
			if err != nil {
				return commandResultMsg{"Error: " + err.Error()}
			}
			return planCreatedMsg{result}
		}

	case "open":
		id := selectedID
		if len(args) > 0 {
			id = strings.TrimPrefix(args[0], "@")
		}
		if id == "" {
			return resultCmd("No plan selected")
		}
		return func() tea.Msg { return openPlanMsg{id} }

	case "delete":
		id := selectedID
		if len(args) > 0 {
			id = strings.TrimPrefix(args[0], "@")
		}
		if id == "" {
			return resultCmd("No plan selected")
		}
		return func() tea.Msg {
			if err := a.client.DeletePlan(id); err != nil {
				return commandResultMsg{"Error: " + err.Error()}
			}
			return commandResultMsg{fmt.Sprintf("✓ Deleted plan %s", truncateID(id))}
		}

	case "status":
		return func() tea.Msg { return showStatusMsg{} }

	case "refresh":
		return a.fetchPlans()

	case "q", "quit", "exit":
		return tea.Quit

	default:
		// A bare plan ID (typically inserted via @) opens that plan.
		for _, p := range a.plans {
			if p.ID == cmd || strings.HasPrefix(p.ID, cmd) {
				id := p.ID
				return func() tea.Msg { return openPlanMsg{id} }
			}
		}
		return resultCmd(fmt.Sprintf("Unknown: %s (try: new, open, delete, status, refresh)", cmd))
	}
}

func resultCmd(message string) tea.Cmd {
	return func() tea.Msg { return commandResultMsg{message} }
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// --- Helpers ---

func truncateID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

func truncateText(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func formatHours(h float64) string {
	if h == float64(int(h)) {
		return strconv.Itoa(int(h))
	}
	return strconv.FormatFloat(h, 'f', 1, 64)
}

func joinIDs(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ", ")
}

type commandResultMsg struct {
	message string
}

type errMsg struct {
	err error
}

type plansLoadedMsg struct {
	plans []PlanItem
}

type planDetailLoadedMsg struct {
	plan *models.Plan
}

type planCreatedMsg struct {
	result *PlanResult
}

type llmStatusLoadedMsg struct {
	status *LLMStatus
}

type openPlanMsg struct {
	id string
}

type showStatusMsg struct{}

type daemonStatusMsg struct {
	online bool
}
