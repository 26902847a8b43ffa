package cli

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"charm.land/bubbles/v2/progress"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/lipgloss"
	"github.com/raphaelgruber/recipebox/internal/client"
	"github.com/raphaelgruber/recipebox/internal/composer"
	"github.com/raphaelgruber/recipebox/internal/draft"
	"github.com/raphaelgruber/recipebox/internal/models"
	"github.com/spf13/cobra"
)

const tickInterval = time.Second

var composeTUICmd = &cobra.Command{
	Use:   "tui",
	Short: "Interactive composer view",
	Long: `Open the draft in an interactive view with completion per section.

Keys:
  tab / shift+tab   next / previous section (1-4 jump directly)
  up / down         select an ingredient or step
  K / J             move the selected step up / down
  x                 remove the selected ingredient or step
  c / d             cycle category / difficulty level
  s                 save the draft now
  r r               discard the draft
  p                 publish
  q                 quit

Changes made by other recipebox commands show up immediately.`,
	Args: cobra.NoArgs,
	RunE: runComposeTUI,
}

// Theme holds the color scheme for the composer view.
type Theme struct {
	Status     lipgloss.Color
	Success    lipgloss.Color
	Error      lipgloss.Color
	Hint       lipgloss.Color
	ProgressBg lipgloss.Color
}

// defaultTheme provides default colors.
var defaultTheme = Theme{
	Status:     lipgloss.Color("#5FAFD7"), // light blue
	Success:    lipgloss.Color("#00D787"), // green
	Error:      lipgloss.Color("#FF005F"), // red
	Hint:       lipgloss.Color("#6C6C6C"), // dim gray
	ProgressBg: lipgloss.Color("#3A3A3A"), // dark gray
}

func (t Theme) statusStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Status)
}

func (t Theme) activeStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Status).Bold(true)
}

func (t Theme) completedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Success).Bold(true)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

// noticeBox keeps the latest composer notice for rendering.
type noticeBox struct {
	mu     sync.Mutex
	notice composer.Notice
	set    bool
}

func (b *noticeBox) Notify(n composer.Notice) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.notice, b.set = n, true
}

func (b *noticeBox) Last() (composer.Notice, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.notice, b.set
}

// tickMsg refreshes the "last saved" label.
type tickMsg time.Time

// reloadMsg reports that another process rewrote the draft.
type reloadMsg struct{}

// actionMsg carries the result of a save or reset.
type actionMsg struct{ err error }

// publishMsg carries the result of a publish.
type publishMsg struct {
	recipe *client.Recipe
	err    error
}

// composeModel is the bubbletea model for the interactive composer.
type composeModel struct {
	ctx     context.Context
	sess    *session
	notices *noticeBox
	reload  <-chan struct{}

	progress progress.Model
	theme    Theme

	cursor       map[composer.Section]int
	confirmReset bool
	busy         bool
	flash        string

	published *client.Recipe
	quitting  bool
	err       error
}

func newComposeModel(ctx context.Context, s *session, notices *noticeBox, reload <-chan struct{}) composeModel {
	prog := progress.New(
		progress.WithDefaultBlend(),
		progress.WithWidth(24),
	)
	return composeModel{
		ctx:      ctx,
		sess:     s,
		notices:  notices,
		reload:   reload,
		progress: prog,
		theme:    defaultTheme,
		cursor:   map[composer.Section]int{},
	}
}

func (m composeModel) Init() tea.Cmd {
	return tea.Batch(tickCmd(), waitForReload(m.reload), m.progress.Init())
}

func (m composeModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	ctrl := m.sess.ctrl

	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		key := msg.String()
		if key != "r" {
			m.confirmReset = false
		}
		m.flash = ""

		switch key {
		case "ctrl+c", "q":
			m.quitting = true
			if ctrl.AutosavePending() {
				if err := ctrl.SaveDraftNow(m.ctx); err != nil {
					m.err = err
				}
			}
			return m, tea.Quit

		case "tab":
			if ctrl.Active() == composer.SectionSteps {
				m.goTo(composer.SectionBasics)
			} else if err := ctrl.Next(); err != nil {
				m.flash = err.Error()
			}
		case "shift+tab":
			if ctrl.Active() == composer.SectionBasics {
				m.goTo(composer.SectionSteps)
			} else if err := ctrl.Prev(); err != nil {
				m.flash = err.Error()
			}
		case "1", "2", "3", "4":
			m.goTo(composer.AllSections[int(key[0]-'1')])

		case "up", "k":
			m.moveCursor(-1)
		case "down", "j":
			m.moveCursor(1)
		case "K", "J":
			m.moveStep(key == "K")
		case "x", "delete":
			m.removeSelected()
		case "c":
			m.cycleOption(models.KindCategory)
		case "d":
			m.cycleOption(models.KindLevel)

		case "s":
			if m.busy {
				return m, nil
			}
			m.busy = true
			return m, m.run(func(ctx context.Context) error { return ctrl.SaveDraftNow(ctx) })
		case "r":
			if !m.confirmReset {
				m.confirmReset = true
				m.flash = "Press r again to discard the draft"
				return m, nil
			}
			m.confirmReset = false
			m.busy = true
			return m, m.run(func(ctx context.Context) error { return ctrl.ResetDraft(ctx) })
		case "p":
			if m.busy || ctrl.Submitting() {
				return m, nil
			}
			m.busy = true
			return m, m.publish()
		}
		return m, nil

	case tickMsg:
		return m, tickCmd()

	case reloadMsg:
		// Our own writes also trigger the watcher; local edits win.
		if !ctrl.AutosavePending() && !ctrl.Saving() {
			if err := ctrl.Reload(m.ctx); err != nil {
				m.flash = err.Error()
			}
		}
		m.clampCursors()
		return m, waitForReload(m.reload)

	case actionMsg:
		m.busy = false
		if msg.err != nil {
			m.flash = msg.err.Error()
		}
		m.clampCursors()
		return m, nil

	case publishMsg:
		m.busy = false
		var verr *composer.ValidationError
		switch {
		case msg.err == nil:
			m.published = msg.recipe
			return m, tea.Quit
		case errors.As(msg.err, &verr):
			m.flash = fmt.Sprintf("%d fields need attention", len(verr.Fields))
		case errors.Is(msg.err, composer.ErrMissingClassification):
			// The controller already posted a notice.
		default:
			m.flash = composer.FailureMessage(msg.err)
		}
		return m, nil

	case progress.FrameMsg:
		var cmd tea.Cmd
		m.progress, cmd = m.progress.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *composeModel) goTo(s composer.Section) {
	if err := m.sess.ctrl.GoTo(s); err != nil {
		m.flash = err.Error()
	}
}

// rows returns the number of selectable rows in the active section.
func (m composeModel) rows() int {
	v := m.sess.ctrl.Values()
	switch m.sess.ctrl.Active() {
	case composer.SectionIngredients:
		return len(v.Ingredients)
	case composer.SectionSteps:
		return len(v.PreparationSteps)
	}
	return 0
}

func (m composeModel) moveCursor(delta int) {
	s := m.sess.ctrl.Active()
	if n := m.rows(); n > 0 {
		m.cursor[s] = min(max(m.cursor[s]+delta, 0), n-1)
	}
}

func (m composeModel) clampCursors() {
	v := m.sess.ctrl.Values()
	m.cursor[composer.SectionIngredients] = min(m.cursor[composer.SectionIngredients], max(len(v.Ingredients)-1, 0))
	m.cursor[composer.SectionSteps] = min(m.cursor[composer.SectionSteps], max(len(v.PreparationSteps)-1, 0))
}

func (m composeModel) moveStep(up bool) {
	if m.sess.ctrl.Active() != composer.SectionSteps {
		return
	}
	dir, delta := composer.Down, 1
	if up {
		dir, delta = composer.Up, -1
	}
	i := m.cursor[composer.SectionSteps]
	if m.sess.ctrl.MoveStep(i, dir) {
		m.cursor[composer.SectionSteps] = i + delta
	}
}

func (m composeModel) removeSelected() {
	ctrl := m.sess.ctrl
	switch s := ctrl.Active(); s {
	case composer.SectionIngredients:
		ctrl.RemoveIngredient(m.cursor[s])
	case composer.SectionSteps:
		ctrl.RemoveStep(m.cursor[s])
	}
	m.clampCursors()
}

// cycleOption selects the option after the current one.
func (m *composeModel) cycleOption(kind models.OptionKind) {
	if err := m.sess.requireMetadata(); err != nil {
		m.flash = err.Error()
		return
	}
	opts := m.sess.meta.Options(kind)
	if len(opts) == 0 {
		return
	}

	v := m.sess.ctrl.Values()
	current := v.Category
	set := m.sess.ctrl.SetCategory
	if kind == models.KindLevel {
		current = v.DifficultyLevel
		set = m.sess.ctrl.SetDifficulty
	}

	next := 0
	if current != nil {
		i := slices.IndexFunc(opts, func(o models.Option) bool { return o.Key == current.Key })
		next = (i + 1) % len(opts)
	}
	if err := set(opts[next].Key); err != nil {
		m.flash = err.Error()
	}
}

// run executes a draft action off the update loop.
func (m composeModel) run(fn func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return actionMsg{err: fn(m.ctx)}
	}
}

func (m composeModel) publish() tea.Cmd {
	return func() tea.Msg {
		r, err := m.sess.ctrl.Submit(m.ctx)
		return publishMsg{recipe: r, err: err}
	}
}

func (m composeModel) View() tea.View {
	return tea.NewView(m.renderContent())
}

func (m composeModel) renderContent() string {
	if m.published != nil {
		return m.theme.completedStyle().Render(fmt.Sprintf("✓ Published %q (%s)", m.published.Title, m.published.ID)) + "\n"
	}
	if m.quitting {
		if m.err != nil {
			return m.theme.errorStyle().Render(fmt.Sprintf("✗ Save failed: %s", m.err)) + "\n"
		}
		return m.theme.hintStyle().Render("Draft kept. Run 'recipebox compose tui' to continue.") + "\n"
	}

	ctrl := m.sess.ctrl
	var b strings.Builder

	total := ctrl.Completion()
	fmt.Fprintf(&b, "%s  %s  %s\n\n",
		m.theme.activeStyle().Render("Recipe composer"),
		m.theme.statusStyle().Render(fmt.Sprintf("%d%% complete", total.Percent)),
		m.theme.hintStyle().Render("draft: "+ctrl.LastSavedLabel()))

	active := ctrl.Active()
	for i, s := range composer.AllSections {
		c := ctrl.SectionCompletion(s)
		name := fmt.Sprintf("%d %-12s", i+1, s)
		switch {
		case s == active:
			name = m.theme.activeStyle().Render("▸ " + name)
		default:
			name = "  " + name
		}
		count := fmt.Sprintf("%d/%d", c.Done, c.Total)
		if c.Complete() {
			count = m.theme.completedStyle().Render("✓ " + count)
		}
		fmt.Fprintf(&b, "%s %s %s\n", name, m.progress.ViewAs(float64(c.Percent)/100), count)
	}

	b.WriteString("\n")
	b.WriteString(m.renderSection(active))

	errs := ctrl.Errors()
	var paths []string
	for _, p := range slices.Sorted(maps.Keys(errs)) {
		if composer.SectionForField(p) == active {
			paths = append(paths, p)
		}
	}
	if len(paths) > 0 {
		b.WriteString("\n")
		for _, p := range paths {
			b.WriteString(m.theme.errorStyle().Render(fmt.Sprintf("  • %s: %s", p, errs[p])) + "\n")
		}
	}

	b.WriteString("\n")
	switch {
	case m.flash != "":
		b.WriteString(m.theme.errorStyle().Render(m.flash) + "\n")
	case m.busy:
		b.WriteString(m.theme.statusStyle().Render("Working...") + "\n")
	default:
		if n, ok := m.notices.Last(); ok {
			style := m.theme.statusStyle()
			switch n.Kind {
			case composer.NoticeError:
				style = m.theme.errorStyle()
			case composer.NoticeSuccess:
				style = m.theme.completedStyle()
			}
			b.WriteString(style.Render(n.Message) + "\n")
		}
	}
	b.WriteString(m.theme.hintStyle().Render("tab/shift+tab sections · s save · r reset · p publish · q quit") + "\n")
	return b.String()
}

func (m composeModel) renderSection(s composer.Section) string {
	v := m.sess.ctrl.Values()
	var b strings.Builder

	switch s {
	case composer.SectionBasics:
		labels := make([]string, len(v.Labels))
		for i, key := range v.Labels {
			labels[i] = m.sess.meta.LabelFor(models.KindLabel, key)
		}
		fmt.Fprintf(&b, "  Title:        %s\n", orDash(v.Title))
		fmt.Fprintf(&b, "  Description:  %s\n", orDash(truncate(v.Description, 60)))
		fmt.Fprintf(&b, "  Category:     %s\n", formOption(v.Category))
		fmt.Fprintf(&b, "  Difficulty:   %s\n", formOption(v.DifficultyLevel))
		fmt.Fprintf(&b, "  Cooking time: %s\n", orDash(v.CookingTime.String()))
		fmt.Fprintf(&b, "  Servings:     %s\n", orDash(v.Servings.String()))
		fmt.Fprintf(&b, "  Labels:       %s\n", orDash(strings.Join(labels, ", ")))

	case composer.SectionMedia:
		fmt.Fprintf(&b, "  Image: %s\n", orDash(v.ImgSrc))
		fmt.Fprintf(&b, "  Video: %s\n", orDash(v.YoutubeLink))

	case composer.SectionIngredients:
		if len(v.Ingredients) == 0 {
			b.WriteString(m.theme.hintStyle().Render("  No ingredients yet. Add one with 'recipebox compose ingredient add'.") + "\n")
		}
		for i, ing := range v.Ingredients {
			b.WriteString(m.row(s, i, formatIngredient(ing.Quantity.Float(), ing.Unit, ing.Name)))
		}

	case composer.SectionSteps:
		if len(v.PreparationSteps) == 0 {
			b.WriteString(m.theme.hintStyle().Render("  No steps yet. Add one with 'recipebox compose step add'.") + "\n")
		}
		for i, st := range v.PreparationSteps {
			b.WriteString(m.row(s, i, fmt.Sprintf("%d. %s", st.Order, truncate(st.Description, 70))))
		}
	}
	return b.String()
}

func (m composeModel) row(s composer.Section, i int, text string) string {
	if m.cursor[s] == i {
		return m.theme.activeStyle().Render("▸ "+text) + "\n"
	}
	return "  " + text + "\n"
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if r := []rune(s); len(r) > n {
		return string(r[:n-1]) + "…"
	}
	return s
}

func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func waitForReload(ch <-chan struct{}) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return reloadMsg{}
	}
}

func runComposeTUI(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	notices := &noticeBox{}
	s, err := openSession(ctx, sessionOptions{mode: composer.ModeCreate, notifier: notices})
	if err != nil {
		return err
	}
	defer s.Close()

	var reload chan struct{}
	if s.watchPath != "" {
		reload = make(chan struct{}, 1)
		go func() {
			defer close(reload)
			err := draft.Watch(ctx, s.watchPath, draft.DefaultWatchDebounce, logger, func() {
				select {
				case reload <- struct{}{}:
				default:
				}
			})
			if err != nil {
				logger.Warn("draft watch stopped", "error", err)
			}
		}()
	}

	p := tea.NewProgram(newComposeModel(ctx, s, notices, reload))
	finalModel, err := p.Run()
	if err != nil {
		return fmt.Errorf("composer UI error: %w", err)
	}
	if m, ok := finalModel.(composeModel); ok && m.err != nil {
		return m.err
	}
	return nil
}
