package style

import "github.com/charmbracelet/lipgloss"

// Key identifies a semantic style slot. Handlers and the chat controller
// render text through these keys instead of hard-coding colors, so a theme
// swap via "/theme <name>" never requires touching call sites.
type Key string

const (
	KeyPrompt       Key = "prompt"
	KeyUserText     Key = "user_text"
	KeyAssistant    Key = "assistant_text"
	KeySystem       Key = "system"
	KeyError        Key = "error"
	KeyWarning      Key = "warning"
	KeySuccess      Key = "success"
	KeyDim          Key = "dim"
	KeyBold         Key = "bold"
	KeyToolCall     Key = "tool_call"
	KeyCollabPrompt Key = "collab_prompt"
	KeyPageHint     Key = "page_hint"
	KeySpinner      Key = "spinner"
	KeyHeading      Key = "heading"
	KeyAgentLabel   Key = "agent_label"
)

// ToolDisplay selects how system and tool notifications are framed.
type ToolDisplay string

const (
	// ToolDisplayBox draws a two-line frame around system messages:
	//   ┌──┤ SYSTEM
	//   └─ msg
	ToolDisplayBox ToolDisplay = "box"
	// ToolDisplayInline prefixes them on one line: [SYSTEM] msg
	ToolDisplayInline ToolDisplay = "inline"
)

// Theme maps every semantic key to a lipgloss style. Only the color ramp
// differs between themes; layout (bold/italic) stays fixed per key so
// switching themes never reflows text.
type Theme struct {
	Name        string
	ToolDisplay ToolDisplay
	styles      map[Key]lipgloss.Style
}

// Render applies the style bound to key. Unknown keys render unstyled,
// so a caller passing a stale or typo'd key degrades instead of panicking.
func (t *Theme) Render(key Key, text string) string {
	s, ok := t.styles[key]
	if !ok {
		return text
	}
	return s.Render(text)
}

// Style returns the lipgloss.Style bound to key, for callers composing
// with lipgloss.JoinVertical/JoinHorizontal directly.
func (t *Theme) Style(key Key) lipgloss.Style {
	return t.styles[key]
}

var (
	// Bold and Dim are kept as package-level vars for compatibility with
	// the table renderer, which was built against un-namespaced styles.
	Bold = lipgloss.NewStyle().Bold(true)
	Dim  = lipgloss.NewStyle().Faint(true)

	themes = map[string]*Theme{
		"default": {
			Name:        "default",
			ToolDisplay: ToolDisplayInline,
			styles: map[Key]lipgloss.Style{
				KeyPrompt:       lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true),
				KeyUserText:     lipgloss.NewStyle().Foreground(lipgloss.Color("15")),
				KeyAssistant:    lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
				KeySystem:       lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Italic(true),
				KeyError:        lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
				KeyWarning:      lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
				KeySuccess:      lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
				KeyDim:          Dim,
				KeyBold:         Bold,
				KeyToolCall:     lipgloss.NewStyle().Foreground(lipgloss.Color("5")),
				KeyCollabPrompt: lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true),
				KeyPageHint:     lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Italic(true),
				KeySpinner:      lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
				KeyHeading:      lipgloss.NewStyle().Foreground(lipgloss.Color("13")).Bold(true),
				KeyAgentLabel:   lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true),
			},
		},
		"bbs": {
			Name:        "bbs",
			ToolDisplay: ToolDisplayBox,
			styles: map[Key]lipgloss.Style{
				KeyPrompt:       lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),
				KeyUserText:     lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
				KeyAssistant:    lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
				KeySystem:       lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Italic(true),
				KeyError:        lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
				KeyWarning:      lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
				KeySuccess:      lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
				KeyDim:          lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Faint(true),
				KeyBold:         lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true),
				KeyToolCall:     lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
				KeyCollabPrompt: lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true),
				KeyPageHint:     lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Italic(true),
				KeySpinner:      lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
				KeyHeading:      lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),
				KeyAgentLabel:   lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),
			},
		},
		"plain": {
			Name:        "plain",
			ToolDisplay: ToolDisplayInline,
			styles:      map[Key]lipgloss.Style{},
		},
	}
)

// Names returns the available theme names, in a fixed order for stable
// display in "/theme" with no argument.
func Names() []string {
	return []string{"default", "bbs", "plain"}
}

// Load returns the named theme, or the default theme if name is unknown or
// empty. Handlers never need to validate a theme name before using it.
func Load(name string) *Theme {
	if t, ok := themes[name]; ok {
		return t
	}
	return themes["default"]
}

// NoColor returns a theme with every style's color/attributes stripped,
// used when NO_COLOR is set or --no-color is passed.
func NoColor() *Theme {
	return themes["plain"]
}
