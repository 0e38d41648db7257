package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/MrSnakeDoc/jobscout/internal/domain"
	"github.com/MrSnakeDoc/jobscout/internal/session"
)

var (
	colorAccent  = lipgloss.Color("#2CD7C7")
	colorMuted   = lipgloss.Color("#6C7A89")
	colorSuccess = lipgloss.Color("#2ECC71")
	colorWarning = lipgloss.Color("#F4D03F")
	colorError   = lipgloss.Color("#E74C3C")
)

const descriptionPreview = 160

type styles struct {
	title    lipgloss.Style
	company  lipgloss.Style
	muted    lipgloss.Style
	badge    lipgloss.Style
	success  lipgloss.Style
	infoText lipgloss.Style
	errText  lipgloss.Style
	box      lipgloss.Style
}

// newStyles binds styles to w so colors are dropped when w is not a terminal.
func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		title:    r.NewStyle().Bold(true).Foreground(colorAccent),
		company:  r.NewStyle().Bold(true),
		muted:    r.NewStyle().Foreground(colorMuted),
		badge:    r.NewStyle().Foreground(colorSuccess),
		success:  r.NewStyle().Foreground(colorSuccess),
		infoText: r.NewStyle().Foreground(colorWarning),
		errText:  r.NewStyle().Foreground(colorError),
		box: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorAccent).
			Padding(0, 1),
	}
}

func (s styles) postings(w io.Writer, postings []domain.Posting, from int) {
	for i := from; i < len(postings); i++ {
		p := postings[i]
		head := fmt.Sprintf("%2d. %s", i+1, s.title.Render(p.Title))
		if p.IsVerified {
			head += " " + s.badge.Render("✓ verified")
		}
		_, _ = fmt.Fprintln(w, head)
		_, _ = fmt.Fprintf(w, "    %s · %s · %s\n", s.company.Render(p.CompanyName), p.Location, orDash(p.Platform))
		_, _ = fmt.Fprintf(w, "    %s\n", s.muted.Render(fmt.Sprintf("%s · %s · %s", orDash(p.PostedAt), orDash(p.Salary), orDash(p.JobType))))
	}
}

func (s styles) window(w io.Writer, win session.ResultWindow) {
	_, _ = fmt.Fprintln(w, s.muted.Render(fmt.Sprintf("Showing %d of %d jobs", win.Revealed, win.Total)))
}

func (s styles) details(w io.Writer, p domain.Posting) {
	var b strings.Builder
	b.WriteString(s.title.Render(p.Title))
	b.WriteString("\n")
	b.WriteString(s.company.Render(p.CompanyName))
	fmt.Fprintf(&b, " · %s\n", p.Location)
	fmt.Fprintf(&b, "Platform: %s\nPosted:   %s\nSalary:   %s\nType:     %s\n",
		orDash(p.Platform), orDash(p.PostedAt), orDash(p.Salary), orDash(p.JobType))
	if p.ApplyLink != "" {
		fmt.Fprintf(&b, "Apply:    %s\n", p.ApplyLink)
	}
	if desc := strings.TrimSpace(p.Description); desc != "" {
		b.WriteString("\n")
		b.WriteString(truncate(desc, descriptionPreview))
	}
	_, _ = fmt.Fprintln(w, s.box.Render(strings.TrimRight(b.String(), "\n")))
}

func (s styles) saved(w io.Writer, owner string, saved []domain.SavedPosting) {
	_, _ = fmt.Fprintln(w, s.muted.Render(fmt.Sprintf("Saved jobs for %s (%d)", owner, len(saved))))
	for _, sp := range saved {
		_, _ = fmt.Fprintf(w, "#%-4d %s\n", sp.ID, s.title.Render(sp.Title))
		line := fmt.Sprintf("      %s · %s", s.company.Render(sp.CompanyName), sp.Location)
		if !sp.CreatedAt.IsZero() {
			line += " · " + s.muted.Render("saved "+sp.CreatedAt.Local().Format("2006-01-02"))
		}
		_, _ = fmt.Fprintln(w, line)
		if sp.ApplyLink != "" {
			_, _ = fmt.Fprintf(w, "      %s\n", s.muted.Render(sp.ApplyLink))
		}
	}
}

func (s styles) notification(w io.Writer, n session.Notification) {
	switch n.Kind {
	case session.KindSuccess:
		_, _ = fmt.Fprintln(w, s.success.Render("✓ "+n.Message))
	case session.KindError:
		_, _ = fmt.Fprintln(w, s.errText.Render("✗ "+n.Message))
	default:
		s.info(w, n.Message)
	}
}

func (s styles) info(w io.Writer, msg string) {
	_, _ = fmt.Fprintln(w, s.infoText.Render("• "+msg))
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
