package session

import "github.com/MrSnakeDoc/jobscout/internal/domain"

// PageSize is how many postings one reveal adds to the visible window.
const PageSize = 10

// ResultWindow is a snapshot of the paging state.
type ResultWindow struct {
	Total    int
	Revealed int
}

// ResultPager reveals a ranked result list in pages of PageSize.
// Revealed never exceeds the number of postings held.
type ResultPager struct {
	postings []domain.Posting
	revealed int
}

// Replace swaps in a new result list and resets the window to its first page.
func (p *ResultPager) Replace(postings []domain.Posting) {
	p.postings = append([]domain.Posting(nil), postings...)
	p.revealed = min(PageSize, len(p.postings))
}

// Reveal grows the window by one page and returns the new revealed count.
func (p *ResultPager) Reveal() int {
	p.revealed = min(p.revealed+PageSize, len(p.postings))
	return p.revealed
}

// HasMore reports whether a Reveal would show more postings.
func (p *ResultPager) HasMore() bool {
	return p.revealed < len(p.postings)
}

// Visible returns the revealed prefix of the result list.
func (p *ResultPager) Visible() []domain.Posting {
	return p.postings[:p.revealed]
}

// Window returns the current paging state.
func (p *ResultPager) Window() ResultWindow {
	return ResultWindow{Total: len(p.postings), Revealed: p.revealed}
}
