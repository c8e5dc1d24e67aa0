package review

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/lalith-99/timelinealchemy/internal/models"
	"github.com/lalith-99/timelinealchemy/internal/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func preview(title, body string, status models.Status) models.Preview {
	return models.Preview{
		ID:      uuid.New(),
		Status:  status,
		Channel: models.ChannelInstagram,
		Payload: models.Payload{
			Version:     models.PayloadVersion,
			IdeaTitle:   title,
			IdeaContent: body,
		},
	}
}

func titles(ps []models.Preview) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.Title())
	}
	return out
}

func TestSearchAndStatusCompose(t *testing.T) {
	previews := []models.Preview{
		preview("Cosmic Calendar", "Plan by the planets", models.StatusPending),
		preview("Mindful Monday", "Start the week slow", models.StatusApproved),
	}
	snapshot := append([]models.Preview(nil), previews...)

	got := Apply(previews, Filter{Search: "cosmic", Status: "pending"})
	assert.Equal(t, []string{"Cosmic Calendar"}, titles(got))

	got = Apply(previews, Filter{Search: "cosmic", Status: "approved"})
	assert.Empty(t, got)

	got = Apply(previews, Filter{Search: "", Status: "approved"})
	assert.Equal(t, []string{"Mindful Monday"}, titles(got))

	got = Apply(previews, Filter{Search: "MONDAY", Status: StatusAll})
	assert.Equal(t, []string{"Mindful Monday"}, titles(got))

	got = Apply(previews, Filter{Search: "planets"})
	assert.Equal(t, []string{"Cosmic Calendar"}, titles(got), "search covers content too")

	assert.Equal(t, snapshot, previews, "filtering never mutates the source")
}

func TestSearchFollowsStatusChange(t *testing.T) {
	previews := []models.Preview{
		preview("Cosmic Calendar", "", models.StatusApproved),
		preview("Mindful Monday", "", models.StatusPending),
	}
	f := Filter{Search: "cosmic", Status: "pending"}
	assert.Empty(t, Apply(previews, f))

	previews[0].Status = models.StatusPending
	assert.Len(t, Apply(previews, f), 1)
}

func TestCountsIgnoreStatusFilter(t *testing.T) {
	previews := []models.Preview{
		preview("A cosmic one", "", models.StatusPending),
		preview("B cosmic two", "", models.StatusApproved),
		preview("C other", "", models.StatusRejected),
	}

	assert.Equal(t, Counts{All: 3, Pending: 1, Approved: 1, Rejected: 1}, Count(previews, ""))
	assert.Equal(t, Counts{All: 2, Pending: 1, Approved: 1}, Count(previews, "cosmic"))

	list := Build(previews, Filter{Search: "cosmic", Status: "approved"})
	require.Len(t, list.Entries, 1)
	assert.Equal(t, 2, list.Counts.All)
}

func TestParseStatus(t *testing.T) {
	for raw, want := range map[string]string{"": StatusAll, "ALL": StatusAll, "pending": "pending", " Rejected ": "rejected"} {
		got, ok := ParseStatus(raw)
		assert.True(t, ok, raw)
		assert.Equal(t, want, got)
	}
	_, ok := ParseStatus("archived")
	assert.False(t, ok)
}

func TestEntryActionsFollowStoredStatus(t *testing.T) {
	pending := preview("p", "", models.StatusPending)
	approved := preview("a", "", models.StatusApproved)

	assert.Equal(t, workflow.Actions{Approve: true, Reject: true}, NewEntry(&pending).Actions)
	assert.Equal(t, workflow.Actions{}, NewEntry(&approved).Actions)
}

func TestEntryExcerpt(t *testing.T) {
	p := preview("Long", strings.Repeat("stars ", 60), models.StatusPending)
	e := NewEntry(&p)
	assert.True(t, e.Truncated)
	assert.LessOrEqual(t, len([]rune(e.Excerpt)), 151)

	p.Payload.Content = "**Short** draft"
	e = NewEntry(&p)
	assert.False(t, e.Truncated)
	assert.Equal(t, "Short draft", e.Excerpt, "draft content wins over idea body")
}

func TestEntryPlatformBadges(t *testing.T) {
	p := preview("Bundle", "", models.StatusPending)
	p.Channel = models.ChannelCustomPost
	p.Payload.SocialContent = map[models.Platform]string{
		models.PlatformYouTube:   "yt",
		models.PlatformFacebook:  "fb",
		models.PlatformInstagram: "  ",
	}
	assert.Equal(t, []string{"facebook", "youtube"}, NewEntry(&p).Platforms)
}

func TestDetailRendersMarkdown(t *testing.T) {
	p := preview("T", "# Heading", models.StatusPending)
	d := NewDetail(&p)
	assert.Contains(t, d.BodyHTML, "<h1>Heading</h1>")
	assert.Equal(t, "# Heading", d.Body)
}
