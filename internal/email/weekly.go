package email

import (
	"bytes"
	"context"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"

	"github.com/dukerupert/focuspal/internal/summary"
)

const weeklyText = `{{.ChildName}}'s week: {{.WeekStart.Format "Jan 2"}} - {{.WeekEnd.Format "Jan 2"}}

Activities: {{.TotalActivities}} ({{.CompletedActivities}} completed, {{.IncompleteActivities}} incomplete)
Time focused: {{.TotalMinutes}} minutes
Completion rate: {{printf "%.0f" .CompletionRate}}%
Average session: {{.AverageMinutesPerActivity}} minutes
Points: +{{.PointsEarned}} / -{{.PointsDeducted}} (net {{.NetPoints}})
{{- if .Tier}}
Reward tier: {{.Tier}}
{{- end}}
Current streak: {{.CurrentStreak}} days
{{- if .TopCategories}}

Top categories:
{{- range .TopCategories}}
  {{.Icon}} {{.Name}}: {{.Minutes}} minutes
{{- end}}
{{- end}}
{{- if .AchievementsUnlocked}}

Achievements unlocked:
{{- range .AchievementsUnlocked}}
  {{.Emoji}} {{.Name}}
{{- end}}
{{- end}}
`

const weeklyHTML = `<h2>{{.ChildName}}'s week</h2>
<p>{{.WeekStart.Format "Jan 2"}} - {{.WeekEnd.Format "Jan 2"}}</p>
<table>
<tr><td>Activities</td><td>{{.TotalActivities}} ({{.CompletedActivities}} completed)</td></tr>
<tr><td>Time focused</td><td>{{.TotalMinutes}} minutes</td></tr>
<tr><td>Completion rate</td><td>{{printf "%.0f" .CompletionRate}}%</td></tr>
<tr><td>Points</td><td>+{{.PointsEarned}} / -{{.PointsDeducted}} (net {{.NetPoints}})</td></tr>
{{- if .Tier}}
<tr><td>Reward tier</td><td>{{.Tier}}</td></tr>
{{- end}}
<tr><td>Current streak</td><td>{{.CurrentStreak}} days</td></tr>
</table>
{{- if .TopCategories}}
<h3>Top categories</h3>
<ul>
{{- range .TopCategories}}
<li style="color: {{.ColorHex}}">{{.Icon}} {{.Name}}: {{.Minutes}} minutes</li>
{{- end}}
</ul>
{{- end}}
{{- if .AchievementsUnlocked}}
<h3>Achievements unlocked</h3>
<ul>
{{- range .AchievementsUnlocked}}
<li>{{.Emoji}} {{.Name}}</li>
{{- end}}
</ul>
{{- end}}
`

var (
	weeklyTextTmpl = texttemplate.Must(texttemplate.New("weekly.txt").Parse(weeklyText))
	weeklyHTMLTmpl = htmltemplate.Must(htmltemplate.New("weekly.html").Parse(weeklyHTML))
)

// SendWeeklySummary emails a child's weekly report to a parent.
func (c *Client) SendWeeklySummary(ctx context.Context, to string, w summary.Weekly) error {
	var text, html bytes.Buffer
	if err := weeklyTextTmpl.Execute(&text, w); err != nil {
		return fmt.Errorf("render weekly summary text: %w", err)
	}
	if err := weeklyHTMLTmpl.Execute(&html, w); err != nil {
		return fmt.Errorf("render weekly summary html: %w", err)
	}

	return c.send(ctx, postmarkEmail{
		To:       to,
		Subject:  fmt.Sprintf("%s's FocusPal week: %d minutes focused", w.ChildName, w.TotalMinutes),
		TextBody: text.String(),
		HtmlBody: html.String(),
		Tag:      "weekly-summary",
	})
}
