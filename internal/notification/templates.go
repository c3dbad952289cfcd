package notification

import (
	"bytes"
	"fmt"
	"html/template"
	"net/url"
	"time"

	"tasklane.app/server/internal/model"
)

const noDescription = "No description provided"

var (
	assignmentTmpl = template.Must(template.New("assignment").Parse(`<p>Hi {{.Name}},</p>
<p>You have been assigned a new task: "{{.Title}}"</p>
<p>Description: {{.Description}}<br>
Due Date: {{.DueDate}}<br>
Project: {{.Project}}</p>
<p><a href="{{.Link}}">View Task</a></p>
<p>Thanks,<br>Project Management Team</p>
`))

	reminderTmpl = template.Must(template.New("reminder").Parse(`<p>Hi {{.Name}},</p>
<p>This is a reminder that your task is due today!</p>
<p>Task: "{{.Title}}"<br>
Description: {{.Description}}<br>
Project: {{.Project}}<br>
Due Date: {{.DueDate}}</p>
<p>Please complete it as soon as possible.</p>
<p><a href="{{.Link}}">View Task</a></p>
<p>Thanks,<br>Project Management Team</p>
`))
)

type mailData struct {
	Name        string
	Title       string
	Description string
	DueDate     string
	Project     string
	Link        template.URL
}

func newMailData(t *target, origin string, loc *time.Location) mailData {
	description := noDescription
	if t.task.Description != nil && *t.task.Description != "" {
		description = *t.task.Description
	}
	return mailData{
		Name:        t.assignee.Name,
		Title:       t.task.Title,
		Description: description,
		DueDate:     FormatDate(t.task.DueDate, loc),
		Project:     t.project.Name,
		Link:        safeLink(origin),
	}
}

func assignmentSubject(project *model.Project) string {
	return "New Task Assignment in " + project.Name
}

func reminderSubject(project *model.Project) string {
	return "⏰ Reminder: Task Due Today - " + project.Name
}

func render(tmpl *template.Template, data mailData) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering %s email: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}

// FormatDate renders a due date as M/D/YYYY in loc.
func FormatDate(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("1/2/2006")
}

// SameDay reports whether a and b fall on the same calendar date in loc.
func SameDay(a, b time.Time, loc *time.Location) bool {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}

// safeLink passes only absolute http(s) origins through to the email.
func safeLink(origin string) template.URL {
	u, err := url.Parse(origin)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return template.URL("#")
	}
	return template.URL(u.String())
}
