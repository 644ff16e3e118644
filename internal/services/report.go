package services

import (
	"context"
	"html/template"
	"io"
	"sort"
	"strings"

	"github.com/mhollis/quizdeck/internal/errors"
	"github.com/mhollis/quizdeck/internal/game"
	"github.com/mhollis/quizdeck/internal/logger"
	"github.com/mhollis/quizdeck/internal/models"
	"github.com/mhollis/quizdeck/internal/repository"
)

// ReportService produces the printable end-of-session report.
type ReportService struct {
	log  logger.Logger
	repo repository.DocumentRepository
}

// NewReportService creates a ReportService.
func NewReportService(log logger.Logger, repo repository.DocumentRepository) *ReportService {
	return &ReportService{log: log, repo: repo}
}

// Report is the typed report model.
type Report struct {
	Title         string
	Date          string
	TeamCount     int
	CategoryCount int
	ResponseCount int
	Teams         []ReportTeam
	Categories    []ReportCategory
	Groups        []ReportCategoryGroup
}

// ReportTeam is a scoreboard row with the roster spelled out.
type ReportTeam struct {
	Name    string
	Points  int
	Members string
}

// ReportCategory summarizes one category's rotation status and volume.
type ReportCategory struct {
	Name      string
	Status    string
	Responses int
}

// ReportCategoryGroup is the response log for one category, grouped by team.
type ReportCategoryGroup struct {
	Category string
	Teams    []ReportTeamGroup
}

// ReportTeamGroup holds one team's rows within a category, ordered by
// reference number.
type ReportTeamGroup struct {
	Team string
	Rows []ResponseRow
}

// Build assembles the report for a session: teams sorted by points desc,
// categories by name, and the response log grouped category → team with rows
// in reference order. Deleted entities fall back to their snapshots.
func (s *ReportService) Build(ctx context.Context, sessionID string) (*Report, error) {
	doc, err := s.repo.Load(ctx)
	if err != nil {
		return nil, err
	}
	sess := game.FindSession(doc, sessionID)
	if sess == nil {
		return nil, errors.NotFoundf("session %s not found", sessionID)
	}
	game.NormalizeSession(sess)

	r := &Report{
		Title:         sess.Title,
		Date:          sess.Date,
		TeamCount:     len(sess.Teams),
		CategoryCount: len(sess.Categories),
		ResponseCount: len(sess.Play.Responses),
	}
	if r.Title == "" {
		r.Title = "Session"
	}

	teams := make([]models.Team, len(sess.Teams))
	copy(teams, sess.Teams)
	sort.SliceStable(teams, func(i, j int) bool { return teams[i].Points > teams[j].Points })
	for _, t := range teams {
		names := make([]string, 0, len(t.Members))
		for _, m := range t.Members {
			names = append(names, m.Name)
		}
		r.Teams = append(r.Teams, ReportTeam{
			Name:    t.Name,
			Points:  t.Points,
			Members: strings.Join(names, ", "),
		})
	}

	counts := map[string]int{}
	for _, resp := range sess.Play.Responses {
		counts[resp.CategoryID]++
	}
	cats := make([]models.Category, len(sess.Categories))
	copy(cats, sess.Categories)
	sort.SliceStable(cats, func(i, j int) bool { return cats[i].Name < cats[j].Name })
	for _, c := range cats {
		status := "Auto-rotate OFF"
		if c.Enabled {
			status = "Auto-rotate ON"
		}
		r.Categories = append(r.Categories, ReportCategory{
			Name:      c.Name,
			Status:    status,
			Responses: counts[c.ID],
		})
	}

	r.Groups = buildResponseGroups(sess)
	return r, nil
}

// buildResponseGroups groups the log by resolved category name, then team
// name, both alphabetical, with rows in reference order.
func buildResponseGroups(sess *models.Session) []ReportCategoryGroup {
	type key struct{ cat, team string }
	grouped := map[key][]models.Response{}
	for _, resp := range sess.Play.Responses {
		catName := "(Deleted category)"
		if c := game.FindCategory(sess, resp.CategoryID); c != nil {
			catName = c.Name
		}
		teamName := "(Deleted team)"
		for _, t := range sess.Teams {
			if t.ID == resp.TeamID {
				teamName = t.Name
				break
			}
		}
		k := key{cat: catName, team: teamName}
		grouped[k] = append(grouped[k], resp)
	}

	byCat := map[string]map[string][]models.Response{}
	for k, rows := range grouped {
		if byCat[k.cat] == nil {
			byCat[k.cat] = map[string][]models.Response{}
		}
		byCat[k.cat][k.team] = rows
	}

	catNames := make([]string, 0, len(byCat))
	for name := range byCat {
		catNames = append(catNames, name)
	}
	sort.Strings(catNames)

	var groups []ReportCategoryGroup
	for _, catName := range catNames {
		group := ReportCategoryGroup{Category: catName}

		teamNames := make([]string, 0, len(byCat[catName]))
		for name := range byCat[catName] {
			teamNames = append(teamNames, name)
		}
		sort.Strings(teamNames)

		for _, teamName := range teamNames {
			rows := byCat[catName][teamName]
			sort.SliceStable(rows, func(i, j int) bool {
				return game.CompareRefs(rows[i].RefNumber, rows[j].RefNumber) < 0
			})
			tg := ReportTeamGroup{Team: teamName}
			for _, resp := range rows {
				tg.Rows = append(tg.Rows, ResponseRow{
					Team:   teamName,
					Member: memberNameFor(sess, resp.TeamID, resp.MemberID, resp.MemberName),
					Ref:    strings.TrimSpace(resp.RefNumber),
					Text:   resp.Text,
				})
			}
			group.Teams = append(group.Teams, tg)
		}
		groups = append(groups, group)
	}
	return groups
}

// RenderHTML writes the report as a standalone printable page.
func (s *ReportService) RenderHTML(w io.Writer, r *Report) error {
	return reportTemplate.Execute(w, r)
}

var reportTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html><head><title>Session Report</title>
<style>
@page{margin:12mm}
body{font-family:system-ui,-apple-system,Segoe UI,Roboto,Arial,sans-serif;color:#0b1020}
h1{margin:0 0 6px 0;font-size:22px}
.meta{margin:0 0 14px 0;font-size:14px}
h2{margin:18px 0 8px 0;font-size:18px}
h3{margin:0 0 6px 0;font-size:16px}
table{width:100%;border-collapse:collapse;font-size:13px}
th,td{border:1px solid #0b1020;padding:6px 8px;vertical-align:top}
th{background:#0b1020;color:#fff;text-align:left}
.pill{display:inline-block;border:1px solid #0b1020;border-radius:999px;padding:2px 8px;margin-right:6px;font-size:12px}
.small{font-size:12px}
.cat{margin-top:14px}
.muted{opacity:.75}
.wrap{white-space:pre-wrap;word-break:break-word}
.right{text-align:right}
</style>
</head><body>
<h1>{{.Title}}</h1>
<div class="meta">
  <span class="pill">Date: {{.Date}}</span>
  <span class="pill">Teams: {{.TeamCount}}</span>
  <span class="pill">Categories: {{.CategoryCount}}</span>
  <span class="pill">Responses: {{.ResponseCount}}</span>
</div>

<h2>Points</h2>
<table>
  <thead><tr><th>Team</th><th class="right">Points</th><th>Members</th></tr></thead>
  <tbody>
  {{range .Teams}}<tr><td>{{.Name}}</td><td class="right">{{.Points}}</td><td class="wrap">{{.Members}}</td></tr>
  {{end}}</tbody>
</table>

<h2>Categories</h2>
<table>
  <thead><tr><th>Category</th><th>Status</th><th class="right">Responses</th></tr></thead>
  <tbody>
  {{range .Categories}}<tr><td class="wrap">{{.Name}}</td><td>{{.Status}}</td><td class="right">{{.Responses}}</td></tr>
  {{end}}</tbody>
</table>

<h2>Responses by Category</h2>
{{if not .Groups}}<div class="small muted">No responses recorded.</div>{{end}}
{{range .Groups}}
<div class="cat">
<h3>{{.Category}}</h3>
<table>
  <thead><tr><th style="width:18%">Team</th><th style="width:18%">Member</th><th style="width:12%">Ref</th><th>Response</th></tr></thead>
  <tbody>
  {{range .Teams}}{{range .Rows}}<tr><td>{{.Team}}</td><td>{{.Member}}</td><td>{{.Ref}}</td><td class="wrap">{{.Text}}</td></tr>
  {{end}}{{end}}</tbody>
</table>
</div>
{{end}}
</body></html>
`))
