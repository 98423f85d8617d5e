package cmd

import (
	"fmt"
	"os"

	"github.com/reloquent/kvpview/internal/job"
	"github.com/reloquent/kvpview/internal/lock"
	"github.com/reloquent/kvpview/internal/state"
	"github.com/reloquent/kvpview/internal/union"
	"github.com/reloquent/kvpview/internal/viewgen"
)

var (
	lockPath  = lock.DefaultPath
	statePath = state.DefaultPath
)

// acquireRunLock guards commands that rewrite views.
func acquireRunLock(s *session) (*lock.Lock, error) {
	l, err := lock.Acquire(lockPath)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("run lock acquired", "path", l.Path())
	return l, nil
}

// recordRun stores the results in the state file. Failures are logged, not
// returned: the views have already been committed.
func recordRun(s *session, vs *viewgen.Spec, view *viewgen.Result, u *union.Result) {
	st, err := state.Load(statePath)
	if err != nil {
		s.logger.Warn("could not load run state", "error", err)
		return
	}
	if view != nil && vs != nil {
		st.RecordView(view.View, vs.Source(), view.Fields)
	}
	if u != nil {
		st.RecordUnion(u.UnionView, u.YearlyView, string(u.Outcome))
	}
	if err := st.Save(statePath); err != nil {
		s.logger.Warn("could not save run state", "error", err)
	}
}

func recordReport(s *session, report *job.Report) {
	if report == nil {
		return
	}
	vs := job.ViewSpec(s.cfg.Job)
	recordRun(s, &vs, report.View, report.Union)
}

// printHistory shows what the state file knows about the configured views.
func printHistory(s *session) {
	st, err := state.Load(statePath)
	if err != nil {
		s.logger.Warn("could not load run state", "error", err)
		return
	}
	if len(st.Views) == 0 && len(st.Unions) == 0 {
		fmt.Println(dimStyle.Render("No runs recorded yet."))
		return
	}

	fmt.Println(titleStyle.Render("Run history"))
	table := newTable(os.Stdout, "View", "Source", "Fields", "Refreshed")
	for _, name := range st.ViewNames() {
		v := st.Views[name]
		table.Append([]string{name, v.Source, fmt.Sprint(v.Fields), v.RefreshedAt.Format("2006-01-02 15:04:05")})
	}
	table.Render()

	for name, u := range st.Unions {
		fmt.Println(dimStyle.Render(fmt.Sprintf("  %s: last append of %s was %s at %s",
			name, u.Yearly, u.Outcome, u.CheckedAt.Format("2006-01-02 15:04:05"))))
	}
}
