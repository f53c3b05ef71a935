package output

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/faceofmind/admin-sync/internal/coordinator"
	"github.com/faceofmind/admin-sync/internal/model"
)

// AnalyticsRenderer prints snapshots and view status. It implements
// coordinator.Renderer.
type AnalyticsRenderer struct {
	p *Printer

	mu   sync.Mutex
	last coordinator.ViewStatus
}

// NewAnalyticsRenderer creates a renderer printing through p.
func NewAnalyticsRenderer(p *Printer) *AnalyticsRenderer {
	return &AnalyticsRenderer{p: p}
}

// Render prints the summary counts and the per-label series table.
func (r *AnalyticsRenderer) Render(period model.Period, snap model.AnalyticsSnapshot, source coordinator.Source) {
	title := fmt.Sprintf("User analytics: %s", period)
	if snap.StartDate != "" && snap.EndDate != "" {
		title += fmt.Sprintf(" (%s to %s)", snap.StartDate, snap.EndDate)
	}
	r.p.Header(title)
	r.p.Info("%s", r.p.Dim("source: "+string(source)))

	summary := NewTable(r.p.Out(), []string{"Total", "New", "Admins", "Professionals", "Regular"})
	summary.AddRow(
		itoa(snap.TotalUsers),
		itoa(snap.NewUsers),
		itoa(snap.AdminCount),
		itoa(snap.ProfessionalCount),
		itoa(snap.RegularCount),
	)
	if err := summary.Render(); err != nil {
		r.p.Error("render summary: %v", err)
		return
	}

	if len(snap.Labels) == 0 {
		r.p.Info("%s", r.p.Dim("no data points"))
		return
	}

	series := NewTable(r.p.Out(), []string{"Label", "All", "Admins", "Professionals", "Regular"})
	for i, label := range snap.Labels {
		series.AddRow(
			label,
			itoa(at(snap.DataAll, i)),
			itoa(at(snap.DataAdmin, i)),
			itoa(at(snap.DataProfessional, i)),
			itoa(at(snap.DataUser, i)),
		)
	}
	if err := series.Render(); err != nil {
		r.p.Error("render series: %v", err)
	}
}

// Status prints the loading indicator and error line when they change.
func (r *AnalyticsRenderer) Status(s coordinator.ViewStatus) {
	r.mu.Lock()
	prev := r.last
	r.last = s
	r.mu.Unlock()

	if s.Loading && !prev.Loading {
		r.p.Info("%s", r.p.Dim(fmt.Sprintf("loading %s analytics...", s.Period)))
	}
	if s.Error != "" && s.Error != prev.Error {
		r.p.Error("%s", s.Error)
	}
}

// Last returns the most recent status.
func (r *AnalyticsRenderer) Last() coordinator.ViewStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

func at(series []int64, i int) int64 {
	if i < len(series) {
		return series[i]
	}
	return 0
}

func itoa(n int64) string { return strconv.FormatInt(n, 10) }
