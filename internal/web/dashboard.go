package web

import (
	"cphorme/internal/loader"
	"cphorme/internal/medical"
	"cphorme/internal/web/views"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/sync/errgroup"
)

const recentReports = 5

// ShowDashboard loads patients and reports side by side. Each half of the
// page degrades on its own when its fetch fails.
func (h *PageHandler) ShowDashboard(c *fiber.Ctx) error {
	ctx := h.ctx(c)

	var (
		patients loader.Result[[]medical.Patient]
		reports  loader.Result[[]medical.Report]
		g        errgroup.Group
	)
	g.Go(func() error {
		patients = loader.Collection(ctx, h.backend.ListPatients)
		return nil
	})
	g.Go(func() error {
		reports = loader.Collection(ctx, h.backend.ListReports)
		return nil
	})
	_ = g.Wait()

	if patients.Failed() {
		h.logger.ErrorContext(ctx, "Failed to load patients", "error", patients.Err)
	}
	if reports.Failed() {
		h.logger.ErrorContext(ctx, "Failed to load reports", "error", reports.Err)
	}

	known := make(map[string]string, len(patients.Data))
	for _, p := range patients.Data {
		known[p.ID] = medical.Fallback(p.Name, medical.UnknownPatient)
	}
	recent := medical.Recent(reports.Data, recentReports)
	h.resolveNames(ctx, recent, known)

	return render(c, views.Dashboard(views.DashboardProps{
		Layout:         h.layout(c, "dashboard.title"),
		Patients:       patients,
		Reports:        reports,
		PatientSummary: medical.SummarizePatients(patients.Data),
		ReportSummary:  medical.SummarizeReports(reports.Data, h.now()),
		Recent:         recent,
	}))
}
