package web

import (
	"context"
	"strings"

	"cphorme/internal/backend"
	"cphorme/internal/form"
	"cphorme/internal/loader"
	"cphorme/internal/medical"
	"cphorme/internal/middleware"
	"cphorme/internal/session"
	"cphorme/internal/telemetry"
	"cphorme/internal/web/views"

	"github.com/gofiber/fiber/v2"
)

const (
	reportsPath   = "/reports"
	addReportPath = "/add-report"
)

// ShowReports lists the reports with resolved patient and doctor names, so
// the search can match on them.
func (h *PageHandler) ShowReports(c *fiber.Ctx) error {
	ctx := h.ctx(c)

	result := loader.Collection(ctx, h.backend.ListReports)
	if result.Failed() {
		h.logger.ErrorContext(ctx, "Failed to load reports", "error", result.Err)
	} else if result.Partial() {
		h.logger.WarnContext(ctx, "Loaded reports partially", "error", result.Err)
	}
	h.resolveNames(ctx, result.Data, nil)

	query := strings.TrimSpace(c.Query("q"))
	return render(c, views.ReportList(views.ReportListProps{
		Layout:  h.layout(c, "reports.title"),
		Result:  result,
		Reports: medical.FilterReports(result.Data, query),
		Summary: medical.SummarizeReports(result.Data, h.now()),
		Query:   query,
		View:    listView(c),
	}))
}

func (h *PageHandler) loadReport(ctx context.Context, id string) loader.Result[medical.Report] {
	result := loader.Load(ctx, func(ctx context.Context) (medical.Report, error) {
		return h.backend.GetReport(ctx, id)
	}, nil)
	if result.Failed() {
		h.logger.WarnContext(ctx, "Failed to load report", "report_id", id, "error", result.Err)
	}
	return result
}

// ShowReport renders one report. The patient and doctor names are looked up
// concurrently; a failed lookup shows the raw identifier instead.
func (h *PageHandler) ShowReport(c *fiber.Ctx) error {
	ctx := h.ctx(c)

	result := h.loadReport(ctx, c.Params("id"))
	if result.Ok() {
		h.resolveReport(ctx, &result.Data)
	}
	return h.renderReport(c, result)
}

func (h *PageHandler) renderReport(c *fiber.Ctx, result loader.Result[medical.Report]) error {
	titleKey := "reports.title"
	if result.Failed() {
		titleKey = "reports.not_found"
	}

	vitals, hasVitals := result.Data.LatestVitals()
	return renderStatus(c, detailStatus(result.Err), views.ReportDetail(views.ReportDetailProps{
		Layout:    h.layout(c, titleKey),
		Result:    result,
		Vitals:    vitals,
		HasVitals: hasVitals,
	}))
}

func (h *PageHandler) ShowAddReport(c *fiber.Ctx) error {
	f := form.NewReportForm()
	f.PatientID = c.Query("patient")
	return h.renderReportForm(c, fiber.StatusOK, f, nil, nil)
}

func (h *PageHandler) ShowEditReport(c *fiber.Ctx) error {
	result := h.loadReport(h.ctx(c), c.Params("id"))
	if result.Failed() {
		return h.renderReport(c, result)
	}
	return h.renderReportForm(c, fiber.StatusOK, form.ReportFormFrom(result.Data), nil, nil)
}

// renderReportForm fetches the patients for the selector. When that fails
// the selector stays empty and an error notification is shown, unless the
// caller already has one.
func (h *PageHandler) renderReportForm(c *fiber.Ctx, status int, f form.ReportForm, errs form.FieldErrors, flash *session.Flash) error {
	ctx := h.ctx(c)

	titleKey, action := "report_form.add_title", addReportPath
	if f.Editing() {
		titleKey, action = "report_form.edit_title", detailPath(reportsPath, f.ID)+"/edit"
	}

	patients := loader.Collection(ctx, h.backend.ListPatients)
	if patients.Failed() {
		h.logger.ErrorContext(ctx, "Failed to load patients for report form", "error", patients.Err)
		if flash == nil {
			flash = &session.Flash{
				Kind:    session.FlashError,
				Title:   h.t(c, "common.error"),
				Message: h.t(c, "report_form.patients_failed"),
			}
		}
	}

	layout := h.layout(c, titleKey)
	if flash != nil {
		layout.Flash = flash
	}

	return renderStatus(c, status, views.ReportForm(views.ReportFormProps{
		Layout:   layout,
		Form:     f,
		Errors:   errs,
		Patients: patients,
		Diseases: medical.CommonDiseases,
		Action:   action,
	}))
}

// SubmitReport validates and saves the add or edit report form. The report
// is attributed to the doctor of the signed-in account.
func (h *PageHandler) SubmitReport(c *fiber.Ctx) error {
	ctx := h.ctx(c)

	values, err := formValues(c)
	if err != nil {
		return err
	}
	f := form.ParseReportForm(values)
	f.ID = c.Params("id")

	if errs := f.Validate(h.validator); errs.Any() {
		h.telemetry.RecordFormSubmission(ctx, "report", telemetry.OutcomeInvalid)
		return h.renderReportForm(c, fiber.StatusUnprocessableEntity, f, errs, &session.Flash{
			Kind:    session.FlashError,
			Title:   h.t(c, "validation.title"),
			Message: h.t(c, "validation.detail"),
		})
	}

	account, _ := middleware.GetAccount(c)
	payload := f.Payload(account.DoctorID, h.now())

	var saved medical.Report
	if f.Editing() {
		saved, err = h.backend.UpdateReport(ctx, f.ID, payload)
	} else {
		saved, err = h.backend.CreateReport(ctx, payload)
	}
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to save report", "report_id", f.ID, "error", err)
		h.telemetry.RecordFormSubmission(ctx, "report", telemetry.OutcomeBackendError)

		titleKey := "report_form.create_failed"
		if f.Editing() {
			titleKey = "report_form.update_failed"
		}
		return h.renderReportForm(c, fiber.StatusBadGateway, f, nil, &session.Flash{
			Kind:    session.FlashError,
			Title:   h.t(c, titleKey),
			Message: backend.UserMessage(err),
		})
	}
	h.telemetry.RecordFormSubmission(ctx, "report", telemetry.OutcomeSaved)

	if f.Editing() {
		h.logger.InfoContext(ctx, "Report updated", "report_id", saved.ID)
		h.notify(c, session.FlashSuccess, h.t(c, "report_form.updated"), h.t(c, "report_form.updated_detail"))
		return c.Redirect(detailPath(reportsPath, saved.ID), fiber.StatusSeeOther)
	}

	h.logger.InfoContext(ctx, "Report created", "report_id", saved.ID, "patient_id", f.PatientID)
	h.notify(c, session.FlashSuccess, h.t(c, "report_form.created"), h.t(c, "report_form.created_detail"))
	if saved.ID == "" {
		return c.Redirect(addReportPath, fiber.StatusSeeOther)
	}
	return c.Redirect(detailPath(reportsPath, saved.ID), fiber.StatusSeeOther)
}
