package web

import (
	"context"
	"errors"
	"strings"

	"cphorme/internal/backend"
	"cphorme/internal/form"
	"cphorme/internal/loader"
	"cphorme/internal/medical"
	"cphorme/internal/session"
	"cphorme/internal/telemetry"
	"cphorme/internal/web/views"

	"github.com/gofiber/fiber/v2"
)

const (
	patientsPath   = "/patients"
	addPatientPath = "/add-patient"
)

func (h *PageHandler) ShowPatients(c *fiber.Ctx) error {
	ctx := h.ctx(c)

	result := loader.Collection(ctx, h.backend.ListPatients)
	if result.Failed() {
		h.logger.ErrorContext(ctx, "Failed to load patients", "error", result.Err)
	} else if result.Partial() {
		h.logger.WarnContext(ctx, "Loaded patients partially", "error", result.Err)
	}

	query := strings.TrimSpace(c.Query("q"))
	return render(c, views.PatientList(views.PatientListProps{
		Layout:   h.layout(c, "patients.title"),
		Result:   result,
		Patients: medical.FilterPatients(result.Data, query),
		Summary:  medical.SummarizePatients(result.Data),
		Query:    query,
		View:     listView(c),
		Now:      h.now(),
	}))
}

func (h *PageHandler) loadPatient(ctx context.Context, id string) loader.Result[medical.Patient] {
	result := loader.Load(ctx, func(ctx context.Context) (medical.Patient, error) {
		return h.backend.GetPatient(ctx, id)
	}, nil)
	if result.Failed() {
		h.logger.WarnContext(ctx, "Failed to load patient", "patient_id", id, "error", result.Err)
	}
	return result
}

func (h *PageHandler) ShowPatient(c *fiber.Ctx) error {
	result := h.loadPatient(h.ctx(c), c.Params("id"))
	return h.renderPatient(c, result)
}

func (h *PageHandler) renderPatient(c *fiber.Ctx, result loader.Result[medical.Patient]) error {
	titleKey := "patients.title"
	if result.Failed() {
		titleKey = "patients.not_found"
	}
	return renderStatus(c, detailStatus(result.Err), views.PatientDetail(views.PatientDetailProps{
		Layout: h.layout(c, titleKey),
		Result: result,
		Now:    h.now(),
	}))
}

func (h *PageHandler) ShowAddPatient(c *fiber.Ctx) error {
	return h.renderPatientForm(c, fiber.StatusOK, form.NewPatientForm(), nil, nil)
}

func (h *PageHandler) ShowEditPatient(c *fiber.Ctx) error {
	result := h.loadPatient(h.ctx(c), c.Params("id"))
	if result.Failed() {
		return h.renderPatient(c, result)
	}
	return h.renderPatientForm(c, fiber.StatusOK, form.PatientFormFrom(result.Data), nil, nil)
}

func (h *PageHandler) renderPatientForm(c *fiber.Ctx, status int, f form.PatientForm, errs form.FieldErrors, flash *session.Flash) error {
	titleKey, action := "patient_form.add_title", addPatientPath
	if f.Editing() {
		titleKey, action = "patient_form.edit_title", detailPath(patientsPath, f.ID)+"/edit"
	}

	layout := h.layout(c, titleKey)
	if flash != nil {
		layout.Flash = flash
	}

	genders := make([]string, 0, len(medical.Genders))
	for _, g := range medical.Genders {
		genders = append(genders, string(g))
	}

	return renderStatus(c, status, views.PatientForm(views.PatientFormProps{
		Layout:     layout,
		Form:       f,
		Errors:     errs,
		Genders:    genders,
		BloodTypes: medical.BloodTypes,
		Action:     action,
	}))
}

// SubmitPatient handles both the add and the edit form. List actions only
// update the allergies or operations and show the form again; saving
// validates and sends the patient to the API.
func (h *PageHandler) SubmitPatient(c *fiber.Ctx) error {
	ctx := h.ctx(c)

	values, err := formValues(c)
	if err != nil {
		return err
	}
	f := form.ParsePatientForm(values)
	f.ID = c.Params("id")

	if action := values.Get("action"); action != "" && action != form.ActionSave {
		if f.Apply(action) {
			return h.renderPatientForm(c, fiber.StatusOK, f, nil, nil)
		}
	}

	if errs := f.Validate(h.validator); errs.Any() {
		h.telemetry.RecordFormSubmission(ctx, "patient", telemetry.OutcomeInvalid)
		return h.renderPatientForm(c, fiber.StatusUnprocessableEntity, f, errs, &session.Flash{
			Kind:    session.FlashError,
			Title:   h.t(c, "validation.title"),
			Message: h.t(c, "validation.detail"),
		})
	}

	var saved medical.Patient
	if f.Editing() {
		saved, err = h.backend.UpdatePatient(ctx, f.ID, f.Payload())
	} else {
		saved, err = h.backend.CreatePatient(ctx, f.Payload())
	}
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to save patient", "patient_id", f.ID, "error", err)
		h.telemetry.RecordFormSubmission(ctx, "patient", telemetry.OutcomeBackendError)

		titleKey := "patient_form.add_failed"
		if f.Editing() {
			titleKey = "patient_form.update_failed"
		}
		return h.renderPatientForm(c, fiber.StatusBadGateway, f, nil, &session.Flash{
			Kind:    session.FlashError,
			Title:   h.t(c, titleKey),
			Message: backend.UserMessage(err),
		})
	}
	h.telemetry.RecordFormSubmission(ctx, "patient", telemetry.OutcomeSaved)

	name := medical.Fallback(saved.Name, f.Name)
	if f.Editing() {
		h.logger.InfoContext(ctx, "Patient updated", "patient_id", saved.ID)
		h.notify(c, session.FlashSuccess, h.t(c, "patient_form.updated"), h.tf(c, "patient_form.updated_detail", name))
		return c.Redirect(detailPath(patientsPath, saved.ID), fiber.StatusSeeOther)
	}

	h.logger.InfoContext(ctx, "Patient created", "patient_id", saved.ID)
	h.notify(c, session.FlashSuccess, h.t(c, "patient_form.added"), h.tf(c, "patient_form.added_detail", name))
	if saved.ID == "" {
		return c.Redirect(addPatientPath, fiber.StatusSeeOther)
	}
	return c.Redirect(detailPath(patientsPath, saved.ID), fiber.StatusSeeOther)
}

// detailStatus is the response status of a detail page whose fetch ended
// with err.
func detailStatus(err error) int {
	switch {
	case err == nil:
		return fiber.StatusOK
	case errors.Is(err, backend.ErrNotFound):
		return fiber.StatusNotFound
	default:
		return fiber.StatusBadGateway
	}
}
