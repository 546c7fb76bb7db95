package web

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"cphorme/internal/medical"
	"cphorme/internal/web/views"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/sync/errgroup"
)

// lookupConcurrency bounds the name lookups of one page.
const lookupConcurrency = 8

// resolveNames fills in the patient and doctor names of reports. Every
// distinct identifier is looked up once, concurrently. known holds patient
// names that are already at hand. A failed lookup leaves the raw identifier
// as the name.
func (h *PageHandler) resolveNames(ctx context.Context, reports []medical.Report, known map[string]string) {
	var (
		mu       sync.Mutex
		patients = make(map[string]string, len(known))
		doctors  = make(map[string]string)
	)
	for id, name := range known {
		patients[id] = name
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(lookupConcurrency)

	lookup := func(names map[string]string, id, kind string, resolve func(context.Context, string) (string, error)) {
		g.Go(func() error {
			name, err := resolve(gctx, id)
			if err != nil {
				h.logger.WarnContext(gctx, "Name lookup failed", "kind", kind, "id", id, "error", err)
				name = id
			}
			mu.Lock()
			names[id] = name
			mu.Unlock()
			return nil
		})
	}

	var patientIDs, doctorIDs []string
	seen := make(map[string]bool)
	for _, r := range reports {
		if id := r.PatientID; id != "" && !seen["p:"+id] {
			seen["p:"+id] = true
			if _, ok := patients[id]; !ok {
				patientIDs = append(patientIDs, id)
			}
		}
		if id := r.DoctorID; id != "" && !seen["d:"+id] {
			seen["d:"+id] = true
			doctorIDs = append(doctorIDs, id)
		}
	}

	for _, id := range patientIDs {
		lookup(patients, id, "patient", h.backend.PatientName)
	}
	for _, id := range doctorIDs {
		lookup(doctors, id, "doctor", h.backend.DoctorName)
	}
	_ = g.Wait()

	for i := range reports {
		reports[i].PatientName = nameOr(patients, reports[i].PatientID, medical.UnknownPatient)
		reports[i].DoctorName = nameOr(doctors, reports[i].DoctorID, medical.UnknownDoctor)
	}
}

// resolveReport looks up the patient and doctor of one report in parallel.
func (h *PageHandler) resolveReport(ctx context.Context, report *medical.Report) {
	var g errgroup.Group

	g.Go(func() error {
		report.PatientName = h.lookupName(ctx, "patient", report.PatientID, medical.UnknownPatient, h.backend.PatientName)
		return nil
	})
	g.Go(func() error {
		report.DoctorName = h.lookupName(ctx, "doctor", report.DoctorID, medical.UnknownDoctor, h.backend.DoctorName)
		return nil
	})

	_ = g.Wait()
}

func (h *PageHandler) lookupName(ctx context.Context, kind, id, unknown string, resolve func(context.Context, string) (string, error)) string {
	if id == "" {
		return unknown
	}
	name, err := resolve(ctx, id)
	if err != nil {
		h.logger.WarnContext(ctx, "Name lookup failed", "kind", kind, "id", id, "error", err)
		return id
	}
	return name
}

func nameOr(names map[string]string, id, unknown string) string {
	if id == "" {
		return unknown
	}
	if name, ok := names[id]; ok {
		return name
	}
	return id
}

// listView picks the list presentation: an explicit ?view= wins, otherwise
// mobile browsers get cards.
func listView(c *fiber.Ctx) string {
	switch c.Query("view") {
	case views.ViewCards:
		return views.ViewCards
	case views.ViewTable:
		return views.ViewTable
	}
	if strings.Contains(c.Get(fiber.HeaderUserAgent), "Mobi") {
		return views.ViewCards
	}
	return views.ViewTable
}

// formValues returns the submitted form fields, including repeated ones.
func formValues(c *fiber.Ctx) (url.Values, error) {
	if strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMEMultipartForm) {
		mf, err := c.MultipartForm()
		if err != nil {
			return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid form")
		}
		return url.Values(mf.Value), nil
	}

	values := url.Values{}
	c.Request().PostArgs().VisitAll(func(key, value []byte) {
		values.Add(string(key), string(value))
	})
	return values, nil
}

func detailPath(base, id string) string {
	return base + "/" + url.PathEscape(id)
}
