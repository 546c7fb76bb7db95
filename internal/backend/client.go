// Package backend is the typed client for the remote patient and report API.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"cphorme/internal/config"
	"cphorme/internal/medical"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const maxResponseSize = 4 << 20

type Client struct {
	baseURL   *url.URL
	signupURL string
	http      *http.Client

	tracer   trace.Tracer
	requests metric.Int64Counter
	duration metric.Float64Histogram
}

// New builds a client for cfg. A nil httpClient gets a default one with
// cfg.Timeout applied.
func New(cfg config.BackendConfig, httpClient *http.Client) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid backend url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid backend url %q: scheme and host are required", cfg.BaseURL)
	}

	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	meter := otel.Meter("cphorme/backend")
	requests, err := meter.Int64Counter(
		"cphorme_backend_requests_total",
		metric.WithDescription("Total number of requests sent to the patient/report API"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create backend request counter: %w", err)
	}
	duration, err := meter.Float64Histogram(
		"cphorme_backend_request_duration_seconds",
		metric.WithDescription("Latency of requests sent to the patient/report API"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create backend latency histogram: %w", err)
	}

	return &Client{
		baseURL:   base,
		signupURL: cfg.SignupURL,
		http:      httpClient,
		tracer:    otel.Tracer("cphorme/backend"),
		requests:  requests,
		duration:  duration,
	}, nil
}

// ListPatients returns the patients the API sent. When some elements could
// not be decoded the rest come back with an error wrapping ErrPartialResponse.
func (c *Client) ListPatients(ctx context.Context) ([]medical.Patient, error) {
	body, err := c.do(ctx, "ListPatients", http.MethodGet, c.endpoint("patient"), nil)
	if err != nil {
		return nil, err
	}
	patients, err := medical.DecodePatients(body)
	if err != nil {
		return patients, decodeError(err)
	}
	return patients, nil
}

func (c *Client) GetPatient(ctx context.Context, id string) (medical.Patient, error) {
	body, err := c.do(ctx, "GetPatient", http.MethodGet, c.endpoint("patient", id), nil)
	if err != nil {
		return medical.Patient{}, err
	}
	patient, err := medical.DecodePatient(body)
	if err != nil {
		return medical.Patient{}, decodeError(err)
	}
	return patient, nil
}

// CreatePatient posts a new patient. The API does not always echo the stored
// record; a success without one yields a Patient with an empty ID.
func (c *Client) CreatePatient(ctx context.Context, payload medical.PatientPayload) (medical.Patient, error) {
	body, err := c.do(ctx, "CreatePatient", http.MethodPost, c.endpoint("patient"), payload)
	if err != nil {
		return medical.Patient{}, err
	}
	return savedRecord(body, medical.DecodePatient)
}

func (c *Client) UpdatePatient(ctx context.Context, id string, payload medical.PatientPayload) (medical.Patient, error) {
	body, err := c.do(ctx, "UpdatePatient", http.MethodPut, c.endpoint("patient", "update", id), payload)
	if err != nil {
		return medical.Patient{}, err
	}
	patient, err := savedRecord(body, medical.DecodePatient)
	if err == nil && patient.ID == "" {
		patient.ID = id
	}
	return patient, err
}

func (c *Client) ListReports(ctx context.Context) ([]medical.Report, error) {
	body, err := c.do(ctx, "ListReports", http.MethodGet, c.endpoint("report"), nil)
	if err != nil {
		return nil, err
	}
	reports, err := medical.DecodeReports(body)
	if err != nil {
		return reports, decodeError(err)
	}
	return reports, nil
}

func (c *Client) GetReport(ctx context.Context, id string) (medical.Report, error) {
	body, err := c.do(ctx, "GetReport", http.MethodGet, c.endpoint("report", id), nil)
	if err != nil {
		return medical.Report{}, err
	}
	report, err := medical.DecodeReport(body)
	if err != nil {
		return medical.Report{}, decodeError(err)
	}
	return report, nil
}

func (c *Client) CreateReport(ctx context.Context, payload medical.ReportPayload) (medical.Report, error) {
	body, err := c.do(ctx, "CreateReport", http.MethodPost, c.endpoint("report"), payload)
	if err != nil {
		return medical.Report{}, err
	}
	return savedRecord(body, medical.DecodeReport)
}

func (c *Client) UpdateReport(ctx context.Context, id string, payload medical.ReportPayload) (medical.Report, error) {
	body, err := c.do(ctx, "UpdateReport", http.MethodPut, c.endpoint("report", id), payload)
	if err != nil {
		return medical.Report{}, err
	}
	report, err := savedRecord(body, medical.DecodeReport)
	if err == nil && report.ID == "" {
		report.ID = id
	}
	return report, err
}

func (c *Client) GetDoctor(ctx context.Context, id string) (medical.Doctor, error) {
	body, err := c.do(ctx, "GetDoctor", http.MethodGet, c.endpoint("doctor", id), nil)
	if err != nil {
		return medical.Doctor{}, err
	}
	doctor, err := medical.DecodeDoctor(body)
	if err != nil {
		return medical.Doctor{}, decodeError(err)
	}
	return doctor, nil
}

// PatientName resolves a patient ID to a display name.
func (c *Client) PatientName(ctx context.Context, id string) (string, error) {
	patient, err := c.GetPatient(ctx, id)
	if err != nil {
		return "", err
	}
	return medical.Fallback(patient.Name, medical.UnknownPatient), nil
}

// DoctorName resolves a doctor ID to a display name.
func (c *Client) DoctorName(ctx context.Context, id string) (string, error) {
	doctor, err := c.GetDoctor(ctx, id)
	if err != nil {
		return "", err
	}
	return medical.Fallback(doctor.Name, medical.UnknownDoctor), nil
}

// Ping reports whether the API answers at all. Any HTTP response, including
// an error status, counts as reachable.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.do(ctx, "Ping", http.MethodGet, c.endpoint("patient"), nil)
	var statusErr *StatusError
	if errors.Is(err, ErrNotFound) || errors.As(err, &statusErr) {
		return nil
	}
	return err
}

func (c *Client) endpoint(segments ...string) string {
	u := *c.baseURL
	plain := append([]string{"api", "v1"}, segments...)
	escaped := make([]string, len(plain))
	for i, s := range plain {
		escaped[i] = url.PathEscape(s)
	}
	base := strings.TrimRight(u.Path, "/")
	u.Path = base + "/" + strings.Join(plain, "/")
	u.RawPath = base + "/" + strings.Join(escaped, "/")
	return u.String()
}

// do sends one request and returns the body of a 2xx response.
func (c *Client) do(ctx context.Context, operation, method, target string, payload any) ([]byte, error) {
	ctx, span := c.tracer.Start(ctx, "backend."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("http.url", target),
		),
	)
	defer span.End()

	start := time.Now()
	status := 0
	defer func() {
		attrs := metric.WithAttributes(
			attribute.String("operation", operation),
			attribute.String("status", strconv.Itoa(status)),
		)
		c.requests.Add(ctx, 1, attrs)
		c.duration.Record(ctx, time.Since(start).Seconds(), attrs)
	}()

	body, status, err := c.roundTrip(ctx, method, target, payload)
	span.SetAttributes(attribute.Int("http.status_code", status))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetStatus(codes.Ok, "")
	return body, nil
}

func (c *Client) roundTrip(ctx context.Context, method, target string, payload any) ([]byte, int, error) {
	var reader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%s %s: %w", method, target, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response body: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, resp.StatusCode, ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, resp.StatusCode, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return body, resp.StatusCode, nil
}

func decodeError(err error) error {
	var partial *medical.PartialError
	switch {
	case errors.Is(err, medical.ErrNoRecord):
		return ErrNotFound
	case errors.As(err, &partial):
		return fmt.Errorf("%w: %w", ErrPartialResponse, err)
	}
	return fmt.Errorf("%w: %w", ErrMalformedResponse, err)
}

// savedRecord decodes the answer to a POST or PUT. An empty body or a body
// without a record is a successful save without an echo.
func savedRecord[T any](body []byte, decode func([]byte) (T, error)) (T, error) {
	var zero T
	if len(bytes.TrimSpace(body)) == 0 {
		return zero, nil
	}
	record, err := decode(body)
	switch {
	case errors.Is(err, medical.ErrNoRecord):
		return zero, nil
	case err != nil:
		return zero, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	return record, nil
}
