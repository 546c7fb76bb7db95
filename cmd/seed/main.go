// Command seed fills the patient/report API with a few demo records.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"cphorme/internal/backend"
	"cphorme/internal/config"
	"cphorme/internal/form"
	"cphorme/internal/validator"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "Validate the demo records without sending them")
	flag.Parse()

	cfg := config.NewConfig()
	v := validator.New()

	client, err := backend.New(cfg.Backend, nil)
	if err != nil {
		log.Fatalf("Failed to create backend client: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	patients := []form.PatientForm{
		{
			Name:             "Mary Johnson",
			Birthdate:        "1990-01-15",
			Gender:           "female",
			Occupation:       "Teacher",
			Address:          "Street 15, Khartoum North",
			Phone:            "0912345678",
			OriginState:      "Khartoum",
			EmergencyContact: "0923456789",
			Email:            "mary@example.com",
			BloodType:        "O+",
			Allergies:        form.NewListField("Penicillin"),
			Operations:       form.NewListField(),
		},
		{
			Name:             "Yousif Adam",
			Birthdate:        "1978-09-02",
			Gender:           "male",
			Occupation:       "Farmer",
			Address:          "Al Damazin, Blue Nile",
			Phone:            "0998765432",
			OriginState:      "Blue Nile",
			EmergencyContact: "0911223344",
			BloodType:        "A-",
			Allergies:        form.NewListField(),
			Operations:       form.NewListField("Appendectomy"),
		},
	}

	var created []string
	for _, p := range patients {
		if errs := p.Validate(v); errs.Any() {
			log.Fatalf("Demo patient %s is invalid: %v", p.Name, errs)
		}
		if *dryRun {
			fmt.Printf("Valid patient: %s\n", p.Name)
			continue
		}

		saved, err := client.CreatePatient(ctx, p.Payload())
		if err != nil {
			log.Printf("Failed to create patient %s: %v", p.Name, err)
			continue
		}
		fmt.Printf("Created patient: %s (%s)\n", p.Name, saved.ID)
		if saved.ID != "" {
			created = append(created, saved.ID)
		}
	}

	for _, patientID := range created {
		report := form.NewReportForm()
		report.PatientID = patientID
		report.Subjective = "Cough and fever for three days"
		report.Assessment = "Crackles in the right lower lobe"
		report.Plan = "Oral antibiotics and review in 48 hours"
		report.Medications = "Amoxicillin 500mg three times daily"
		report.Diagnosis = "Pneumonia"
		report.Temperature = 38.6

		if errs := report.Validate(v); errs.Any() {
			log.Fatalf("Demo report is invalid: %v", errs)
		}
		saved, err := client.CreateReport(ctx, report.Payload(cfg.Auth.DoctorID, time.Now()))
		if err != nil {
			log.Printf("Failed to create report for patient %s: %v", patientID, err)
			continue
		}
		fmt.Printf("Created report %s for patient %s\n", saved.ID, patientID)
	}

	fmt.Println("\nDemo data sent to", cfg.Backend.BaseURL)
}
