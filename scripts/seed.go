package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/CoderVinit/doctor-backend/internal/adapters/database"
	"github.com/CoderVinit/doctor-backend/internal/adapters/search"
	"github.com/CoderVinit/doctor-backend/internal/application/services"
	"github.com/CoderVinit/doctor-backend/internal/domain/entities"
	"github.com/CoderVinit/doctor-backend/internal/infrastructure/clients/postgres"
	"github.com/CoderVinit/doctor-backend/internal/infrastructure/clients/typesense"
	"github.com/CoderVinit/doctor-backend/internal/infrastructure/observability"
	"github.com/CoderVinit/doctor-backend/pkg/config"
	"github.com/CoderVinit/doctor-backend/pkg/utils"
)

const schema = `
CREATE TABLE IF NOT EXISTS doctors (
	id          UUID PRIMARY KEY,
	name        VARCHAR(255) NOT NULL,
	email       VARCHAR(255) NOT NULL UNIQUE,
	image       TEXT NOT NULL DEFAULT '',
	speciality  VARCHAR(255) NOT NULL,
	degree      VARCHAR(255) NOT NULL,
	experience  VARCHAR(255) NOT NULL,
	about       TEXT NOT NULL DEFAULT '',
	keywords    TEXT[] NOT NULL DEFAULT '{}',
	rating      NUMERIC(3, 2) NOT NULL DEFAULT 0,
	fees        NUMERIC(10, 2) NOT NULL,
	address     VARCHAR(255) NOT NULL DEFAULT '',
	available   BOOLEAN NOT NULL DEFAULT TRUE
);

CREATE TABLE IF NOT EXISTS appointments (
	id           UUID PRIMARY KEY,
	user_id      UUID NOT NULL,
	doc_id       UUID NOT NULL REFERENCES doctors (id),
	slot_date    VARCHAR(100) NOT NULL,
	slot_time    VARCHAR(100) NOT NULL,
	amount       NUMERIC(10, 2) NOT NULL,
	cancelled    BOOLEAN NOT NULL DEFAULT FALSE,
	payment      BOOLEAN NOT NULL DEFAULT FALSE,
	is_completed BOOLEAN NOT NULL DEFAULT FALSE,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS appointments_user_id_idx ON appointments (user_id);
CREATE INDEX IF NOT EXISTS appointments_doc_slot_idx ON appointments (doc_id, slot_date);
`

type sampleDoctor struct {
	name       string
	speciality string
	degree     string
	experience int
	fees       float64
	about      string
}

var sampleDoctors = []sampleDoctor{
	{"Dr. Rajesh Kumar", "General Physician", "MBBS, MD", 15, 500, "Experienced general physician specializing in preventive care and chronic disease management."},
	{"Dr. Priya Sharma", "Family Medicine", "MBBS, DNB (Family Medicine)", 12, 600, "Dedicated family medicine specialist providing comprehensive care for all ages."},
	{"Dr. Anjali Verma", "Gynecologist", "MBBS, MS (OBG)", 18, 800, "Senior gynecologist with expertise in women's reproductive health and fertility."},
	{"Dr. Meera Reddy", "Obstetrician", "MBBS, DGO", 14, 900, "Specialized in high-risk pregnancies and prenatal care."},
	{"Dr. Vikram Singh", "Dermatologist", "MBBS, MD (Dermatology)", 10, 700, "Expert in treating skin conditions, acne, and cosmetic dermatology."},
	{"Dr. Neha Kapoor", "Cosmetologist", "MBBS, DDVL", 8, 1200, "Specialist in aesthetic treatments, laser therapy, and skin rejuvenation."},
	{"Dr. Amit Patel", "Pediatrician", "MBBS, MD (Pediatrics)", 16, 600, "Caring pediatrician focused on child development and preventive care."},
	{"Dr. Sunita Joshi", "Neonatologist", "MBBS, MD, DM (Neonatology)", 12, 1500, "Specialist in newborn intensive care and premature infant care."},
	{"Dr. Arun Mehta", "Neurologist", "MBBS, MD, DM (Neurology)", 20, 1200, "Expert neurologist treating stroke, epilepsy, and movement disorders."},
	{"Dr. Kavita Rao", "Neurosurgeon", "MBBS, MS, MCh (Neurosurgery)", 18, 2000, "Skilled neurosurgeon specializing in brain and spine surgeries."},
	{"Dr. Sanjay Gupta", "Psychiatrist", "MBBS, MD (Psychiatry)", 15, 1000, "Compassionate psychiatrist treating depression, anxiety, and mental health disorders."},
	{"Dr. Deepa Nair", "Psychologist", "PhD (Clinical Psychology)", 12, 800, "Clinical psychologist specializing in therapy and counseling."},
	{"Dr. Ramesh Agarwal", "Cardiologist", "MBBS, MD, DM (Cardiology)", 22, 1500, "Leading cardiologist with expertise in interventional cardiology."},
	{"Dr. Suresh Iyer", "Cardiac Surgeon", "MBBS, MS, MCh (CTVS)", 20, 2500, "Expert cardiac surgeon performing bypass and valve surgeries."},
	{"Dr. Pooja Desai", "Vascular Surgeon", "MBBS, MS, MCh (Vascular)", 14, 1800, "Specialist in treating vascular diseases and performing vascular surgeries."},
	{"Dr. Anand Kumar", "Gastroenterologist", "MBBS, MD, DM (Gastro)", 16, 1200, "Expert in digestive disorders, endoscopy, and liver diseases."},
	{"Dr. Ritu Saxena", "Hepatologist", "MBBS, MD, DM (Hepatology)", 14, 1400, "Specialist in liver diseases and hepatitis treatment."},
	{"Dr. Manoj Tiwari", "Orthopedic", "MBBS, MS (Ortho)", 18, 1000, "Experienced orthopedic surgeon specializing in joint replacements."},
	{"Dr. Seema Malhotra", "Rheumatologist", "MBBS, MD, DM (Rheumatology)", 12, 1100, "Expert in treating arthritis and autoimmune disorders."},
	{"Dr. Rahul Sharma", "Physiotherapist", "BPT, MPT", 10, 500, "Skilled physiotherapist helping patients recover from injuries."},
	{"Dr. Karan Singh", "Sports Medicine", "MBBS, DNB (Sports Medicine)", 8, 900, "Specialist in sports injuries and athlete care."},
	{"Dr. Vivek Khanna", "Ophthalmologist", "MBBS, MS (Ophthalmology)", 15, 800, "Expert eye surgeon performing cataract and LASIK surgeries."},
	{"Dr. Nidhi Goyal", "Optometrist", "B.Optom, M.Optom", 8, 400, "Specialist in vision care and contact lens fitting."},
	{"Dr. Ashok Menon", "ENT Specialist", "MBBS, MS (ENT)", 17, 700, "Expert ENT surgeon treating ear, nose, and throat disorders."},
	{"Dr. Shweta Bansal", "Audiologist", "MASLP", 10, 600, "Specialist in hearing assessments and hearing aid fitting."},
	{"Dr. Nitin Arora", "Dentist", "BDS, MDS", 12, 500, "Experienced dentist providing comprehensive dental care."},
	{"Dr. Pallavi Jain", "Orthodontist", "BDS, MDS (Orthodontics)", 10, 800, "Specialist in braces and teeth alignment."},
	{"Dr. Rohit Chawla", "Oral Surgeon", "BDS, MDS (Oral Surgery)", 14, 1200, "Expert in oral surgeries and dental implants."},
	{"Dr. Vijay Malhotra", "Pulmonologist", "MBBS, MD, DM (Pulmonology)", 16, 1100, "Specialist in respiratory diseases and sleep disorders."},
	{"Dr. Anita Shetty", "Allergist", "MBBS, MD (Allergy)", 12, 900, "Expert in treating allergies and asthma."},
	{"Dr. Prakash Rao", "Nephrologist", "MBBS, MD, DM (Nephrology)", 18, 1300, "Specialist in kidney diseases and dialysis management."},
	{"Dr. Siddharth Bose", "Urologist", "MBBS, MS, MCh (Urology)", 15, 1400, "Expert urologist treating urinary and male reproductive disorders."},
	{"Dr. Lakshmi Menon", "Endocrinologist", "MBBS, MD, DM (Endocrinology)", 14, 1200, "Specialist in hormonal disorders and thyroid diseases."},
	{"Dr. Harish Sharma", "Diabetologist", "MBBS, MD (Medicine), FACE", 16, 1000, "Expert in diabetes management and metabolic disorders."},
	{"Dr. Sunil Kapoor", "Oncologist", "MBBS, MD, DM (Oncology)", 20, 2000, "Leading oncologist specializing in cancer treatment and chemotherapy."},
	{"Dr. Rashmi Pillai", "Radiation Oncologist", "MBBS, MD (Radiation Oncology)", 15, 1800, "Expert in radiation therapy for cancer treatment."},
	{"Dr. Mohan Krishnan", "General Surgeon", "MBBS, MS (General Surgery)", 18, 1200, "Experienced general surgeon performing various surgical procedures."},
	{"Dr. Rekha Nambiar", "Plastic Surgeon", "MBBS, MS, MCh (Plastic Surgery)", 14, 2500, "Expert in reconstructive and cosmetic plastic surgery."},
	{"Dr. Ajay Mathur", "Laparoscopic Surgeon", "MBBS, MS, FMAS", 12, 1500, "Specialist in minimally invasive laparoscopic surgeries."},
	{"Dr. Gaurav Singh", "Infectious Disease", "MBBS, MD (Medicine), FID", 12, 1100, "Specialist in treating infectious diseases and tropical medicine."},
	{"Dr. Kamala Devi", "Geriatrician", "MBBS, MD (Geriatrics)", 15, 800, "Expert in elderly care and age-related health issues."},
	{"Dr. Arjun Reddy", "Hematologist", "MBBS, MD, DM (Hematology)", 14, 1400, "Specialist in blood disorders and blood cancer."},
	{"Dr. Sneha Kulkarni", "Immunologist", "MBBS, MD, DM (Immunology)", 10, 1300, "Expert in immune system disorders and autoimmune diseases."},
	{"Dr. Ramakrishna Iyer", "Ayurveda", "BAMS, MD (Ayurveda)", 20, 500, "Experienced Ayurvedic practitioner offering holistic treatment."},
	{"Dr. Shilpa Bhatia", "Homeopathy", "BHMS, MD (Homeopathy)", 15, 400, "Specialist in homeopathic treatments for various conditions."},
	{"Dr. Yogesh Pandit", "Naturopathy", "BNYS", 12, 600, "Expert in natural healing and lifestyle medicine."},
	{"Dr. Priyanka Chopra", "Dietitian", "MSc (Nutrition), RD", 10, 500, "Certified dietitian helping with weight management and therapeutic diets."},
	{"Dr. Anil Kumar", "Nutritionist", "PhD (Nutrition)", 12, 600, "Clinical nutritionist specializing in sports and clinical nutrition."},
}

var profileImages = []string{
	"https://res.cloudinary.com/demo/image/upload/v1/samples/people/smiling-man",
	"https://res.cloudinary.com/demo/image/upload/v1/samples/people/kitchen-bar",
	"https://res.cloudinary.com/demo/image/upload/v1/samples/people/jazz",
}

func main() {
	var patients, perPatient int
	var seed uint64
	flag.IntVar(&patients, "patients", 40, "number of synthetic patients")
	flag.IntVar(&perPatient, "appointments", 8, "past appointments per synthetic patient")
	flag.Uint64Var(&seed, "seed", 42, "random seed for synthetic history")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	observability.InitLogger(cfg.OTEL.ServiceName+"-seed", cfg.App.Env, cfg.App.LogLevel)

	ctx := context.Background()

	pgClient, err := postgres.NewClient(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to DB")
	}
	defer pgClient.Close()
	db := pgClient.DB()

	if _, err := db.ExecContext(ctx, schema); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply schema")
	}

	if os.Getenv("RESET_DB") == "true" {
		log.Info().Msg("RESET_DB=true detected, truncating tables before seeding")
		if _, err := db.ExecContext(ctx, `TRUNCATE TABLE appointments, doctors`); err != nil {
			log.Fatal().Err(err).Msg("Failed to reset tables")
		}
	}

	var searchRepo *search.TypesenseAdapter
	if cfg.Typesense.Enabled {
		tsClient, err := typesense.NewClient(ctx, &cfg.Typesense)
		if err != nil {
			log.Warn().Err(err).Msg("Typesense unavailable, skipping search indexing")
		} else if err := tsClient.InitSchema(ctx); err != nil {
			log.Warn().Err(err).Msg("Failed to init Typesense schema")
		} else {
			searchRepo = search.NewTypesenseAdapter(tsClient)
		}
	}

	specialties, err := services.LoadSpecialties(cfg.Catalog.SpecialtiesPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load specialty catalogue")
	}
	keywordsBySpecialty := make(map[string][]string, len(specialties))
	for _, sp := range specialties {
		keywordsBySpecialty[sp.Name] = sp.Keywords
	}

	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	doctorRepo := database.NewDoctorAdapter(db)

	// 1. Seed doctors
	doctors := make([]*entities.Doctor, 0, len(sampleDoctors))
	for i, s := range sampleDoctors {
		doctor := &entities.Doctor{
			ID:         uuid.New().String(),
			Name:       s.name,
			Email:      doctorEmail(s.name),
			Image:      profileImages[rng.IntN(len(profileImages))],
			Speciality: s.speciality,
			Degree:     s.degree,
			Experience: fmt.Sprintf("%d Years", s.experience),
			About:      s.about,
			Keywords:   keywordsBySpecialty[s.speciality],
			Rating:     4.0 + float64(i%10)/10,
			Fees:       s.fees,
			Address:    "Medical Center, Healthcare District",
			Available:  true,
		}
		if err := doctorRepo.Create(ctx, doctor); err != nil {
			log.Warn().Err(err).Str("doctor", s.name).Msg("Skipping doctor")
			continue
		}
		doctors = append(doctors, doctor)

		if searchRepo != nil {
			if err := searchRepo.Index(ctx, doctor); err != nil {
				log.Warn().Err(err).Str("doctor_id", doctor.ID).Msg("Failed to index doctor")
			}
		}
	}
	log.Info().Int("doctors", len(doctors)).Int("specialities", len(keywordsBySpecialty)).Msg("Seeded doctors")

	if len(doctors) == 0 {
		log.Warn().Msg("No new doctors, skipping synthetic appointments")
		return
	}

	// 2. Seed synthetic appointment history
	appointmentRepo := database.NewAppointmentAdapter(db)
	created := 0
	for _, record := range syntheticHistory(rng, doctors, patients, perPatient, time.Now().UTC()) {
		if err := appointmentRepo.Create(ctx, record); err != nil {
			log.Warn().Err(err).Str("appointment_id", record.ID).Msg("Failed to create appointment")
			continue
		}
		created++
	}

	log.Info().Int("appointments", created).Int("patients", patients).Msg("Seeding completed")
}

// syntheticHistory gives each patient a fixed no-show propensity and raises
// it for evening and weekend slots, so the model has a signal to learn.
func syntheticHistory(rng *rand.Rand, doctors []*entities.Doctor, patients, perPatient int, now time.Time) []*entities.AppointmentRecord {
	records := make([]*entities.AppointmentRecord, 0, patients*perPatient)
	for p := 0; p < patients; p++ {
		patientID := uuid.New().String()
		propensity := 0.05 + rng.Float64()*0.55

		for a := 0; a < perPatient; a++ {
			doctor := doctors[rng.IntN(len(doctors))]
			day := now.AddDate(0, 0, -(1 + rng.IntN(90)))
			slot := services.SlotCatalogue[rng.IntN(len(services.SlotCatalogue))]

			risk := propensity
			if hour, ok := utils.ParseSlotHour(slot); ok && hour >= 17 {
				risk += 0.15
			}
			if utils.IsWeekend(day) {
				risk += 0.1
			}

			record := &entities.AppointmentRecord{
				ID:        uuid.New().String(),
				PatientID: patientID,
				DoctorID:  doctor.ID,
				SlotDate:  utils.StoredSlotDate(day),
				SlotTime:  slot,
				Amount:    doctor.Fees,
				CreatedAt: day.AddDate(0, 0, -rng.IntN(14)),
			}
			if rng.Float64() < risk {
				record.Cancelled = rng.Float64() < 0.6
			} else {
				record.Completed = true
				record.Payment = true
			}
			if !record.Payment {
				record.Payment = rng.Float64() < 0.3
			}
			records = append(records, record)
		}
	}
	return records
}

func doctorEmail(name string) string {
	local := strings.TrimPrefix(strings.ToLower(name), "dr. ")
	return strings.Join(strings.Fields(local), ".") + "@gmail.com"
}
