package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inauto/garage-booking/internal/db"
)

var services = []string{
	"Vidange",
	"Révision complète",
	"Freinage",
	"Pneus et équilibrage",
	"Climatisation",
	"Diagnostic électronique",
	"Carrosserie",
	"Batterie",
}

var heures = []string{"08:00", "09:00", "10:00", "11:00", "14:00", "15:00", "16:00", "17:00"}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	profileIDs, err := seedProfiles(context.Background(), pool, 50)
	if err != nil {
		log.Fatalf("seed profiles: %v", err)
	}
	if err := seedAppointments(context.Background(), pool, profileIDs, 300); err != nil {
		log.Fatalf("seed appointments: %v", err)
	}

	log.Println("seed complete")
}

func seedProfiles(ctx context.Context, pool *pgxpool.Pool, count int) ([]uuid.UUID, error) {
	log.Printf("seeding %d profiles", count)

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ids := make([]uuid.UUID, 0, count)
	for i := 0; i < count; i++ {
		id := uuid.New()

		_, err := tx.Exec(ctx, `
			INSERT INTO profiles (id, name, phone, email, created_at)
			VALUES ($1, $2, $3, $4, now())
		`, id, gofakeit.Name(), fakePhone(), gofakeit.Email())
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	log.Println("profiles seeded")
	return ids, nil
}

func seedAppointments(ctx context.Context, pool *pgxpool.Pool, profileIDs []uuid.UUID, count int) error {
	log.Printf("seeding %d appointments", count)

	const batchSize = 100

	// Seeding writes straight past the intake gate, so the per-slot cap has
	// to be respected here by hand.
	slotCount := make(map[string]int)

	for offset := 0; offset < count; offset += batchSize {
		end := offset + batchSize
		if end > count {
			end = count
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}

		for i := offset; i < end; i++ {
			id := uuid.New()
			service := services[gofakeit.Number(0, len(services)-1)]

			var date, heure *string
			if gofakeit.Number(0, 4) > 0 { // most bookings ask for a slot
				d := time.Now().AddDate(0, 0, gofakeit.Number(1, 30)).Format("2006-01-02")
				h := heures[gofakeit.Number(0, len(heures)-1)]
				if slotCount[d+" "+h] < 3 {
					slotCount[d+" "+h]++
					date, heure = &d, &h
				}
			}

			var userID *uuid.UUID
			if len(profileIDs) > 0 && gofakeit.Number(0, 2) == 0 {
				userID = &profileIDs[gofakeit.Number(0, len(profileIDs)-1)]
			}

			_, err := tx.Exec(ctx, `
				INSERT INTO appointments
					(id, name, phone, email, service, date, heure, message, user_id, status, payment_status, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 'new', 'pending', now(), now())
			`, id, gofakeit.Name(), fakePhone(), gofakeit.Email(), service, date, heure, gofakeit.Sentence(8), userID)
			if err != nil {
				_ = tx.Rollback(ctx)
				return err
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}

		log.Printf("appointments seeded: %d/%d", end, count)
	}

	log.Println("appointments seeded")
	return nil
}

func fakePhone() string {
	return fmt.Sprintf("+2376%08d", gofakeit.Number(0, 99999999))
}
