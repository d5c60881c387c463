package main

import (
	"log"
	"math/rand"
	"os"
	"time"

	"crm-analytics-be/internal/entity"
	"crm-analytics-be/pkg/database"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

var (
	segments   = []string{"enterprise", "mid-market", "smb"}
	categories = []string{"Consulting", "Implementation", "Support", "Training", "Licensing", "Integration", "Hosting", "Analytics", "Security", "Migration", "Custom Development", "Managed Services"}
	stages     = []string{"prospecting", "qualification", "proposal", "negotiation", "closed_won", "closed_lost"}
	firstNames = []string{"Acme", "Globex", "Initech", "Umbrella", "Stark", "Wayne", "Hooli", "Vandelay", "Wonka", "Cyberdyne"}
	lastNames  = []string{"Corp", "Industries", "Systems", "Holdings", "Partners", "Group", "Labs", "Logistics", "Ventures", "Solutions"}
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	color.Cyan("🌱 Seeding CRM demo data\n")

	rng := rand.New(rand.NewSource(42)) // deterministic demo data

	color.Yellow("\n1. Customers")
	customers := make([]entity.Customer, 0, 60)
	now := time.Now()
	for i := 0; i < 60; i++ {
		lastActivity := now.AddDate(0, 0, -rng.Intn(120))
		customers = append(customers, entity.Customer{
			Id:             uuid.New(),
			Name:           firstNames[rng.Intn(len(firstNames))] + " " + lastNames[rng.Intn(len(lastNames))],
			Segment:        segments[rng.Intn(len(segments))],
			ChurnScore:     rng.Float64(),
			LastActivityAt: &lastActivity,
			CreatedAt:      now.AddDate(0, -rng.Intn(24), 0),
		})
	}
	if err := db.Create(&customers).Error; err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Created %d customers", len(customers))

	color.Yellow("\n2. Service records")
	records := make([]entity.ServiceRecord, 0, 600)
	for i := 0; i < 600; i++ {
		c := customers[rng.Intn(len(customers))]
		records = append(records, entity.ServiceRecord{
			Id:         uuid.New(),
			CustomerId: c.Id,
			Category:   categories[rng.Intn(len(categories))],
			Revenue:    float64(rng.Intn(50000)) + rng.Float64(),
			CreatedAt:  now.AddDate(0, 0, -rng.Intn(365)),
		})
	}
	if err := db.CreateInBatches(&records, 100).Error; err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Created %d service records", len(records))

	color.Yellow("\n3. Deals")
	deals := make([]entity.Deal, 0, 120)
	for i := 0; i < 120; i++ {
		c := customers[rng.Intn(len(customers))]
		deals = append(deals, entity.Deal{
			Id:         uuid.New(),
			CustomerId: c.Id,
			Stage:      stages[rng.Intn(len(stages))],
			Value:      float64(rng.Intn(200000)) + rng.Float64(),
			CreatedAt:  now.AddDate(0, 0, -rng.Intn(180)),
		})
	}
	if err := db.CreateInBatches(&deals, 100).Error; err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Created %d deals", len(deals))

	color.Cyan("\n✅ Seeding completed")
}
