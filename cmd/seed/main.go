package main

import (
	"context"
	"fmt"
	"os"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/lingatchoss/marketplace/internal/adapters/database"
	"github.com/lingatchoss/marketplace/internal/adapters/search"
	"github.com/lingatchoss/marketplace/internal/application/services"
	"github.com/lingatchoss/marketplace/internal/domain/entities"
	"github.com/lingatchoss/marketplace/internal/domain/geo"
	"github.com/lingatchoss/marketplace/internal/domain/repositories"
	"github.com/lingatchoss/marketplace/internal/infrastructure/clients/postgres"
	"github.com/lingatchoss/marketplace/internal/infrastructure/clients/typesense"
	"github.com/lingatchoss/marketplace/internal/infrastructure/observability"
	"github.com/lingatchoss/marketplace/pkg/config"
)

type seedSector struct {
	id    string
	names map[string]string
}

type seedService struct {
	price float64
	pt    [2]string
	en    [2]string
	fr    [2]string
}

type seedInstitution struct {
	name     string
	sectorID string
	phone    string
	location entities.Coordinate
	category string
	services []seedService
}

var sectors = []seedSector{
	{id: "saude", names: map[string]string{"pt": "Saúde", "en": "Health", "fr": "Santé", "umb": "Ukolu"}},
	{id: "beleza", names: map[string]string{"pt": "Beleza", "en": "Beauty", "fr": "Beauté"}},
	{id: "educacao", names: map[string]string{"pt": "Educação", "en": "Education", "fr": "Éducation"}},
}

var institutions = []seedInstitution{
	{
		name:     "Clínica Sagrada Esperança",
		sectorID: "saude",
		phone:    "+244 923 000 001",
		location: entities.Coordinate{Latitude: -8.8147, Longitude: 13.2302},
		category: "Consultas",
		services: []seedService{
			{
				price: 15000,
				pt:    [2]string{"Consulta de clínica geral", "Consulta com médico de família"},
				en:    [2]string{"General practice visit", "Appointment with a family doctor"},
				fr:    [2]string{"Consultation de médecine générale", "Rendez-vous avec un médecin de famille"},
			},
			{
				price: 8000,
				pt:    [2]string{"Análises clínicas", "Hemograma completo"},
				en:    [2]string{"Blood tests", "Full blood count"},
				fr:    [2]string{"Analyses de sang", "Numération formule sanguine"},
			},
		},
	},
	{
		name:     "Salão Kianda",
		sectorID: "beleza",
		phone:    "+244 923 000 002",
		location: entities.Coordinate{Latitude: -8.9035, Longitude: 13.3740},
		category: "Cabelo",
		services: []seedService{
			{
				price: 3500,
				pt:    [2]string{"Corte de cabelo", "Corte simples com lavagem"},
				en:    [2]string{"Haircut", "Simple cut with wash"},
				fr:    [2]string{"Coupe de cheveux", "Coupe simple avec lavage"},
			},
			{
				price: 12000,
				pt:    [2]string{"Tranças", "Tranças de raiz"},
				en:    [2]string{"Braids", "Cornrow braids"},
				fr:    [2]string{"Tresses", "Tresses collées"},
			},
		},
	},
	{
		name:     "Colégio Ngola Kiluanje",
		sectorID: "educacao",
		phone:    "",
		location: entities.Coordinate{Latitude: -12.5763, Longitude: 13.4055},
		category: "Explicações",
		services: []seedService{
			{
				price: 5000,
				pt:    [2]string{"Explicação de matemática", "Aulas de reforço para o ensino médio"},
				en:    [2]string{"Maths tutoring", "Catch-up lessons for secondary school"},
				fr:    [2]string{"Soutien en mathématiques", "Cours de rattrapage pour le lycée"},
			},
		},
	},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	observability.InitLogger(cfg.OTEL.ServiceName+"-seed", cfg.Environment)

	ctx := context.Background()

	pgClient, err := postgres.NewClient(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pgClient.Close()

	var searchRepo repositories.ServiceSearchRepository
	if cfg.Typesense.URL != "" {
		if tsClient, err := typesense.NewClient(ctx, &cfg.Typesense); err != nil {
			log.Warn().Err(err).Msg("typesense unavailable, services will not be indexed")
		} else if err := tsClient.InitSchema(ctx); err != nil {
			log.Warn().Err(err).Msg("failed to init typesense schema")
		} else {
			searchRepo = search.NewTypesenseAdapter(tsClient)
		}
	}

	db := goqu.New("postgres", pgClient.DB())

	if os.Getenv("RESET_DB") == "true" {
		log.Info().Msg("RESET_DB=true detected, truncating tables before seeding")
		if _, err := pgClient.DB().ExecContext(ctx, `
			TRUNCATE TABLE
				interactions,
				service_translations,
				services,
				category_translations,
				categories,
				sector_translations,
				users
			RESTART IDENTITY CASCADE
		`); err != nil {
			log.Fatal().Err(err).Msg("failed to reset tables")
		}
	}

	if err := seedSectors(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("failed to seed sectors")
	}

	catalog := services.NewCatalogService(
		database.NewInstitutionAdapter(pgClient),
		database.NewCategoryAdapter(pgClient),
		database.NewServiceAdapter(pgClient),
		searchRepo,
		nil,
		cfg.Discovery.SupportedLanguages,
	)
	catalog.SetRequiredLanguages(cfg.Discovery.RequiredLanguages)

	for _, inst := range institutions {
		id, err := insertInstitution(ctx, db, inst)
		if err != nil {
			log.Error().Err(err).Str("institution", inst.name).Msg("failed to create institution")
			continue
		}

		category, err := catalog.CreateCategory(ctx, services.CategoryDraft{
			InstitutionID: id,
			SectorID:      inst.sectorID,
			Language:      "pt",
			Name:          inst.category,
		})
		if err != nil {
			log.Error().Err(err).Str("institution", inst.name).Msg("failed to create category")
			continue
		}

		for _, svc := range inst.services {
			draft := services.ServiceDraft{
				InstitutionID: id,
				Name:          svc.pt[0],
				Description:   svc.pt[1],
				CategoryID:    category.ID,
				Price:         svc.price,
				Translations: []entities.Translation{
					{Language: "pt", Name: svc.pt[0], Description: svc.pt[1]},
					{Language: "en", Name: svc.en[0], Description: svc.en[1]},
					{Language: "fr", Name: svc.fr[0], Description: svc.fr[1]},
				},
			}
			if _, err := catalog.CreateService(ctx, draft); err != nil {
				log.Error().Err(err).Str("service", svc.pt[0]).Msg("failed to create service")
			}
		}
		log.Info().Str("institution", inst.name).Int("services", len(inst.services)).Msg("seeded institution")
	}

	log.Info().Msg("seeding completed")
}

func seedSectors(ctx context.Context, db *goqu.Database) error {
	rows := []interface{}{}
	for _, sector := range sectors {
		for lang, name := range sector.names {
			rows = append(rows, goqu.Record{"sector_id": sector.id, "language": lang, "name": name})
		}
	}
	_, err := db.Insert("sector_translations").Rows(rows...).OnConflict(goqu.DoNothing()).Executor().ExecContext(ctx)
	return err
}

func insertInstitution(ctx context.Context, db *goqu.Database, inst seedInstitution) (string, error) {
	id := uuid.NewString()
	_, err := db.Insert("users").Rows(goqu.Record{
		"id":              id,
		"name":            inst.name,
		"role":            entities.InstitutionRole,
		"location":        geo.FormatRawLocation(inst.location),
		"sector_id":       inst.sectorID,
		"whatsapp_number": inst.phone,
	}).Executor().ExecContext(ctx)
	return id, err
}
