package store

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"mocdesk.org/internal/domain"
	"mocdesk.org/internal/ids"
)

// SeedDefaults fills empty collections with a usable starting data set:
// an admin account, a couple of demo users and facilities, and tagged
// equipment. Collections that already hold data are left alone.
func SeedDefaults(m *Memory) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()

	if len(m.users) == 0 {
		m.users = []domain.User{
			{
				ID:           ids.New(),
				Name:         "Sofia Almeida",
				Email:        "admin@mocdesk.org",
				Role:         domain.RoleAdmin,
				Active:       true,
				PasswordHash: mustHash("admin123"),
				CreatedAt:    now,
				UpdatedAt:    now,
			},
			{
				ID:           ids.New(),
				Name:         "Marcos Vieira",
				Email:        "manager@mocdesk.org",
				Role:         domain.RoleFacilityManager,
				Active:       true,
				PasswordHash: mustHash("manager123"),
				CreatedAt:    now,
				UpdatedAt:    now,
			},
			{
				ID:           ids.New(),
				Name:         "Elena Duarte",
				Email:        "engineer@mocdesk.org",
				Role:         domain.RoleProcessEngineer,
				Active:       true,
				PasswordHash: mustHash("engineer123"),
				CreatedAt:    now,
				UpdatedAt:    now,
			},
		}
	}

	if len(m.facilities) == 0 {
		m.facilities = []domain.Facility{
			{
				ID:     ids.NewPrefixed("FAC"),
				Name:   "FPSO Atlantic Star",
				Type:   domain.FacilityFloatingProduction,
				Status: domain.FacilityOnline,
				Location: domain.Location{
					Lat:     -22.47,
					Lng:     -40.32,
					Address: "Campos Basin, RJ",
				},
				CreatedAt: now,
				UpdatedAt: now,
			},
			{
				ID:     ids.NewPrefixed("FAC"),
				Name:   "Cabiunas Gas Terminal",
				Type:   domain.FacilityOnshore,
				Status: domain.FacilityOnline,
				Location: domain.Location{
					Lat:     -22.39,
					Lng:     -41.78,
					Address: "Macae, RJ",
				},
				CreatedAt: now,
				UpdatedAt: now,
			},
		}
	}

	if len(m.assets) == 0 {
		facilityID := m.facilities[0].ID
		m.assets = []domain.Asset{
			{
				Tag:        "PSV-1024",
				ID:         ids.New(),
				Name:       "Separator relief valve",
				FacilityID: facilityID,
				Type:       "relief valve",
				Category:   "pressure safety",
				Material:   "stainless steel 316",
				LastMaint:  now.AddDate(0, -6, 0),
				Parameters: domain.Parameters{Temperature: 85, Pressure: 12.4, Flow: 0},
				CreatedAt:  now,
				UpdatedAt:  now,
			},
			{
				Tag:        "P-201A",
				ID:         ids.New(),
				Name:       "Crude transfer pump A",
				FacilityID: facilityID,
				Type:       "centrifugal pump",
				Category:   "rotating equipment",
				Material:   "carbon steel",
				LastMaint:  now.AddDate(0, -2, 0),
				Parameters: domain.Parameters{Temperature: 64, Pressure: 8.1, Flow: 320},
				CreatedAt:  now,
				UpdatedAt:  now,
			},
		}
	}

	if len(m.standards) == 0 {
		m.standards = []domain.RegulatoryStandard{
			{
				ID:          ids.New(),
				Code:        "NR-13",
				Title:       "Boilers, pressure vessels and piping",
				Status:      "in force",
				Description: "Brazilian regulatory standard for pressure equipment integrity.",
			},
			{
				ID:          ids.New(),
				Code:        "API RP 520",
				Title:       "Sizing, selection, and installation of pressure-relieving devices",
				Status:      "in force",
				Description: "Recommended practice for relief device engineering.",
			},
		}
	}

	if len(m.links) == 0 {
		m.links = []domain.UsefulLink{
			{
				ID:    ids.New(),
				Label: "Process safety portal",
				URL:   "https://example.org/process-safety",
				Icon:  "shield",
			},
		}
	}
}

func mustHash(password string) string {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		panic(err)
	}
	return string(hash)
}
