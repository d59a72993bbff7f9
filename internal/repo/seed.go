package repo

import "github.com/crucial707/gearbox/internal/models"

// seedEquipment is the demo inventory written on first use of an empty store.
func seedEquipment() []models.Equipment {
	return []models.Equipment{
		{
			ID:           "1",
			Name:         "SM58 Vocal Microphone",
			Brand:        "Shure",
			Category:     "Microphone",
			Status:       models.StatusAvailable,
			PurchaseDate: "2021-03-15",
			Logs:         []models.MaintenanceLog{},
		},
		{
			ID:           "2",
			Name:         "MG10XU Mixer",
			Brand:        "Yamaha",
			Category:     "Mixer",
			Status:       models.StatusInUse,
			PurchaseDate: "2020-09-01",
			Logs:         []models.MaintenanceLog{},
		},
		{
			ID:           "3",
			Name:         "EON615 Powered Speaker",
			Brand:        "JBL",
			Category:     "Speaker",
			Status:       models.StatusAvailable,
			PurchaseDate: "2019-11-20",
			Logs:         []models.MaintenanceLog{},
		},
		{
			ID:           "4",
			Name:         "EW 100 G4 Wireless Kit",
			Brand:        "Sennheiser",
			Category:     "Wireless",
			Status:       models.StatusAvailable,
			PurchaseDate: "2022-06-10",
			Logs:         []models.MaintenanceLog{},
		},
	}
}
