// Package staticdata holds the bundled vehicle catalog used as the final
// fallback when every remote catalog source is unreachable.
package staticdata

import "agente_gateway/internal/entities"

// PopularBrands are the best-selling brands on the Argentine market.
var PopularBrands = []entities.CatalogEntry{
	{ID: "VOLKSWAGEN", Name: "Volkswagen"},
	{ID: "FIAT", Name: "Fiat"},
	{ID: "FORD", Name: "Ford"},
	{ID: "TOYOTA", Name: "Toyota"},
	{ID: "RENAULT", Name: "Renault"},
	{ID: "CHEVROLET", Name: "Chevrolet"},
	{ID: "PEUGEOT", Name: "Peugeot"},
	{ID: "CITROEN", Name: "Citroën"},
	{ID: "NISSAN", Name: "Nissan"},
	{ID: "JEEP", Name: "Jeep"},
	{ID: "HONDA", Name: "Honda"},
	{ID: "RAM", Name: "RAM"},
	{ID: "AUDI", Name: "Audi"},
	{ID: "BMW", Name: "BMW"},
	{ID: "MERCEDES_BENZ", Name: "Mercedes-Benz"},
}

// PopularModels maps a brand ID to its common models.
var PopularModels = map[string][]entities.CatalogEntry{
	"VOLKSWAGEN": {
		{ID: "AMAROK", Name: "Amarok"},
		{ID: "GOL_TREND", Name: "Gol Trend"},
		{ID: "VENTO", Name: "Vento"},
		{ID: "POLO", Name: "Polo"},
		{ID: "VIRTUS", Name: "Virtus"},
		{ID: "T_CROSS", Name: "T-Cross"},
		{ID: "NIVUS", Name: "Nivus"},
		{ID: "TAOS", Name: "Taos"},
		{ID: "SURAN", Name: "Suran"},
		{ID: "FOX", Name: "Fox"},
	},
	"FIAT": {
		{ID: "CRONOS", Name: "Cronos"},
		{ID: "TORO", Name: "Toro"},
		{ID: "STRADA", Name: "Strada"},
		{ID: "ARGO", Name: "Argo"},
		{ID: "MOBI", Name: "Mobi"},
		{ID: "PULSE", Name: "Pulse"},
		{ID: "FIORINO", Name: "Fiorino"},
		{ID: "PALIO", Name: "Palio"},
		{ID: "SIENA", Name: "Siena"},
	},
	"FORD": {
		{ID: "RANGER", Name: "Ranger"},
		{ID: "ECOSPORT", Name: "EcoSport"},
		{ID: "MAVERICK", Name: "Maverick"},
		{ID: "TERRITORY", Name: "Territory"},
		{ID: "BRONCO", Name: "Bronco"},
		{ID: "KA", Name: "Ka"},
		{ID: "FIESTA", Name: "Fiesta"},
		{ID: "FOCUS", Name: "Focus"},
		{ID: "F_150", Name: "F-150"},
	},
	"TOYOTA": {
		{ID: "HILUX", Name: "Hilux"},
		{ID: "COROLLA", Name: "Corolla"},
		{ID: "ETIOS", Name: "Etios"},
		{ID: "YARIS", Name: "Yaris"},
		{ID: "COROLLA_CROSS", Name: "Corolla Cross"},
		{ID: "SW4", Name: "SW4"},
		{ID: "RAV4", Name: "RAV4"},
	},
	"RENAULT": {
		{ID: "SANDERO", Name: "Sandero"},
		{ID: "LOGAN", Name: "Logan"},
		{ID: "KANGOO", Name: "Kangoo"},
		{ID: "DUSTER", Name: "Duster"},
		{ID: "ALASKAN", Name: "Alaskan"},
		{ID: "STEPWAY", Name: "Stepway"},
		{ID: "OROCH", Name: "Oroch"},
		{ID: "KWID", Name: "Kwid"},
		{ID: "CAPTUR", Name: "Captur"},
	},
	"CHEVROLET": {
		{ID: "CRUZE", Name: "Cruze"},
		{ID: "ONIX", Name: "Onix"},
		{ID: "TRACKER", Name: "Tracker"},
		{ID: "S10", Name: "S10"},
		{ID: "SPIN", Name: "Spin"},
		{ID: "PRISMA", Name: "Prisma"},
		{ID: "TRAILBLAZER", Name: "Trailblazer"},
		{ID: "EQUINOX", Name: "Equinox"},
	},
	"PEUGEOT": {
		{ID: "208", Name: "208"},
		{ID: "2008", Name: "2008"},
		{ID: "PARTNER", Name: "Partner"},
		{ID: "3008", Name: "3008"},
		{ID: "308", Name: "308"},
		{ID: "408", Name: "408"},
	},
}

// CommonVersions are trim levels shared across most brands.
var CommonVersions = []string{
	"Base", "Full", "Pack", "Comfortline", "Trendline", "Highline",
	"Titanium", "XLS", "XLT", "Limited", "SR", "SRV", "SRX",
	"Freedom", "Volcano", "Intens", "Iconic",
}
