package directory

import (
	"fmt"
	"os"

	"crisisnet_backend/internal/geo"

	"gopkg.in/yaml.v3"
)

// catalogFile is the on-disk agency catalog shape.
type catalogFile struct {
	Agencies []Agency `yaml:"agencies"`
}

// LoadCatalog reads a YAML agency catalog and seeds the directory with it.
// Returns the number of agencies loaded.
func (d *Directory) LoadCatalog(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read agency catalog: %w", err)
	}

	var catalog catalogFile
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return 0, fmt.Errorf("parse agency catalog: %w", err)
	}

	for _, agency := range catalog.Agencies {
		if agency.ID == "" || agency.Capacity <= 0 {
			return 0, fmt.Errorf("agency catalog entry %q: id and positive capacity required", agency.Name)
		}
		d.Upsert(agency)
	}
	return len(catalog.Agencies), nil
}

// SeedDefaults loads the built-in demo catalog, used when no catalog path is
// configured. Locations cluster around central Delhi.
func (d *Directory) SeedDefaults() {
	for _, agency := range defaultCatalog() {
		d.Upsert(agency)
	}
}

func defaultCatalog() []Agency {
	return []Agency{
		{ID: "med1", Name: "City Medical Center", Type: "medical", Location: geo.Point{Lat: 28.6139, Lon: 77.2090}, Capacity: 10, Specialties: []string{"trauma", "cardiac"}},
		{ID: "fire1", Name: "Central Fire Station", Type: "fire", Location: geo.Point{Lat: 28.6140, Lon: 77.2095}, Capacity: 15, Specialties: []string{"fire", "rescue"}},
		{ID: "rescue1", Name: "Rescue Team Alpha", Type: "rescue", Location: geo.Point{Lat: 28.6135, Lon: 77.2085}, Capacity: 8, Specialties: []string{"height_rescue", "water_rescue"}},
		{ID: "police1", Name: "Police HQ", Type: "police", Location: geo.Point{Lat: 28.6145, Lon: 77.2099}, Capacity: 20, Specialties: []string{"crowd_control", "investigation"}},
		{ID: "ndr1", Name: "National Disaster Response Force", Type: "disaster_management", Location: geo.Point{Lat: 28.6200, Lon: 77.2150}, Capacity: 50, Specialties: []string{"flood", "earthquake", "collapse"}},
		{ID: "ngo1", Name: "Red Cross Quick Response", Type: "ngo", Location: geo.Point{Lat: 28.6110, Lon: 77.2050}, Capacity: 5, Specialties: []string{"first_aid", "supplies"}},
		{ID: "med2", Name: "Westside Hospital", Type: "medical", Location: geo.Point{Lat: 28.6150, Lon: 77.2105}, Capacity: 12, Specialties: []string{"pediatrics", "burn"}},
	}
}
