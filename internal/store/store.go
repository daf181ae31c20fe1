// Package store loads the reference data the reconciler depends on: the
// administrator and contract mapping tables and the hospital profiles. Each
// file can be overridden on disk; otherwise the built-in copy is used.
package store

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"fjacquet/invoice-reconciler/internal/logging"
	"fjacquet/invoice-reconciler/internal/models"

	"gopkg.in/yaml.v3"
)

//go:embed defaults/*.yaml
var defaults embed.FS

const (
	administratorsDefault = "defaults/administrators.yaml"
	contractsDefault      = "defaults/contracts.yaml"
	hospitalsDefault      = "defaults/hospitals.yaml"
)

// ReferenceStore resolves and parses reference-data files.
type ReferenceStore struct {
	AdministratorsFile string
	ContractsFile      string
	HospitalsFile      string
	logger             logging.Logger
}

// NewReferenceStore creates a store. Empty file names select the built-in data.
func NewReferenceStore(administratorsFile, contractsFile, hospitalsFile string, logger logging.Logger) *ReferenceStore {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	return &ReferenceStore{
		AdministratorsFile: administratorsFile,
		ContractsFile:      contractsFile,
		HospitalsFile:      hospitalsFile,
		logger:             logger.WithField(logging.FieldComponent, "store"),
	}
}

// FindConfigFile looks for filename as given, then under ./config, then under
// $HOME/.config/invoice-reconciler.
func FindConfigFile(filename string) (string, error) {
	if filepath.IsAbs(filename) {
		if _, err := os.Stat(filename); err == nil {
			return filename, nil
		}
		return "", os.ErrNotExist
	}

	locations := []string{
		filename,
		filepath.Join("config", filename),
	}
	if home, err := os.UserHomeDir(); err == nil {
		locations = append(locations, filepath.Join(home, ".config", "invoice-reconciler", filename))
	}
	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location, nil
		}
	}
	return "", os.ErrNotExist
}

// read returns the override file contents, or the embedded default when no
// override is configured. A configured override that cannot be found is an error.
func (s *ReferenceStore) read(override, fallback string) ([]byte, string, error) {
	if override == "" {
		data, err := defaults.ReadFile(fallback)
		return data, "builtin:" + filepath.Base(fallback), err
	}
	path, err := FindConfigFile(override)
	if err != nil {
		return nil, override, fmt.Errorf("reference file not found: %s", override)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("error reading %s: %w", path, err)
	}
	return data, path, nil
}

func (s *ReferenceStore) loadTable(name, override, fallback string) (models.MappingTable, error) {
	data, source, err := s.read(override, fallback)
	if err != nil {
		return models.MappingTable{}, err
	}
	var entries map[string]string
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return models.MappingTable{}, fmt.Errorf("error parsing %s: %w", source, err)
	}
	s.logger.Debug("Loaded mapping table",
		logging.F("table", name),
		logging.F(logging.FieldSource, source),
		logging.F(logging.FieldCount, len(entries)))
	return models.NewMappingTable(name, entries), nil
}

// LoadAdministrators returns the administrator mapping table.
func (s *ReferenceStore) LoadAdministrators() (models.MappingTable, error) {
	return s.loadTable("administrators", s.AdministratorsFile, administratorsDefault)
}

// LoadContracts returns the contract mapping table.
func (s *ReferenceStore) LoadContracts() (models.MappingTable, error) {
	return s.loadTable("contracts", s.ContractsFile, contractsDefault)
}

// LoadHospitals returns every profile keyed by upper-cased hospital name.
func (s *ReferenceStore) LoadHospitals() (map[string]models.HospitalProfile, error) {
	data, source, err := s.read(s.HospitalsFile, hospitalsDefault)
	if err != nil {
		return nil, err
	}
	var raw map[string]models.HospitalProfile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("error parsing %s: %w", source, err)
	}
	profiles := make(map[string]models.HospitalProfile, len(raw))
	for name, profile := range raw {
		profile.Name = strings.ToUpper(name)
		profiles[profile.Name] = profile
	}
	return profiles, nil
}

// LoadHospital returns the validated profile of the named hospital.
func (s *ReferenceStore) LoadHospital(name string) (models.HospitalProfile, error) {
	profiles, err := s.LoadHospitals()
	if err != nil {
		return models.HospitalProfile{}, err
	}
	profile, ok := profiles[strings.ToUpper(strings.TrimSpace(name))]
	if !ok {
		known := make([]string, 0, len(profiles))
		for k := range profiles {
			known = append(known, k)
		}
		sort.Strings(known)
		return models.HospitalProfile{}, fmt.Errorf("unknown hospital %q (known: %s)", name, strings.Join(known, ", "))
	}
	if err := profile.Validate(); err != nil {
		return models.HospitalProfile{}, err
	}
	return profile, nil
}
