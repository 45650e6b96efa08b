package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"shortlister/internal/models"
)

type requisitesFile struct {
	Requisites []models.Requisite `yaml:"requisites"`
}

// LoadRequisites reads the weighted requirement set from a YAML file.
// Weight validation happens in the pipeline, this only parses.
func LoadRequisites(path string) ([]models.Requisite, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read requisites file: %w", err)
	}

	var parsed requisitesFile
	if err := yaml.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parse requisites file %s: %w", path, err)
	}
	if len(parsed.Requisites) == 0 {
		return nil, fmt.Errorf("requisites file %s contains no requisites", path)
	}

	return parsed.Requisites, nil
}

// DefaultRequisites is the built-in requirement set used when no
// requisites file is configured.
func DefaultRequisites() []models.Requisite {
	return []models.Requisite{
		{
			Name:        "Degree & Experience",
			Description: "Master's degree in Computer Science, or Bachelor's degree in Computer Science with at least 2 years of relevant work experience.",
			Query:       "education, degree, master, bachelor, computer science, work experience duration",
			Weight:      25,
		},
		{
			Name:        "Python & OCR",
			Description: "At least 5 years of hands-on experience with Python, ideally including OCR or document processing work.",
			Query:       "python experience years, OCR, document processing, text extraction",
			Weight:      35,
		},
		{
			Name:        "OOP Language",
			Description: "Working proficiency in an object-oriented language such as C++ or Java.",
			Query:       "C++, Java, object-oriented programming",
			Weight:      20,
		},
		{
			Name:        "SQL & Cloud",
			Description: "Experience with SQL databases and at least one major cloud platform (Azure, AWS or GCP).",
			Query:       "SQL, database, cloud, Azure, AWS, GCP",
			Weight:      20,
		},
	}
}
