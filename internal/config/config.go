package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"intakeflow/internal/domain"
)

// Config models intakeflow.yml.
type Config struct {
	Organisatie struct {
		Naam string `yaml:"naam"`
	} `yaml:"organisatie"`
	Directory struct {
		Informatiemanagers    []Person `yaml:"informatiemanagers"`
		BusinessAnalisten     []Person `yaml:"business_analisten"`
		FunctioneelBeheerders []Person `yaml:"functioneel_beheerders"`
		StakeholderPersonen   []Person `yaml:"stakeholder_personen"`
	} `yaml:"directory"`
	Workqueues map[domain.Role]Workqueue `yaml:"workqueues"`
	KlantVelden struct {
		Basisinfo []string `yaml:"basisinfo"`
		Vragen    []string `yaml:"vragen"`
	} `yaml:"klant_velden"`
	Notifications struct {
		RetentionDays int `yaml:"retention_days"`
	} `yaml:"notifications"`
}

// Person is a directory entry used for picklists and routing targets.
type Person struct {
	ID    string `yaml:"id"`
	Naam  string `yaml:"naam"`
	Email string `yaml:"email"`
}

// Workqueue configures the role-scoped dashboard view.
type Workqueue struct {
	Label    string          `yaml:"label"`
	Statuses []domain.Status `yaml:"statuses"`
	// CanSeeAll false restricts the view to forms owned by or assigned to
	// the requesting user.
	CanSeeAll bool `yaml:"can_see_all"`
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if len(c.Workqueues) == 0 {
		return fmt.Errorf("config.workqueues is required")
	}
	for role, wq := range c.Workqueues {
		if role == "" {
			return fmt.Errorf("config.workqueues contains empty role")
		}
		if len(wq.Statuses) == 0 {
			return fmt.Errorf("workqueue for role %s has no statuses", role)
		}
		for _, s := range wq.Statuses {
			if s == "" {
				return fmt.Errorf("workqueue for role %s has empty status", role)
			}
		}
	}
	if c.Notifications.RetentionDays < 0 {
		return fmt.Errorf("config.notifications.retention_days must be >= 0")
	}
	for _, p := range append(append([]Person{}, c.Directory.Informatiemanagers...), c.Directory.BusinessAnalisten...) {
		if p.ID == "" {
			return fmt.Errorf("directory entry %q has empty id", p.Naam)
		}
	}
	return nil
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "intakeflow.yml")
}

// Load reads and validates config from workspace.
func Load(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config %s not found; create one with ifl config init", path)
		}
		return nil, err
	}
	return FromYAML(data)
}

// LoadOptional returns the default config if the file does not exist.
func LoadOptional(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// FromYAML parses and validates config from raw YAML bytes.
func FromYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

// Default returns the built-in configuration.
func Default() *Config {
	var cfg Config
	_ = yaml.Unmarshal([]byte(defaultTemplate), &cfg)
	return &cfg
}

// GenerateDefault returns the default config YAML for ifl config init.
func GenerateDefault() string {
	return defaultTemplate
}

const defaultTemplate = `organisatie:
  naam: Gemeente Westland

directory:
  informatiemanagers:
    - { id: bvdongen, naam: Bob van Dongen, email: bvdongen@gemeentewestland.nl }
    - { id: fdekkers, naam: Frans Dekkers, email: famdekkers@gemeentewestland.nl }
    - { id: ndjong, naam: Nelleke de Jong, email: ndjong@gemeentewestland.nl }
    - { id: psteevensz, naam: Pasqual Steevensz, email: pwcsteevensz@gemeentewestland.nl }
  business_analisten:
    - { id: dduck, naam: Donald Duck, email: dduck@gemeentewestland.nl }
    - { id: ghenkie, naam: Gekke Henkie, email: ghenkie@gemeentewestland.nl }
    - { id: bhendrik, naam: Brave Hendrik, email: bhendrik@gemeentewestland.nl }
  functioneel_beheerders:
    - { id: fbeheer1, naam: Functioneel Beheerder 1, email: fb1@gemeentewestland.nl }
    - { id: fbeheer2, naam: Functioneel Beheerder 2, email: fb2@gemeentewestland.nl }
  stakeholder_personen:
    - { id: bvdongen, naam: Bob van Dongen, email: bvdongen@gemeentewestland.nl }
    - { id: psteevensz, naam: Pasqual Steevensz, email: pwcsteevensz@gemeentewestland.nl }

workqueues:
  informatiemanager:
    label: Mijn werkvoorraad
    statuses: [im_aanvullen, im_routering]
    can_see_all: true
  business_analist:
    label: BA Werkvoorraad
    statuses: [bij_ba]
    can_see_all: false
  functioneel_beheerder:
    label: FB Backlog
    statuses: [fb_backlog]
    can_see_all: false
  pmo:
    label: PMO Overzicht
    statuses: [gearchiveerd]
    can_see_all: true
  klant:
    label: Mijn intakes
    statuses: [klant_invoer, klant_akkoord]
    can_see_all: false

klant_velden:
  basisinfo: [onderwerp, korteOmschrijving, doel, aanvrager, opdrachtgever, domeinTeam, datumIntake]
  vragen: [inleiding, huidigeSituatie, gewensteSituatie, scope, deadlineNoodzakelijk, deadline, contactpersoon, teamsOfDoelgroepen, opmerkingen]

notifications:
  retention_days: 30
`
