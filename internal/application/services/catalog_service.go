package services

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/AtRiskMedia/cmi-charts/internal/domain/entities/forecast"
	"github.com/AtRiskMedia/cmi-charts/internal/infrastructure/media"
	"github.com/AtRiskMedia/cmi-charts/internal/infrastructure/observability/logging"
)

var dayPattern = regexp.MustCompile(`^\d{8}$`)

// CatalogConfig configures the read side.
type CatalogConfig struct {
	ModelsPath      string
	ApplicationRoot string
	Location        *time.Location
	Clock           clockwork.Clock
}

// ModelSummary is one model card of the dashboard.
type ModelSummary struct {
	Title         string   `json:"title"`
	Thumbs        string   `json:"thumbs"`
	DataEmissione string   `json:"dataEmissione"`
	Etichetta     string   `json:"etichetta"`
	Percorso      string   `json:"percorso"`
	Tags          []string `json:"tags"`
}

// ModelsPage lists the models of every run of one day.
type ModelsPage struct {
	Title string           `json:"title"`
	Date  string           `json:"date"`
	Runs  [][]ModelSummary `json:"runs"`
}

// Variable is one chart variant of a model.
type Variable struct {
	Title         string   `json:"title"`
	Thumbs        string   `json:"thumbs"`
	Tags          []string `json:"tags"`
	DataEmissione string   `json:"dataEmissione"`
	Etichetta     string   `json:"etichetta"`
	Variable      string   `json:"variable"`
	Percorso      string   `json:"percorso"`
}

// VariablesPage lists the variables of one model of one run.
type VariablesPage struct {
	Title     string     `json:"title"`
	Date      string     `json:"date"`
	Run       string     `json:"run"`
	Variables []Variable `json:"variables"`
}

// VariableImagesPage lists the WebP frames of one variable.
type VariableImagesPage struct {
	Title    string   `json:"title"`
	Date     string   `json:"date"`
	Run      string   `json:"run"`
	Variable string   `json:"variable"`
	Files    []string `json:"files"`
}

// CatalogService answers dashboard queries from the generated JSON records.
type CatalogService struct {
	root    string
	appRoot string
	loc     *time.Location
	clock   clockwork.Clock
	logger  *logging.ChanneledLogger
}

// NewCatalogService creates a catalog service.
func NewCatalogService(cfg CatalogConfig, logger *logging.ChanneledLogger) *CatalogService {
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.ApplicationRoot == "" {
		cfg.ApplicationRoot = "/"
	}
	return &CatalogService{
		root:    cfg.ModelsPath,
		appRoot: cfg.ApplicationRoot,
		loc:     cfg.Location,
		clock:   cfg.Clock,
		logger:  logger,
	}
}

// Today returns the current day key in the presentation time zone.
func (s *CatalogService) Today() string {
	return forecast.DayKey(s.clock.Now(), s.loc)
}

// ListModels returns the model cards of every converted run of day.
// Private records are only listed when authenticated.
func (s *CatalogService) ListModels(day string, authenticated bool) (*ModelsPage, error) {
	if !dayPattern.MatchString(day) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDay, day)
	}
	date, err := forecast.FormatDay(day)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDay, err)
	}

	runs, err := runDirectories(s.root)
	if err != nil {
		return nil, err
	}

	page := &ModelsPage{Title: "Cruscotto", Date: date, Runs: [][]ModelSummary{}}
	for _, run := range runs {
		if !strings.HasPrefix(run, day) {
			continue
		}
		webpDir := filepath.Join(s.root, run, media.WebPDir)
		if info, err := os.Stat(webpDir); err != nil || !info.IsDir() {
			continue
		}

		models, err := s.runModels(webpDir, authenticated)
		if err != nil {
			return nil, err
		}
		page.Runs = append(page.Runs, models)
	}
	return page, nil
}

func (s *CatalogService) runModels(webpDir string, authenticated bool) ([]ModelSummary, error) {
	names, err := listFiles(webpDir, "", ".json")
	if err != nil {
		return nil, err
	}

	models := []ModelSummary{}
	for _, name := range names {
		d, ok := forecast.DialectFor(name)
		if !ok {
			continue
		}
		rec, err := readRecord(filepath.Join(webpDir, name))
		if err != nil {
			s.logger.Catalog().Warn("Skipping unreadable record", "file", filepath.Join(webpDir, name), "error", err.Error())
			continue
		}
		if !authenticated && !rec.Pubblico {
			continue
		}

		thumb := ""
		if len(rec.Immagini) > 0 {
			thumb = firstThumb(webpDir, d.ThumbPrefix(rec.Immagini[0]))
		}
		models = append(models, ModelSummary{
			Title:         d.Title(rec.Etichetta),
			Thumbs:        thumb,
			DataEmissione: rec.DataEmissione,
			Etichetta:     rec.Etichetta,
			Percorso:      rec.Percorso,
			Tags:          rec.Tags(),
		})
	}
	return models, nil
}

// ListVariables returns the variables of model name in run. A private model
// yields an empty list when not authenticated.
func (s *CatalogService) ListVariables(run, name string, authenticated bool) (*VariablesPage, error) {
	d, rec, webpDir, err := s.loadRecord(run, name)
	if err != nil {
		return nil, err
	}
	date, err := forecast.FormatDay(rec.Percorso)
	if err != nil {
		return nil, err
	}

	page := &VariablesPage{
		Title:     "Panoramica variabili del modello " + forecast.TitleWords(strings.Split(name, "_")),
		Date:      date,
		Run:       forecast.FormatRun(rec.Percorso),
		Variables: []Variable{},
	}
	if !authenticated && !rec.Pubblico {
		return page, nil
	}

	for _, img := range rec.Immagini {
		page.Variables = append(page.Variables, Variable{
			Title:         d.Label(img),
			Thumbs:        firstThumb(webpDir, d.ThumbPrefix(img)),
			Tags:          rec.Tags(),
			DataEmissione: rec.DataEmissione,
			Etichetta:     rec.Etichetta,
			Variable:      d.Variable(img),
			Percorso:      rec.Percorso,
		})
	}
	return page, nil
}

// ListVariableImages returns the frames of variable. The image entry is
// found by comparing variable with every attribute; the last match wins.
func (s *CatalogService) ListVariableImages(run, name, variable string, authenticated bool) (*VariableImagesPage, error) {
	if err := checkSegment("variable", variable); err != nil {
		return nil, err
	}
	d, rec, webpDir, err := s.loadRecord(run, name)
	if err != nil {
		return nil, err
	}

	if !authenticated && !rec.Pubblico {
		return nil, fmt.Errorf("%w: %s", ErrRestricted, name)
	}
	label, found := "", false
	for _, img := range rec.Immagini {
		if img.HasValue(variable) {
			label, found = d.Label(img), true
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: variable %q in %s", ErrNotFound, variable, name)
	}

	date, err := forecast.FormatDay(rec.Percorso)
	if err != nil {
		return nil, err
	}
	files, err := listFiles(webpDir, d.ImagePrefix(variable), ".webp")
	if err != nil {
		return nil, err
	}

	parts := strings.Split(name, "_")
	return &VariableImagesPage{
		Title:    fmt.Sprintf("Immagini per %s del modello %s", label, forecast.TitleWords(parts[1:])),
		Date:     date,
		Run:      forecast.FormatRun(rec.Percorso),
		Variable: label,
		Files:    files,
	}, nil
}

// AvailableDates lists the distinct day keys with data plus today.
func (s *CatalogService) AvailableDates() ([]string, error) {
	runs, err := runDirectories(s.root)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(runs)+1)
	dates := make([]string, 0, len(runs)+1)
	add := func(day string) {
		if day != "" && !seen[day] {
			seen[day] = true
			dates = append(dates, day)
		}
	}
	for _, run := range runs {
		if len(run) > 2 {
			add(run[:len(run)-2])
		}
	}
	add(s.Today())
	return dates, nil
}

// ArchiveHref returns the dashboard link of formattedDate under the
// application root.
func (s *CatalogService) ArchiveHref(formattedDate string) (string, error) {
	if formattedDate == "" {
		return "", fmt.Errorf("%w: formatted_date is required", ErrInvalidInput)
	}
	if s.appRoot == "/" {
		return formattedDate, nil
	}
	return s.appRoot + "/" + formattedDate, nil
}

func (s *CatalogService) loadRecord(run, name string) (forecast.Dialect, *forecast.Record, string, error) {
	if err := checkSegment("run", run); err != nil {
		return nil, nil, "", err
	}
	if err := checkSegment("model", name); err != nil {
		return nil, nil, "", err
	}
	d, ok := forecast.DialectFor(name)
	if !ok {
		return nil, nil, "", fmt.Errorf("%w: model %q", ErrNotFound, name)
	}

	webpDir := filepath.Join(s.root, run, media.WebPDir)
	rec, err := readRecord(filepath.Join(webpDir, name+".json"))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil, "", fmt.Errorf("%w: %s/%s", ErrNotFound, run, name)
	}
	if err != nil {
		s.logger.Catalog().Error("Failed to read record", "run", run, "model", name, "error", err.Error())
		return nil, nil, "", err
	}
	return d, rec, webpDir, nil
}

func readRecord(path string) (*forecast.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	rec, err := forecast.DecodeRecord(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", filepath.Base(path), err)
	}
	return rec, nil
}

// firstThumb returns the first thumbnail starting with prefix, or "". An
// empty prefix matches nothing.
func firstThumb(webpDir, prefix string) string {
	if prefix == "" {
		return ""
	}
	names, err := listFiles(filepath.Join(webpDir, media.ThumbsDir), prefix, ".webp")
	if err != nil || len(names) == 0 {
		return ""
	}
	return names[0]
}

// listFiles returns the sorted names of regular files in dir matching
// prefix and suffix. A missing dir yields no names.
func listFiles(dir, prefix, suffix string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", dir, err)
	}
	names := []string{}
	for _, e := range entries {
		name := e.Name()
		if e.Type().IsRegular() && !strings.HasPrefix(name, ".") && strings.HasPrefix(name, prefix) && strings.HasSuffix(name, suffix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}
