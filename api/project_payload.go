package api

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/lib/pq"
	"github.com/saqr-syn/portfolio-backend/models"
	"gorm.io/datatypes"
)

const maxScreenshots = 6

var urlLike = regexp.MustCompile(`^(https?://|/)`)

// flexList accepts a JSON array of strings or one comma separated string.
type flexList []string

func (l *flexList) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*l = nil
		return nil
	}
	if len(b) > 0 && b[0] == '[' {
		var items []string
		if err := json.Unmarshal(b, &items); err != nil {
			return err
		}
		*l = cleanList(items)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*l = cleanList(strings.Split(s, ","))
	return nil
}

func cleanList(items []string) flexList {
	out := make(flexList, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// flexBool accepts booleans, numbers and the strings form fields produce.
type flexBool bool

func (f *flexBool) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case bool:
		*f = flexBool(t)
	case float64:
		*f = t != 0
	case string:
		s := strings.ToLower(strings.TrimSpace(t))
		*f = s == "true" || s == "on" || s == "yes" || s == "1"
	default:
		*f = false
	}
	return nil
}

// flexFloat accepts a number or a numeric string. Anything unparsable becomes 0.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case float64:
		*f = flexFloat(t)
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			n = 0
		}
		*f = flexFloat(n)
	default:
		*f = 0
	}
	return nil
}

type linksPayload struct {
	Website        string `json:"website" validate:"omitempty,url"`
	MobileDownload string `json:"mobileDownload" validate:"omitempty,url"`
	Github         string `json:"github" validate:"omitempty,url"`
	CodeRepo       string `json:"codeRepo" validate:"omitempty,url"`
}

type stagePayload struct {
	Title string `json:"title" validate:"required,max=200"`
	Desc  string `json:"desc" validate:"max=2000"`
	Done  bool   `json:"done"`
	Date  string `json:"date"`
	ETA   string `json:"eta"`
}

// projectPayload is the admin form body for create and update.
type projectPayload struct {
	Slug           string         `json:"slug" validate:"omitempty,max=120,slug"`
	Name           string         `json:"name" validate:"required,max=200"`
	Short          string         `json:"short" validate:"max=500"`
	Description    string         `json:"description" validate:"max=20000"`
	Year           string         `json:"year" validate:"max=10"`
	Developer      string         `json:"developer" validate:"max=200"`
	DeveloperRole  string         `json:"developerRole" validate:"max=200"`
	TeamSize       int            `json:"teamSize" validate:"min=0,max=1000"`
	Vision         string         `json:"vision" validate:"max=5000"`
	Tools          flexList       `json:"tools" validate:"max=50,dive,max=100"`
	Links          linksPayload   `json:"links"`
	Video          string         `json:"video" validate:"omitempty,max=2048"`
	Paid           flexBool       `json:"paid"`
	Price          flexFloat      `json:"price" validate:"min=0"`
	Status         string         `json:"status" validate:"omitempty,oneof=active inactive archived"`
	Type           string         `json:"type" validate:"omitempty,oneof=web mobile"`
	Tags           flexList       `json:"tags" validate:"max=30,dive,max=60"`
	ScreenshotHero string         `json:"screenshotHero" validate:"max=2048"`
	Screenshots    flexList       `json:"screenshots"`
	Challenges     flexList       `json:"challenges" validate:"max=50"`
	Solutions      flexList       `json:"solutions" validate:"max=50"`
	Features       flexList       `json:"features" validate:"max=50"`
	Stages         []stagePayload `json:"stages" validate:"max=50,dive"`
}

// toModel normalises the form: screenshots must look like URLs and are capped, price is
// zero unless the project is paid, and empty status and type take their defaults.
func (p projectPayload) toModel() *models.Project {
	screenshots := make(pq.StringArray, 0, len(p.Screenshots))
	for _, s := range p.Screenshots {
		if urlLike.MatchString(s) && len(screenshots) < maxScreenshots {
			screenshots = append(screenshots, s)
		}
	}

	price := float64(p.Price)
	if !bool(p.Paid) {
		price = 0
	}

	stages := make(datatypes.JSONSlice[models.Stage], 0, len(p.Stages))
	for _, s := range p.Stages {
		stages = append(stages, models.Stage{Title: s.Title, Desc: s.Desc, Done: s.Done, Date: s.Date, ETA: s.ETA})
	}

	project := &models.Project{
		Slug:           strings.TrimSpace(p.Slug),
		Name:           strings.TrimSpace(p.Name),
		Short:          p.Short,
		Description:    p.Description,
		Year:           p.Year,
		Developer:      p.Developer,
		DeveloperRole:  p.DeveloperRole,
		TeamSize:       p.TeamSize,
		Vision:         p.Vision,
		Tools:          pq.StringArray(p.Tools),
		Links:          datatypes.NewJSONType(models.Links(p.Links)),
		Video:          p.Video,
		Paid:           bool(p.Paid),
		Price:          price,
		Status:         p.Status,
		Type:           p.Type,
		Tags:           pq.StringArray(p.Tags),
		ScreenshotHero: p.ScreenshotHero,
		Screenshots:    screenshots,
		Challenges:     pq.StringArray(p.Challenges),
		Solutions:      pq.StringArray(p.Solutions),
		Features:       pq.StringArray(p.Features),
		Stages:         stages,
		ExtraMetadata:  datatypes.JSONMap{},
	}
	project.ApplyDefaults()
	return project
}
