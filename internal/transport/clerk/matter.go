package clerk

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	domdoc "github.com/kailas-cloud/civicdex/internal/domain/document"
)

const (
	authority    = "Chicago City Council"
	jurisdiction = "chicago"
	detailURL    = "https://chicago.legistar.com/LegislationDetail.aspx?ID="
	idPrefix     = "chicago_leg_"
)

// text accepts a JSON string, number, bool or null and keeps its textual form.
type text string

func (t *text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*t = ""
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = text(strings.TrimSpace(s))
	default:
		*t = text(b)
	}
	return nil
}

func (t text) or(fallback string) string {
	if t == "" {
		return fallback
	}
	return string(t)
}

func (t text) yes() bool { return strings.EqualFold(string(t), "YES") }

type matterPage struct {
	Data []matter `json:"data"`
}

type matter struct {
	MatterID            text `json:"matterId"`
	Title               text `json:"title"`
	RecordNumber        text `json:"recordNumber"`
	Type                text `json:"type"`
	Category            text `json:"matterCategory"`
	Status              text `json:"statusDescription"`
	Sponsor             text `json:"filingSponsor"`
	IntroductionDate    text `json:"introductionDate"`
	CommitteeReferral   text `json:"committeReferral"`
	KeyLegislation      text `json:"keyLegislation"`
	EconomicDisclosure  text `json:"economicDisclosure"`
	Routine             text `json:"routine"`
	AgreedCalendar      text `json:"agreedCalendar"`
	NicknameAlias       text `json:"nicknameAlias"`
	IntroductionType    text `json:"introductionType"`
	ControllingBody     text `json:"controllingBody"`
	FileYear            text `json:"fileYear"`
	LastPublicationDate text `json:"lastPublicationDate"`
}

var categoryRules = []struct {
	words    []string
	category domdoc.Category
}{
	{[]string{"zoning", "building"}, domdoc.Construction},
	{[]string{"business", "license"}, domdoc.Business},
	{[]string{"health", "food"}, domdoc.Healthcare},
	{[]string{"parking", "traffic", "transportation"}, domdoc.Transportation},
	{[]string{"finance", "budget"}, domdoc.Finance},
	{[]string{"public safety", "police", "fire"}, domdoc.PublicSafety},
	{[]string{"education", "school"}, domdoc.Education},
	{[]string{"environment", "sustainability"}, domdoc.Environment},
	{[]string{"housing", "residential"}, domdoc.Housing},
}

var governanceTypes = []string{"executive order", "proclamation", "resolution", "ordinance"}

// MapCategory assigns a document category from a matter's category and type.
// The matter category is checked first; governance types apply only when it
// matches nothing.
func MapCategory(matterCategory, matterType string) domdoc.Category {
	c := strings.ToLower(matterCategory)
	for _, rule := range categoryRules {
		for _, w := range rule.words {
			if strings.Contains(c, w) {
				return rule.category
			}
		}
	}
	t := strings.ToLower(matterType)
	for _, w := range governanceTypes {
		if strings.Contains(t, w) {
			return domdoc.Governance
		}
	}
	return domdoc.General
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func (m *matter) content() string {
	lines := []string{
		m.Title.or("Untitled Legislation"),
		"",
		"Record Number: " + string(m.RecordNumber),
		"Type: " + m.Type.or("Unknown"),
		"Category: " + m.Category.or("General"),
		"Status: " + m.Status.or("Unknown"),
		"Sponsor: " + m.Sponsor.or("Unknown"),
		"Introduction Date: " + string(m.IntroductionDate),
		"Committee Referral: " + string(m.CommitteeReferral),
		"Key Legislation: " + yesNo(m.KeyLegislation.yes()),
		"Economic Disclosure Required: " + yesNo(m.EconomicDisclosure.yes()),
		"Routine: " + yesNo(m.Routine.yes()),
		"Agreed Calendar: " + yesNo(m.AgreedCalendar.yes()),
		"",
		"Description: " + m.NicknameAlias.or("No additional description available"),
	}
	return strings.Join(lines, "\n")
}

func (m *matter) metadata() domdoc.Metadata {
	md := domdoc.Metadata{}
	put := func(key string, v text) {
		if v != "" {
			md[key] = domdoc.StringValue(string(v))
		}
	}
	put("matter_id", m.MatterID)
	put("record_number", m.RecordNumber)
	put("matter_type", text(m.Type.or("Unknown")))
	put("matter_category", text(m.Category.or("General")))
	put("status", text(m.Status.or("Unknown")))
	put("sponsor", text(m.Sponsor.or("Unknown")))
	put("committee_referral", m.CommitteeReferral)
	md["key_legislation"] = domdoc.StringValue(strings.ToLower(yesNo(m.KeyLegislation.yes())))
	put("economic_disclosure", m.EconomicDisclosure)
	put("routine", m.Routine)
	put("agreed_calendar", m.AgreedCalendar)
	put("introduction_type", m.IntroductionType)
	put("controlling_body", m.ControllingBody)
	if y, err := strconv.Atoi(string(m.FileYear)); err == nil {
		md["file_year"] = domdoc.NumberValue(float64(y))
	}
	if t, ok := parseTime(string(m.LastPublicationDate)); ok {
		md["last_publication_date"] = domdoc.TimeValue(t)
	}
	return md
}

// document converts a matter. Matters without an id are rejected.
func (m *matter) document(source string) (domdoc.Document, error) {
	if m.MatterID == "" {
		return domdoc.Document{}, fmt.Errorf("matter without id")
	}
	matterType := m.Type.or("Unknown")
	p := domdoc.Params{
		ID:           idPrefix + string(m.MatterID),
		Title:        m.Title.or("Untitled Legislation"),
		Content:      m.content(),
		DocumentType: strings.ToLower(matterType),
		Category:     string(MapCategory(m.Category.or("General"), matterType)),
		Authority:    authority,
		URL:          detailURL + string(m.MatterID),
		Source:       source,
		Jurisdiction: jurisdiction,
		Metadata:     m.metadata(),
	}
	if t, ok := parseTime(string(m.IntroductionDate)); ok {
		p.EffectiveDate = &t
	}
	return domdoc.New(p)
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
