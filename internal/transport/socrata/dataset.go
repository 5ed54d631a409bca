package socrata

import (
	"fmt"
	"strings"

	domdoc "github.com/kailas-cloud/civicdex/internal/domain/document"
)

const (
	authorityBuildings = "Chicago Department of Buildings"
	authorityBACP      = "Chicago Department of Business Affairs and Consumer Protection"
	authorityCouncil   = "Chicago City Council"
	authorityHealth    = "Chicago Department of Public Health"

	jurisdiction = "chicago"
)

// Dataset describes one open-data resource and how its rows become documents.
type Dataset struct {
	Name         string
	ResourceID   string
	OrderField   string
	IDField      string
	IDPrefix     string
	DocumentType string
	Category     domdoc.Category
	Authority    string
	PageURL      string

	title    func(r record) string
	content  func(r record) string
	metadata func(r record) domdoc.Metadata
}

// normalize turns a row into a document. Rows without an identifier are skipped.
func (d *Dataset) normalize(r record) (domdoc.Document, bool) {
	id := r.str(d.IDField)
	if id == "" {
		return domdoc.Document{}, false
	}
	p := domdoc.Params{
		ID:           d.IDPrefix + id,
		Title:        d.title(r),
		Content:      d.content(r),
		DocumentType: d.DocumentType,
		Category:     string(d.Category),
		Authority:    d.Authority,
		URL:          d.PageURL,
		Source:       d.Name,
		Jurisdiction: jurisdiction,
		Metadata:     d.metadata(r),
	}
	if t, ok := r.time(d.OrderField); ok {
		p.EffectiveDate = &t
	}
	doc, err := domdoc.New(p)
	if err != nil {
		return domdoc.Document{}, false
	}
	return doc, true
}

// Datasets returns the built-in Chicago data portal datasets.
func Datasets() []Dataset {
	return []Dataset{
		buildingPermits(),
		businessLicenses(),
		councilMeetings(),
		foodInspections(),
		buildingViolations(),
	}
}

// LookupDataset finds a built-in dataset by name.
func LookupDataset(name string) (Dataset, bool) {
	for _, d := range Datasets() {
		if d.Name == name {
			return d, true
		}
	}
	return Dataset{}, false
}

func sentences(parts ...string) string {
	return strings.Join(parts, " ")
}

func buildingPermits() Dataset {
	return Dataset{
		Name:         "building_permits",
		ResourceID:   "ydr8-5enu",
		OrderField:   "application_start_date",
		IDField:      "id",
		IDPrefix:     "chicago_permits_",
		DocumentType: "permit",
		Category:     domdoc.Construction,
		Authority:    authorityBuildings,
		PageURL:      "https://data.cityofchicago.org/Buildings/Building-Permits/ydr8-5enu",
		title: func(r record) string {
			return "Building Permit - " + r.or("permit_type", "Unknown Type")
		},
		content: func(r record) string {
			return sentences(
				fmt.Sprintf("Building Permit Application for %s.", r.or("permit_type", "Unknown Type")),
				fmt.Sprintf("Work Description: %s.", r.or("work_description", "Not specified")),
				fmt.Sprintf("Total Fees: $%s.", r.or("total_fees", "0")),
				fmt.Sprintf("Reported Cost: $%s.", r.or("reported_cost", "0")),
				fmt.Sprintf("Community Area: %s.", r.or("community_area", "Not specified")),
				fmt.Sprintf("Zip Code: %s.", r.or("zip_code", "Not specified")),
				fmt.Sprintf("Application Start Date: %s.", r.or("application_start_date", "Not specified")),
			)
		},
		metadata: func(r record) domdoc.Metadata {
			return newMeta(r).
				str("permit_type").str("work_description").
				num("total_fees").num("reported_cost").
				str("community_area").str("zip_code").
				num("latitude").num("longitude").
				build()
		},
	}
}

func businessLicenses() Dataset {
	return Dataset{
		Name:         "business_licenses",
		ResourceID:   "uupf-x98q",
		OrderField:   "license_start_date",
		IDField:      "id",
		IDPrefix:     "chicago_license_",
		DocumentType: "license",
		Category:     domdoc.Business,
		Authority:    authorityBACP,
		PageURL:      "https://data.cityofchicago.org/Community-Economic-Development/Business-Licenses/uupf-x98q",
		title: func(r record) string {
			return "Business License - " + r.or("business_activity", "Unknown Activity")
		},
		content: func(r record) string {
			return sentences(
				fmt.Sprintf("Business License for %s.", r.or("business_activity", "Unknown Activity")),
				fmt.Sprintf("License Description: %s.", r.or("license_description", "Not specified")),
				fmt.Sprintf("License Status: %s.", r.or("license_status", "Unknown")),
				fmt.Sprintf("Zip Code: %s.", r.or("zip_code", "Not specified")),
				fmt.Sprintf("Ward: %s.", r.or("ward", "Not specified")),
				fmt.Sprintf("License Start Date: %s.", r.or("license_start_date", "Not specified")),
			)
		},
		metadata: func(r record) domdoc.Metadata {
			return newMeta(r).
				str("business_activity").str("license_description").str("license_status").
				str("zip_code").str("ward").
				num("latitude").num("longitude").
				build()
		},
	}
}

func councilMeetings() Dataset {
	return Dataset{
		Name:         "city_council_meetings",
		ResourceID:   "7c8c-9w7x",
		OrderField:   "meeting_date",
		IDField:      "id",
		IDPrefix:     "chicago_meeting_",
		DocumentType: "meeting_record",
		Category:     domdoc.Governance,
		Authority:    authorityCouncil,
		PageURL:      "https://data.cityofchicago.org/City-Government/City-Council-Meetings/7c8c-9w7x",
		title: func(r record) string {
			return "City Council Meeting - " + r.or("meeting_date", "Unknown Date")
		},
		content: func(r record) string {
			return sentences(
				fmt.Sprintf("City Council Meeting on %s.", r.or("meeting_date", "Unknown Date")),
				fmt.Sprintf("Meeting Type: %s.", r.or("meeting_type", "Not specified")),
				fmt.Sprintf("Agenda Items: %s.", r.or("agenda_items", "Not specified")),
				fmt.Sprintf("Attendance: %s.", r.or("attendance", "Not specified")),
				fmt.Sprintf("Location: %s.", r.or("location", "Not specified")),
			)
		},
		metadata: func(r record) domdoc.Metadata {
			return newMeta(r).
				str("meeting_type").str("agenda_items").str("attendance").str("location").
				build()
		},
	}
}

func foodInspections() Dataset {
	return Dataset{
		Name:         "food_inspections",
		ResourceID:   "4ijn-s7e5",
		OrderField:   "inspection_date",
		IDField:      "inspection_id",
		IDPrefix:     "chicago_food_",
		DocumentType: "inspection_report",
		Category:     domdoc.Healthcare,
		Authority:    authorityHealth,
		PageURL:      "https://data.cityofchicago.org/Health-Human-Services/Food-Inspections/4ijn-s7e5",
		title: func(r record) string {
			return "Food Inspection - " + r.or("dba_name", "Unknown Restaurant")
		},
		content: func(r record) string {
			return sentences(
				fmt.Sprintf("Food Inspection for %s.", r.or("dba_name", "Unknown Restaurant")),
				fmt.Sprintf("Inspection Type: %s.", r.or("inspection_type", "Not specified")),
				fmt.Sprintf("Results: %s.", r.or("results", "Not specified")),
				fmt.Sprintf("Violations: %s.", r.or("violations", "None")),
				fmt.Sprintf("Zip Code: %s.", r.or("zip", "Not specified")),
				fmt.Sprintf("Inspection Date: %s.", r.or("inspection_date", "Not specified")),
			)
		},
		metadata: func(r record) domdoc.Metadata {
			return newMeta(r).
				str("dba_name").str("inspection_type").str("results").str("violations").
				str("zip_code", "zip").
				num("latitude").num("longitude").
				build()
		},
	}
}

func buildingViolations() Dataset {
	return Dataset{
		Name:         "building_violations",
		ResourceID:   "22u3-xenr",
		OrderField:   "violation_date",
		IDField:      "id",
		IDPrefix:     "chicago_violation_",
		DocumentType: "violation_notice",
		Category:     domdoc.Construction,
		Authority:    authorityBuildings,
		PageURL:      "https://data.cityofchicago.org/Buildings/Building-Violations/22u3-xenr",
		title: func(r record) string {
			return "Building Violation - " + r.or("violation_code", "Unknown Code")
		},
		content: func(r record) string {
			return sentences(
				fmt.Sprintf("Building Violation Code: %s.", r.or("violation_code", "Unknown")),
				fmt.Sprintf("Violation Description: %s.", r.or("violation_description", "Not specified")),
				fmt.Sprintf("Violation Status: %s.", r.or("violation_status", "Unknown")),
				fmt.Sprintf("Zip Code: %s.", r.or("zip_code", "Not specified")),
				fmt.Sprintf("Violation Date: %s.", r.or("violation_date", "Not specified")),
			)
		},
		metadata: func(r record) domdoc.Metadata {
			return newMeta(r).
				str("violation_code").str("violation_description").str("violation_status").
				str("zip_code").
				num("latitude").num("longitude").
				build()
		},
	}
}
