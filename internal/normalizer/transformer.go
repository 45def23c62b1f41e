// Package normalizer converts raw source records into canonical news items.
// Everything here is pure: no I/O, and "now" comes from an injected clock.
package normalizer

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"blueduck/internal/models"
	"blueduck/pkg/utils"
)

// ID prefixes per source.
const (
	PrefixFederalRegister = "federalregister"
	PrefixCourtListener   = "courtlistener"
	PrefixRegulations     = "regulationsgov"
	PrefixOpenStates      = "openstates"
)

const (
	courtListenerSite   = "https://www.courtlistener.com"
	regulationsDocument = "https://www.regulations.gov/document/"
	openStatesSite      = "https://openstates.org/"

	federalRegisterSummary = "Primary source document (rule/notice). Open the source for full details."
	courtListenerSummary   = "Primary source: court docket/opinion search result. Open the source for context."
	regulationsSummary     = "Rulemaking docket/document metadata. Open the source for full text and supporting materials."

	federalRegisterTitle = "Federal Register document"
	courtListenerTitle   = "Court filing"
	regulationsTitle     = "Regulations.gov document"
	openStatesTitle      = "OpenStates bill"
)

// MakeID builds the stable item identifier "prefix:native".
func MakeID(prefix, native string) string {
	return prefix + ":" + native
}

// NativeID returns the first non-empty candidate. Callers pass candidates in
// priority order, ending with the record index so the result is never empty.
func NativeID(candidates ...string) string {
	for _, c := range candidates {
		if c = strings.TrimSpace(c); c != "" {
			return c
		}
	}

	return ""
}

// Transformer maps each source's raw records onto models.NewsItem.
type Transformer struct {
	now          func() time.Time
	jurisdiction string
}

// NewTransformer creates a transformer using the wall clock.
func NewTransformer() *Transformer {
	return NewTransformerWithClock(time.Now)
}

// NewTransformerWithClock creates a transformer whose date fallback reads now.
func NewTransformerWithClock(now func() time.Time) *Transformer {
	return &Transformer{now: now, jurisdiction: "Texas"}
}

// WithJurisdiction sets the state named in OpenStates attribution.
func (t *Transformer) WithJurisdiction(jurisdiction string) *Transformer {
	if jurisdiction != "" {
		t.jurisdiction = jurisdiction
	}

	return t
}

// FederalRegister normalizes Federal Register documents.
func (t *Transformer) FederalRegister(docs []models.FederalRegisterDocument) []models.NewsItem {
	now := t.now()
	items := make([]models.NewsItem, 0, len(docs))

	for i, doc := range docs {
		class := Categorize(doc.Title)

		summary := utils.StripHTML(doc.Abstract)
		if summary == "" {
			summary = federalRegisterSummary
		}

		items = append(items, models.NewsItem{
			ID:         MakeID(PrefixFederalRegister, NativeID(doc.DocumentNumber, doc.HTMLURL, strconv.Itoa(i))),
			Title:      orDefault(doc.Title, federalRegisterTitle),
			Date:       ResolveDate(doc.PublicationDate, now),
			Category:   class.Category,
			Source:     models.SourceFederalRegister,
			SourceType: models.SourceTypeRulemaking,
			Status:     models.StatusWatch,
			Summary:    summary,
			Link:       NativeID(doc.HTMLURL, doc.PDFURL),
			Agency:     agencyNames(doc.Agencies),
			Tags:       provenance(class.Tags, TagPrimarySource),
		})
	}

	return items
}

// CourtListener normalizes CourtListener search hits. Relative opinion paths
// are resolved against the CourtListener site.
func (t *Transformer) CourtListener(results []models.CourtListenerResult) []models.NewsItem {
	now := t.now()
	items := make([]models.NewsItem, 0, len(results))

	for i, r := range results {
		name := orDefault(r.Name(), courtListenerTitle)
		path := r.Path()

		link := courtListenerSite + "/"
		if path != "" {
			link = courtListenerSite + path
		}

		summary := utils.StripHTML(r.Snippet)
		if summary == "" {
			summary = courtListenerSummary
		}

		class := Categorize(name)

		items = append(items, models.NewsItem{
			ID:         MakeID(PrefixCourtListener, NativeID(string(r.ID), path, strconv.Itoa(i))),
			Title:      name,
			Date:       ResolveDate(r.Filed(), now),
			Category:   class.withDefault(CategoryCourts),
			Source:     models.SourceCourtListener,
			SourceType: models.SourceTypeCourt,
			Status:     models.StatusActive,
			Summary:    summary,
			Link:       link,
			Agency:     r.CourtName(),
			Tags:       provenance(class.Tags, TagPrimarySource, TagLitigation),
		})
	}

	return items
}

// Regulations normalizes Regulations.gov documents. The link is built from
// the document id; the API's own links point at the API, not the site.
func (t *Transformer) Regulations(docs []models.RegulationsDocument) []models.NewsItem {
	now := t.now()
	items := make([]models.NewsItem, 0, len(docs))

	for i, d := range docs {
		title := orDefault(d.Attributes.Title, regulationsTitle)
		class := Categorize(title)
		native := NativeID(d.ID, strconv.Itoa(i))

		link := ""
		if d.ID != "" {
			link = regulationsDocument + url.PathEscape(d.ID)
		}

		items = append(items, models.NewsItem{
			ID:         MakeID(PrefixRegulations, native),
			Title:      title,
			Date:       ResolveDate(d.Attributes.PostedDate, now),
			Category:   class.Category,
			Source:     models.SourceRegulations,
			SourceType: models.SourceTypeRulemaking,
			Status:     models.StatusWatch,
			Summary:    regulationsSummary,
			Link:       link,
			Agency:     d.Attributes.AgencyID,
			Tags:       provenance(class.Tags, TagPrimarySource, TagDocket),
		})
	}

	return items
}

// OpenStates normalizes OpenStates bills.
func (t *Transformer) OpenStates(bills []models.OpenStatesBill) []models.NewsItem {
	now := t.now()
	items := make([]models.NewsItem, 0, len(bills))
	summary := t.jurisdiction + " bill tracker metadata. Open the source for actions, sponsors, and status."

	for i, b := range bills {
		class := Categorize(b.Title)

		items = append(items, models.NewsItem{
			ID:         MakeID(PrefixOpenStates, NativeID(b.ID, b.OpenStatesURL, strconv.Itoa(i))),
			Title:      billTitle(b),
			Date:       ResolveDate(NativeID(b.UpdatedAt, b.CreatedAt), now),
			Category:   class.withDefault(CategoryLegislature),
			Source:     models.SourceOpenStates,
			SourceType: models.SourceTypeLegislature,
			Status:     models.StatusWatch,
			Summary:    summary,
			Link:       orDefault(b.OpenStatesURL, openStatesSite),
			Agency:     t.jurisdiction + " Legislature",
			Tags:       provenance(class.Tags, TagLegislation),
		})
	}

	return items
}

// billTitle renders "HB 123: Title", dropping whichever part is missing.
func billTitle(b models.OpenStatesBill) string {
	identifier := strings.TrimSpace(b.Identifier)
	title := strings.TrimSpace(b.Title)

	switch {
	case identifier != "" && title != "":
		return identifier + ": " + title
	case title != "":
		return title
	case identifier != "":
		return identifier
	default:
		return openStatesTitle
	}
}

func agencyNames(agencies []models.FederalRegisterAgency) string {
	names := make([]string, 0, len(agencies))

	for _, a := range agencies {
		if a.Name != "" {
			names = append(names, a.Name)
		}
	}

	return strings.Join(names, ", ")
}

// provenance prefixes keyword tags with provenance markers into a fresh slice.
func provenance(tags []string, markers ...string) []string {
	out := make([]string, 0, len(markers)+len(tags))
	out = append(out, markers...)

	return append(out, tags...)
}

func orDefault(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}

	return fallback
}
