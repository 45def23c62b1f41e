package models

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// FederalRegisterAgency is one entry of a document's agencies list.
type FederalRegisterAgency struct {
	Name string `json:"name"`
}

// FederalRegisterDocument is a search result from the Federal Register documents API.
type FederalRegisterDocument struct {
	Title           string                  `json:"title"`
	PublicationDate string                  `json:"publication_date"`
	HTMLURL         string                  `json:"html_url"`
	PDFURL          string                  `json:"pdf_url,omitempty"`
	Abstract        string                  `json:"abstract,omitempty"`
	DocumentNumber  string                  `json:"document_number"`
	Agencies        []FederalRegisterAgency `json:"agencies"`
}

// FederalRegisterResponse is the documents.json envelope.
type FederalRegisterResponse struct {
	Results json.RawMessage `json:"results"`
	Count   int             `json:"count"`
}

// Documents returns the decodable entries of Results.
func (r FederalRegisterResponse) Documents() []FederalRegisterDocument {
	return DecodeList[FederalRegisterDocument](r.Results)
}

// FlexibleID accepts a JSON number or string and keeps its textual form.
type FlexibleID string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexibleID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = FlexibleID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}

	if i, err := n.Int64(); err == nil {
		*f = FlexibleID(strconv.FormatInt(i, 10))
		return nil
	}

	*f = FlexibleID(n.String())

	return nil
}

// CourtListenerResult is a search hit from the CourtListener search API.
// The API reports the same concept under different names depending on the
// result type, so every variant is decoded and the accessors below fix the
// precedence.
type CourtListenerResult struct {
	CaseName     string     `json:"caseName,omitempty"`
	CaseNameAlt  string     `json:"case_name,omitempty"`
	DateFiled    string     `json:"dateFiled,omitempty"`
	DateFiledAlt string     `json:"date_filed,omitempty"`
	Court        string     `json:"court,omitempty"`
	CourtID      string     `json:"court_id,omitempty"`
	AbsoluteURL  string     `json:"absolute_url,omitempty"`
	AbsoluteAlt  string     `json:"absoluteUrl,omitempty"`
	Snippet      string     `json:"snippet,omitempty"`
	ID           FlexibleID `json:"id,omitempty"`
}

// Name returns caseName, then case_name.
func (r CourtListenerResult) Name() string {
	return firstNonEmpty(r.CaseName, r.CaseNameAlt)
}

// Filed returns dateFiled, then date_filed.
func (r CourtListenerResult) Filed() string {
	return firstNonEmpty(r.DateFiled, r.DateFiledAlt)
}

// CourtName returns court, then court_id.
func (r CourtListenerResult) CourtName() string {
	return firstNonEmpty(r.Court, r.CourtID)
}

// Path returns absolute_url, then absoluteUrl. The value is site-relative.
func (r CourtListenerResult) Path() string {
	return firstNonEmpty(r.AbsoluteURL, r.AbsoluteAlt)
}

// CourtListenerResponse is the search envelope.
type CourtListenerResponse struct {
	Results json.RawMessage `json:"results"`
	Count   int             `json:"count"`
}

// Cases returns the decodable entries of Results.
func (r CourtListenerResponse) Cases() []CourtListenerResult {
	return DecodeList[CourtListenerResult](r.Results)
}

// RegulationsAttributes holds the document fields of a Regulations.gov record.
type RegulationsAttributes struct {
	Title        string `json:"title,omitempty"`
	PostedDate   string `json:"postedDate,omitempty"`
	DocumentType string `json:"documentType,omitempty"`
	AgencyID     string `json:"agencyId,omitempty"`
	ObjectID     string `json:"objectId,omitempty"`
	DocketID     string `json:"docketId,omitempty"`
}

// RegulationsLinks holds the API links of a Regulations.gov record.
type RegulationsLinks struct {
	Self string `json:"self,omitempty"`
}

// RegulationsDocument is a document from the Regulations.gov v4 API.
type RegulationsDocument struct {
	Links      *RegulationsLinks     `json:"links,omitempty"`
	ID         string                `json:"id"`
	Attributes RegulationsAttributes `json:"attributes"`
}

// RegulationsMeta is the paging metadata of a Regulations.gov response.
type RegulationsMeta struct {
	TotalElements int `json:"totalElements,omitempty"`
}

// RegulationsResponse is the documents envelope.
type RegulationsResponse struct {
	Meta *RegulationsMeta `json:"meta,omitempty"`
	Data json.RawMessage  `json:"data"`
}

// Documents returns the decodable entries of Data.
func (r RegulationsResponse) Documents() []RegulationsDocument {
	return DecodeList[RegulationsDocument](r.Data)
}

// OpenStatesBill is a bill from the OpenStates v3 API.
type OpenStatesBill struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	Identifier     string   `json:"identifier"`
	CreatedAt      string   `json:"created_at,omitempty"`
	UpdatedAt      string   `json:"updated_at,omitempty"`
	OpenStatesURL  string   `json:"openstates_url,omitempty"`
	Classification []string `json:"classification,omitempty"`
	Subject        []string `json:"subject,omitempty"`
}

// OpenStatesPagination is the paging metadata of an OpenStates response.
type OpenStatesPagination struct {
	TotalItems int `json:"total_items,omitempty"`
}

// OpenStatesResponse is the bills envelope.
type OpenStatesResponse struct {
	Pagination *OpenStatesPagination `json:"pagination,omitempty"`
	Results    json.RawMessage       `json:"results"`
}

// Bills returns the decodable entries of Results.
func (r OpenStatesResponse) Bills() []OpenStatesBill {
	return DecodeList[OpenStatesBill](r.Results)
}

// DecodeList decodes a JSON array element by element. A missing or
// non-array value yields an empty list and elements that do not fit T are
// skipped, so one malformed record cannot hide the rest.
func DecodeList[T any](raw json.RawMessage) []T {
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return []T{}
	}

	out := make([]T, 0, len(elems))

	for _, elem := range elems {
		var v T
		if err := json.Unmarshal(elem, &v); err != nil {
			continue
		}

		out = append(out, v)
	}

	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}

	return ""
}
