// Package filing assembles the XML documents submitted to the tax portal (EPO).
package filing

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"filing-service/internal/apperrors"
	"filing-service/internal/models"
	"filing-service/internal/money"
)

const (
	documentVatReturn        = "DP3"
	documentControlStatement = "KH1"

	// k_uladis for both forms
	taxAgenda = "DPH"
	// B: regular (řádné) filing
	regularForm = "B"
	// F: natural person
	naturalPerson = "F"

	submissionDateLayout = "02.01.2006"
	supplyDateLayout     = "02.01.2006"
)

// Config holds the settings shared by every built document.
type Config struct {
	SoftwareName    string
	SoftwareVersion string
	// Location is the calendar the submission date is stated in
	Location *time.Location
	Rounding money.RoundingMode
	// Now defaults to time.Now
	Now func() time.Time
}

// Input is everything a document needs besides the configuration.
type Input struct {
	Request  models.FilingRequest
	Taxpayer *models.TaxpayerProfile
	Office   models.OfficeAssignment
	Figures  models.VatFigures
	Entries  []models.ControlStatementEntry
}

// Document is a built filing ready for delivery.
type Document struct {
	FileName string
	Content  string
}

// Builder produces DPHDP3 and DPHKH1 documents.
type Builder struct {
	cfg Config
}

// NewBuilder creates a Builder, filling in defaults for unset fields.
func NewBuilder(cfg Config) *Builder {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Rounding == "" {
		cfg.Rounding = money.HalfUp
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Builder{cfg: cfg}
}

// BuildVatReturn produces the DPHDP3 document. Amounts are whole currency units.
func (b *Builder) BuildVatReturn(in Input) (*Document, error) {
	r := b.cfg.Rounding
	f := in.Figures

	vat21 := r.Round(f.Vat21, 0)
	vat12 := r.Round(f.Vat12, 0)
	due := r.Whole(vat21.Add(vat12))

	form := &vatReturnForm{
		Version: VatReturnSchemaVersion,
		Header:  b.header(in.Request, documentVatReturn),
		Party:   b.party(in.Taxpayer, in.Office),
		Line1: dp3Line1{
			Net21:           r.Whole(f.Net21),
			Vat21:           vat21.StringFixed(0),
			Net12:           r.Whole(f.Net12),
			Vat12:           vat12.StringFixed(0),
			GoodsEU21:       "0",
			GoodsEUVat21:    "0",
			GoodsEU12:       "0",
			GoodsEUVat12:    "0",
			ServicesEU21:    "0",
			ServicesEUVat21: "0",
			ServicesEU12:    "0",
			ServicesEUVat12: "0",
			Import21:        "0",
			ImportVat21:     "0",
			Import12:        "0",
			ImportVat12:     "0",
			ReverseNet21:    r.Whole(f.ReverseNet21),
			ReverseVat21:    "0",
			ReverseNet12:    r.Whole(f.ReverseNet12),
			ReverseVat12:    "0",
		},
		Line2: dp3Line2{
			GoodsToEU:     "0",
			ServicesToEU:  "0",
			Export:        "0",
			DistanceSales: "0",
			ReverseSupply: "0",
			OtherSupplies: r.Whole(f.Net0),
		},
		Line6: dp3Line6{
			TaxDueTotal:     due,
			DeductionTotal:  "0",
			TaxPayable:      due,
			ExcessDeduction: "0",
		},
	}

	content, err := b.render(&submission{VatReturn: form})
	if err != nil {
		return nil, err
	}
	return &Document{FileName: FileName(in.Taxpayer.TaxID, in.Request), Content: content}, nil
}

// BuildControlStatement produces the DPHKH1 document. Reverse-charge rows go to
// section A.1 and the remaining domestic rows to A.4; each section is numbered from 1.
// Every row needs a counterparty tax id.
func (b *Builder) BuildControlStatement(in Input) (*Document, error) {
	r := b.cfg.Rounding
	form := &controlStatementForm{
		Version: ControlStatementSchemaVersion,
		Header:  b.header(in.Request, documentControlStatement),
		Party:   b.party(in.Taxpayer, in.Office),
	}

	for _, e := range in.Entries {
		if strings.TrimSpace(e.CounterpartyTaxID) == "" {
			return nil, apperrors.ForRecord("BuildControlStatement", apperrors.ErrMissingCounterpartyTaxID, e.Reference)
		}

		if e.IsReverseCharge() {
			form.ReverseCharge = append(form.ReverseCharge, khLineA1{
				Row:               len(form.ReverseCharge) + 1,
				CounterpartyTaxID: e.CounterpartyTaxID,
				Reference:         e.Reference,
				SupplyDate:        e.SupplyDate.Format(supplyDateLayout),
				Net:               r.Cents(e.Net21.Add(e.Net12)),
				SubjectCode:       e.ReverseChargeCode,
			})
			continue
		}

		form.Domestic = append(form.Domestic, khLineA4{
			Row:               len(form.Domestic) + 1,
			CounterpartyTaxID: e.CounterpartyTaxID,
			Reference:         e.Reference,
			SupplyDate:        e.SupplyDate.Format(supplyDateLayout),
			Net21:             r.Cents(e.Net21),
			Vat21:             r.Cents(e.Vat21),
			Net12:             r.Cents(e.Net12),
			Vat12:             r.Cents(e.Vat12),
			RegimeCode:        "0",
			BadDebt:           "N",
		})
	}

	zero := r.Cents(decimal.Zero)
	form.Summary = khLineC{
		Net21:         r.Cents(in.Figures.Net21),
		Net12:         r.Cents(in.Figures.Net12),
		Received21:    zero,
		Received12:    zero,
		ReverseSupply: r.Cents(in.Figures.ReverseNet()),
		ReverseRecv21: zero,
		ReverseRecv12: zero,
	}

	content, err := b.render(&submission{ControlStatement: form})
	if err != nil {
		return nil, err
	}
	return &Document{FileName: FileName(in.Taxpayer.TaxID, in.Request), Content: content}, nil
}

func (b *Builder) header(req models.FilingRequest, document string) headerRecord {
	h := headerRecord{
		Office:         taxAgenda,
		Document:       document,
		Year:           req.Year,
		SubmissionDate: b.cfg.Now().In(b.cfg.Location).Format(submissionDateLayout),
	}

	if req.PeriodType == models.PeriodTypeQuarter {
		h.PeriodKind = "Q"
		h.Quarter = req.Value
	} else {
		h.PeriodKind = "M"
		h.Month = req.Value
	}

	if document == documentVatReturn {
		h.VatReturnForm = regularForm
	} else {
		h.ControlForm = regularForm
	}
	return h
}

func (b *Builder) party(p *models.TaxpayerProfile, office models.OfficeAssignment) partyRecord {
	street := ParseStreet(p.Street)
	return partyRecord{
		RegionalOffice: office.RegionalCode,
		LocalOffice:    office.LocalCode,
		TaxID:          NormalizeTaxID(p.TaxID),
		SubjectKind:    naturalPerson,
		Title:          strings.TrimSpace(p.Title),
		FirstName:      strings.TrimSpace(p.FirstName),
		LastName:       strings.TrimSpace(p.LastName),
		Street:         street.Name,
		Building:       street.Building,
		Orientation:    street.Orientation,
		City:           strings.TrimSpace(p.City),
		PostalCode:     strings.ReplaceAll(strings.TrimSpace(p.PostalCode), " ", ""),
		Country:        strings.TrimSpace(p.Country),
		Phone:          strings.TrimSpace(p.Phone),
		Email:          strings.TrimSpace(p.Email),
	}
}

func (b *Builder) render(doc *submission) (string, error) {
	doc.SoftwareName = b.cfg.SoftwareName
	doc.SoftwareVersion = b.cfg.SoftwareVersion

	body, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", apperrors.New("render", apperrors.ErrMalformedDocument, err.Error())
	}

	content := xml.Header + string(body) + "\n"
	if err := checkWellFormed(content); err != nil {
		return "", err
	}
	return content, nil
}

// checkWellFormed reads content token by token to the end.
func checkWellFormed(content string) error {
	dec := xml.NewDecoder(strings.NewReader(content))
	dec.Strict = true
	depth := 0
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return apperrors.New("checkWellFormed", apperrors.ErrMalformedDocument, err.Error())
		}
		switch tok.(type) {
		case xml.StartElement:
			depth++
		case xml.EndElement:
			depth--
		}
	}
	if depth != 0 {
		return apperrors.New("checkWellFormed", apperrors.ErrMalformedDocument, fmt.Sprintf("unbalanced elements (depth %d)", depth))
	}
	if !strings.Contains(content, "<Pisemnost") {
		return apperrors.New("checkWellFormed", apperrors.ErrMalformedDocument, "missing Pisemnost root")
	}
	return nil
}
