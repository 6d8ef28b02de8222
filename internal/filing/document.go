package filing

import "encoding/xml"

// Schema versions (verzePis) of the produced forms
const (
	VatReturnSchemaVersion        = "01.02"
	ControlStatementSchemaVersion = "03.01"
)

// submission is the EPO envelope; attribute names are fixed by the filing portal.
// Field order defines element order in the generated XML.
type submission struct {
	XMLName          xml.Name              `xml:"Pisemnost"`
	SoftwareName     string                `xml:"nazevSW,attr"`
	SoftwareVersion  string                `xml:"verzeSW,attr"`
	VatReturn        *vatReturnForm        `xml:"DPHDP3,omitempty"`
	ControlStatement *controlStatementForm `xml:"DPHKH1,omitempty"`
}

// headerRecord is VetaD, shared by both forms
type headerRecord struct {
	Office         string `xml:"k_uladis,attr"`
	Document       string `xml:"dokument,attr"`
	Year           int    `xml:"rok,attr"`
	Month          int    `xml:"mesic,attr,omitempty"`
	Quarter        int    `xml:"ctvrt,attr,omitempty"`
	PeriodKind     string `xml:"typ_obdobi,attr"` // M or Q
	SubmissionDate string `xml:"d_poddp,attr"`    // dd.mm.yyyy
	VatReturnForm  string `xml:"dapdph_forma,attr,omitempty"`
	ControlForm    string `xml:"khdph_forma,attr,omitempty"`
}

// partyRecord is VetaP, the taxpayer block
type partyRecord struct {
	RegionalOffice string `xml:"c_ufo,attr"`
	LocalOffice    string `xml:"c_pracufo,attr"`
	TaxID          string `xml:"dic,attr"`
	SubjectKind    string `xml:"typ_ds,attr"`
	Title          string `xml:"titul,attr,omitempty"`
	FirstName      string `xml:"jmeno,attr"`
	LastName       string `xml:"prijmeni,attr"`
	Street         string `xml:"ulice,attr"`
	Building       string `xml:"c_pop,attr"`
	Orientation    string `xml:"c_orient,attr"`
	City           string `xml:"naz_obce,attr"`
	PostalCode     string `xml:"psc,attr"`
	Country        string `xml:"stat,attr"`
	Phone          string `xml:"c_telef,attr"`
	Email          string `xml:"email,attr"`
}

type vatReturnForm struct {
	Version string       `xml:"verzePis,attr"`
	Header  headerRecord `xml:"VetaD"`
	Party   partyRecord  `xml:"VetaP"`
	Line1   dp3Line1     `xml:"Veta1"`
	Line2   dp3Line2     `xml:"Veta2"`
	Line6   dp3Line6     `xml:"Veta6"`
}

// dp3Line1 holds output tax per rate. "23" attributes are the basic rate (21 %), "5"
// attributes the reduced rate (12 %); the names predate the current rates.
type dp3Line1 struct {
	Net21           string `xml:"obrat23,attr"`
	Vat21           string `xml:"dan23,attr"`
	Net12           string `xml:"obrat5,attr"`
	Vat12           string `xml:"dan5,attr"`
	GoodsEU21       string `xml:"p_zb23,attr"`
	GoodsEUVat21    string `xml:"dan_pzb23,attr"`
	GoodsEU12       string `xml:"p_zb5,attr"`
	GoodsEUVat12    string `xml:"dan_pzb5,attr"`
	ServicesEU21    string `xml:"p_sl23_e,attr"`
	ServicesEUVat21 string `xml:"dan_psl23_e,attr"`
	ServicesEU12    string `xml:"p_sl5_e,attr"`
	ServicesEUVat12 string `xml:"dan_psl5_e,attr"`
	Import21        string `xml:"dov_zb23,attr"`
	ImportVat21     string `xml:"dan_dzb23,attr"`
	Import12        string `xml:"dov_zb5,attr"`
	ImportVat12     string `xml:"dan_dzb5,attr"`
	ReverseNet21    string `xml:"rez_pren23,attr"`
	ReverseVat21    string `xml:"dan_rez23,attr"`
	ReverseNet12    string `xml:"rez_pren5,attr"`
	ReverseVat12    string `xml:"dan_rez5,attr"`
}

// dp3Line2 holds supplies without output tax
type dp3Line2 struct {
	GoodsToEU     string `xml:"dod_zb,attr"`
	ServicesToEU  string `xml:"pln_sluzby,attr"`
	Export        string `xml:"pln_vyvoz,attr"`
	DistanceSales string `xml:"pln_zaslani,attr"`
	ReverseSupply string `xml:"pln_rez_pren,attr"`
	OtherSupplies string `xml:"pln_ost,attr"`
}

// dp3Line6 is the tax calculation
type dp3Line6 struct {
	TaxDueTotal     string `xml:"dan_zocelk,attr"`
	DeductionTotal  string `xml:"odp_zocelk,attr"`
	TaxPayable      string `xml:"dano_da,attr"`
	ExcessDeduction string `xml:"dano_no,attr"`
}

type controlStatementForm struct {
	Version       string       `xml:"verzePis,attr"`
	Header        headerRecord `xml:"VetaD"`
	Party         partyRecord  `xml:"VetaP"`
	ReverseCharge []khLineA1   `xml:"VetaA1"`
	Domestic      []khLineA4   `xml:"VetaA4"`
	Summary       khLineC      `xml:"VetaC"`
}

// khLineA1 is a domestic reverse-charge supply (section A.1)
type khLineA1 struct {
	Row               int    `xml:"c_radku,attr"`
	CounterpartyTaxID string `xml:"dic_odb,attr"`
	Reference         string `xml:"c_evid_dd,attr"`
	SupplyDate        string `xml:"duzp,attr"`
	Net               string `xml:"zakl_dane1,attr"`
	SubjectCode       string `xml:"kod_pred_pl,attr,omitempty"`
}

// khLineA4 is a domestic supply with output tax (section A.4)
type khLineA4 struct {
	Row               int    `xml:"c_radku,attr"`
	CounterpartyTaxID string `xml:"dic_odb,attr"`
	Reference         string `xml:"c_evid_dd,attr"`
	SupplyDate        string `xml:"dppd,attr"`
	Net21             string `xml:"zakl_dane1,attr"`
	Vat21             string `xml:"dan1,attr"`
	Net12             string `xml:"zakl_dane2,attr"`
	Vat12             string `xml:"dan2,attr"`
	RegimeCode        string `xml:"kod_rezim_pl,attr"`
	BadDebt           string `xml:"zdph_44,attr"`
}

// khLineC is the control aggregate (section C)
type khLineC struct {
	Net21         string `xml:"obrat23,attr"`
	Net12         string `xml:"obrat5,attr"`
	Received21    string `xml:"pln23,attr"`
	Received12    string `xml:"pln5,attr"`
	ReverseSupply string `xml:"pln_rez_pren,attr"`
	ReverseRecv21 string `xml:"rez_pren23,attr"`
	ReverseRecv12 string `xml:"rez_pren5,attr"`
}
