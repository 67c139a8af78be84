package facturx

import "encoding/xml"

// Cross-Industry-Invoice namespaces. Part of the wire contract: downstream
// validators match them byte-for-byte.
const (
	nsRSM = "urn:un:unece:uncefact:data:standard:CrossIndustryInvoice:100"
	nsRAM = "urn:un:unece:uncefact:data:standard:ReusableAggregateBusinessInformationEntity:100"
	nsUDT = "urn:un:unece:uncefact:data:standard:UnqualifiedDataType:100"
)

// dateFormatCCYYMMDD is the UNCL2379 qualifier for YYYYMMDD date strings.
const dateFormatCCYYMMDD = "102"

// The document model mirrors the CII schema. Struct field order is the
// schema sequence: encoding/xml emits fields in declaration order, which
// is what guarantees the mandated element ordering.

type crossIndustryInvoice struct {
	XMLName  xml.Name `xml:"rsm:CrossIndustryInvoice"`
	XmlnsRSM string   `xml:"xmlns:rsm,attr"`
	XmlnsRAM string   `xml:"xmlns:ram,attr"`
	XmlnsUDT string   `xml:"xmlns:udt,attr"`

	Context     exchangedDocumentContext    `xml:"rsm:ExchangedDocumentContext"`
	Document    exchangedDocument           `xml:"rsm:ExchangedDocument"`
	Transaction supplyChainTradeTransaction `xml:"rsm:SupplyChainTradeTransaction"`
}

type exchangedDocumentContext struct {
	BusinessProcess *documentContextParameter `xml:"ram:BusinessProcessSpecifiedDocumentContextParameter,omitempty"`
	Guideline       documentContextParameter  `xml:"ram:GuidelineSpecifiedDocumentContextParameter"`
}

type documentContextParameter struct {
	ID string `xml:"ram:ID"`
}

type exchangedDocument struct {
	ID            string   `xml:"ram:ID"`
	TypeCode      string   `xml:"ram:TypeCode"`
	IssueDateTime dateTime `xml:"ram:IssueDateTime"`
	IncludedNote  *note    `xml:"ram:IncludedNote,omitempty"`
}

type dateTime struct {
	DateTimeString formattedDate `xml:"udt:DateTimeString"`
}

type formattedDate struct {
	Format string `xml:"format,attr"`
	Value  string `xml:",chardata"`
}

type note struct {
	Content string `xml:"ram:Content"`
}

type supplyChainTradeTransaction struct {
	LineItems  []tradeLineItem       `xml:"ram:IncludedSupplyChainTradeLineItem"`
	Agreement  headerTradeAgreement  `xml:"ram:ApplicableHeaderTradeAgreement"`
	Delivery   headerTradeDelivery   `xml:"ram:ApplicableHeaderTradeDelivery"`
	Settlement headerTradeSettlement `xml:"ram:ApplicableHeaderTradeSettlement"`
}

type tradeLineItem struct {
	LineDocument lineDocument        `xml:"ram:AssociatedDocumentLineDocument"`
	Product      tradeProduct        `xml:"ram:SpecifiedTradeProduct"`
	Agreement    lineTradeAgreement  `xml:"ram:SpecifiedLineTradeAgreement"`
	Delivery     lineTradeDelivery   `xml:"ram:SpecifiedLineTradeDelivery"`
	Settlement   lineTradeSettlement `xml:"ram:SpecifiedLineTradeSettlement"`
}

type lineDocument struct {
	LineID int `xml:"ram:LineID"`
}

type tradeProduct struct {
	SellerAssignedID string        `xml:"ram:SellerAssignedID,omitempty"`
	Name             string        `xml:"ram:Name"`
	OriginCountry    *tradeCountry `xml:"ram:OriginTradeCountry,omitempty"`
}

type tradeCountry struct {
	ID string `xml:"ram:ID"`
}

type lineTradeAgreement struct {
	NetPrice tradePrice `xml:"ram:NetPriceProductTradePrice"`
}

type tradePrice struct {
	ChargeAmount string `xml:"ram:ChargeAmount"`
}

type lineTradeDelivery struct {
	BilledQuantity quantity `xml:"ram:BilledQuantity"`
}

type quantity struct {
	UnitCode string `xml:"unitCode,attr"`
	Value    string `xml:",chardata"`
}

type lineTradeSettlement struct {
	TradeTax  lineTradeTax          `xml:"ram:ApplicableTradeTax"`
	Summation lineMonetarySummation `xml:"ram:SpecifiedTradeSettlementLineMonetarySummation"`
}

type lineTradeTax struct {
	TypeCode              string `xml:"ram:TypeCode"`
	CategoryCode          string `xml:"ram:CategoryCode"`
	RateApplicablePercent string `xml:"ram:RateApplicablePercent"`
}

type lineMonetarySummation struct {
	LineTotalAmount string `xml:"ram:LineTotalAmount"`
}

type headerTradeAgreement struct {
	BuyerReference string              `xml:"ram:BuyerReference,omitempty"`
	Seller         tradeParty          `xml:"ram:SellerTradeParty"`
	Buyer          tradeParty          `xml:"ram:BuyerTradeParty"`
	BuyerOrder     *referencedDocument `xml:"ram:BuyerOrderReferencedDocument,omitempty"`
}

type referencedDocument struct {
	IssuerAssignedID string `xml:"ram:IssuerAssignedID"`
}

type tradeParty struct {
	Name             string            `xml:"ram:Name"`
	Contact          *tradeContact     `xml:"ram:DefinedTradeContact,omitempty"`
	PostalAddress    *postalAddress    `xml:"ram:PostalTradeAddress,omitempty"`
	TaxRegistrations []taxRegistration `xml:"ram:SpecifiedTaxRegistration,omitempty"`
}

type tradeContact struct {
	PersonName string             `xml:"ram:PersonName,omitempty"`
	Telephone  *telephoneContact  `xml:"ram:TelephoneUniversalCommunication,omitempty"`
	Email      *emailContact      `xml:"ram:EmailURIUniversalCommunication,omitempty"`
}

type telephoneContact struct {
	CompleteNumber string `xml:"ram:CompleteNumber"`
}

type emailContact struct {
	URIID string `xml:"ram:URIID"`
}

// postalAddress keeps the schema's postcode-street-city-country ordering.
type postalAddress struct {
	PostcodeCode string `xml:"ram:PostcodeCode,omitempty"`
	LineOne      string `xml:"ram:LineOne,omitempty"`
	CityName     string `xml:"ram:CityName,omitempty"`
	CountryID    string `xml:"ram:CountryID,omitempty"`
}

type taxRegistration struct {
	ID schemedID `xml:"ram:ID"`
}

type schemedID struct {
	SchemeID string `xml:"schemeID,attr"`
	Value    string `xml:",chardata"`
}

type headerTradeDelivery struct {
	ShipTo         *tradeParty         `xml:"ram:ShipToTradeParty,omitempty"`
	ActualDelivery actualDeliveryEvent `xml:"ram:ActualDeliverySupplyChainEvent"`
}

type actualDeliveryEvent struct {
	OccurrenceDateTime dateTime `xml:"ram:OccurrenceDateTime"`
}

type headerTradeSettlement struct {
	InvoiceCurrencyCode string               `xml:"ram:InvoiceCurrencyCode"`
	TradeTaxes          []headerTradeTax     `xml:"ram:ApplicableTradeTax"`
	AllowanceCharges    []allowanceCharge    `xml:"ram:SpecifiedTradeAllowanceCharge,omitempty"`
	PaymentTerms        paymentTerms         `xml:"ram:SpecifiedTradePaymentTerms"`
	Summation           monetarySummation    `xml:"ram:SpecifiedTradeSettlementHeaderMonetarySummation"`
	InvoiceReference    *referencedDocument  `xml:"ram:InvoiceReferencedDocument,omitempty"`
	AccountingAccount   *accountingReference `xml:"ram:ReceivableSpecifiedTradeAccountingAccount,omitempty"`
}

type headerTradeTax struct {
	CalculatedAmount      string `xml:"ram:CalculatedAmount"`
	TypeCode              string `xml:"ram:TypeCode"`
	ExemptionReason       string `xml:"ram:ExemptionReason,omitempty"`
	BasisAmount           string `xml:"ram:BasisAmount"`
	CategoryCode          string `xml:"ram:CategoryCode"`
	RateApplicablePercent string `xml:"ram:RateApplicablePercent"`
}

type allowanceCharge struct {
	ChargeIndicator  indicator         `xml:"ram:ChargeIndicator"`
	ActualAmount     string            `xml:"ram:ActualAmount"`
	Reason           string            `xml:"ram:Reason,omitempty"`
	CategoryTradeTax *categoryTradeTax `xml:"ram:CategoryTradeTax,omitempty"`
}

type indicator struct {
	Indicator bool `xml:"udt:Indicator"`
}

type categoryTradeTax struct {
	TypeCode              string `xml:"ram:TypeCode"`
	CategoryCode          string `xml:"ram:CategoryCode"`
	RateApplicablePercent string `xml:"ram:RateApplicablePercent"`
}

type paymentTerms struct {
	Description string    `xml:"ram:Description,omitempty"`
	DueDate     *dateTime `xml:"ram:DueDateDateTime,omitempty"`
}

// monetarySummation follows the schema sequence; ChargeTotalAmount is
// always present (zero today), AllowanceTotalAmount only with a discount.
type monetarySummation struct {
	LineTotalAmount      string `xml:"ram:LineTotalAmount"`
	ChargeTotalAmount    string `xml:"ram:ChargeTotalAmount"`
	AllowanceTotalAmount string `xml:"ram:AllowanceTotalAmount,omitempty"`
	TaxBasisTotalAmount  string `xml:"ram:TaxBasisTotalAmount"`
	TaxTotalAmount       currencyAmount `xml:"ram:TaxTotalAmount"`
	GrandTotalAmount     string `xml:"ram:GrandTotalAmount"`
	DuePayableAmount     string `xml:"ram:DuePayableAmount"`
}

type currencyAmount struct {
	CurrencyID string `xml:"currencyID,attr"`
	Value      string `xml:",chardata"`
}

type accountingReference struct {
	ID string `xml:"ram:ID"`
}
