package internal

// AccountCash is assigned when no account can be trusted for a shipment.
const AccountCash = "Cash"

type Rationale string

const (
	RationaleSingleStrong Rationale = "single strong match"
	RationaleTieBreak     Rationale = "first-two-token tie-break"
	RationaleAmbiguous    Rationale = "ambiguous — multiple close matches"
	RationalePartial      Rationale = "partial fallback match"
	RationaleNoMatch      Rationale = "no confident match"
	RationalePersonalName Rationale = "likely personal name"
)

// Rationales lists every tag in the order reports present them.
var Rationales = []Rationale{
	RationaleSingleStrong,
	RationaleTieBreak,
	RationaleAmbiguous,
	RationalePartial,
	RationaleNoMatch,
	RationalePersonalName,
}

type Severity string

const (
	SeverityConfident Severity = "confident"
	SeverityReview    Severity = "review"
	SeverityNoMatch   Severity = "no_match"
)

type ShipmentRecord struct {
	TrackingNumber       string
	RecipientCompanyName string
}

type AccountRecord struct {
	CustomerName  string
	AccountNumber string
}

type Suggestion struct {
	CustomerName  string  `json:"customerName"`
	AccountNumber string  `json:"accountNumber"`
	Score         float64 `json:"score"`
}

type MatchOutcome struct {
	TrackingNumber       string       `json:"trackingNumber"`
	RecipientCompanyName string       `json:"recipientCompanyName"`
	AssignedAccount      string       `json:"assignedAccount"`
	MatchScore           float64      `json:"matchScore"`
	Suggestions          []Suggestion `json:"suggestions"`
	Rationale            Rationale    `json:"rationale"`
}

func (o MatchOutcome) IsCash() bool {
	return o.AssignedAccount == AccountCash
}

// TopSuggestion returns the most similar customer name, or "" when there is none.
func (o MatchOutcome) TopSuggestion() string {
	if len(o.Suggestions) == 0 {
		return ""
	}
	return o.Suggestions[0].CustomerName
}

type InboxFile struct {
	ID        int
	Path      string
	Hash      string
	Status    string
	Error     string
	Rows      int
	Output    string
	CreatedAt string
}

type FetchedMailMessage struct {
	Provider   string
	MessageID  string
	Subject    string
	From       string
	ReceivedAt string
	Raw        []byte
}
