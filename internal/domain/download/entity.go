package download

// DateLayout is how Entry.Date is rendered.
const DateLayout = "Jan 2, 2006"

type (
	Entry struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		LocalHandle string `json:"uri"`
		Date        string `json:"date"`
	}
	// Ledger is most-recent-first.
	Ledger []Entry
)
