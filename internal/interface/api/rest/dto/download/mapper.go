package download

import (
	"uploadit/internal/domain/download"
)

func ToResponseEntry(e download.Entry) Entry {
	return Entry{
		ID:   e.ID,
		Name: e.Name,
		URI:  e.LocalHandle,
		Date: e.Date,
	}
}

func ToResponseEntries(l download.Ledger) Entries {
	out := make(Entries, len(l))
	for idx, e := range l {
		out[idx] = ToResponseEntry(e)
	}

	return out
}
