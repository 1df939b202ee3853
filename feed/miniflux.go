package feed

import (
	"miniflux.app/client"
)

type Entry struct {
	EntryID int64
	URL     string
	Title   string
	Author  string
}

type MinifluxInfo struct {
	Endpoint string
	ApiKey   string
}

// Miniflux reads the unread entries of the subscribed channel feeds. It is
// the catch-up path for notifications the hub sent while the service was
// down.
type Miniflux struct {
	client *client.Client
}

func NewMiniflux(mflInfo MinifluxInfo) *Miniflux {
	return &Miniflux{
		client: client.New(mflInfo.Endpoint, mflInfo.ApiKey),
	}
}

func (m *Miniflux) Unread() ([]Entry, error) {
	result, err := m.client.Entries(&client.Filter{Status: "unread"})
	if err != nil {
		return []Entry{}, err
	}

	entries := []Entry{}
	for _, entry := range result.Entries {
		entries = append(entries, Entry{
			EntryID: entry.ID,
			URL:     entry.URL,
			Title:   entry.Title,
			Author:  entry.Author,
		})
	}

	return entries, nil
}

func (m *Miniflux) MarkRead(entryID int64) error {
	if err := m.client.UpdateEntries([]int64{entryID}, "read"); err != nil {
		return err
	}

	return nil
}
