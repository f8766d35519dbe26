package engine

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/emersion/go-webdav"
	"github.com/emersion/go-webdav/carddav"
	"github.com/tartampluch/friendly-reminder/internal/config"
)

// CardDAVSource imports every card of every address book owned by the
// authenticated user.
type CardDAVSource struct {
	URL         string
	Username    string
	Password    string
	DefaultDays int

	// HTTPClient defaults to a client with config.HTTPTimeout.
	HTTPClient *http.Client
}

// Contacts implements ContactSource.
func (s CardDAVSource) Contacts(ctx context.Context) ([]Contact, error) {
	httpClient := s.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: config.HTTPTimeout}
	}

	var transport webdav.HTTPClient = httpClient
	if s.Username != "" || s.Password != "" {
		transport = webdav.HTTPClientWithBasicAuth(httpClient, s.Username, s.Password)
	}

	client, err := carddav.NewClient(transport, s.URL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrCardDAVConnect, err)
	}

	principal, err := client.FindCurrentUserPrincipal(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrCardDAVDiscover, err)
	}
	homeSet, err := client.FindAddressBookHomeSet(ctx, principal)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrCardDAVDiscover, err)
	}
	books, err := client.FindAddressBooks(ctx, homeSet)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrCardDAVDiscover, err)
	}

	query := &carddav.AddressBookQuery{
		DataRequest: carddav.AddressDataRequest{AllProp: true},
	}

	var contacts []Contact
	for _, book := range books {
		objects, err := client.QueryAddressBook(ctx, book.Path, query)
		if err != nil {
			return nil, fmt.Errorf("%s %q: %w", config.ErrCardDAVQuery, book.Path, err)
		}
		slog.Debug(config.MsgImportDone,
			config.LogKeyComponent, config.CompCardDAV,
			config.LogKeyBook, book.Name,
			config.LogKeyCount, len(objects))
		for _, obj := range objects {
			contacts = append(contacts, ContactFromCard(obj.Card, s.DefaultDays))
		}
	}
	return contacts, nil
}
