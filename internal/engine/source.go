package engine

import (
	"context"
	"errors"
	"os"

	"github.com/tartampluch/friendly-reminder/internal/config"
)

// ContactSource yields contacts to import.
type ContactSource interface {
	Contacts(ctx context.Context) ([]Contact, error)
}

// FileSource reads a local .vcf file.
type FileSource struct {
	Path        string
	DefaultDays int
}

// Contacts implements ContactSource.
func (s FileSource) Contacts(ctx context.Context) ([]Contact, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return DecodeVCards(ctx, f, s.DefaultDays)
}

// URLSource downloads a .vcf file through a VCardFetcher.
type URLSource struct {
	Fetcher     VCardFetcher
	URL         string
	Username    string
	Password    string
	DefaultDays int
}

// Contacts implements ContactSource.
func (s URLSource) Contacts(ctx context.Context) ([]Contact, error) {
	if s.Fetcher == nil {
		return nil, errors.New(config.ErrFetcherMissing)
	}
	rc, err := s.Fetcher.Fetch(ctx, s.URL, s.Username, s.Password)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()
	return DecodeVCards(ctx, rc, s.DefaultDays)
}
