package coda

import (
	"context"

	"github.com/ajitpratap0/source-coda/pkg/errors"
)

// SkipAll returned from a walk callback stops the walk without error
var SkipAll error = errors.New(errors.ErrorTypeInternal, "skip remaining items")

// WalkDocuments calls fn for every document, following nextPageToken until
// the last page.
func (c *Client) WalkDocuments(ctx context.Context, fn func(doc Item) error) error {
	return walkPages(ctx, func(token string) (*Page, error) {
		return c.ListDocuments(ctx, token)
	}, fn)
}

// WalkTables calls fn for every table in docID
func (c *Client) WalkTables(ctx context.Context, docID string, fn func(table Item) error) error {
	return walkPages(ctx, func(token string) (*Page, error) {
		return c.ListTables(ctx, docID, token)
	}, fn)
}

// FirstTable returns the first table of the first document that has one,
// visiting documents and tables in listing order. found is false when no
// document has a table.
func (c *Client) FirstTable(ctx context.Context) (doc, table Item, found bool, err error) {
	err = c.WalkDocuments(ctx, func(d Item) error {
		if err := c.WalkTables(ctx, d.ID, func(t Item) error {
			doc, table, found = d, t, true
			return SkipAll
		}); err != nil {
			return err
		}
		if found {
			return SkipAll
		}
		return nil
	})
	return doc, table, found, err
}

// walkPages lists pages until one has no nextPageToken. A token that was
// already requested means the listing cycles and is reported as bad data.
func walkPages(ctx context.Context, list func(token string) (*Page, error), fn func(Item) error) error {
	token := ""
	seen := map[string]struct{}{}
	for {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, errors.ErrorTypeTimeout, "walk cancelled")
		}

		page, err := list(token)
		if err != nil {
			return err
		}

		for _, item := range page.Items {
			if err := fn(item); err != nil {
				if errors.Is(err, SkipAll) {
					return nil
				}
				return err
			}
		}

		if page.NextPageToken == "" {
			return nil
		}
		if _, ok := seen[page.NextPageToken]; ok || page.NextPageToken == token {
			return errors.New(errors.ErrorTypeData, "page token repeated").
				WithDetail("page_token", page.NextPageToken).
				WithDetail("pages", len(seen)+1)
		}
		seen[page.NextPageToken] = struct{}{}
		token = page.NextPageToken
	}
}
