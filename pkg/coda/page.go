package coda

import (
	"github.com/buger/jsonparser"

	"github.com/ajitpratap0/source-coda/pkg/errors"
	"github.com/ajitpratap0/source-coda/pkg/json"
)

// Item identifies a document or table in a listing
type Item struct {
	ID   string
	Type string
	Name string
	Href string
}

// Page is one page of a Coda list response
type Page struct {
	// Raw is the response body as received
	Raw json.RawMessage
	// Items holds the ids of a documents or tables page
	Items []Item
	// NextPageToken is empty on the last page
	NextPageToken string
}

func parseListPage(endpoint string, body []byte) (*Page, error) {
	if !json.Valid(body) {
		return nil, errors.New(errors.ErrorTypeData, "response is not valid JSON").
			WithDetail("endpoint", endpoint)
	}

	items, dataType, _, err := jsonparser.Get(body, "items")
	if err != nil || dataType != jsonparser.Array {
		return nil, errors.New(errors.ErrorTypeData, "response has no items array").
			WithDetail("endpoint", endpoint)
	}

	page := &Page{Raw: body}
	var itemErr *errors.Error
	_, err = jsonparser.ArrayEach(items, func(value []byte, dataType jsonparser.ValueType, _ int, err error) {
		if itemErr != nil {
			return
		}
		if err != nil || dataType != jsonparser.Object {
			itemErr = errors.New(errors.ErrorTypeData, "list item is not an object")
			return
		}
		id, err := jsonparser.GetString(value, "id")
		if err != nil || id == "" {
			itemErr = errors.New(errors.ErrorTypeData, "list item has no id")
			return
		}
		item := Item{ID: id}
		item.Type, _ = jsonparser.GetString(value, "type")
		item.Name, _ = jsonparser.GetString(value, "name")
		item.Href, _ = jsonparser.GetString(value, "href")
		page.Items = append(page.Items, item)
	})
	if itemErr != nil {
		return nil, itemErr.WithDetail("endpoint", endpoint)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to parse items").
			WithDetail("endpoint", endpoint)
	}

	page.NextPageToken = nextPageToken(body)
	return page, nil
}

func parseRowsPage(body []byte) (*Page, error) {
	if !json.Valid(body) {
		return nil, errors.New(errors.ErrorTypeData, "response is not valid JSON").
			WithDetail("endpoint", EndpointRows)
	}
	return &Page{Raw: body, NextPageToken: nextPageToken(body)}, nil
}

func nextPageToken(body []byte) string {
	token, err := jsonparser.GetString(body, "nextPageToken")
	if err != nil {
		return ""
	}
	return token
}

func errorWithIDs(err error, docID, tableID string) error {
	var e *errors.Error
	if !errors.As(err, &e) {
		return err
	}
	e.WithDetail("doc_id", docID)
	if tableID != "" {
		e.WithDetail("table_id", tableID)
	}
	return e
}
