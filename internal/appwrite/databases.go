package appwrite

import (
	"context"
	"net/http"
	"net/url"

	"github.com/tidwall/gjson"
)

// Document is one database document. Attributes are read through Get.
type Document struct {
	ID           string
	CollectionID string
	CreatedAt    string
	Raw          []byte
}

// Get returns the value at path, e.g. "name" or "gallery.0.image".
func (d Document) Get(path string) gjson.Result {
	return gjson.GetBytes(d.Raw, path)
}

func documentFrom(r gjson.Result) Document {
	return Document{
		ID:           r.Get("$id").String(),
		CollectionID: r.Get("$collectionId").String(),
		CreatedAt:    r.Get("$createdAt").String(),
		Raw:          []byte(r.Raw),
	}
}

// ListDocuments lists documents in a collection matching queries, in query order.
func (c *Client) ListDocuments(ctx context.Context, databaseID, collectionID string, queries []Query) ([]Document, error) {
	params := url.Values{}
	for _, q := range queries {
		params.Add("queries[]", string(q))
	}
	path := "/databases/" + url.PathEscape(databaseID) + "/collections/" + url.PathEscape(collectionID) + "/documents"
	data, _, err := c.do(ctx, http.MethodGet, path, params, nil)
	if err != nil {
		return nil, err
	}
	results := gjson.GetBytes(data, "documents").Array()
	docs := make([]Document, 0, len(results))
	for _, r := range results {
		docs = append(docs, documentFrom(r))
	}
	return docs, nil
}

// GetDocument fetches a single document by id.
func (c *Client) GetDocument(ctx context.Context, databaseID, collectionID, documentID string) (Document, error) {
	path := "/databases/" + url.PathEscape(databaseID) + "/collections/" + url.PathEscape(collectionID) + "/documents/" + url.PathEscape(documentID)
	data, _, err := c.do(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return Document{}, err
	}
	return documentFrom(gjson.ParseBytes(data)), nil
}
