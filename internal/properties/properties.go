// Package properties reads property listings from the database. Every failure is logged
// and reported as an empty result.
package properties

import (
	"context"
	"strings"

	"github.com/anurestate/restate/internal/appwrite"
	"github.com/anurestate/restate/internal/config"
	"github.com/anurestate/restate/internal/logging"
	"golang.org/x/sync/errgroup"
)

// AllFilter disables the type filter.
const AllFilter = "All"

// LatestLimit is how many listings Latest returns.
const LatestLimit = 5

// Documents is the part of the backend client the service needs.
type Documents interface {
	ListDocuments(ctx context.Context, databaseID, collectionID string, queries []appwrite.Query) ([]appwrite.Document, error)
	GetDocument(ctx context.Context, databaseID, collectionID, documentID string) (appwrite.Document, error)
}

// Property is one listing.
type Property struct {
	ID        string
	Name      string
	Type      string
	Address   string
	Price     float64
	Rating    float64
	Image     string
	CreatedAt string
	Raw       appwrite.Document
}

// Filter selects listings for List.
type Filter struct {
	// Filter is a property type, or "" / AllFilter for every type.
	Filter string
	// Query is a free-text search over name, address and type.
	Query string
	// Limit caps the result; zero means the backend default.
	Limit int
}

// Service queries the properties collection.
type Service struct {
	docs         Documents
	databaseID   string
	collectionID string
}

// NewService creates a service for the database and collection named in cfg.
func NewService(docs Documents, cfg *config.Config) *Service {
	return &Service{docs: docs, databaseID: cfg.DatabaseID, collectionID: cfg.Collections.Properties}
}

// BuildQueries returns the query list for f: newest first, then the optional type filter,
// search and limit.
func BuildQueries(f Filter) []appwrite.Query {
	queries := []appwrite.Query{appwrite.OrderDesc("$createdAt")}
	if f.Filter != "" && f.Filter != AllFilter {
		queries = append(queries, appwrite.Equal("type", f.Filter))
	}
	if f.Query != "" {
		queries = append(queries, appwrite.Or(
			appwrite.Search("name", f.Query),
			appwrite.Search("address", f.Query),
			appwrite.Search("type", f.Query),
		))
	}
	if f.Limit > 0 {
		queries = append(queries, appwrite.Limit(f.Limit))
	}
	return queries
}

// Latest returns the oldest LatestLimit listings, in creation order.
func (s *Service) Latest(ctx context.Context) []Property {
	return s.list(ctx, "latest", []appwrite.Query{appwrite.OrderAsc("$createdAt"), appwrite.Limit(LatestLimit)})
}

// List returns the listings matching f.
func (s *Service) List(ctx context.Context, f Filter) []Property {
	return s.list(ctx, "list", BuildQueries(f))
}

func (s *Service) list(ctx context.Context, op string, queries []appwrite.Query) []Property {
	docs, err := s.docs.ListDocuments(ctx, s.databaseID, s.collectionID, queries)
	if err != nil {
		logging.Entry(ctx).WithField("kind", appwrite.KindOf(err)).WithError(err).Errorf("properties: %s failed", op)
		return []Property{}
	}
	out := make([]Property, 0, len(docs))
	for _, doc := range docs {
		out = append(out, FromDocument(doc))
	}
	return out
}

// Get returns the listing with id, or nil when it cannot be loaded.
func (s *Service) Get(ctx context.Context, id string) *Property {
	if strings.TrimSpace(id) == "" {
		return nil
	}
	doc, err := s.docs.GetDocument(ctx, s.databaseID, s.collectionID, id)
	if err != nil {
		logging.Entry(ctx).WithField("kind", appwrite.KindOf(err)).WithError(err).Errorf("properties: get %s failed", id)
		return nil
	}
	p := FromDocument(doc)
	return &p
}

// Home holds the two lists on the home screen.
type Home struct {
	Featured    []Property
	Recommended []Property
}

// Home loads the featured and recommended lists concurrently.
func (s *Service) Home(ctx context.Context, f Filter) Home {
	var home Home
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		home.Featured = s.Latest(gctx)
		return nil
	})
	g.Go(func() error {
		home.Recommended = s.List(gctx, f)
		return nil
	})
	_ = g.Wait()
	return home
}

// FromDocument maps a document to a Property.
func FromDocument(doc appwrite.Document) Property {
	return Property{
		ID:        doc.ID,
		Name:      doc.Get("name").String(),
		Type:      doc.Get("type").String(),
		Address:   doc.Get("address").String(),
		Price:     doc.Get("price").Float(),
		Rating:    doc.Get("rating").Float(),
		Image:     doc.Get("image").String(),
		CreatedAt: doc.CreatedAt,
		Raw:       doc,
	}
}
