package store

import (
	"context"
	"sort"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"github.com/GregMSThompson/expense-backend/internal/errs"
	"github.com/GregMSThompson/expense-backend/internal/models"
)

type categoryStore struct {
	client *firestore.Client
}

func NewCategoryStore(client *firestore.Client) *categoryStore {
	return &categoryStore{client: client}
}

func (s *categoryStore) collection() *firestore.CollectionRef {
	return s.client.Collection("categories")
}

// List returns categories ordered by name, optionally restricted to one type.
func (s *categoryStore) List(ctx context.Context, typ *models.TransactionType) ([]models.Category, error) {
	query := s.collection().Query
	if typ != nil {
		query = query.Where("type", "==", string(*typ))
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var out []models.Category
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errs.NewDatabaseError("query", "failed to list categories", err)
		}
		var c models.Category
		if err := doc.DataTo(&c); err != nil {
			return nil, errs.NewDatabaseError("read", "failed to parse category data", err)
		}
		if c.CategoryID == "" {
			c.CategoryID = doc.Ref.ID
		}
		out = append(out, c)
	}

	// sorted here rather than in the query to avoid a composite index
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *categoryStore) Create(ctx context.Context, c *models.Category) error {
	if _, err := s.collection().Doc(c.CategoryID).Create(ctx, c); err != nil {
		return dbError("create", "category", err)
	}
	return nil
}

func (s *categoryStore) CreateMany(ctx context.Context, cats []models.Category) error {
	if len(cats) == 0 {
		return nil
	}

	bw := s.client.BulkWriter(ctx)
	jobs := make([]*firestore.BulkWriterJob, 0, len(cats))
	for _, c := range cats {
		job, err := bw.Create(s.collection().Doc(c.CategoryID), c)
		if err != nil {
			bw.End()
			return errs.NewDatabaseError("create", "failed to queue category", err)
		}
		jobs = append(jobs, job)
	}

	bw.End()
	if err := bulkResults(jobs); err != nil {
		return dbError("create", "category", err)
	}
	return nil
}
