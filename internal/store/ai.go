package store

import (
	"context"
	"slices"

	"cloud.google.com/go/firestore"

	"github.com/GregMSThompson/expense-backend/internal/errs"
	"github.com/GregMSThompson/expense-backend/internal/models"
)

// aiStore keeps assistant sessions under users/{uid}/ai_sessions/{id}/messages.
// Expiry is stamped by the caller; a Firestore TTL policy on expiresAt prunes them.
type aiStore struct {
	client *firestore.Client
}

func NewAIStore(client *firestore.Client) *aiStore {
	return &aiStore{client: client}
}

func (s *aiStore) messages(uid, sessionID string) *firestore.CollectionRef {
	return userDoc(s.client, uid).Collection("ai_sessions").Doc(sessionID).Collection("messages")
}

func (s *aiStore) SaveMessage(ctx context.Context, uid, sessionID string, msg models.AIMessage) error {
	if _, _, err := s.messages(uid, sessionID).Add(ctx, msg); err != nil {
		return errs.NewDatabaseError("create", "failed to save AI message", err)
	}
	return nil
}

// ListMessages returns the newest limit messages of a session, oldest first.
func (s *aiStore) ListMessages(ctx context.Context, uid, sessionID string, limit int) ([]models.AIMessage, error) {
	q := s.messages(uid, sessionID).OrderBy("createdAt", firestore.Desc)
	if limit > 0 {
		q = q.Limit(limit)
	}

	docs, err := q.Documents(ctx).GetAll()
	if err != nil {
		return nil, errs.NewDatabaseError("read", "failed to list AI messages", err)
	}

	out := make([]models.AIMessage, 0, len(docs))
	for _, doc := range docs {
		var msg models.AIMessage
		if err := doc.DataTo(&msg); err != nil {
			return nil, errs.NewDatabaseError("read", "failed to decode AI message "+doc.Ref.ID, err)
		}
		out = append(out, msg)
	}
	slices.Reverse(out)
	return out, nil
}
