package store

import (
	"context"
	"strings"

	"cloud.google.com/go/firestore"

	"github.com/GregMSThompson/expense-backend/internal/errs"
	"github.com/GregMSThompson/expense-backend/internal/models"
)

type userStore struct {
	Client     *firestore.Client
	Collection *firestore.CollectionRef
	Emails     *firestore.CollectionRef
}

func NewUserStore(client *firestore.Client) *userStore {
	return &userStore{
		Client:     client,
		Collection: client.Collection("users"),
		Emails:     client.Collection("user_emails"),
	}
}

// emailKey normalises an address for the uniqueness index.
func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateUser writes the profile and reserves its email in one transaction,
// so two accounts can never share an address.
func (us *userStore) CreateUser(ctx context.Context, user *models.User) error {
	err := us.Client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if key := emailKey(user.Email); key != "" {
			if err := tx.Create(us.Emails.Doc(key), map[string]interface{}{"uid": user.UID}); err != nil {
				return err
			}
		}
		return tx.Create(us.Collection.Doc(user.UID), user)
	})
	if err != nil {
		return dbError("create", "user", err)
	}
	return nil
}

func (us *userStore) UpdateUser(ctx context.Context, user *models.User) error {
	if _, err := us.Collection.Doc(user.UID).Set(ctx, user); err != nil {
		return dbError("update", "user", err)
	}
	return nil
}

func (us *userStore) GetUser(ctx context.Context, uid string) (*models.User, error) {
	var user models.User

	doc, err := us.Collection.Doc(uid).Get(ctx)
	if err != nil {
		return nil, dbError("read", "user", err)
	}
	if err := doc.DataTo(&user); err != nil {
		return nil, errs.NewDatabaseError("read", "failed to parse user data", err)
	}

	return &user, nil
}

func (us *userStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	key := emailKey(email)
	if key == "" {
		return nil, errs.NewNotFoundError("user not found")
	}

	doc, err := us.Emails.Doc(key).Get(ctx)
	if err != nil {
		return nil, dbError("read", "user", err)
	}
	uid, _ := doc.Data()["uid"].(string)
	if uid == "" {
		return nil, errs.NewNotFoundError("user not found")
	}
	return us.GetUser(ctx, uid)
}
